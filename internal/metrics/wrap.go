// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package metrics

import (
	"context"
	"time"

	"catpicker/internal/models"
	"catpicker/internal/selection"
)

// RecordSource is the fetch boundary that ObserveSource wraps.
type RecordSource interface {
	GetMany(ctx context.Context, q models.RecordQuery) ([]models.CategoryRecord, error)
}

// ObservedSource counts and times the fetches of the source it wraps.
type ObservedSource struct {
	src RecordSource
	m   *Metrics
}

// ObserveSource wraps src.
func (m *Metrics) ObserveSource(src RecordSource) *ObservedSource {
	return &ObservedSource{src: src, m: m}
}

func (s *ObservedSource) GetMany(ctx context.Context, q models.RecordQuery) ([]models.CategoryRecord, error) {
	start := time.Now()
	records, err := s.src.GetMany(ctx, q)
	s.m.fetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.m.fetches.WithLabelValues(resultFailed).Inc()
		return nil, err
	}
	s.m.fetches.WithLabelValues(resultOK).Inc()
	s.m.fetchRecords.Observe(float64(len(records)))
	return records, nil
}

// ObservedField counts writes to and notifications from the field it wraps.
type ObservedField struct {
	selection.Field
	m *Metrics
}

// ObserveField wraps f.
func (m *Metrics) ObserveField(f selection.Field) *ObservedField {
	return &ObservedField{Field: f, m: m}
}

// ObserveFields wraps every field open produces.
func (m *Metrics) ObserveFields(open selection.FieldFactory) selection.FieldFactory {
	return func(entryID, fieldID string) selection.Field {
		return m.ObserveField(open(entryID, fieldID))
	}
}

func (f *ObservedField) SetValue(ctx context.Context, value []models.Link) error {
	err := f.Field.SetValue(ctx, value)
	if err != nil {
		f.m.fieldWrites.WithLabelValues(resultRejected).Inc()
		return err
	}
	f.m.fieldWrites.WithLabelValues(resultOK).Inc()
	return nil
}

func (f *ObservedField) OnValueChanged(fn func([]models.Link)) func() {
	return f.Field.OnValueChanged(func(v []models.Link) {
		f.m.fieldChanges.Inc()
		fn(v)
	})
}
