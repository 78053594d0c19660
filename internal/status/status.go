// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package status derives the lifecycle status of a category from its
// archive/publish/update timestamps.
package status

import (
	"time"

	"catpicker/internal/models"
)

// Resolve returns the status for the given timestamps. The checks run in a
// fixed order and the first match wins:
//
//	archived   archivedAt is set (overrides everything else)
//	draft      publishedAt is nil
//	changed    updatedAt is set and differs from publishedAt
//	published  updatedAt is nil or equal to publishedAt
//
// Resolve never returns StatusDeleted; StatusNew is the fallback.
func Resolve(archivedAt, publishedAt, updatedAt *time.Time) models.Status {
	switch {
	case archivedAt != nil:
		return models.StatusArchived
	case publishedAt == nil:
		return models.StatusDraft
	case updatedAt != nil && !updatedAt.Equal(*publishedAt):
		return models.StatusChanged
	case publishedAt != nil:
		return models.StatusPublished
	}
	return models.StatusNew
}

// ForRecord resolves the status from a record's system timestamps.
func ForRecord(r *models.CategoryRecord) models.Status {
	return Resolve(r.Sys.ArchivedAt, r.Sys.PublishedAt, r.Sys.UpdatedAt)
}
