// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package selection keeps the set of checked category ids in sync with a
// reference-list field owned by someone else (the entry editor, a Valkey
// key, ...). The field is authoritative: every change it reports replaces
// the local set, and every local toggle is written straight back to it.
package selection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"catpicker/internal/models"
)

var (
	// ErrDetached is returned when a store is used after Detach.
	ErrDetached = errors.New("selection store detached")

	// ErrAlreadyAttached is returned when Attach is called twice.
	ErrAlreadyAttached = errors.New("selection store already attached")

	// ErrSyncFailed wraps a rejected write to the field.
	ErrSyncFailed = errors.New("selection sync failed")
)

// Field is the externally owned reference-list value.
type Field interface {
	// GetValue returns the current value. A missing value is an empty list.
	GetValue(ctx context.Context) ([]models.Link, error)
	// SetValue replaces the value.
	SetValue(ctx context.Context, value []models.Link) error
	// OnValueChanged registers fn for every later change and returns the
	// function that cancels the registration.
	OnValueChanged(fn func(value []models.Link)) (detach func())
}

// State tells whether the local set matches the field.
type State int

const (
	// Synced means the field has confirmed the local set.
	Synced State = iota
	// Dirty means a toggle has been written and is awaiting confirmation.
	Dirty
)

func (s State) String() string {
	if s == Dirty {
		return "dirty"
	}
	return "synced"
}

// Store mirrors one field's reference list as a set of ids. Insertion
// order is kept: toggling on appends, toggling off removes in place.
type Store struct {
	field Field

	// writeMu serializes toggles so writes reach the field in order.
	writeMu sync.Mutex

	mu       sync.Mutex
	ids      []string
	state    State
	version  uint64 // bumped on every applied field snapshot
	attached bool
	detached bool
	detach   func()
}

// NewStore returns a store for field. Call Attach before use.
func NewStore(field Field) *Store {
	return &Store{field: field, ids: []string{}}
}

// Attach subscribes to field changes and seeds the set from the current
// value. A change notification that arrives while the initial read is in
// flight wins over the read.
func (s *Store) Attach(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	if s.detached {
		s.mu.Unlock()
		return nil, ErrDetached
	}
	if s.attached {
		s.mu.Unlock()
		return nil, ErrAlreadyAttached
	}
	s.attached = true
	s.mu.Unlock()

	detach := s.field.OnValueChanged(func(value []models.Link) {
		s.OnExternalChange(value)
	})

	s.mu.Lock()
	s.detach = detach
	seen := s.version
	s.mu.Unlock()

	value, err := s.field.GetValue(ctx)
	if err != nil {
		s.Detach()
		return nil, fmt.Errorf("read field value: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.detached && s.version == seen {
		s.apply(value)
	}
	return slices.Clone(s.ids), nil
}

// Initialize replaces the set with the ids in value. A nil value is an
// empty selection.
func (s *Store) Initialize(value []models.Link) []string {
	return s.OnExternalChange(value)
}

// OnExternalChange replaces the whole set with the ids in value. Local
// toggles that the field has not reflected are discarded. After Detach the
// call is ignored.
func (s *Store) OnExternalChange(value []models.Link) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detached {
		return slices.Clone(s.ids)
	}
	s.apply(value)
	return slices.Clone(s.ids)
}

// apply installs a field snapshot. Callers hold s.mu.
func (s *Store) apply(value []models.Link) {
	s.ids = dedupe(models.LinkIDs(value))
	s.version++
}

// Toggle adds id if absent or removes it if present, then writes the new
// reference list to the field before returning.
//
// If the field rejects the write the toggle is rolled back, unless a field
// change arrived meanwhile, and the error wraps ErrSyncFailed.
func (s *Store) Toggle(ctx context.Context, id string) ([]string, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if s.detached {
		s.mu.Unlock()
		return nil, ErrDetached
	}
	prev := s.ids
	next := toggled(prev, id)
	s.ids = next
	s.state = Dirty
	seen := s.version
	s.mu.Unlock()

	err := s.field.SetValue(ctx, models.EntryLinks(next))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Synced
	if err != nil {
		if s.version == seen && !s.detached {
			s.ids = prev
		}
		slog.Warn("selection write rejected", "id", id, "error", err)
		return slices.Clone(s.ids), fmt.Errorf("%w: %w", ErrSyncFailed, err)
	}
	return slices.Clone(s.ids), nil
}

// Selected returns a copy of the current set in insertion order.
func (s *Store) Selected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.ids)
}

// Contains reports whether id is selected.
func (s *Store) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.ids, id)
}

// Value returns the current set in the field's reference-list form.
func (s *Store) Value() []models.Link {
	return models.EntryLinks(s.Selected())
}

// State returns whether a toggle is awaiting confirmation.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Detach stops reacting to field changes. The subscription is cancelled
// exactly once; later calls do nothing.
func (s *Store) Detach() {
	s.mu.Lock()
	if s.detached {
		s.mu.Unlock()
		return
	}
	s.detached = true
	detach := s.detach
	s.detach = nil
	s.mu.Unlock()

	if detach != nil {
		detach()
	}
}

// toggled returns a new slice with id removed if present, else appended.
func toggled(ids []string, id string) []string {
	if slices.Contains(ids, id) {
		out := make([]string, 0, len(ids)-1)
		for _, v := range ids {
			if v != id {
				out = append(out, v)
			}
		}
		return out
	}
	out := make([]string, 0, len(ids)+1)
	out = append(out, ids...)
	return append(out, id)
}

// dedupe drops repeated ids, keeping the first occurrence.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
