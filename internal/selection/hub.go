// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package selection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrHubClosed is returned by Hub.Store after Close.
var ErrHubClosed = errors.New("selection hub closed")

// FieldFactory opens the field identified by an entry and field id.
type FieldFactory func(entryID, fieldID string) Field

type fieldKey struct {
	entryID string
	fieldID string
}

// Hub keeps one attached Store per (entry, field) pair.
type Hub struct {
	open FieldFactory

	mu     sync.Mutex
	stores map[fieldKey]*Store
	closed bool
}

// NewHub returns a hub that opens fields with open.
func NewHub(open FieldFactory) *Hub {
	return &Hub{open: open, stores: make(map[fieldKey]*Store)}
}

// Store returns the attached store for the field, attaching it on first use.
// Attaching reads and subscribes to the field without holding the hub lock,
// so a slow field does not hold up the others. When two callers attach the
// same field at once, the first to finish wins and the other detaches.
func (h *Hub) Store(ctx context.Context, entryID, fieldID string) (*Store, error) {
	key := fieldKey{entryID, fieldID}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}
	if s, ok := h.stores[key]; ok {
		h.mu.Unlock()
		return s, nil
	}
	h.mu.Unlock()

	s := NewStore(h.open(entryID, fieldID))
	if _, err := s.Attach(ctx); err != nil {
		return nil, fmt.Errorf("attach %s/%s: %w", entryID, fieldID, err)
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		s.Detach()
		return nil, ErrHubClosed
	}
	if existing, ok := h.stores[key]; ok {
		h.mu.Unlock()
		s.Detach()
		return existing, nil
	}
	h.stores[key] = s
	h.mu.Unlock()

	slog.Debug("selection store attached", "entry", entryID, "field", fieldID)
	return s, nil
}

// Len returns the number of attached stores.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.stores)
}

// Close detaches every store. Later calls to Store fail with ErrHubClosed.
func (h *Hub) Close() {
	h.mu.Lock()
	stores := h.stores
	h.stores = make(map[fieldKey]*Store)
	h.closed = true
	h.mu.Unlock()

	for _, s := range stores {
		s.Detach()
	}
	slog.Info("selection hub closed", "stores", len(stores))
}
