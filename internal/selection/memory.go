// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package selection

import (
	"context"
	"slices"
	"sync"

	"catpicker/internal/models"
)

// MemoryField is an in-process Field. Subscribers are notified
// synchronously, after the value is stored, in registration order.
type MemoryField struct {
	mu       sync.Mutex
	value    []models.Link
	subs     map[int]func([]models.Link)
	nextID   int
	setErr   error
	getErr   error
	setCalls int
}

// NewMemoryField returns a field holding initial. A nil initial value
// behaves like an unset field.
func NewMemoryField(initial []models.Link) *MemoryField {
	return &MemoryField{value: slices.Clone(initial), subs: make(map[int]func([]models.Link))}
}

// GetValue implements Field.
func (f *MemoryField) GetValue(context.Context) ([]models.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	return slices.Clone(f.value), nil
}

// SetValue implements Field. It stores value and notifies subscribers,
// or returns the error configured with FailWrites.
func (f *MemoryField) SetValue(_ context.Context, value []models.Link) error {
	f.mu.Lock()
	f.setCalls++
	if f.setErr != nil {
		err := f.setErr
		f.mu.Unlock()
		return err
	}
	f.value = slices.Clone(value)
	subs := f.subscribers()
	f.mu.Unlock()

	for _, fn := range subs {
		fn(slices.Clone(value))
	}
	return nil
}

// OnValueChanged implements Field.
func (f *MemoryField) OnValueChanged(fn func([]models.Link)) func() {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = fn
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}
}

// FailWrites makes every later SetValue return err. Pass nil to recover.
func (f *MemoryField) FailWrites(err error) {
	f.mu.Lock()
	f.setErr = err
	f.mu.Unlock()
}

// FailReads makes every later GetValue return err. Pass nil to recover.
func (f *MemoryField) FailReads(err error) {
	f.mu.Lock()
	f.getErr = err
	f.mu.Unlock()
}

// Subscribers returns the number of live subscriptions.
func (f *MemoryField) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Writes returns how many times SetValue was called.
func (f *MemoryField) Writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setCalls
}

// subscribers returns the callbacks in registration order. Callers hold f.mu.
func (f *MemoryField) subscribers() []func([]models.Link) {
	ids := make([]int, 0, len(f.subs))
	for id := range f.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]func([]models.Link), 0, len(ids))
	for _, id := range ids {
		out = append(out, f.subs[id])
	}
	return out
}
