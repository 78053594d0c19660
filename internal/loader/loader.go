// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package loader fetches the flat category record list and keeps the built
// forest that the picker renders. Only the result of the most recent fetch
// is ever installed, and nothing is installed after Close.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"catpicker/internal/models"
	"catpicker/internal/tree"
)

// FailedMessage is the notification shown when a fetch fails.
const FailedMessage = "Failed to load categories."

var (
	// ErrFetchFailed wraps any error from the record source.
	ErrFetchFailed = errors.New("category fetch failed")

	// ErrClosed is returned by Load after Close, and for loads whose
	// result arrived after Close.
	ErrClosed = errors.New("loader closed")
)

// Source is the record fetch boundary.
type Source interface {
	GetMany(ctx context.Context, q models.RecordQuery) ([]models.CategoryRecord, error)
}

// Notifier shows user-visible messages.
type Notifier interface {
	Error(msg string)
}

// LogNotifier reports notifications through slog.
type LogNotifier struct{}

// Error implements Notifier.
func (LogNotifier) Error(msg string) {
	slog.Error(msg)
}

// Loader owns the category forest.
type Loader struct {
	source   Source
	query    models.RecordQuery
	locale   string
	notifier Notifier

	group singleflight.Group

	mu      sync.RWMutex
	forest  []*models.TreeNode
	loading bool
	gen     uint64
	closed  bool
}

// New returns a loader that fetches q from source and reads titles in
// locale. A nil notifier logs instead. The loader reports loading until
// the first Load finishes.
func New(source Source, q models.RecordQuery, locale string, notifier Notifier) *Loader {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Loader{
		source:   source,
		query:    q.Normalize(),
		locale:   locale,
		notifier: notifier,
		forest:   []*models.TreeNode{},
		loading:  true,
	}
}

// Load fetches the records and rebuilds the forest. Overlapping calls share
// one fetch. The result is installed only if no newer Load started and the
// loader is still open.
//
// On failure the forest is emptied, the notifier is told, and the returned
// error wraps ErrFetchFailed. Failed fetches are not retried.
//
// If ctx ends first, Load returns ctx.Err() and leaves the forest alone;
// the fetch it started still completes and is installed as above.
func (l *Loader) Load(ctx context.Context) ([]*models.TreeNode, error) {
	return l.load(ctx, false)
}

// Refresh is Load without joining a fetch that is already in flight, so
// the records it installs were read after the call. Use it after a write.
func (l *Loader) Refresh(ctx context.Context) ([]*models.TreeNode, error) {
	return l.load(ctx, true)
}

type loadResult struct {
	forest []*models.TreeNode
	err    error
}

func (l *Loader) load(ctx context.Context, fresh bool) ([]*models.TreeNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil, ErrClosed
	}
	l.gen++
	gen := l.gen
	l.loading = true
	ch := l.fetch(ctx, fresh)
	l.mu.Unlock()

	done := make(chan loadResult, 1)
	go func() { done <- l.install(gen, <-ch) }()

	select {
	case res := <-done:
		return res.forest, res.err
	case <-ctx.Done():
		slog.Debug("category load abandoned by caller", "error", ctx.Err())
		return nil, ctx.Err()
	}
}

// fetch starts or joins the shared source call. fresh drops any call in
// flight so a new one starts. The call runs without the caller's
// cancellation. Callers hold l.mu.
func (l *Loader) fetch(ctx context.Context, fresh bool) <-chan singleflight.Result {
	key := l.query.Key()
	if fresh {
		l.group.Forget(key)
	}
	fetchCtx := context.WithoutCancel(ctx)
	return l.group.DoChan(key, func() (any, error) {
		return l.source.GetMany(fetchCtx, l.query)
	})
}

// install applies the outcome of generation gen's fetch.
func (l *Loader) install(gen uint64, res singleflight.Result) loadResult {
	var forest []*models.TreeNode
	if res.Err == nil {
		forest = tree.Build(res.Val.([]models.CategoryRecord), l.locale)
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		slog.Debug("category load discarded after close")
		return loadResult{err: ErrClosed}
	}
	current := gen == l.gen
	if current {
		l.loading = false
		if res.Err != nil {
			l.forest = []*models.TreeNode{}
		} else {
			l.forest = forest
		}
	}
	l.mu.Unlock()

	if res.Err != nil {
		if current {
			l.notifier.Error(FailedMessage)
		}
		return loadResult{err: fmt.Errorf("%w: %w", ErrFetchFailed, res.Err)}
	}
	slog.Info("categories loaded", "roots", len(forest), "nodes", tree.Count(forest), "stale", !current)
	return loadResult{forest: forest}
}

// Forest returns the installed forest. Callers must not modify it.
func (l *Loader) Forest() []*models.TreeNode {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.forest
}

// Loading reports whether a fetch is pending.
func (l *Loader) Loading() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loading
}

// Snapshot returns the forest and loading flag together.
func (l *Loader) Snapshot() ([]*models.TreeNode, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.forest, l.loading
}

// Close stops the loader. Results of fetches still in flight are discarded.
func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.loading = false
}
