// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for the API handlers.
// Categories live in an in-memory store and selection fields in memory, so
// these tests need neither PostgreSQL nor Valkey.
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"catpicker/internal/loader"
	"catpicker/internal/models"
	"catpicker/internal/selection"
	"catpicker/internal/store"
)

const testLocale = "en-US"

// memCategories is an in-memory category store that also serves as the
// loader's record source.
type memCategories struct {
	mu      sync.Mutex
	records []models.CategoryRecord
	nextID  int
	failGet error
}

func (m *memCategories) add(id, parent, title string) {
	r := models.CategoryRecord{
		Sys: models.CategorySys{ID: id, CreatedAt: time.Now()},
		Fields: models.CategoryFields{
			Title: models.LocalizedString{testLocale: title},
			Slug:  models.LocalizedString{testLocale: strings.ToLower(title)},
		},
	}
	if parent != "" {
		r.Fields.ParentCategory = map[string]models.Link{testLocale: models.NewEntryLink(parent)}
	}
	m.mu.Lock()
	m.records = append(m.records, r)
	m.mu.Unlock()
}

func (m *memCategories) GetMany(context.Context, models.RecordQuery) ([]models.CategoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return nil, m.failGet
	}
	out := make([]models.CategoryRecord, len(m.records))
	copy(out, m.records)
	return out, nil
}

func (m *memCategories) Create(_ context.Context, in store.CategoryInput) (*models.CategoryRecord, error) {
	m.mu.Lock()
	m.nextID++
	id := "new-" + strconv.Itoa(m.nextID)
	m.mu.Unlock()
	m.add(id, in.ParentID, in.Title)
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.records[len(m.records)-1]
	return &r, nil
}

func (m *memCategories) find(id string) *models.CategoryRecord {
	for i := range m.records {
		if m.records[i].Sys.ID == id {
			return &m.records[i]
		}
	}
	return nil
}

func (m *memCategories) set(id string, fn func(r *models.CategoryRecord)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.find(id)
	if r == nil {
		return store.ErrNotFound
	}
	fn(r)
	return nil
}

func (m *memCategories) Publish(_ context.Context, id string) error {
	return m.set(id, func(r *models.CategoryRecord) {
		now := time.Now()
		r.Sys.PublishedAt, r.Sys.UpdatedAt, r.Sys.ArchivedAt = &now, &now, nil
	})
}

func (m *memCategories) Archive(_ context.Context, id string) error {
	return m.set(id, func(r *models.CategoryRecord) {
		now := time.Now()
		r.Sys.ArchivedAt, r.Sys.PublishedAt = &now, nil
	})
}

func (m *memCategories) Unarchive(_ context.Context, id string) error {
	return m.set(id, func(r *models.CategoryRecord) { r.Sys.ArchivedAt = nil })
}

func (m *memCategories) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.records {
		if m.records[i].Sys.ID == id {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) Invalidate(context.Context) { c.calls++ }

// testEnv holds the API and its in-memory collaborators.
type testEnv struct {
	Categories *memCategories
	Loader     *loader.Loader
	Cache      *countingInvalidator
	Hub        *selection.Hub
	Fields     map[string]*selection.MemoryField
	API        *API
	Router     http.Handler
}

// newTestEnv creates an API over a small seeded tree:
//
//	Books
//	  Fiction
//	  Science
//	Music
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cats := &memCategories{}
	cats.add("books", "", "Books")
	cats.add("fiction", "books", "Fiction")
	cats.add("science", "books", "Science")
	cats.add("music", "", "Music")

	l := loader.New(cats, models.CategoryQuery("", 0), testLocale, nil)
	t.Cleanup(l.Close)
	if _, err := l.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	var mu sync.Mutex
	fields := map[string]*selection.MemoryField{}
	open := func(entryID, fieldID string) selection.Field {
		mu.Lock()
		defer mu.Unlock()
		key := entryID + "/" + fieldID
		f, ok := fields[key]
		if !ok {
			f = selection.NewMemoryField(nil)
			fields[key] = f
		}
		return f
	}
	hub := selection.NewHub(open)
	t.Cleanup(hub.Close)

	inv := &countingInvalidator{}
	api := NewAPI(Deps{
		Categories:     cats,
		Loader:         l,
		Cache:          inv,
		Selections:     hub,
		OpenField:      open,
		Locale:         testLocale,
		WordsPerMinute: 200,
	})

	return &testEnv{
		Categories: cats,
		Loader:     l,
		Cache:      inv,
		Hub:        hub,
		Fields:     fields,
		API:        api,
		Router:     testRouter(api),
	}
}

// testRouter mounts the handlers the way the server does.
func testRouter(api *API) http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/categories", api.Tree)
		r.Post("/categories", api.CreateCategory)
		r.Post("/categories/reload", api.Reload)
		r.Post("/categories/{id}/publish", api.PublishCategory)
		r.Post("/categories/{id}/archive", api.ArchiveCategory)
		r.Post("/categories/{id}/unarchive", api.UnarchiveCategory)
		r.Delete("/categories/{id}", api.DeleteCategory)
		r.Get("/entries/{entryID}/fields/{fieldID}", api.GetField)
		r.Put("/entries/{entryID}/fields/{fieldID}", api.PutField)
		r.Post("/entries/{entryID}/fields/{fieldID}/toggle/{categoryID}", api.ToggleCategory)
		r.Post("/reading-time", api.ReadingTime)
	})
	return r
}

// do sends a request through the router and returns the recorder.
func (env *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	return env.doCtx(t, context.Background(), method, path, body)
}

// doCtx is do with a request context, for clients that hang up.
func (env *testEnv) doCtx(t *testing.T, ctx context.Context, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequestWithContext(ctx, method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return v
}
