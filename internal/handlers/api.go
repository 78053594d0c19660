// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the JSON API of the category picker: the
// category tree and its lifecycle, the per-entry selection fields, and the
// reading-time helper.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"catpicker/internal/models"
	"catpicker/internal/selection"
	"catpicker/internal/store"
)

// Categories is the category store surface the API writes through.
type Categories interface {
	Create(ctx context.Context, in store.CategoryInput) (*models.CategoryRecord, error)
	Publish(ctx context.Context, id string) error
	Archive(ctx context.Context, id string) error
	Unarchive(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// TreeLoader supplies the category forest.
type TreeLoader interface {
	Refresh(ctx context.Context) ([]*models.TreeNode, error)
	Snapshot() ([]*models.TreeNode, bool)
}

// Invalidator drops cached record lists after a write.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// Selections hands out the attached selection store for a field.
type Selections interface {
	Store(ctx context.Context, entryID, fieldID string) (*selection.Store, error)
}

// API groups the JSON handlers and their dependencies.
type API struct {
	categories     Categories
	loader         TreeLoader
	cache          Invalidator
	selections     Selections
	openField      selection.FieldFactory
	locale         string
	wordsPerMinute int
}

// Deps are the collaborators of an API. Cache may be nil.
type Deps struct {
	Categories     Categories
	Loader         TreeLoader
	Cache          Invalidator
	Selections     Selections
	OpenField      selection.FieldFactory
	Locale         string
	WordsPerMinute int
}

// NewAPI creates the API handler group.
func NewAPI(d Deps) *API {
	return &API{
		categories:     d.Categories,
		loader:         d.Loader,
		cache:          d.Cache,
		selections:     d.Selections,
		openField:      d.OpenField,
		locale:         d.Locale,
		wordsPerMinute: d.WordsPerMinute,
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("encode response", "error", err)
	}
}

// writeError writes {"error": msg}.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON reads a size-limited JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestLen))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	return nil
}
