// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"catpicker/internal/loader"
	"catpicker/internal/models"
	"catpicker/internal/status"
	"catpicker/internal/store"
	"catpicker/internal/tree"
)

// treeResponse is the body of GET /api/categories.
type treeResponse struct {
	Loading bool               `json:"loading"`
	Count   int                `json:"count"`
	Tree    []*models.TreeNode `json:"tree"`
}

// categoryResponse is the body returned after a category write.
type categoryResponse struct {
	ID     string        `json:"id"`
	Title  string        `json:"title"`
	Slug   string        `json:"slug"`
	Parent string        `json:"parent_id,omitempty"`
	Status models.Status `json:"status"`
	Badge  string        `json:"badge"`
}

// Tree returns the category forest filtered by the optional q parameter.
func (a *API) Tree(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	if msg := validateSearch(term); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	forest, loading := a.loader.Snapshot()
	view := tree.Filter(forest, term)
	if view == nil {
		view = []*models.TreeNode{}
	}
	writeJSON(w, http.StatusOK, treeResponse{
		Loading: loading,
		Count:   tree.Count(view),
		Tree:    view,
	})
}

// Reload refetches the records and rebuilds the forest.
func (a *API) Reload(w http.ResponseWriter, r *http.Request) {
	forest, err := a.loader.Refresh(r.Context())
	if err != nil {
		if r.Context().Err() != nil {
			// Client went away; the fetch still finishes for everyone else.
			return
		}
		if errors.Is(err, loader.ErrClosed) {
			writeError(w, http.StatusServiceUnavailable, "Service is shutting down.")
			return
		}
		writeError(w, http.StatusBadGateway, loader.FailedMessage)
		return
	}
	writeJSON(w, http.StatusOK, treeResponse{Count: tree.Count(forest), Tree: forest})
}

// CreateCategory creates a draft category.
func (a *API) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in store.CategoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Slug = strings.TrimSpace(in.Slug)
	if msg := validateCategory(in.Title, in.Slug, in.ParentID); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}
	in.ID = ""

	rec, err := a.categories.Create(r.Context(), in)
	if err != nil {
		slog.Error("create category failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not create category.")
		return
	}
	a.afterWrite(r.Context())

	writeJSON(w, http.StatusCreated, a.toResponse(rec))
}

// PublishCategory publishes a category.
func (a *API) PublishCategory(w http.ResponseWriter, r *http.Request) {
	a.lifecycle(w, r, "publish", a.categories.Publish)
}

// ArchiveCategory archives a category.
func (a *API) ArchiveCategory(w http.ResponseWriter, r *http.Request) {
	a.lifecycle(w, r, "archive", a.categories.Archive)
}

// UnarchiveCategory returns an archived category to draft.
func (a *API) UnarchiveCategory(w http.ResponseWriter, r *http.Request) {
	a.lifecycle(w, r, "unarchive", a.categories.Unarchive)
}

// DeleteCategory deletes a category. Its children become roots.
func (a *API) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	a.lifecycle(w, r, "delete", a.categories.Delete)
}

func (a *API) lifecycle(w http.ResponseWriter, r *http.Request, action string, fn func(context.Context, string) error) {
	id := chi.URLParam(r, "id")
	if msg := validateID(id); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if err := fn(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Category not found.")
			return
		}
		slog.Error("category "+action+" failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Could not "+action+" category.")
		return
	}
	a.afterWrite(r.Context())

	w.WriteHeader(http.StatusNoContent)
}

// afterWrite drops cached record lists and rebuilds the forest from a
// fetch that starts after the write. It outlives the request so a client
// hanging up cannot leave the cache or forest behind the database. A
// failed rebuild is already reported by the loader.
func (a *API) afterWrite(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	if a.cache != nil {
		a.cache.Invalidate(ctx)
	}
	if _, err := a.loader.Refresh(ctx); err != nil {
		slog.Warn("reload after write failed", "error", err)
	}
}

func (a *API) toResponse(rec *models.CategoryRecord) categoryResponse {
	locale := a.locale
	st := status.ForRecord(rec)
	return categoryResponse{
		ID:     rec.Sys.ID,
		Title:  rec.DisplayTitle(locale),
		Slug:   rec.Slug(locale),
		Parent: rec.ParentID(locale),
		Status: st,
		Badge:  st.Badge(),
	}
}
