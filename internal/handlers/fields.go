// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"catpicker/internal/models"
	"catpicker/internal/selection"
)

// fieldResponse is the state of one selection field.
type fieldResponse struct {
	Selected []string      `json:"selected"`
	Value    []models.Link `json:"value"`
	State    string        `json:"state"`
}

func newFieldResponse(s *selection.Store, ids []string) fieldResponse {
	if ids == nil {
		ids = []string{}
	}
	return fieldResponse{
		Selected: ids,
		Value:    models.EntryLinks(ids),
		State:    s.State().String(),
	}
}

// fieldParams reads and validates the entry and field path parameters.
func fieldParams(w http.ResponseWriter, r *http.Request) (entryID, fieldID string, ok bool) {
	entryID = chi.URLParam(r, "entryID")
	fieldID = chi.URLParam(r, "fieldID")
	for _, id := range []string{entryID, fieldID} {
		if msg := validateID(id); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return "", "", false
		}
	}
	return entryID, fieldID, true
}

func (a *API) store(w http.ResponseWriter, r *http.Request) (*selection.Store, bool) {
	entryID, fieldID, ok := fieldParams(w, r)
	if !ok {
		return nil, false
	}
	s, err := a.selections.Store(r.Context(), entryID, fieldID)
	if err != nil {
		if errors.Is(err, selection.ErrHubClosed) {
			writeError(w, http.StatusServiceUnavailable, "Service is shutting down.")
			return nil, false
		}
		slog.Error("open selection field failed", "entry", entryID, "field", fieldID, "error", err)
		writeError(w, http.StatusBadGateway, "Could not read field value.")
		return nil, false
	}
	return s, true
}

// GetField returns the selected category ids of an entry field.
func (a *API) GetField(w http.ResponseWriter, r *http.Request) {
	s, ok := a.store(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newFieldResponse(s, s.Selected()))
}

// ToggleCategory selects or deselects a category in an entry field and
// writes the new value back to the field.
func (a *API) ToggleCategory(w http.ResponseWriter, r *http.Request) {
	categoryID := chi.URLParam(r, "categoryID")
	if msg := validateID(categoryID); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	s, ok := a.store(w, r)
	if !ok {
		return
	}

	ids, err := s.Toggle(r.Context(), categoryID)
	switch {
	case errors.Is(err, selection.ErrSyncFailed):
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":    "Could not save selection.",
			"selected": ids,
		})
		return
	case errors.Is(err, selection.ErrDetached):
		writeError(w, http.StatusServiceUnavailable, "Service is shutting down.")
		return
	case err != nil:
		slog.Error("toggle category failed", "category", categoryID, "error", err)
		writeError(w, http.StatusInternalServerError, "Could not save selection.")
		return
	}
	writeJSON(w, http.StatusOK, newFieldResponse(s, ids))
}

// PutField replaces an entry field's value as its owner would. Attached
// stores pick the change up through their subscription.
func (a *API) PutField(w http.ResponseWriter, r *http.Request) {
	entryID, fieldID, ok := fieldParams(w, r)
	if !ok {
		return
	}

	var links []models.Link
	if err := decodeJSON(w, r, &links); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	if len(links) > maxLinkCount {
		writeError(w, http.StatusUnprocessableEntity, "Too many references (max 1,000).")
		return
	}
	for _, l := range links {
		if msg := validateID(l.Sys.ID); msg != "" {
			writeError(w, http.StatusUnprocessableEntity, msg)
			return
		}
	}
	links = models.EntryLinks(models.LinkIDs(links))

	field := a.openField(entryID, fieldID)
	if err := field.SetValue(r.Context(), links); err != nil {
		slog.Error("write field failed", "entry", entryID, "field", fieldID, "error", err)
		writeError(w, http.StatusBadGateway, "Could not write field value.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
