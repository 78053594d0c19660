// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up the HTTP routes and middleware chain of the
// category picker API.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"catpicker/internal/handlers"
	"catpicker/internal/metrics"
	"catpicker/internal/middleware"
)

// New creates the Chi router with all middleware and routes wired up.
// A nil limiter disables rate limiting and nil metrics drops /metrics.
func New(api *handlers.API, limiter *middleware.RateLimiter, m *metrics.Metrics) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	if m != nil {
		r.Use(m.Middleware)
	}

	// Health check and scrape endpoint, never rate limited.
	r.Get("/health", healthHandler)
	if m != nil {
		r.Handle("/metrics", m.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		if limiter != nil {
			r.Use(limiter.Middleware)
		}

		// Category tree and lifecycle
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", api.Tree)
			r.Post("/", api.CreateCategory)
			r.Post("/reload", api.Reload)
			r.Post("/{id}/publish", api.PublishCategory)
			r.Post("/{id}/archive", api.ArchiveCategory)
			r.Post("/{id}/unarchive", api.UnarchiveCategory)
			r.Delete("/{id}", api.DeleteCategory)
		})

		// Selection fields
		r.Route("/entries/{entryID}/fields/{fieldID}", func(r chi.Router) {
			r.Get("/", api.GetField)
			r.Put("/", api.PutField)
			r.Post("/toggle/{categoryID}", api.ToggleCategory)
		})

		r.Post("/reading-time", api.ReadingTime)
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
