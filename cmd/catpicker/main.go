// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the category picker server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catpicker/internal/cache"
	"catpicker/internal/config"
	"catpicker/internal/database"
	"catpicker/internal/handlers"
	"catpicker/internal/loader"
	"catpicker/internal/metrics"
	"catpicker/internal/middleware"
	"catpicker/internal/models"
	"catpicker/internal/router"
	"catpicker/internal/selection"
	"catpicker/internal/store"
	"catpicker/internal/tree"
)

// newLogger returns a debug text logger in development and an info JSON
// logger everywhere else.
func newLogger(cfg *config.Config) *slog.Logger {
	if cfg.IsDev() {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"locale", cfg.DefaultLocale,
	)

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 5*time.Second)
	db, err := database.Connect(connectCtx, cfg.DSN())
	cancelConnect()
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if _, err := database.Migrate(context.Background(), db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Sample tree for development (no-op if categories already exist).
	if cfg.IsDev() {
		if err := database.SeedLocale(context.Background(), db, cfg.DefaultLocale); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	dialCtx, cancelDial := context.WithTimeout(context.Background(), 5*time.Second)
	valkeyClient, err := cache.ConnectValkey(dialCtx, cfg.ValkeyAddr(), cfg.ValkeyPassword)
	cancelDial()
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	categoryStore := store.NewCategoryStore(db, cfg.DefaultLocale)
	m := metrics.New()

	deps := handlers.Deps{
		Categories:     categoryStore,
		Locale:         cfg.DefaultLocale,
		WordsPerMinute: cfg.WordsPerMinute,
	}

	// Record lists are cached in Valkey unless RECORD_CACHE_TTL is 0. Only
	// cache misses reach the database and show up as fetches.
	observed := m.ObserveSource(categoryStore)
	var source loader.Source = observed
	if cfg.RecordCacheTTL > 0 {
		cached := cache.NewCachedSource(observed, cache.NewRecordCache(valkeyClient, cfg.RecordCacheTTL))
		source = cached
		deps.Cache = cached
	} else {
		slog.Warn("record cache disabled")
	}

	query := models.RecordQuery{
		ContentType: cfg.CategoryContentType,
		Order:       cfg.CategoryOrder,
		Limit:       cfg.CategoryLimit,
	}
	treeLoader := loader.New(source, query, cfg.DefaultLocale, loader.LogNotifier{})
	defer treeLoader.Close()
	deps.Loader = treeLoader

	// First load runs in the background; /api/categories reports loading
	// until it finishes.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_, _ = treeLoader.Load(ctx)
	}()

	openField := m.ObserveFields(func(entryID, fieldID string) selection.Field {
		return cache.NewValkeyField(valkeyClient, entryID, fieldID)
	})
	hub := selection.NewHub(openField)
	defer hub.Close()
	deps.Selections = hub
	deps.OpenField = openField

	m.GaugeFunc("tree", "categories", "Categories in the current forest.", func() float64 {
		forest, _ := treeLoader.Snapshot()
		return float64(tree.Count(forest))
	})
	m.GaugeFunc("selection", "fields_attached", "Fields with an attached selection store.", func() float64 {
		return float64(hub.Len())
	})

	limiter := middleware.NewRateLimiter(cfg.RateLimit, time.Minute)
	defer limiter.Stop()

	r := router.New(handlers.NewAPI(deps), limiter, m)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
