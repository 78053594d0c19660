// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package cli implements catpickerctl, the operator command line for the
// category picker: render the tree, inspect and toggle selection fields,
// and manage the database.
package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"catpicker/internal/cache"
	"catpicker/internal/config"
	"catpicker/internal/database"
	"catpicker/internal/loader"
	"catpicker/internal/models"
	"catpicker/internal/selection"
	"catpicker/internal/store"
	"catpicker/internal/tui"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// App carries the global flags and lazily opened connections.
type App struct {
	Locale string
	Format string

	cfg    *config.Config
	db     *sql.DB
	valkey *redis.Client

	// Set by tests to bypass PostgreSQL and Valkey.
	source    loader.Source
	openField selection.FieldFactory
}

// Execute runs catpickerctl with os.Args and closes any connection it
// opened.
func Execute() error {
	app := &App{}
	defer app.Close()
	return newRootCmd(app).Execute()
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "catpickerctl",
		Short:         "Inspect and manage the category picker",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Render the category tree
  catpickerctl tree

  # Only branches matching a term
  catpickerctl tree --q fiction

  # Toggle a category on an entry field
  catpickerctl select toggle entry-1 categories <category-id>
`),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.Format != FormatText && app.Format != FormatJSON {
				return writeErr(cmd, fmt.Errorf("unknown format %q (want text or json)", app.Format))
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&app.Locale, "locale", envOr("DEFAULT_LOCALE", "en-US"), "Locale used to read localized fields")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("CATPICKER_FORMAT", FormatText), "Output format (text|json)")

	cmd.AddCommand(newTreeCmd(app))
	cmd.AddCommand(newSelectCmd(app))
	cmd.AddCommand(newMigrateCmd(app))
	cmd.AddCommand(newSeedCmd(app))
	cmd.AddCommand(newReadingTimeCmd(app))

	return cmd
}

// config loads the environment configuration once.
func (app *App) config() (*config.Config, error) {
	if app.cfg != nil {
		return app.cfg, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	app.cfg = cfg
	return cfg, nil
}

// openDB connects to PostgreSQL and applies migrations. The number of
// migrations applied by this call is returned alongside the pool.
func (app *App) openDB(ctx context.Context) (*sql.DB, int, error) {
	if app.db != nil {
		return app.db, 0, nil
	}
	cfg, err := app.config()
	if err != nil {
		return nil, 0, err
	}
	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	db, err := database.Connect(dialCtx, cfg.DSN())
	if err != nil {
		return nil, 0, err
	}
	n, err := database.Migrate(ctx, db)
	if err != nil {
		db.Close()
		return nil, 0, err
	}
	app.db = db
	return db, n, nil
}

// recordSource returns the category store, or the test source.
func (app *App) recordSource(ctx context.Context) (loader.Source, error) {
	if app.source != nil {
		return app.source, nil
	}
	db, _, err := app.openDB(ctx)
	if err != nil {
		return nil, err
	}
	return store.NewCategoryStore(db, app.Locale), nil
}

// recordQuery returns the configured tree query.
func (app *App) recordQuery() (models.RecordQuery, error) {
	cfg, err := app.config()
	if err != nil {
		return models.RecordQuery{}, err
	}
	return models.RecordQuery{
		ContentType: cfg.CategoryContentType,
		Order:       cfg.CategoryOrder,
		Limit:       cfg.CategoryLimit,
	}, nil
}

// field opens an entry field, Valkey-backed unless a test factory is set.
func (app *App) field(ctx context.Context, entryID, fieldID string) (selection.Field, error) {
	if app.openField != nil {
		return app.openField(entryID, fieldID), nil
	}
	if app.valkey == nil {
		cfg, err := app.config()
		if err != nil {
			return nil, err
		}
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		client, err := cache.ConnectValkey(dialCtx, cfg.ValkeyAddr(), cfg.ValkeyPassword)
		if err != nil {
			return nil, err
		}
		app.valkey = client
	}
	return cache.NewValkeyField(app.valkey, entryID, fieldID), nil
}

// Close releases open connections.
func (app *App) Close() {
	if app.db != nil {
		app.db.Close()
		app.db = nil
	}
	if app.valkey != nil {
		app.valkey.Close()
		app.valkey = nil
	}
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

// writeJSON prints v as indented JSON.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), tui.ErrorStyle.Render(err.Error()))
	return err
}
