// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"catpicker/internal/database"
	"catpicker/internal/store"
)

func newMigrateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// openDB migrates on connect.
			_, n, err := app.openDB(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if app.Format == FormatJSON {
				return writeJSON(cmd, map[string]int{"applied": n})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d migrations applied\n", n)
			return nil
		},
	}
}

func newSeedCmd(app *App) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert a category tree if the table is empty",
		Long: strings.TrimSpace(`
Inserts the built-in development tree, or the YAML tree given with --file:

  - title: News
    status: published      # draft (default), published, changed, archived
    children:
      - title: World`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tree := database.DefaultSeed()
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return writeErr(cmd, err)
				}
				tree, err = database.ParseSeed(f)
				f.Close()
				if err != nil {
					return writeErr(cmd, err)
				}
			}

			db, _, err := app.openDB(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if _, err := database.SeedTree(cmd.Context(), db, app.Locale, tree); err != nil {
				return writeErr(cmd, err)
			}
			n, err := store.NewCategoryStore(db, app.Locale).Count(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if app.Format == FormatJSON {
				return writeJSON(cmd, map[string]int{"categories": n})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d categories\n", n)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "YAML seed tree to insert instead of the built-in one")
	return cmd
}
