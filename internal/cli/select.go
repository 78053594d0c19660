// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"catpicker/internal/loader"
	"catpicker/internal/models"
	"catpicker/internal/selection"
	"catpicker/internal/tui"
)

func newSelectCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select",
		Short: "Inspect or change the categories selected on an entry field",
	}
	cmd.AddCommand(newSelectShowCmd(app))
	cmd.AddCommand(newSelectToggleCmd(app))
	cmd.AddCommand(newSelectPickCmd(app))
	return cmd
}

// attach opens the field and attaches a selection store to it. Callers
// must Detach the store.
func (app *App) attach(cmd *cobra.Command, entryID, fieldID string) (*selection.Store, selection.Field, error) {
	f, err := app.field(cmd.Context(), entryID, fieldID)
	if err != nil {
		return nil, nil, err
	}
	s := selection.NewStore(f)
	if _, err := s.Attach(cmd.Context()); err != nil {
		return nil, nil, err
	}
	return s, f, nil
}

func (app *App) writeSelection(cmd *cobra.Command, ids []string, withTree bool) error {
	if app.Format == FormatJSON {
		if ids == nil {
			ids = []string{}
		}
		return writeJSON(cmd, map[string]any{
			"selected": ids,
			"value":    models.EntryLinks(ids),
		})
	}

	if withTree {
		forest, err := app.loadForest(cmd)
		if errors.Is(err, loader.ErrFetchFailed) {
			return err
		}
		if err != nil {
			return writeErr(cmd, err)
		}
		tui.Checklist(cmd.OutOrStdout(), forest, tui.IDSet(ids))
		return nil
	}

	if len(ids) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), tui.MutedStyle.Render("Nothing selected."))
		return nil
	}
	for _, id := range ids {
		fmt.Fprintln(cmd.OutOrStdout(), id)
	}
	return nil
}

func newSelectShowCmd(app *App) *cobra.Command {
	var withTree bool

	cmd := &cobra.Command{
		Use:   "show <entry-id> <field-id>",
		Short: "List the selected category ids",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := app.attach(cmd, args[0], args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Detach()
			return app.writeSelection(cmd, s.Selected(), withTree)
		},
	}

	cmd.Flags().BoolVar(&withTree, "tree", false, "Render the category tree with selected rows checked")
	return cmd
}

func newSelectToggleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <entry-id> <field-id> <category-id>",
		Short: "Select a category, or deselect it if already selected",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := app.attach(cmd, args[0], args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Detach()

			ids, err := s.Toggle(cmd.Context(), args[2])
			if err != nil {
				return writeErr(cmd, err)
			}
			return app.writeSelection(cmd, ids, false)
		},
	}
}

func newSelectPickCmd(app *App) *cobra.Command {
	var term string

	cmd := &cobra.Command{
		Use:   "pick <entry-id> <field-id>",
		Short: "Choose categories in an interactive tree",
		Long: strings.TrimSpace(`
Opens the category tree with the field's current selection checked.
Space toggles the row under the cursor and saves it to the field right away.
Changes made to the field elsewhere show up while the picker is open.
The final selection is printed on exit.`),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			forest, err := app.loadForest(cmd)
			if errors.Is(err, loader.ErrFetchFailed) {
				return err
			}
			if err != nil {
				return writeErr(cmd, err)
			}

			s, f, err := app.attach(cmd, args[0], args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Detach()

			picker := tui.NewPicker(cmd.Context(), forest, s).WithFilter(term)
			if err := tui.Run(cmd.Context(), picker, f, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
				return writeErr(cmd, err)
			}
			return app.writeSelection(cmd, s.Selected(), false)
		},
	}

	cmd.Flags().StringVar(&term, "q", "", "Start with this filter term")
	return cmd
}
