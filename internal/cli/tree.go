// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"catpicker/internal/loader"
	"catpicker/internal/models"
	"catpicker/internal/tree"
	"catpicker/internal/tui"
)

// stderrNotifier prints loader notifications to the command's stderr.
type stderrNotifier struct {
	w io.Writer
}

func (n stderrNotifier) Error(msg string) {
	fmt.Fprintln(n.w, tui.ErrorStyle.Render(msg))
}

// loadForest fetches the records once and builds the forest.
func (app *App) loadForest(cmd *cobra.Command) ([]*models.TreeNode, error) {
	src, err := app.recordSource(cmd.Context())
	if err != nil {
		return nil, err
	}
	q, err := app.recordQuery()
	if err != nil {
		return nil, err
	}
	l := loader.New(src, q, app.Locale, stderrNotifier{cmd.ErrOrStderr()})
	defer l.Close()
	return l.Load(cmd.Context())
}

func newTreeCmd(app *App) *cobra.Command {
	var term string

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Render the category tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			forest, err := app.loadForest(cmd)
			if errors.Is(err, loader.ErrFetchFailed) {
				return err // already reported by the loader
			}
			if err != nil {
				return writeErr(cmd, err)
			}
			view := tree.Filter(forest, term)
			if view == nil {
				view = []*models.TreeNode{}
			}

			if app.Format == FormatJSON {
				return writeJSON(cmd, map[string]any{
					"count": tree.Count(view),
					"tree":  view,
				})
			}
			tui.Checklist(cmd.OutOrStdout(), view, nil)
			return nil
		},
	}

	cmd.Flags().StringVar(&term, "q", "", "Only show branches whose titles contain this term")
	return cmd
}
