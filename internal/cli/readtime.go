// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"catpicker/internal/readtime"
	"catpicker/internal/tui"
)

func newReadingTimeCmd(app *App) *cobra.Command {
	var wpm int

	cmd := &cobra.Command{
		Use:   "reading-time <file|->",
		Short: "Estimate the reading time of a Markdown file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return writeErr(cmd, fmt.Errorf("read %s: %w", args[0], err))
			}

			if wpm == 0 {
				if cfg, err := app.config(); err == nil {
					wpm = cfg.WordsPerMinute
				}
			}
			stats := readtime.EstimateMarkdown(string(data), wpm)

			if app.Format == FormatJSON {
				return writeJSON(cmd, stats)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", stats.Text, tui.MutedStyle.Render(fmt.Sprintf("(%d words)", stats.Words)))
			return nil
		},
	}

	cmd.Flags().IntVar(&wpm, "wpm", 0, "Words per minute (default from WORDS_PER_MINUTE)")
	return cmd
}
