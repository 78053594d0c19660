// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package tui

import (
	"fmt"
	"io"
	"strings"

	"catpicker/internal/models"
	"catpicker/internal/tree"
)

const indent = "  "

// Checklist writes the forest as an indented checklist. Rows whose id is
// in selected are checked.
func Checklist(w io.Writer, forest []*models.TreeNode, selected map[string]bool) {
	if tree.Count(forest) == 0 {
		fmt.Fprintln(w, MutedStyle.Render("No categories."))
		return
	}
	for _, row := range tree.Flatten(forest) {
		fmt.Fprintln(w, formatRow(row, selected[row.Node.ID], false))
	}
}

// formatRow renders one row without the cursor gutter. folded marks a
// collapsed parent.
func formatRow(row tree.Row, checked, folded bool) string {
	box := "[ ]"
	title := row.Node.Title
	if checked {
		box = "[x]"
		title = selectedStyle.Render(title)
	}
	line := strings.Repeat(indent, row.Depth) + box + " " + title + " " + Badge(row.Node.Status)
	if folded {
		line += MutedStyle.Render(fmt.Sprintf(" (+%d)", tree.Count(row.Node.Children)))
	}
	return line
}

// IDSet turns a list of ids into a membership map.
func IDSet(ids []string) map[string]bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}
