// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package tui renders the category forest in the terminal: a static
// checklist for command output and an interactive picker bound to a
// selection store.
package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"catpicker/internal/models"
)

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

// Badge palette, keyed by models.Status.Badge().
var badgeColors = map[string]lipgloss.AdaptiveColor{
	"positive":       ac("28", "42"),
	"warning":        ac("130", "214"),
	"secondary":      ac("240", "245"),
	"primary":        ac("25", "75"),
	"negative":       ac("124", "203"),
	"primary-filled": ac("25", "75"),
}

// Shared text styles.
var (
	ErrorStyle = lipgloss.NewStyle().Foreground(ac("124", "203")).Bold(true)
	MutedStyle = lipgloss.NewStyle().Foreground(ac("240", "243"))

	selectedStyle = lipgloss.NewStyle().Bold(true)
	cursorStyle   = lipgloss.NewStyle().Foreground(ac("25", "75")).Bold(true)
	headerStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
)

// Badge renders a status the way the picker shows it.
func Badge(s models.Status) string {
	variant := s.Badge()
	st := lipgloss.NewStyle().Foreground(badgeColors[variant])
	if variant == "primary-filled" {
		st = st.Reverse(true)
	}
	return st.Render(strings.ToUpper(string(s)))
}
