// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up, Down     key.Binding
	Top, Bottom  key.Binding
	Fold, Unfold key.Binding
	Toggle       key.Binding
	Filter       key.Binding
	ClearFilter  key.Binding
	AcceptFilter key.Binding
	Quit         key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up:           key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:         key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Top:          key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "top")),
		Bottom:       key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "bottom")),
		Fold:         key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "fold")),
		Unfold:       key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "unfold")),
		Toggle:       key.NewBinding(key.WithKeys(" ", "space", "enter", "x"), key.WithHelp("space", "toggle")),
		Filter:       key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		ClearFilter:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear filter")),
		AcceptFilter: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "keep filter")),
		Quit:         key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// help is the footer line for list mode.
func (k keyMap) help() []key.Binding {
	return []key.Binding{k.Toggle, k.Up, k.Down, k.Fold, k.Unfold, k.Filter, k.Quit}
}
