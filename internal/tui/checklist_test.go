// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"catpicker/internal/models"
)

// plain drops terminal styling so assertions see the text.
func plain(s string) string { return ansi.Strip(s) }

func TestChecklist(t *testing.T) {
	var buf bytes.Buffer
	Checklist(&buf, testForest(), IDSet([]string{"fantasy"}))

	lines := strings.Split(strings.TrimRight(plain(buf.String()), "\n"), "\n")
	want := []string{
		"[ ] Books PUBLISHED",
		"  [ ] Fiction CHANGED",
		"    [x] Fantasy DRAFT",
		"  [ ] Poetry ARCHIVED",
		"[ ] Music NEW",
	}
	if len(lines) != len(want) {
		t.Fatalf("lines = %q", lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestChecklist_Empty(t *testing.T) {
	var buf bytes.Buffer
	Checklist(&buf, nil, nil)
	if !strings.Contains(buf.String(), "No categories.") {
		t.Errorf("out = %q", buf.String())
	}
}

func TestBadge(t *testing.T) {
	for _, s := range []models.Status{
		models.StatusPublished, models.StatusDraft, models.StatusArchived,
		models.StatusChanged, models.StatusDeleted, models.StatusNew,
	} {
		if _, ok := badgeColors[s.Badge()]; !ok {
			t.Errorf("no colour for %q badge %q", s, s.Badge())
		}
		if got := plain(Badge(s)); !strings.Contains(got, strings.ToUpper(string(s))) {
			t.Errorf("Badge(%q) = %q", s, got)
		}
	}
}
