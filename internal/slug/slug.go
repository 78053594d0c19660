// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug generates the sortable slugs stored on category records.
// Category lists are ordered by slug, so slugs must be stable and unique.
package slug

import (
	"regexp"
	"strconv"
	"strings"
)

// disallowed matches anything that isn't a lowercase letter, digit,
// whitespace, or hyphen.
var disallowed = regexp.MustCompile(`[^a-z0-9\s-]`)

// Generate creates a slug from a category title.
// Example: "Food & Drink  2026" → "food-drink-2026"
func Generate(title string) string {
	cleaned := disallowed.ReplaceAllString(strings.ToLower(title), "")
	parts := strings.FieldsFunc(cleaned, func(r rune) bool {
		return r == '-' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	return strings.Join(parts, "-")
}

// Unique returns base, or base with the first free numeric suffix
// ("base-2", "base-3", ...) when taken reports the slug in use. An empty
// base is replaced with "category".
func Unique(base string, taken func(string) bool) string {
	if base == "" {
		base = "category"
	}
	if !taken(base) {
		return base
	}
	for i := 2; ; i++ {
		candidate := base + "-" + strconv.Itoa(i)
		if !taken(candidate) {
			return candidate
		}
	}
}
