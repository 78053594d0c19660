// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"strings"
	"unicode/utf8"
)

// Validation limits for API inputs.
const (
	maxTitleLen   = 300
	maxSlugLen    = 300
	maxIDLen      = 64
	maxBodyLen    = 100_000
	maxSearchLen  = 200
	maxLinkCount  = 1_000
	maxRequestLen = 1 << 20
)

// validateCategory checks category inputs and returns the first error found.
func validateCategory(title, slug, parentID string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "Title is required."
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "Title is too long (max 300 characters)."
	}
	if utf8.RuneCountInString(slug) > maxSlugLen {
		return "Slug is too long (max 300 characters)."
	}
	if len(parentID) > maxIDLen {
		return "Parent id is too long (max 64 characters)."
	}
	return ""
}

// validateID checks a path identifier.
func validateID(id string) string {
	if strings.TrimSpace(id) == "" {
		return "Identifier is required."
	}
	if len(id) > maxIDLen {
		return "Identifier is too long (max 64 characters)."
	}
	return ""
}

// validateSearch checks the tree filter term.
func validateSearch(term string) string {
	if utf8.RuneCountInString(term) > maxSearchLen {
		return "Search term is too long (max 200 characters)."
	}
	return ""
}

// validateBody checks a reading-time request body.
func validateBody(body string) string {
	if utf8.RuneCountInString(body) > maxBodyLen {
		return "Body is too long (max 100,000 characters)."
	}
	return ""
}
