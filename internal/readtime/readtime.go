// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package readtime computes word counts and reading time for entry bodies.
package readtime

import (
	"fmt"
	"strings"

	"catpicker/internal/markdown"
)

// DefaultWordsPerMinute is the reading speed used when none is configured.
const DefaultWordsPerMinute = 200

// Stats describes how long a text takes to read.
type Stats struct {
	Words   int    `json:"words"`
	Minutes int    `json:"minutes"`
	Text    string `json:"text"`
}

// Estimate returns reading stats for plain text. Minutes are rounded up,
// so any non-empty text takes at least one minute.
func Estimate(text string, wordsPerMinute int) Stats {
	if wordsPerMinute <= 0 {
		wordsPerMinute = DefaultWordsPerMinute
	}
	words := len(strings.Fields(text))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	return Stats{
		Words:   words,
		Minutes: minutes,
		Text:    fmt.Sprintf("%d min read", minutes),
	}
}

// EstimateMarkdown strips Markdown markup before estimating.
func EstimateMarkdown(source string, wordsPerMinute int) Stats {
	return Estimate(markdown.PlainText(source), wordsPerMinute)
}
