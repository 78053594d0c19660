// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ContentTypeCategory is the content type id of category entries.
const ContentTypeCategory = "category"

// UntitledCategory is shown for records without a title in the active locale.
const UntitledCategory = "Untitled"

// LocalizedString holds one value per locale code ("en-US", "de-DE", ...).
type LocalizedString map[string]string

// Get returns the value for the locale. Blank values count as absent.
func (l LocalizedString) Get(locale string) (string, bool) {
	v, ok := l[locale]
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// CategorySys carries the system metadata of a category entry: its id and
// lifecycle timestamps. A nil timestamp means the event never happened.
type CategorySys struct {
	ID          string     `json:"id"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	ArchivedAt  *time.Time `json:"archivedAt,omitempty"`
}

// CategoryFields are the localized content fields of a category entry.
type CategoryFields struct {
	Title          LocalizedString `json:"title,omitempty"`
	Slug           LocalizedString `json:"slug,omitempty"`
	ParentCategory map[string]Link `json:"parentCategory,omitempty"`
}

// CategoryRecord is one flat category entry as delivered by the record
// source. Records are immutable once fetched.
type CategoryRecord struct {
	Sys    CategorySys    `json:"sys"`
	Fields CategoryFields `json:"fields"`
}

// Title returns the record title in the given locale.
func (r *CategoryRecord) Title(locale string) (string, bool) {
	return r.Fields.Title.Get(locale)
}

// DisplayTitle returns the title, or UntitledCategory when it is missing.
func (r *CategoryRecord) DisplayTitle(locale string) string {
	if t, ok := r.Title(locale); ok {
		return t
	}
	return UntitledCategory
}

// Slug returns the record slug in the given locale, or "".
func (r *CategoryRecord) Slug(locale string) string {
	s, _ := r.Fields.Slug.Get(locale)
	return s
}

// ParentID returns the id of the parent category link in the given locale,
// or "" when the record is a root.
func (r *CategoryRecord) ParentID(locale string) string {
	if r.Fields.ParentCategory == nil {
		return ""
	}
	link, ok := r.Fields.ParentCategory[locale]
	if !ok {
		return ""
	}
	return link.Sys.ID
}

// Value stores the map as JSONB.
func (l LocalizedString) Value() (driver.Value, error) {
	if l == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan reads a JSONB column into the map.
func (l *LocalizedString) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = LocalizedString{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan localized string: unsupported type %T", src)
	}
	m := map[string]string{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return fmt.Errorf("scan localized string: %w", err)
	}
	*l = m
	return nil
}
