// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"bytes"
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"catpicker/internal/slug"
)

//go:embed seed.yaml
var defaultSeed []byte

// Seed statuses and the timestamps they are stored with.
const (
	SeedDraft     = "draft"
	SeedPublished = "published"
	SeedChanged   = "changed"
	SeedArchived  = "archived"
)

// statusColumns maps a seed status to SQL for updated_at, published_at
// and archived_at. Inside one transaction NOW() is constant, so published
// rows have equal updated and published times.
var statusColumns = map[string][3]string{
	SeedDraft:     {"NOW()", "NULL", "NULL"},
	SeedPublished: {"NOW()", "NOW()", "NULL"},
	SeedChanged:   {"NOW()", "NOW() - INTERVAL '1 hour'", "NULL"},
	SeedArchived:  {"NOW()", "NULL", "NOW()"},
}

// SeedCategory is one node of a seed tree.
type SeedCategory struct {
	Title    string         `yaml:"title"`
	Slug     string         `yaml:"slug,omitempty"`
	Status   string         `yaml:"status,omitempty"`
	Children []SeedCategory `yaml:"children,omitempty"`
}

// ParseSeed reads a YAML seed tree. Titles are required; a missing status
// means draft.
func ParseSeed(r io.Reader) ([]SeedCategory, error) {
	var tree []SeedCategory
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&tree); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	if err := validateSeed(tree, ""); err != nil {
		return nil, err
	}
	return tree, nil
}

func validateSeed(nodes []SeedCategory, path string) error {
	for i := range nodes {
		n := &nodes[i]
		n.Title = strings.TrimSpace(n.Title)
		if n.Title == "" {
			return fmt.Errorf("parse seed: %scategory %d has no title", path, i+1)
		}
		if n.Status == "" {
			n.Status = SeedDraft
		}
		if _, ok := statusColumns[n.Status]; !ok {
			return fmt.Errorf("parse seed: %s%q has unknown status %q", path, n.Title, n.Status)
		}
		if err := validateSeed(n.Children, path+n.Title+" > "); err != nil {
			return err
		}
	}
	return nil
}

// DefaultSeed returns the built-in development tree.
func DefaultSeed() []SeedCategory {
	tree, err := ParseSeed(bytes.NewReader(defaultSeed))
	if err != nil {
		panic(err)
	}
	return tree
}

// Seed populates the database with the development category tree. It does
// nothing if any category exists already.
func Seed(db *sql.DB) error {
	return SeedLocale(context.Background(), db, "en-US")
}

// SeedLocale is Seed with an explicit locale for titles and slugs.
func SeedLocale(ctx context.Context, db *sql.DB, locale string) error {
	_, err := SeedTree(ctx, db, locale, DefaultSeed())
	return err
}

// SeedTree inserts tree in one transaction and returns the number of rows
// written. An existing category table is left alone and 0 is returned.
func SeedTree(ctx context.Context, db *sql.DB, locale string, tree []SeedCategory) (int, error) {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories").Scan(&count); err != nil {
		return 0, fmt.Errorf("seed check categories: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return 0, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("seed begin tx: %w", err)
	}
	defer tx.Rollback()

	inserted, err := seedLevel(ctx, tx, locale, tree, nil)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with categories", "count", inserted, "locale", locale)
	return inserted, nil
}

func seedLevel(ctx context.Context, tx *sql.Tx, locale string, nodes []SeedCategory, parentID *string) (int, error) {
	inserted := 0
	for _, n := range nodes {
		id := uuid.NewString()
		s := n.Slug
		if s == "" {
			s = slug.Generate(n.Title)
		}
		cols := statusColumns[n.Status]
		_, err := tx.ExecContext(ctx, `
			INSERT INTO categories (id, title, slug, parent_id, updated_at, published_at, archived_at)
			VALUES ($1, jsonb_build_object($2::text, $3::text), jsonb_build_object($2::text, $4::text), $5, `+
			cols[0]+`, `+cols[1]+`, `+cols[2]+`)
		`, id, locale, n.Title, s, parentID)
		if err != nil {
			return inserted, fmt.Errorf("seed insert category %q: %w", n.Title, err)
		}
		inserted++

		below, err := seedLevel(ctx, tx, locale, n.Children, &id)
		inserted += below
		if err != nil {
			return inserted, err
		}
	}
	return inserted, nil
}
