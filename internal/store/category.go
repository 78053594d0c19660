// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"catpicker/internal/models"
	"catpicker/internal/slug"
)

// ErrNotFound is returned when a category id does not exist.
var ErrNotFound = errors.New("category not found")

// ErrUnsupportedQuery is returned for queries the store cannot answer.
var ErrUnsupportedQuery = errors.New("unsupported record query")

// CategoryStore manages category entries in PostgreSQL. Localized fields
// are stored as JSONB locale maps; the parent link is written under the
// store's default locale.
type CategoryStore struct {
	db     *sql.DB
	locale string
}

// NewCategoryStore returns a new CategoryStore for the given default locale.
func NewCategoryStore(db *sql.DB, locale string) *CategoryStore {
	return &CategoryStore{db: db, locale: locale}
}

// CategoryInput holds the editable fields of a category. An empty ID on
// create generates one; an empty Slug is derived from the title.
type CategoryInput struct {
	ID       string `json:"id,omitempty"`
	Title    string `json:"title"`
	Slug     string `json:"slug,omitempty"`
	ParentID string `json:"parent_id,omitempty"`
}

const categoryColumns = `id, title, slug, parent_id, created_at, updated_at, published_at, archived_at`

// orderClauses maps supported record orderings to SQL. The slug orderings
// read the store locale from parameter $1.
var orderClauses = map[string]string{
	models.OrderSlug:      `slug ->> $1 ASC NULLS LAST, id`,
	models.OrderSlugDesc:  `slug ->> $1 DESC NULLS LAST, id`,
	models.OrderCreatedAt: `created_at, id`,
	models.OrderUpdatedAt: `updated_at NULLS FIRST, id`,
}

// scanCategory scans a row into a CategoryRecord.
func (s *CategoryStore) scanCategory(scanner interface{ Scan(...any) error }) (*models.CategoryRecord, error) {
	var r models.CategoryRecord
	var parentID sql.NullString
	var updatedAt, publishedAt, archivedAt sql.NullTime
	err := scanner.Scan(
		&r.Sys.ID, &r.Fields.Title, &r.Fields.Slug, &parentID,
		&r.Sys.CreatedAt, &updatedAt, &publishedAt, &archivedAt,
	)
	if err != nil {
		return nil, err
	}
	if parentID.Valid {
		r.Fields.ParentCategory = map[string]models.Link{s.locale: models.NewEntryLink(parentID.String)}
	}
	r.Sys.UpdatedAt = nullTime(updatedAt)
	r.Sys.PublishedAt = nullTime(publishedAt)
	r.Sys.ArchivedAt = nullTime(archivedAt)
	return &r, nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// GetMany returns every record matching the query, in the requested order.
// It is the record fetch boundary the tree loader reads from.
func (s *CategoryStore) GetMany(ctx context.Context, q models.RecordQuery) ([]models.CategoryRecord, error) {
	q = q.Normalize()
	if q.ContentType != models.ContentTypeCategory {
		return nil, fmt.Errorf("%w: content type %q", ErrUnsupportedQuery, q.ContentType)
	}
	order, ok := orderClauses[q.Order]
	if !ok {
		return nil, fmt.Errorf("%w: order %q", ErrUnsupportedQuery, q.Order)
	}

	var (
		query string
		args  []any
	)
	if strings.Contains(order, "$1") {
		query = `SELECT ` + categoryColumns + ` FROM categories ORDER BY ` + order + ` LIMIT $2`
		args = []any{s.locale, q.Limit}
	} else {
		query = `SELECT ` + categoryColumns + ` FROM categories ORDER BY ` + order + ` LIMIT $1`
		args = []any{q.Limit}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	items := make([]models.CategoryRecord, 0)
	for rows.Next() {
		r, err := s.scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	slog.Debug("categories fetched", "count", len(items), "order", q.Order, "limit", q.Limit)
	return items, nil
}

// FindByID retrieves a category by ID. Returns ErrNotFound if missing.
func (s *CategoryStore) FindByID(ctx context.Context, id string) (*models.CategoryRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	r, err := s.scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return r, nil
}

// SlugTaken reports whether a category already uses the slug in the store
// locale.
func (s *CategoryStore) SlugTaken(ctx context.Context, value string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM categories WHERE slug ->> $1 = $2)`,
		s.locale, value,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return exists, nil
}

// uniqueSlug derives a free slug for the input.
func (s *CategoryStore) uniqueSlug(ctx context.Context, in CategoryInput) (string, error) {
	base := in.Slug
	if base == "" {
		base = slug.Generate(in.Title)
	}
	var lookupErr error
	result := slug.Unique(base, func(candidate string) bool {
		if lookupErr != nil {
			return false
		}
		taken, err := s.SlugTaken(ctx, candidate)
		if err != nil {
			lookupErr = err
			return false
		}
		return taken
	})
	return result, lookupErr
}

// Create inserts a new draft category and returns it.
func (s *CategoryStore) Create(ctx context.Context, in CategoryInput) (*models.CategoryRecord, error) {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	sl, err := s.uniqueSlug(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	title := models.LocalizedString{}
	if strings.TrimSpace(in.Title) != "" {
		title[s.locale] = in.Title
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO categories (id, title, slug, parent_id, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING `+categoryColumns,
		in.ID, title, models.LocalizedString{s.locale: sl}, nullString(in.ParentID),
	)
	r, err := s.scanCategory(row)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return r, nil
}

// Update modifies the title, slug and parent of a category in the store
// locale. Other locales are left untouched.
func (s *CategoryStore) Update(ctx context.Context, id string, in CategoryInput) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE categories SET
			title = jsonb_set(title, ARRAY[$1::text], to_jsonb($2::text)),
			slug = CASE WHEN $3::text = '' THEN slug ELSE jsonb_set(slug, ARRAY[$1::text], to_jsonb($3::text)) END,
			parent_id = $4,
			updated_at = NOW()
		WHERE id = $5
	`, s.locale, in.Title, in.Slug, nullString(in.ParentID), id)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return requireRow(res, "update category")
}

// Publish marks the current version as published.
func (s *CategoryStore) Publish(ctx context.Context, id string) error {
	return s.lifecycle(ctx, id, "publish",
		`UPDATE categories SET published_at = NOW(), updated_at = NOW(), archived_at = NULL WHERE id = $1`)
}

// Archive unpublishes and archives a category.
func (s *CategoryStore) Archive(ctx context.Context, id string) error {
	return s.lifecycle(ctx, id, "archive",
		`UPDATE categories SET archived_at = NOW(), published_at = NULL, updated_at = NOW() WHERE id = $1`)
}

// Unarchive returns an archived category to draft.
func (s *CategoryStore) Unarchive(ctx context.Context, id string) error {
	return s.lifecycle(ctx, id, "unarchive",
		`UPDATE categories SET archived_at = NULL, updated_at = NOW() WHERE id = $1`)
}

func (s *CategoryStore) lifecycle(ctx context.Context, id, action, query string) error {
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%s category: %w", action, err)
	}
	if err := requireRow(res, action+" category"); err != nil {
		return err
	}
	slog.Info("category lifecycle changed", "id", id, "action", action)
	return nil
}

// Delete removes a category by ID. Children become roots (ON DELETE SET NULL).
func (s *CategoryStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return requireRow(res, "delete category")
}

// Count returns the number of stored categories.
func (s *CategoryStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	return n, nil
}

func requireRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
