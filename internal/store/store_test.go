// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"catpicker/internal/config"
	"catpicker/internal/database"
)

// testDB connects with the same POSTGRES_* settings as the server and
// migrates. Tests skip when PostgreSQL is unreachable.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	t.Setenv("APP_ENV", "testing")
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := database.Connect(ctx, cfg.DSN())
	if err != nil {
		t.Skipf("skipping integration test: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	return db
}

// cleanCategories deletes the given rows; missing ids are ignored.
func cleanCategories(t *testing.T, db *sql.DB, ids ...string) {
	t.Helper()
	if len(ids) == 0 {
		return
	}
	if _, err := db.Exec("DELETE FROM categories WHERE id = ANY($1)", ids); err != nil {
		t.Logf("cleanup: %v", err)
	}
}
