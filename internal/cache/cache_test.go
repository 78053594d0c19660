// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"errors"
	"net"
	"os"
	"slices"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"catpicker/internal/models"
	"catpicker/internal/selection"
)

// testValkeyClient returns a Redis client for tests.
// Skips if Valkey is unavailable.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(envOr("VALKEY_HOST", "localhost"), envOr("VALKEY_PORT", "6379")),
		Password: os.Getenv("VALKEY_PASSWORD"),
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		for _, pattern := range []string{recordKeyPrefix + "*", fieldKeyPrefix + "*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})

	return client
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestConnectValkey(t *testing.T) {
	addr := net.JoinHostPort(envOr("VALKEY_HOST", "localhost"), envOr("VALKEY_PORT", "6379"))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client, err := ConnectValkey(ctx, addr, os.Getenv("VALKEY_PASSWORD"))
	if err != nil {
		t.Skipf("skipping: Valkey not available: %v", err)
	}
	defer client.Close()

	pong, err := client.Ping(context.Background()).Result()
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if pong != "PONG" {
		t.Errorf("expected PONG, got %q", pong)
	}
}

func TestRecordKey(t *testing.T) {
	got := RecordKey(models.CategoryQuery(models.OrderSlug, 1000))
	if got != "records:category:fields.slug:1000" {
		t.Errorf("RecordKey = %q", got)
	}
	if RecordKey(models.RecordQuery{ContentType: "category"}) != got {
		t.Error("RecordKey should normalize the query")
	}
}

func TestFieldKeys(t *testing.T) {
	if got := FieldKey("e1", "categories"); got != "field:e1:categories" {
		t.Errorf("FieldKey = %q", got)
	}
	if got := FieldChannel("e1", "categories"); got != "field:e1:categories:changed" {
		t.Errorf("FieldChannel = %q", got)
	}
}

func sampleRecords() []models.CategoryRecord {
	return []models.CategoryRecord{
		{
			Sys:    models.CategorySys{ID: "a", CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
			Fields: models.CategoryFields{Title: models.LocalizedString{"en-US": "A"}},
		},
		{
			Sys: models.CategorySys{ID: "b"},
			Fields: models.CategoryFields{
				Title:          models.LocalizedString{"en-US": "B"},
				ParentCategory: map[string]models.Link{"en-US": models.NewEntryLink("a")},
			},
		},
	}
}

func TestRecordCacheSetAndGet(t *testing.T) {
	client := testValkeyClient(t)
	rc := NewRecordCache(client, time.Minute)
	ctx := context.Background()
	q := models.CategoryQuery(models.OrderSlug, 10)

	if _, ok := rc.Get(ctx, q); ok {
		t.Fatal("expected cache miss")
	}

	rc.Set(ctx, q, sampleRecords())

	got, ok := rc.Get(ctx, q)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(got) != 2 || got[1].ParentID("en-US") != "a" {
		t.Errorf("cached records = %+v", got)
	}
	if !got[0].Sys.CreatedAt.Equal(sampleRecords()[0].Sys.CreatedAt) {
		t.Errorf("createdAt = %v", got[0].Sys.CreatedAt)
	}
}

func TestRecordCacheInvalidate(t *testing.T) {
	client := testValkeyClient(t)
	rc := NewRecordCache(client, time.Minute)
	ctx := context.Background()

	queries := []models.RecordQuery{
		models.CategoryQuery(models.OrderSlug, 10),
		models.CategoryQuery(models.OrderCreatedAt, 10),
	}
	for _, q := range queries {
		rc.Set(ctx, q, sampleRecords())
	}

	rc.Invalidate(ctx)

	for _, q := range queries {
		if _, ok := rc.Get(ctx, q); ok {
			t.Errorf("expected miss for %q after Invalidate", RecordKey(q))
		}
	}
}

func TestNewRecordCacheDefaultTTL(t *testing.T) {
	rc := NewRecordCache(nil, 0)
	if rc.ttl != DefaultRecordTTL {
		t.Errorf("expected DefaultRecordTTL (%v), got %v", DefaultRecordTTL, rc.ttl)
	}
}

type countingSource struct {
	calls int
	err   error
}

func (s *countingSource) GetMany(context.Context, models.RecordQuery) ([]models.CategoryRecord, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return sampleRecords(), nil
}

func TestCachedSource(t *testing.T) {
	client := testValkeyClient(t)
	src := &countingSource{}
	cs := NewCachedSource(src, NewRecordCache(client, time.Minute))
	ctx := context.Background()
	q := models.CategoryQuery(models.OrderSlug, 20)

	for range 3 {
		got, err := cs.GetMany(ctx, q)
		if err != nil {
			t.Fatalf("GetMany: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("len = %d, want 2", len(got))
		}
	}
	if src.calls != 1 {
		t.Errorf("source calls = %d, want 1", src.calls)
	}

	cs.Invalidate(ctx)
	if _, err := cs.GetMany(ctx, q); err != nil {
		t.Fatalf("GetMany: %v", err)
	}
	if src.calls != 2 {
		t.Errorf("source calls after invalidate = %d, want 2", src.calls)
	}
}

func TestCachedSource_ErrorNotCached(t *testing.T) {
	client := testValkeyClient(t)
	boom := errors.New("db down")
	src := &countingSource{err: boom}
	cs := NewCachedSource(src, NewRecordCache(client, time.Minute))
	ctx := context.Background()
	q := models.CategoryQuery(models.OrderSlug, 30)

	if _, err := cs.GetMany(ctx, q); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	src.err = nil
	if _, err := cs.GetMany(ctx, q); err != nil {
		t.Fatalf("GetMany: %v", err)
	}
	if src.calls != 2 {
		t.Errorf("source calls = %d, want 2", src.calls)
	}
}

func TestValkeyField_GetSet(t *testing.T) {
	client := testValkeyClient(t)
	f := NewValkeyField(client, "entry-get-set", "categories")
	ctx := context.Background()

	got, err := f.GetValue(ctx)
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("unset field = %v, want empty", got)
	}

	if err := f.SetValue(ctx, models.EntryLinks([]string{"a", "b"})); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	got, err = f.GetValue(ctx)
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	if !slices.Equal(models.LinkIDs(got), []string{"a", "b"}) {
		t.Errorf("GetValue = %v", models.LinkIDs(got))
	}
}

func TestValkeyField_OnValueChanged(t *testing.T) {
	client := testValkeyClient(t)
	f := NewValkeyField(client, "entry-pubsub", "categories")
	ctx := context.Background()

	received := make(chan []string, 4)
	detach := f.OnValueChanged(func(v []models.Link) {
		received <- models.LinkIDs(v)
	})
	defer detach()

	if err := f.SetValue(ctx, models.EntryLinks([]string{"x"})); err != nil {
		t.Fatalf("SetValue: %v", err)
	}

	select {
	case got := <-received:
		if !slices.Equal(got, []string{"x"}) {
			t.Errorf("notification = %v, want [x]", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no change notification")
	}

	detach()
	detach()
}

// TestValkeyField_SelectionStore drives a selection store on top of a
// Valkey field and watches a second store observe the write.
func TestValkeyField_SelectionStore(t *testing.T) {
	client := testValkeyClient(t)
	ctx := context.Background()

	writer := selection.NewStore(NewValkeyField(client, "entry-store", "categories"))
	reader := selection.NewStore(NewValkeyField(client, "entry-store", "categories"))
	for _, s := range []*selection.Store{writer, reader} {
		if _, err := s.Attach(ctx); err != nil {
			t.Fatalf("Attach: %v", err)
		}
		defer s.Detach()
	}

	if _, err := writer.Toggle(ctx, "cat-1"); err != nil {
		t.Fatalf("Toggle: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for !reader.Contains("cat-1") {
		if time.Now().After(deadline) {
			t.Fatalf("reader never saw the toggle: %v", reader.Selected())
		}
		time.Sleep(20 * time.Millisecond)
	}
}
