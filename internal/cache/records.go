// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// records.go caches category record lists in Valkey. The tree loader reads
// through CachedSource, so repeated loads skip the database until a
// category write invalidates the cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"catpicker/internal/models"
)

const (
	// recordKeyPrefix is the Valkey key prefix for cached record lists.
	recordKeyPrefix = "records:"

	// DefaultRecordTTL is how long a fetched record list stays cached.
	DefaultRecordTTL = 5 * time.Minute
)

// RecordKey returns the cache key for a record query.
func RecordKey(q models.RecordQuery) string {
	return recordKeyPrefix + q.Normalize().Key()
}

// RecordCache stores JSON-encoded record lists in Valkey.
type RecordCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRecordCache creates a record cache backed by the given Valkey client.
func NewRecordCache(client *redis.Client, ttl time.Duration) *RecordCache {
	if ttl == 0 {
		ttl = DefaultRecordTTL
	}
	return &RecordCache{client: client, ttl: ttl}
}

// Get returns the cached records for q. A miss or any Valkey error
// reports false.
func (rc *RecordCache) Get(ctx context.Context, q models.RecordQuery) ([]models.CategoryRecord, bool) {
	key := RecordKey(q)
	val, err := rc.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("record cache get error", "key", key, "error", err)
		return nil, false
	}

	var records []models.CategoryRecord
	if err := json.Unmarshal(val, &records); err != nil {
		slog.Warn("record cache decode error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("record cache hit", "key", key, "count", len(records))
	return records, true
}

// Set stores records for q with the configured TTL.
func (rc *RecordCache) Set(ctx context.Context, q models.RecordQuery, records []models.CategoryRecord) {
	key := RecordKey(q)
	data, err := json.Marshal(records)
	if err != nil {
		slog.Warn("record cache encode error", "key", key, "error", err)
		return
	}
	if err := rc.client.Set(ctx, key, data, rc.ttl).Err(); err != nil {
		slog.Warn("record cache set error", "key", key, "error", err)
	}
}

// Invalidate removes every cached record list by scanning for the prefix.
// Any category write can change any list, so nothing finer is tracked.
func (rc *RecordCache) Invalidate(ctx context.Context) {
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := rc.client.Scan(ctx, cursor, recordKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("record cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := rc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("record cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Info("record cache cleared", "deleted", deleted)
	}
}

// RecordSource fetches category records for a query.
type RecordSource interface {
	GetMany(ctx context.Context, q models.RecordQuery) ([]models.CategoryRecord, error)
}

// CachedSource reads through a RecordCache in front of another source.
// Errors from the underlying source are returned unchanged and never cached.
type CachedSource struct {
	source RecordSource
	cache  *RecordCache
}

// NewCachedSource wraps source with cache.
func NewCachedSource(source RecordSource, cache *RecordCache) *CachedSource {
	return &CachedSource{source: source, cache: cache}
}

// GetMany implements RecordSource.
func (cs *CachedSource) GetMany(ctx context.Context, q models.RecordQuery) ([]models.CategoryRecord, error) {
	if records, ok := cs.cache.Get(ctx, q); ok {
		return records, nil
	}
	records, err := cs.source.GetMany(ctx, q)
	if err != nil {
		return nil, err
	}
	cs.cache.Set(ctx, q, records)
	return records, nil
}

// Invalidate clears the underlying cache.
func (cs *CachedSource) Invalidate(ctx context.Context) {
	cs.cache.Invalidate(ctx)
}
