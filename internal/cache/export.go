// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// export.go provides a Valkey-backed cache for rendered template exports.
// Rendering a template resolves every section item against the entity
// store. Keys carry the store generation, so any write to the store makes
// earlier entries unreachable and they simply expire.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// exportKeyPrefix is the Valkey key prefix for cached exports.
	exportKeyPrefix = "export:"

	// DefaultExportTTL is how long a rendered export stays cached.
	DefaultExportTTL = 10 * time.Minute
)

// ExportCache manages rendered export caching in Valkey.
type ExportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewExportCache creates a new export cache backed by the given Valkey client.
func NewExportCache(client *redis.Client, ttl time.Duration) *ExportCache {
	if ttl == 0 {
		ttl = DefaultExportTTL
	}
	return &ExportCache{client: client, ttl: ttl}
}

// Get retrieves a cached export. Returns false on miss or error.
func (ec *ExportCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := ec.client.Get(ctx, exportKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("export cache get error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("export cache hit", "key", key)
	return val, true
}

// Set stores a rendered export with the configured TTL.
func (ec *ExportCache) Set(ctx context.Context, key string, body []byte) {
	if err := ec.client.Set(ctx, exportKeyPrefix+key, body, ec.ttl).Err(); err != nil {
		slog.Warn("export cache set error", "key", key, "error", err)
	}
}

// InvalidateAll removes all cached exports by scanning for the prefix.
// It is used when the whole store is replaced.
func (ec *ExportCache) InvalidateAll(ctx context.Context) {
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := ec.client.Scan(ctx, cursor, exportKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("export cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := ec.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("export cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Debug("export cache cleared", "deleted", deleted)
	}
}

// ExportKey returns the cache key for one rendering of a template version
// at store generation gen.
func ExportKey(templateID string, version int, format string, gen uint64) string {
	return fmt.Sprintf("%s:%d:%s:%d", templateID, version, format, gen)
}
