// Package cache is a Redis-backed read-through cache for backend list
// pages. Entries are keyed by resource, a per-resource version counter, and
// the query. Invalidate bumps the version, so every cached page of that
// resource is orphaned at once and expires on its own TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "listcache:"

// Cache stores JSON-encoded list pages in Redis.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New returns a cache with the given entry TTL. A nil client or a zero TTL
// yields a cache that never stores anything.
func New(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

func (c *Cache) enabled() bool {
	return c != nil && c.rdb != nil && c.ttl > 0
}

func versionKey(resource string) string {
	return keyPrefix + resource + ":v"
}

func (c *Cache) entryKey(ctx context.Context, resource string, query url.Values) (string, error) {
	v, err := c.rdb.Get(ctx, versionKey(resource)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return fmt.Sprintf("%s%s:%d:%s", keyPrefix, resource, v, query.Encode()), nil
}

// Fetch returns the cached value for (resource, query) or calls load and
// caches its result. Redis failures fall through to load; a cache outage
// never fails a page.
func Fetch[T any](ctx context.Context, c *Cache, resource string, query url.Values, load func(context.Context) (T, error)) (T, error) {
	if !c.enabled() {
		return load(ctx)
	}

	key, err := c.entryKey(ctx, resource, query)
	if err != nil {
		slog.Warn("list cache unavailable", slog.String("resource", resource), slog.Any("error", err))
		return load(ctx)
	}

	if data, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			return v, nil
		}
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}

	if data, err := json.Marshal(v); err == nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			slog.Warn("list cache write failed", slog.String("resource", resource), slog.Any("error", err))
		}
	}
	return v, nil
}

// Invalidate orphans every cached page of resource. Call it after each
// successful mutation so the follow-up refetch reaches the backend.
func (c *Cache) Invalidate(ctx context.Context, resource string) {
	if !c.enabled() {
		return
	}
	if err := c.rdb.Incr(ctx, versionKey(resource)).Err(); err != nil {
		slog.Warn("list cache invalidation failed", slog.String("resource", resource), slog.Any("error", err))
	}
}
