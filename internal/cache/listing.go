// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// listing.go provides a Valkey-backed cache for serialized post read
// responses. Read handlers store the JSON they produced so repeated reads
// skip the database. Any post write clears the whole cache, since a single
// post appears in several listings at once.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// listingKeyPrefix is the Valkey key prefix for cached read responses.
	listingKeyPrefix = "posts:"

	// DefaultListingTTL is how long a cached response stays valid.
	DefaultListingTTL = time.Minute
)

// ListingCache manages cached post read responses in Valkey.
type ListingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewListingCache creates a listing cache backed by the given Valkey client.
func NewListingCache(client *redis.Client, ttl time.Duration) *ListingCache {
	if ttl == 0 {
		ttl = DefaultListingTTL
	}
	return &ListingCache{client: client, ttl: ttl}
}

// Get retrieves a cached response body. The bool is false on a miss or on
// any Valkey error.
func (lc *ListingCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := lc.client.Get(ctx, listingKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("listing cache get error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("listing cache hit", "key", key)
	return val, true
}

// Set stores a response body with the configured TTL.
func (lc *ListingCache) Set(ctx context.Context, key string, body []byte) {
	if err := lc.client.Set(ctx, listingKeyPrefix+key, body, lc.ttl).Err(); err != nil {
		slog.Warn("listing cache set error", "key", key, "error", err)
	}
}

// InvalidateAll removes every cached response by scanning for the prefix.
func (lc *ListingCache) InvalidateAll(ctx context.Context) {
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := lc.client.Scan(ctx, cursor, listingKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("listing cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := lc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("listing cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Debug("listing cache cleared", "deleted", deleted)
	}
}

// AllKey is the cache key for the full post listing.
func AllKey() string {
	return "all"
}

// CategoryKey is the cache key for one category listing.
func CategoryKey(category string) string {
	return "category:" + category
}

// UserKey is the cache key for one author's listing.
func UserKey(id uuid.UUID) string {
	return "user:" + id.String()
}

// PostKey is the cache key for a single post.
func PostKey(id uuid.UUID) string {
	return "post:" + id.String()
}
