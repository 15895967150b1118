// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// catalog.go caches the flat category listing in Valkey. Every category
// mutation invalidates it, so the TTL only bounds staleness when an
// invalidation is lost.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"jellyarcade/internal/models"
)

const (
	// categoriesKey holds the JSON encoded category list.
	categoriesKey = "catalog:categories"

	// DefaultCatalogTTL is how long the category list stays cached.
	DefaultCatalogTTL = 5 * time.Minute
)

// CatalogCache stores catalog listings in Valkey. Errors are logged and
// treated as misses so a cache outage never fails a request.
type CatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCatalogCache creates a catalog cache backed by the given Valkey client.
func NewCatalogCache(client *redis.Client, ttl time.Duration) *CatalogCache {
	if ttl <= 0 {
		ttl = DefaultCatalogTTL
	}
	return &CatalogCache{client: client, ttl: ttl}
}

// Categories returns the cached category list.
func (c *CatalogCache) Categories(ctx context.Context) ([]models.Category, bool) {
	val, err := c.client.Get(ctx, categoriesKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("catalog cache get error", "error", err)
		return nil, false
	}

	var list []models.Category
	if err := json.Unmarshal(val, &list); err != nil {
		slog.Warn("catalog cache decode error", "error", err)
		return nil, false
	}
	slog.Debug("catalog cache hit", "categories", len(list))
	return list, true
}

// StoreCategories caches list with the configured TTL.
func (c *CatalogCache) StoreCategories(ctx context.Context, list []models.Category) {
	payload, err := json.Marshal(list)
	if err != nil {
		slog.Warn("catalog cache encode error", "error", err)
		return
	}
	if err := c.client.Set(ctx, categoriesKey, payload, c.ttl).Err(); err != nil {
		slog.Warn("catalog cache set error", "error", err)
	}
}

// Invalidate drops the cached category list.
func (c *CatalogCache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, categoriesKey).Err(); err != nil {
		slog.Warn("catalog cache invalidate error", "error", err)
		return
	}
	slog.Debug("catalog cache invalidated")
}
