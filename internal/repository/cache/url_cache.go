// Package cache wraps a URL repository with Redis-backed caching on the
// redirect hot path.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"shortlink/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	urlCachePrefix = "url:"
	urlCacheTTL    = 5 * time.Minute
)

// URLCache holds resolved URLs keyed by short code. Misses and cache-layer
// failures both surface as nil, nil; the caller falls through to storage.
type URLCache interface {
	Get(ctx context.Context, shortCode string) (*domain.URL, error)
	Set(ctx context.Context, u *domain.URL) error
	Invalidate(ctx context.Context, shortCode string) error
}

// Compile-time interface checks
var (
	_ URLCache = (*RedisURLCache)(nil)
	_ URLCache = (*noopURLCache)(nil)
)

// RedisURLCache implements URLCache on Redis.
type RedisURLCache struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewRedisURLCache creates a Redis-based URL cache. A nil client yields a
// no-op cache so callers need not branch on deployment shape.
func NewRedisURLCache(rdb *redis.Client, logger *zap.Logger) URLCache {
	if rdb == nil {
		return &noopURLCache{}
	}
	return &RedisURLCache{rdb: rdb, logger: logger}
}

func (c *RedisURLCache) cacheKey(shortCode string) string {
	return urlCachePrefix + shortCode
}

func (c *RedisURLCache) Get(ctx context.Context, shortCode string) (*domain.URL, error) {
	data, err := c.rdb.Get(ctx, c.cacheKey(shortCode)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("url cache read failed", zap.String("short_code", shortCode), zap.Error(err))
		}
		return nil, nil
	}

	var u domain.URL
	if err := json.Unmarshal(data, &u); err != nil {
		c.logger.Warn("url cache entry corrupt", zap.String("short_code", shortCode), zap.Error(err))
		return nil, nil
	}
	return &u, nil
}

func (c *RedisURLCache) Set(ctx context.Context, u *domain.URL) error {
	data, err := json.Marshal(u)
	if err != nil {
		c.logger.Warn("url cache marshal failed", zap.Error(err))
		return nil
	}
	if err := c.rdb.Set(ctx, c.cacheKey(u.ShortCode), data, urlCacheTTL).Err(); err != nil {
		c.logger.Warn("url cache write failed", zap.String("short_code", u.ShortCode), zap.Error(err))
	}
	return nil
}

func (c *RedisURLCache) Invalidate(ctx context.Context, shortCode string) error {
	if err := c.rdb.Del(ctx, c.cacheKey(shortCode)).Err(); err != nil {
		c.logger.Warn("url cache invalidation failed", zap.String("short_code", shortCode), zap.Error(err))
	}
	return nil
}

// noopURLCache is used when Redis is not configured.
type noopURLCache struct{}

func (c *noopURLCache) Get(context.Context, string) (*domain.URL, error) { return nil, nil }
func (c *noopURLCache) Set(context.Context, *domain.URL) error           { return nil }
func (c *noopURLCache) Invalidate(context.Context, string) error         { return nil }
