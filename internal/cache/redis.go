// Package cache holds the shared Redis-backed caches.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/badursun/Roqua-sub000/internal/models"
)

// DefaultPlaceTTL keeps resolved places for a week
const DefaultPlaceTTL = 7 * 24 * time.Hour

// Open creates a Redis client from a redis:// URL. An empty URL returns nil.
func Open(ctx context.Context, rawURL string) (*redis.Client, error) {
	if rawURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// RedisPlaceCache stores reverse geocoded places as JSON strings
type RedisPlaceCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisPlaceCache creates a place cache over client
func NewRedisPlaceCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisPlaceCache {
	if ttl <= 0 {
		ttl = DefaultPlaceTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisPlaceCache{client: client, prefix: "roqua:", ttl: ttl, logger: logger}
}

// Get returns the cached place. Redis errors count as a miss.
func (c *RedisPlaceCache) Get(ctx context.Context, key string) (models.Place, bool) {
	s, err := c.client.Get(ctx, c.prefix+key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Debug("redis_get_failed", "key", key, "err", err)
		}
		return models.Place{}, false
	}
	var place models.Place
	if err := json.Unmarshal([]byte(s), &place); err != nil {
		c.logger.Warn("redis_place_corrupt", "key", key, "err", err)
		return models.Place{}, false
	}
	return place, true
}

// Set stores the place with the cache TTL; failures are logged
func (c *RedisPlaceCache) Set(ctx context.Context, key string, place models.Place) {
	b, err := json.Marshal(place)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.prefix+key, string(b), c.ttl).Err(); err != nil {
		c.logger.Debug("redis_set_failed", "key", key, "err", err)
	}
}
