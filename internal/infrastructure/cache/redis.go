package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"servicehub/internal/config"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrMiss is returned when a key is absent or the cache is disabled
var ErrMiss = errors.New("cache miss")

// Cache is a JSON read-through cache for discovery queries. Provider and
// service listings are read far more often than they change; mutations
// invalidate the affected keys.
type Cache struct {
	client  *redis.Client
	ttl     time.Duration
	enabled bool
	logger  zerolog.Logger
}

// New creates a cache backed by Redis. When disabled, every Get is a miss
// and Set and Invalidate are no-ops, so callers need no branching.
func New(cfg config.RedisConfig, logger zerolog.Logger) *Cache {
	if !cfg.Enabled {
		return &Cache{logger: logger}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &Cache{
		client:  client,
		ttl:     ttl,
		enabled: true,
		logger:  logger,
	}
}

// NewWithClient wires an existing Redis client, used by tests
func NewWithClient(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *Cache {
	return &Cache{
		client:  client,
		ttl:     ttl,
		enabled: true,
		logger:  logger,
	}
}

// Get unmarshals the cached value for key into out
func (c *Cache) Get(ctx context.Context, key string, out interface{}) error {
	if !c.enabled {
		return ErrMiss
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return ErrMiss
		}
		c.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
		return ErrMiss
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode cached value: %w", err)
	}
	return nil
}

// Set stores value under key with the configured TTL. Failures are logged
// and swallowed; the cache never breaks a request.
func (c *Cache) Set(ctx context.Context, key string, value interface{}) {
	if !c.enabled {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache encode failed")
		return
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

// Invalidate removes keys matching the given patterns
func (c *Cache) Invalidate(ctx context.Context, patterns ...string) {
	if !c.enabled {
		return
	}

	for _, pattern := range patterns {
		iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
		for iter.Next(ctx) {
			if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
				c.logger.Warn().Err(err).Str("key", iter.Val()).Msg("cache invalidation failed")
			}
		}
		if err := iter.Err(); err != nil {
			c.logger.Warn().Err(err).Str("pattern", pattern).Msg("cache scan failed")
		}
	}
}

// Close releases the Redis connection
func (c *Cache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Key builders keep cache key formats in one place.

func ProviderListKey(location string, offset, limit int) string {
	return fmt.Sprintf("providers:list:%s:%d:%d", location, offset, limit)
}

func ProviderKey(id string) string {
	return "providers:id:" + id
}

func ServiceListKey(category string, offset, limit int) string {
	return fmt.Sprintf("services:list:%s:%d:%d", category, offset, limit)
}

func ServiceKey(id string) string {
	return "services:id:" + id
}
