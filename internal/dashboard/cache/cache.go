// Package cache is an optional read-through cache for backend collections,
// shared by every tab and replica serving the same user.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/qiniu/zabbixboard/internal/dashboard/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const keyPrefix = "zabbixboard:v1"

// Cache stores JSON encoded values with a TTL.
type Cache interface {
	// Get decodes the cached value into dst and reports whether it was present.
	Get(ctx context.Context, key string, dst interface{}) (bool, error)
	Set(ctx context.Context, key string, v interface{}, ttl time.Duration) error
}

// NoopCache never hits.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string, interface{}) (bool, error)        { return false, nil }
func (NoopCache) Set(context.Context, string, interface{}, time.Duration) error { return nil }

// RedisCache keeps values in Redis.
type RedisCache struct {
	rdb *redis.Client
}

// New returns a Redis backed cache, or NoopCache when rdb is nil.
func New(rdb *redis.Client) Cache {
	if rdb == nil {
		return NoopCache{}
	}
	return &RedisCache{rdb: rdb}
}

func (c *RedisCache) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	bs, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(bs, dst); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	bs, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, bs, ttl).Err()
}

// Key builds the cache key of a collection for one user and scope.
func Key(subject, resource string, scope model.Scope) string {
	return fmt.Sprintf("%s:%s:%s:%s", keyPrefix, subject, resource, scope.Key())
}

// ReadThrough serves key from c when present, otherwise calls fetch and stores
// its result. Cache failures are logged and never fail the read; fetch errors
// are returned as is and not cached.
func ReadThrough[T any](ctx context.Context, c Cache, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	if c == nil || ttl <= 0 {
		return fetch(ctx)
	}
	var cached T
	hit, err := c.Get(ctx, key, &cached)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache read failed")
	}
	if hit {
		return cached, nil
	}

	v, err := fetch(ctx)
	if err != nil {
		return v, err
	}
	if err := c.Set(ctx, key, v, ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
	return v, nil
}
