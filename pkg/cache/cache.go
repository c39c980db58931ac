// Package cache provides the key/value stores behind the snapshot cache,
// the watchlist and the portfolio transaction list.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"StockInsight/pkg/config"
)

var ErrCacheMiss = errors.New("cache: key not found")

// Service defines cache operations. Values are stored JSON-encoded; Get
// decodes into dest.
type Service interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Get(ctx context.Context, key string, dest any) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, keys ...string) (bool, error)
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
	Close() error
}

// Key joins parts with ':' ("snapshot:AAPL").
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// GetTyped is Get with the destination type as a parameter.
func GetTyped[T any](ctx context.Context, c Service, key string) (T, error) {
	var v T
	err := c.Get(ctx, key, &v)
	return v, err
}

func encode(value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	return json.Marshal(value)
}

func decode(data []byte, dest any) error {
	switch d := dest.(type) {
	case *[]byte:
		*d = append([]byte(nil), data...)
		return nil
	case *string:
		*d = string(data)
		return nil
	}
	return json.Unmarshal(data, dest)
}

// New builds the backend selected by cfg.Backend.
func New(cfg config.CacheConfig) (Service, error) {
	memory := func() *MemoryCache {
		return NewMemoryCache(WithMemoryMaxSize(cfg.MemoryMaxSize), WithMemoryCleanup(cfg.CleanupEvery))
	}
	redisCache := func() (*RedisCache, error) {
		r := cfg.Redis
		return NewRedisCache(
			WithRedisHost(r.Host),
			WithRedisPort(r.Port),
			WithRedisPassword(r.Password),
			WithRedisDB(r.DB),
			WithRedisPool(r.PoolSize),
			WithRedisTimeouts(r.DialTimeout, r.ReadTimeout, r.WriteTimeout),
			WithRedisPrefix(r.KeyPrefix),
		)
	}

	switch cfg.Backend {
	case "", "memory":
		return memory(), nil
	case "redis":
		return redisCache()
	case "layered":
		rc, err := redisCache()
		if err != nil {
			return nil, err
		}
		return NewLayeredCache(memory(), rc), nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
}
