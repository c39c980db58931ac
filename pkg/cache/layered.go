package cache

import (
	"context"
	"time"
)

// LayeredCache is a two-level cache: a small local L1 in front of a shared L2.
// L1 entries are capped at l1TTL so other instances' writes become visible.
type LayeredCache struct {
	l1    Service
	l2    Service
	l1TTL time.Duration
}

func NewLayeredCache(l1, l2 Service) *LayeredCache {
	return &LayeredCache{l1: l1, l2: l2, l1TTL: 30 * time.Second}
}

func (lc *LayeredCache) localTTL(expiration time.Duration) time.Duration {
	if expiration <= 0 || expiration > lc.l1TTL {
		return lc.l1TTL
	}
	return expiration
}

// Set writes through: L2 first, then L1.
func (lc *LayeredCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	if err := lc.l2.Set(ctx, key, value, expiration); err != nil {
		return err
	}
	_ = lc.l1.Set(ctx, key, value, lc.localTTL(expiration))
	return nil
}

func (lc *LayeredCache) Get(ctx context.Context, key string, dest any) error {
	if err := lc.l1.Get(ctx, key, dest); err == nil {
		return nil
	}

	var raw []byte
	if err := lc.l2.Get(ctx, key, &raw); err != nil {
		return err
	}
	_ = lc.l1.Set(ctx, key, raw, lc.l1TTL)
	return decode(raw, dest)
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.l1.Delete(ctx, keys...)
	return lc.l2.Delete(ctx, keys...)
}

func (lc *LayeredCache) Exists(ctx context.Context, keys ...string) (bool, error) {
	return lc.l2.Exists(ctx, keys...)
}

func (lc *LayeredCache) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return lc.l2.TryLock(ctx, key, ttl)
}

func (lc *LayeredCache) Unlock(ctx context.Context, key string) error {
	return lc.l2.Unlock(ctx, key)
}

func (lc *LayeredCache) Close() error {
	_ = lc.l1.Close()
	return lc.l2.Close()
}
