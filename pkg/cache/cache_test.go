package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockInsight/pkg/config"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type payload struct {
	Ticker string  `json:"ticker"`
	Price  float64 `json:"price"`
}

func newTestMemory(t *testing.T, opts ...MemoryOption) (*MemoryCache, *clock) {
	t.Helper()
	clk := &clock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	mc := NewMemoryCache(append([]MemoryOption{WithMemoryClock(clk.Now)}, opts...)...)
	t.Cleanup(func() { _ = mc.Close() })
	return mc, clk
}

func TestMemoryCacheRoundTripsStructs(t *testing.T) {
	ctx := context.Background()
	mc, _ := newTestMemory(t)

	require.NoError(t, mc.Set(ctx, Key("snapshot", "AAPL"), payload{Ticker: "AAPL", Price: 191.5}, time.Minute))

	got, err := GetTyped[payload](ctx, mc, "snapshot:AAPL")
	require.NoError(t, err)
	assert.Equal(t, payload{Ticker: "AAPL", Price: 191.5}, got)

	var s string
	require.NoError(t, mc.Set(ctx, "raw", "hello", 0))
	require.NoError(t, mc.Get(ctx, "raw", &s))
	assert.Equal(t, "hello", s)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	mc, clk := newTestMemory(t)

	require.NoError(t, mc.Set(ctx, "k", 1, time.Second))
	ok, err := mc.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	clk.Advance(2 * time.Second)
	var v int
	assert.ErrorIs(t, mc.Get(ctx, "k", &v), ErrCacheMiss)
	ok, _ = mc.Exists(ctx, "k")
	assert.False(t, ok)
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	mc, clk := newTestMemory(t, WithMemoryMaxSize(2))

	require.NoError(t, mc.Set(ctx, "a", 1, 0))
	clk.Advance(time.Second)
	require.NoError(t, mc.Set(ctx, "b", 2, 0))
	clk.Advance(time.Second)

	var v int
	require.NoError(t, mc.Get(ctx, "a", &v)) // a is now the most recent
	clk.Advance(time.Second)
	require.NoError(t, mc.Set(ctx, "c", 3, 0))

	assert.Equal(t, 2, mc.Len())
	assert.ErrorIs(t, mc.Get(ctx, "b", &v), ErrCacheMiss)
	require.NoError(t, mc.Get(ctx, "c", &v))
	assert.Equal(t, 3, v)
}

func TestMemoryCacheLock(t *testing.T) {
	ctx := context.Background()
	mc, clk := newTestMemory(t)

	ok, err := mc.TryLock(ctx, "warmup", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = mc.TryLock(ctx, "warmup", time.Minute)
	assert.False(t, ok)

	clk.Advance(2 * time.Minute)
	ok, _ = mc.TryLock(ctx, "warmup", time.Minute)
	assert.True(t, ok)

	require.NoError(t, mc.Unlock(ctx, "warmup"))
	ok, _ = mc.TryLock(ctx, "warmup", time.Minute)
	assert.True(t, ok)
}

func TestLayeredCacheFillsL1FromL2(t *testing.T) {
	ctx := context.Background()
	l1, _ := newTestMemory(t)
	l2, _ := newTestMemory(t)
	lc := NewLayeredCache(l1, l2)

	require.NoError(t, l2.Set(ctx, "k", payload{Ticker: "MSFT"}, 0))

	got, err := GetTyped[payload](ctx, lc, "k")
	require.NoError(t, err)
	assert.Equal(t, "MSFT", got.Ticker)

	ok, _ := l1.Exists(ctx, "k")
	assert.True(t, ok, "L1 should be populated after an L2 hit")

	require.NoError(t, lc.Delete(ctx, "k"))
	ok, _ = l1.Exists(ctx, "k")
	assert.False(t, ok)
	ok, _ = l2.Exists(ctx, "k")
	assert.False(t, ok)
}

func TestListStore(t *testing.T) {
	ctx := context.Background()
	mc, _ := newTestMemory(t)
	store := NewListStore(mc, "default")

	var tickers []string
	found, err := store.Load(ctx, "watchlist", &tickers)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Save(ctx, "watchlist", []string{"AAPL", "NVDA"}))
	found, err = store.Load(ctx, "watchlist", &tickers)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"AAPL", "NVDA"}, tickers)
}

type failing struct{ Service }

func (failing) Get(context.Context, string, any) error { return errors.New("down") }

func TestListStorePropagatesBackendErrors(t *testing.T) {
	var v []string
	found, err := NewListStore(failing{}, "p").Load(context.Background(), "k", &v)
	assert.Error(t, err)
	assert.False(t, found)
}

func TestNewSelectsBackend(t *testing.T) {
	svc, err := New(config.CacheConfig{Backend: "memory", MemoryMaxSize: 10})
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, svc)
	require.NoError(t, svc.Close())

	_, err = New(config.CacheConfig{Backend: "tape"})
	assert.Error(t, err)
}
