package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockInsight/internal/domain/models"
	"StockInsight/pkg/cache"
	"StockInsight/pkg/logger"
)

type recordingRefresher struct {
	mu      sync.Mutex
	tickers []string
}

func (r *recordingRefresher) Refresh(_ context.Context, ticker string) models.StockSnapshot {
	r.mu.Lock()
	r.tickers = append(r.tickers, ticker)
	r.mu.Unlock()
	return models.StockSnapshot{Ticker: ticker, DataSource: models.DataSourceMock}
}

func (r *recordingRefresher) Seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.tickers...)
}

func newTestWatchlist(t *testing.T, seed ...string) (*WatchlistService, *recordingRefresher, *cache.MemoryCache) {
	t.Helper()
	c := cache.NewMemoryCache()
	t.Cleanup(func() { _ = c.Close() })
	ref := &recordingRefresher{}
	return NewWatchlistService(cache.NewListStore(c, "test"), ref, c, seed, logger.Nop()), ref, c
}

func TestWatchlistSeedAndEdit(t *testing.T) {
	w, _, _ := newTestWatchlist(t, "aapl", "MSFT", "aapl")
	ctx := context.Background()

	list, err := w.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, list)

	list, err = w.Add(ctx, "nvda")
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT", "NVDA"}, list)

	list, err = w.Add(ctx, "NVDA")
	require.NoError(t, err)
	assert.Len(t, list, 3)

	list, err = w.Remove(ctx, "aapl")
	require.NoError(t, err)
	assert.Equal(t, []string{"MSFT", "NVDA"}, list)

	list, err = w.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"MSFT", "NVDA"}, list)
}

func TestWatchlistEmptyAfterRemovingSeed(t *testing.T) {
	w, _, _ := newTestWatchlist(t, "AAPL")
	ctx := context.Background()

	_, err := w.Remove(ctx, "AAPL")
	require.NoError(t, err)

	list, err := w.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestWatchlistWarm(t *testing.T) {
	w, ref, _ := newTestWatchlist(t, "AAPL", "MSFT", "TSLA")

	n, err := w.Warm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.ElementsMatch(t, []string{"AAPL", "MSFT", "TSLA"}, ref.Seen())
}

func TestWatchlistWarmSkipsWhenLocked(t *testing.T) {
	w, ref, c := newTestWatchlist(t, "AAPL")
	ctx := context.Background()

	ok, err := c.TryLock(ctx, warmupLockKey, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	n, err := w.Warm(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, ref.Seen())
}

func TestWatchlistScheduler(t *testing.T) {
	w, ref, _ := newTestWatchlist(t, "AAPL")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.Error(t, w.StartScheduler(ctx, "not a cron spec"))
	require.NoError(t, w.StartScheduler(ctx, "* * * * * *"))

	assert.Eventually(t, func() bool { return len(ref.Seen()) > 0 }, 3*time.Second, 50*time.Millisecond)

	stopCtx, stop := context.WithTimeout(context.Background(), time.Second)
	defer stop()
	w.StopScheduler(stopCtx)
}

func TestWatchlistSchedulerDisabled(t *testing.T) {
	w, _, _ := newTestWatchlist(t)
	require.NoError(t, w.StartScheduler(context.Background(), ""))
	w.StopScheduler(context.Background())
}
