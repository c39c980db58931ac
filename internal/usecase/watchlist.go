package usecase

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"StockInsight/internal/domain/models"
	"StockInsight/internal/domain/repository"
	"StockInsight/pkg/cache"
	"StockInsight/pkg/logger"
	"StockInsight/pkg/util"
)

const (
	watchlistKey   = "watchlist"
	warmupLockKey  = "lock:watchlist-warmup"
	warmupLockTTL  = 2 * time.Minute
	warmupParallel = 4
)

// Refresher re-resolves a ticker and repopulates the snapshot cache.
type Refresher interface {
	Refresh(ctx context.Context, ticker string) models.StockSnapshot
}

type WatchlistService struct {
	store     repository.ListStore
	refresher Refresher
	locker    cache.Service
	seed      []string
	log       *logger.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

// NewWatchlistService seeds the list from seed when the store holds none.
// locker is optional; with a shared cache it keeps concurrent instances from
// warming the same list.
func NewWatchlistService(store repository.ListStore, refresher Refresher, locker cache.Service, seed []string, log *logger.Logger) *WatchlistService {
	return &WatchlistService{
		store:     store,
		refresher: refresher,
		locker:    locker,
		seed:      seed,
		log:       log.With(logger.String("component", "watchlist")),
	}
}

func (w *WatchlistService) List(ctx context.Context) ([]string, error) {
	var tickers []string
	found, err := w.store.Load(ctx, watchlistKey, &tickers)
	if err != nil {
		return nil, fmt.Errorf("load watchlist: %w", err)
	}
	if !found {
		tickers = make([]string, 0, len(w.seed))
		for _, t := range w.seed {
			if t = util.NormalizeTicker(t); t != "" && !slices.Contains(tickers, t) {
				tickers = append(tickers, t)
			}
		}
	}
	if tickers == nil {
		tickers = []string{}
	}
	return tickers, nil
}

// Add is idempotent.
func (w *WatchlistService) Add(ctx context.Context, ticker string) ([]string, error) {
	ticker = util.NormalizeTicker(ticker)

	w.mu.Lock()
	defer w.mu.Unlock()
	tickers, err := w.List(ctx)
	if err != nil {
		return nil, err
	}
	if slices.Contains(tickers, ticker) {
		return tickers, nil
	}
	tickers = append(tickers, ticker)
	if err := w.store.Save(ctx, watchlistKey, tickers); err != nil {
		return nil, fmt.Errorf("save watchlist: %w", err)
	}
	return tickers, nil
}

// Remove is idempotent.
func (w *WatchlistService) Remove(ctx context.Context, ticker string) ([]string, error) {
	ticker = util.NormalizeTicker(ticker)

	w.mu.Lock()
	defer w.mu.Unlock()
	tickers, err := w.List(ctx)
	if err != nil {
		return nil, err
	}
	tickers = slices.DeleteFunc(tickers, func(t string) bool { return t == ticker })
	if err := w.store.Save(ctx, watchlistKey, tickers); err != nil {
		return nil, fmt.Errorf("save watchlist: %w", err)
	}
	return tickers, nil
}

// Warm refreshes every watched ticker and returns how many were refreshed.
func (w *WatchlistService) Warm(ctx context.Context) (int, error) {
	if w.locker != nil {
		ok, err := w.locker.TryLock(ctx, warmupLockKey, warmupLockTTL)
		if err != nil {
			return 0, fmt.Errorf("acquire warm-up lock: %w", err)
		}
		if !ok {
			w.log.Debug("warm-up already running elsewhere")
			return 0, nil
		}
		defer func() { _ = w.locker.Unlock(context.WithoutCancel(ctx), warmupLockKey) }()
	}

	tickers, err := w.List(ctx)
	if err != nil {
		return 0, err
	}

	sem := make(chan struct{}, warmupParallel)
	var wg sync.WaitGroup
	for _, t := range tickers {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer func() { <-sem; wg.Done() }()
			snap := w.refresher.Refresh(ctx, t)
			w.log.Debug("ticker warmed",
				logger.String("ticker", t),
				logger.String("source", string(snap.DataSource)))
		}()
	}
	wg.Wait()
	return len(tickers), nil
}

// StartScheduler registers Warm on a six-field cron spec. An empty spec
// disables the scheduler.
func (w *WatchlistService) StartScheduler(ctx context.Context, spec string) error {
	if spec == "" {
		w.log.Info("watchlist warm-up disabled")
		return nil
	}

	c := cron.New(cron.WithSeconds())
	if _, err := c.AddFunc(spec, func() {
		start := time.Now()
		n, err := w.Warm(ctx)
		if err != nil {
			w.log.Warn("watchlist warm-up failed", logger.Error(err))
			return
		}
		w.log.Info("watchlist warmed",
			logger.Int("tickers", n),
			logger.Duration("took", time.Since(start)))
	}); err != nil {
		return fmt.Errorf("register warm-up %q: %w", spec, err)
	}

	w.mu.Lock()
	w.cron = c
	w.mu.Unlock()
	c.Start()
	w.log.Info("watchlist warm-up scheduled", logger.String("spec", spec))
	return nil
}

// StopScheduler waits for a running warm-up to finish or ctx to expire.
func (w *WatchlistService) StopScheduler(ctx context.Context) {
	w.mu.Lock()
	c := w.cron
	w.cron = nil
	w.mu.Unlock()
	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}
}
