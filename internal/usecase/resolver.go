package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"StockInsight/internal/domain/models"
	"StockInsight/internal/domain/repository"
	"StockInsight/pkg/cache"
	"StockInsight/pkg/logger"
	"StockInsight/pkg/util"
)

// SnapshotGenerator produces the fallback snapshot.
type SnapshotGenerator interface {
	Generate(ticker string) models.StockSnapshot
}

// EventSink receives one event per resolution. It must not block.
type EventSink interface {
	Record(ctx context.Context, e models.ResolutionEvent)
}

type ResolverConfig struct {
	Lookback    int
	SnapshotTTL time.Duration
}

// Resolver walks the providers in order and returns the first live snapshot,
// or a mock one when none succeeds.
type Resolver struct {
	providers []repository.StockProvider
	predictor *Predictor
	mock      SnapshotGenerator
	cache     cache.Service
	events    EventSink
	metrics   repository.Metrics
	log       *logger.Logger
	cfg       ResolverConfig
	now       func() time.Time
}

// NewResolver takes providers in priority order. cache and events may be nil.
func NewResolver(
	providers []repository.StockProvider,
	predictor *Predictor,
	mock SnapshotGenerator,
	c cache.Service,
	events EventSink,
	metrics repository.Metrics,
	log *logger.Logger,
	cfg ResolverConfig,
) *Resolver {
	return &Resolver{
		providers: providers,
		predictor: predictor,
		mock:      mock,
		cache:     c,
		events:    events,
		metrics:   metrics,
		log:       log.With(logger.String("component", "resolver")),
		cfg:       cfg,
		now:       time.Now,
	}
}

func snapshotKey(ticker string) string { return cache.Key("snapshot", ticker) }

// Resolve never fails.
func (r *Resolver) Resolve(ctx context.Context, ticker string) models.StockSnapshot {
	requested := util.NormalizeTicker(ticker)
	start := r.now()

	if snap, ok := r.cached(ctx, requested); ok {
		return snap
	}

	attempts := 0
	for _, p := range r.providers {
		if !p.Configured() {
			r.log.Debug("provider not configured, skipping", logger.String("provider", p.Name()))
			continue
		}
		if ctx.Err() != nil {
			break
		}
		attempts++

		t0 := r.now()
		snap, err := p.Fetch(ctx, requested)
		elapsed := r.now().Sub(t0).Seconds()
		if err != nil {
			r.metrics.RecordProviderAttempt(p.Name(), "failure", elapsed)
			r.metrics.RecordError("provider")
			r.log.Warn("provider failed",
				logger.String("provider", p.Name()),
				logger.String("ticker", requested),
				logger.Error(err))
			continue
		}
		r.metrics.RecordProviderAttempt(p.Name(), "success", elapsed)

		snap = snap.Normalize(requested, r.cfg.Lookback).WithSource(models.DataSourceLive, p.Name())
		snap = snap.WithPrediction(r.predictor.Predict(ctx, snap))

		r.store(ctx, snap)
		r.finish(ctx, snap, attempts, start)
		return snap
	}

	r.log.Error("all providers failed, serving mock data",
		logger.String("ticker", requested),
		logger.Int("attempts", attempts))
	snap := r.mock.Generate(requested)
	r.finish(ctx, snap, attempts, start)
	return snap
}

func (r *Resolver) cached(ctx context.Context, ticker string) (models.StockSnapshot, bool) {
	if r.cache == nil || r.cfg.SnapshotTTL <= 0 {
		return models.StockSnapshot{}, false
	}
	var snap models.StockSnapshot
	err := r.cache.Get(ctx, snapshotKey(ticker), &snap)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			r.log.Warn("snapshot cache read failed", logger.Error(err))
		}
		return models.StockSnapshot{}, false
	}
	return snap, true
}

func (r *Resolver) store(ctx context.Context, snap models.StockSnapshot) {
	if r.cache == nil || r.cfg.SnapshotTTL <= 0 {
		return
	}
	if err := r.cache.Set(ctx, snapshotKey(snap.Ticker), snap, r.cfg.SnapshotTTL); err != nil {
		r.log.Warn("snapshot cache write failed", logger.Error(err))
	}
}

// Refresh drops any cached snapshot and resolves again.
func (r *Resolver) Refresh(ctx context.Context, ticker string) models.StockSnapshot {
	if r.cache != nil {
		_ = r.cache.Delete(ctx, snapshotKey(util.NormalizeTicker(ticker)))
	}
	return r.Resolve(ctx, ticker)
}

func (r *Resolver) finish(ctx context.Context, snap models.StockSnapshot, attempts int, start time.Time) {
	latency := r.now().Sub(start)
	r.metrics.RecordResolution(snap.DataSource)
	r.metrics.RecordLatency("resolve", latency.Seconds())

	if r.events == nil {
		return
	}
	r.events.Record(ctx, models.ResolutionEvent{
		ID:            uuid.NewString(),
		Ticker:        snap.Ticker,
		Provider:      snap.Provider,
		DataSource:    snap.DataSource,
		Price:         snap.Price,
		Change:        snap.Change,
		ChangePercent: snap.ChangePercent,
		Attempts:      attempts,
		LatencyMs:     latency.Milliseconds(),
		ResolvedAt:    r.now().UTC(),
	})
}
