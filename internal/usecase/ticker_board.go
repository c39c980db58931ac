package usecase

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"StockInsight/internal/domain/models"
	"StockInsight/internal/domain/repository"
	"StockInsight/pkg/logger"
)

// TickerBoard keeps the latest streamed quote per symbol.
type TickerBoard struct {
	stream         repository.MarketStream
	metrics        repository.Metrics
	log            *logger.Logger
	reconnectDelay time.Duration

	mu      sync.RWMutex
	quotes  map[string]models.TickerQuote
	done    chan struct{}
	closing atomic.Bool
}

func NewTickerBoard(stream repository.MarketStream, metrics repository.Metrics, reconnectDelay time.Duration, log *logger.Logger) *TickerBoard {
	return &TickerBoard{
		stream:         stream,
		metrics:        metrics,
		log:            log.With(logger.String("component", "ticker_board")),
		reconnectDelay: reconnectDelay,
		quotes:         make(map[string]models.TickerQuote),
	}
}

// IsConnected returns true if the market stream is connected.
func (b *TickerBoard) IsConnected() bool {
	return b.stream.IsConnected()
}

func (b *TickerBoard) Start(ctx context.Context) error {
	if err := b.stream.Connect(ctx); err != nil {
		return err
	}
	if err := b.stream.Subscribe(ctx); err != nil {
		return err
	}
	b.done = make(chan struct{})
	go b.consume(ctx)
	return nil
}

func (b *TickerBoard) consume(ctx context.Context) {
	defer close(b.done)
	for {
		quotes, errs := b.stream.Read(ctx)
		if !b.drain(ctx, quotes, errs) || b.closing.Load() {
			return
		}
		if !b.reconnect(ctx) {
			return
		}
	}
}

// reconnect retries until the stream is back or ctx ends.
func (b *TickerBoard) reconnect(ctx context.Context) bool {
	for {
		err := b.stream.Reconnect(ctx)
		if err == nil {
			b.log.Info("stream reconnected")
			return true
		}
		if ctx.Err() != nil || b.closing.Load() {
			return false
		}
		b.log.Warn("stream reconnect failed", logger.Error(err))
		select {
		case <-ctx.Done():
			return false
		case <-time.After(b.reconnectDelay):
		}
	}
}

// drain applies quotes until the stream errors (true) or ctx ends (false).
func (b *TickerBoard) drain(ctx context.Context, quotes <-chan models.TickerQuote, errs <-chan error) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			b.metrics.RecordError("stream")
			b.log.Warn("stream read failed", logger.Error(err))
			return true
		case q, ok := <-quotes:
			if !ok {
				return ctx.Err() == nil
			}
			b.apply(q)
		}
	}
}

// apply keeps the newest quote; out-of-order trades are ignored.
func (b *TickerBoard) apply(q models.TickerQuote) {
	b.mu.Lock()
	prev, seen := b.quotes[q.Symbol]
	if !seen || !q.Timestamp.Before(prev.Timestamp) {
		b.quotes[q.Symbol] = q
	}
	b.mu.Unlock()
	b.metrics.RecordLastPrice(q.Symbol, q.Price)
}

// Quotes returns the latest quote per symbol, ordered by symbol.
func (b *TickerBoard) Quotes() []models.TickerQuote {
	b.mu.RLock()
	out := make([]models.TickerQuote, 0, len(b.quotes))
	for _, q := range b.quotes {
		out = append(out, q)
	}
	b.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Shutdown closes the stream and waits for the consumer to exit.
func (b *TickerBoard) Shutdown(ctx context.Context) error {
	b.closing.Store(true)
	err := b.stream.Close()
	if b.done != nil {
		select {
		case <-b.done:
		case <-ctx.Done():
		}
	}
	return err
}
