package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockInsight/internal/domain/models"
	"StockInsight/pkg/logger"
)

// scriptedStream serves one batch of quotes per Read followed by a read error,
// then parks once the batches run out.
type scriptedStream struct {
	mu         sync.Mutex
	batches    [][]models.TickerQuote
	reads      int
	reconnects int
	connected  bool
}

func (s *scriptedStream) Connect(context.Context) error {
	s.mu.Lock()
	s.connected = true
	s.mu.Unlock()
	return nil
}

func (s *scriptedStream) Subscribe(context.Context) error { return nil }

func (s *scriptedStream) Read(ctx context.Context) (<-chan models.TickerQuote, <-chan error) {
	s.mu.Lock()
	var batch []models.TickerQuote
	if s.reads < len(s.batches) {
		batch = s.batches[s.reads]
	}
	s.reads++
	last := s.reads > len(s.batches)
	s.mu.Unlock()

	quotes := make(chan models.TickerQuote, len(batch))
	errs := make(chan error, 1)
	for _, q := range batch {
		quotes <- q
	}
	if last {
		// park until the test ends
		go func() {
			<-ctx.Done()
			close(quotes)
			close(errs)
		}()
		return quotes, errs
	}
	go func() {
		time.Sleep(20 * time.Millisecond)
		errs <- errBoom
	}()
	return quotes, errs
}

func (s *scriptedStream) Reconnect(context.Context) error {
	s.mu.Lock()
	s.reconnects++
	s.mu.Unlock()
	return nil
}

func (s *scriptedStream) Close() error {
	s.mu.Lock()
	s.connected = false
	s.mu.Unlock()
	return nil
}

func (s *scriptedStream) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *scriptedStream) Reconnects() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reconnects
}

func TestTickerBoardKeepsLatestQuotes(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 14, 0, 0, 0, time.UTC)
	stream := &scriptedStream{batches: [][]models.TickerQuote{
		{
			{Symbol: "MSFT", Price: 410, Timestamp: t0},
			{Symbol: "AAPL", Price: 190, Timestamp: t0},
			{Symbol: "AAPL", Price: 191, Timestamp: t0.Add(time.Second)},
		},
		{
			{Symbol: "AAPL", Price: 150, Timestamp: t0.Add(-time.Minute)}, // stale
			{Symbol: "MSFT", Price: 412, Timestamp: t0.Add(2 * time.Second)},
		},
	}}
	metrics := newCountingMetrics()
	board := NewTickerBoard(stream, metrics, time.Millisecond, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, board.Start(ctx))
	assert.True(t, board.IsConnected())

	assert.Eventually(t, func() bool {
		q := board.Quotes()
		return len(q) == 2 && q[1].Price == 412 && stream.Reconnects() >= 2
	}, 2*time.Second, 10*time.Millisecond)

	quotes := board.Quotes()
	assert.Equal(t, "AAPL", quotes[0].Symbol)
	assert.InDelta(t, 191, quotes[0].Price, 1e-9)
	assert.Equal(t, "MSFT", quotes[1].Symbol)

	metrics.mu.Lock()
	assert.Equal(t, 2, metrics.errors["stream"])
	assert.InDelta(t, 412, metrics.prices["MSFT"], 1e-9)
	metrics.mu.Unlock()

	cancel()
	shutdownCtx, stop := context.WithTimeout(context.Background(), time.Second)
	defer stop()
	require.NoError(t, board.Shutdown(shutdownCtx))
	assert.False(t, board.IsConnected())
}
