package usecase

import (
	"context"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockInsight/internal/domain/models"
	"StockInsight/internal/domain/service"
	"StockInsight/internal/service/mock"
	"StockInsight/pkg/logger"
)

func jsonAnswer(body string) fakeStructured {
	return func(_ service.StructuredRequest, out any) error {
		return json.Unmarshal([]byte(body), out)
	}
}

func TestAnalyzeSector(t *testing.T) {
	gen := jsonAnswer(`{"keyPlayers":"NVDA","recentTrends":"AI","futureOutlook":"up","investmentSummary":"mixed"}`)
	m := NewMarketAnalyst(gen, nil, time.Second, logger.Nop())

	got, err := m.AnalyzeSector(context.Background(), "  Semiconductors ")
	require.NoError(t, err)
	assert.Equal(t, "Semiconductors", got.Sector)
	assert.Equal(t, "NVDA", got.KeyPlayers)
	assert.Equal(t, "mixed", got.InvestmentSummary)
}

func TestAnalyzeSectorErrors(t *testing.T) {
	_, err := NewMarketAnalyst(nil, nil, 0, logger.Nop()).AnalyzeSector(context.Background(), "Energy")
	assert.ErrorIs(t, err, ErrNoAnalysisBackend)

	failing := fakeStructured(func(service.StructuredRequest, any) error { return errBoom })
	_, err = NewMarketAnalyst(failing, nil, 0, logger.Nop()).AnalyzeSector(context.Background(), "Energy")
	assert.ErrorIs(t, err, errBoom)
}

func TestDiscoverRelationsClampsConfidence(t *testing.T) {
	cases := []struct {
		body string
		want float64
	}{
		{`{"relations":"r","confidenceScore":0.7,"explanation":"e"}`, 0.7},
		{`{"relations":"r","confidenceScore":1.8,"explanation":"e"}`, 1},
		{`{"relations":"r","confidenceScore":-2,"explanation":"e"}`, 0},
	}
	for _, tc := range cases {
		m := NewMarketAnalyst(jsonAnswer(tc.body), nil, 0, logger.Nop())
		got, err := m.DiscoverRelations(context.Background(), "AAPL, GLD", "correlation")
		require.NoError(t, err)
		assert.InDelta(t, tc.want, got.ConfidenceScore, 1e-9)
	}
	assert.Zero(t, clamp01(math.NaN()))
}

func TestMoversDirection(t *testing.T) {
	m := NewMarketAnalyst(nil, mock.NewGenerator(lookback, mock.WithSeed(3)), 0, logger.Nop())

	for _, dir := range []models.MoverDirection{models.Gainers, models.Losers} {
		movers := m.Movers(5, dir)
		require.Len(t, movers, 5)
		seen := map[string]bool{}
		for _, mv := range movers {
			assert.False(t, seen[mv.Ticker], "duplicate %s", mv.Ticker)
			seen[mv.Ticker] = true
			assert.Equal(t, dir == models.Gainers, mv.IsUp)
		}
	}
}
