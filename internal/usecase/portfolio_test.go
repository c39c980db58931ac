package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockInsight/internal/domain/models"
	"StockInsight/pkg/cache"
	"StockInsight/pkg/logger"
)

type fakePricer map[string]string

func (f fakePricer) Resolve(_ context.Context, ticker string) models.StockSnapshot {
	return models.StockSnapshot{Ticker: ticker, Name: ticker + " Corp", Price: f[ticker], DataSource: models.DataSourceLive}
}

func day(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

func tx(ticker string, typ models.TransactionType, shares, price float64, d int) models.Transaction {
	return models.Transaction{Ticker: ticker, Type: typ, Shares: shares, Price: price, Date: day(d)}
}

func TestPositionsWeightedAverageCost(t *testing.T) {
	// Out of order on purpose: replay sorts by date.
	got := Positions([]models.Transaction{
		tx("AAPL", models.Sell, 5, 300, 3),
		tx("AAPL", models.Buy, 10, 100, 1),
		tx("AAPL", models.Buy, 10, 200, 2),
	})

	require.Len(t, got, 1)
	assert.Equal(t, "AAPL", got[0].Ticker)
	assert.InDelta(t, 15, got[0].Shares, 1e-9)
	assert.InDelta(t, 2250, got[0].TotalCost, 1e-9)
	assert.InDelta(t, 150, got[0].AvgCost, 1e-9)
}

func TestPositionsClampExhausted(t *testing.T) {
	cases := []struct {
		name string
		txs  []models.Transaction
	}{
		{"sell all", []models.Transaction{tx("MSFT", models.Buy, 10, 100, 1), tx("MSFT", models.Sell, 10, 120, 2)}},
		{"oversell", []models.Transaction{tx("MSFT", models.Buy, 10, 100, 1), tx("MSFT", models.Sell, 15, 120, 2)}},
		{"fractional dust", []models.Transaction{tx("MSFT", models.Buy, 0.3, 100, 1), tx("MSFT", models.Sell, 0.1, 100, 2), tx("MSFT", models.Sell, 0.2, 100, 3)}},
		{"sell without buy", []models.Transaction{tx("MSFT", models.Sell, 1, 100, 1)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Positions(tc.txs)
			require.Len(t, got, 1)
			assert.Zero(t, got[0].Shares)
			assert.Zero(t, got[0].TotalCost)
			assert.Zero(t, got[0].AvgCost)
		})
	}
}

func newTestPortfolio(t *testing.T, prices fakePricer) *PortfolioService {
	t.Helper()
	c := cache.NewMemoryCache()
	t.Cleanup(func() { _ = c.Close() })
	return NewPortfolioService(cache.NewListStore(c, "test"), prices, logger.Nop())
}

func TestPortfolioTransactions(t *testing.T) {
	p := newTestPortfolio(t, fakePricer{})
	ctx := context.Background()

	empty, err := p.Transactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	second, err := p.AddTransaction(ctx, models.TransactionRequest{Ticker: "aapl", Type: "BUY", Shares: 1, Price: 10, Date: "2024-02-01"})
	require.NoError(t, err)
	first, err := p.AddTransaction(ctx, models.TransactionRequest{Ticker: "msft", Type: "buy", Shares: 2, Price: 20, Date: "2024-01-01"})
	require.NoError(t, err)

	assert.NotEmpty(t, second.ID)
	assert.Equal(t, "AAPL", second.Ticker)
	assert.Equal(t, models.Buy, second.Type)

	txs, err := p.Transactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, first.ID, txs[0].ID)
	assert.Equal(t, second.ID, txs[1].ID)

	require.NoError(t, p.RemoveTransaction(ctx, first.ID))
	assert.ErrorIs(t, p.RemoveTransaction(ctx, first.ID), ErrTransactionNotFound)

	txs, err = p.Transactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, second.ID, txs[0].ID)
}

func TestPortfolioRejectsBadDate(t *testing.T) {
	p := newTestPortfolio(t, fakePricer{})
	_, err := p.AddTransaction(context.Background(), models.TransactionRequest{Ticker: "AAPL", Type: "buy", Shares: 1, Price: 1, Date: "yesterday"})
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestPortfolioValuation(t *testing.T) {
	p := newTestPortfolio(t, fakePricer{"AAPL": "200.00", "MSFT": "400.00"})
	ctx := context.Background()

	reqs := []models.TransactionRequest{
		{Ticker: "AAPL", Type: "buy", Shares: 10, Price: 100, Date: "2024-01-01"},
		{Ticker: "AAPL", Type: "buy", Shares: 10, Price: 200, Date: "2024-01-02"},
		{Ticker: "AAPL", Type: "sell", Shares: 5, Price: 250, Date: "2024-01-03"},
		{Ticker: "MSFT", Type: "buy", Shares: 1, Price: 300, Date: "2024-01-01"},
		{Ticker: "MSFT", Type: "sell", Shares: 1, Price: 350, Date: "2024-01-05"},
	}
	for _, r := range reqs {
		_, err := p.AddTransaction(ctx, r)
		require.NoError(t, err)
	}

	got, err := p.Valuation(ctx)
	require.NoError(t, err)
	require.Len(t, got.Holdings, 1, "closed positions are not valued")

	h := got.Holdings[0]
	assert.Equal(t, "AAPL", h.Ticker)
	assert.Equal(t, "AAPL Corp", h.Name)
	assert.InDelta(t, 200, h.CurrentPrice, 1e-9)
	assert.InDelta(t, 3000, h.Value, 1e-9)
	assert.InDelta(t, 750, h.ProfitLoss, 1e-9)
	assert.InDelta(t, 33.33, h.ProfitLossPct, 1e-9)
	assert.Equal(t, "$3,000.00", h.DisplayValue)
	assert.Equal(t, "$750.00", h.DisplayPL)
	assert.Equal(t, models.DataSourceLive, h.PriceSource)

	assert.InDelta(t, 3000, got.Summary.TotalValue, 1e-9)
	assert.InDelta(t, 2250, got.Summary.TotalInvestment, 1e-9)
	assert.InDelta(t, 750, got.Summary.TotalPL, 1e-9)
	assert.InDelta(t, 33.33, got.Summary.TotalPLPercent, 1e-9)
}

func TestPortfolioValuationEmpty(t *testing.T) {
	got, err := newTestPortfolio(t, fakePricer{}).Valuation(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got.Holdings)
	assert.Zero(t, got.Summary.TotalPLPercent)
	assert.Equal(t, "$0.00", got.Summary.DisplayValue)
}
