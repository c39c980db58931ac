package usecase

import (
	"context"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockInsight/internal/domain/models"
	"StockInsight/internal/domain/repository"
	"StockInsight/internal/service/mock"
	"StockInsight/pkg/cache"
	"StockInsight/pkg/logger"
)

const lookback = 90

var (
	moneyRe   = regexp.MustCompile(`^-?\d+\.\d{2}$`)
	percentRe = regexp.MustCompile(`^-?\d+\.\d{2}%$`)
)

func liveSnapshot(name string) models.StockSnapshot {
	return models.StockSnapshot{
		Name:          name,
		Price:         "214.29",
		Change:        "4.59",
		ChangePercent: "2.19%",
		IsUp:          true,
		ChartData: []models.ChartPoint{
			{Date: "2024-05-03", Price: 214.29},
			{Date: "2024-05-01", Price: 205.10},
			{Date: "2024-05-02", Price: 209.70},
		},
	}
}

func newTestResolver(t *testing.T, providers []repository.StockProvider, gen fakeText, c cache.Service, sink EventSink) *Resolver {
	t.Helper()
	return NewResolver(
		providers,
		NewPredictor(gen, time.Second, logger.Nop()),
		mock.NewGenerator(lookback, mock.WithSeed(7)),
		c,
		sink,
		nopMetrics{},
		logger.Nop(),
		ResolverConfig{Lookback: lookback, SnapshotTTL: time.Minute},
	)
}

func assertSnapshotInvariants(t *testing.T, requested string, s models.StockSnapshot) {
	t.Helper()
	assert.Regexp(t, moneyRe, s.Price)
	assert.Regexp(t, moneyRe, s.Change)
	assert.Regexp(t, percentRe, s.ChangePercent)
	assert.Equal(t, requested, s.Ticker)

	change, err := strconv.ParseFloat(s.Change, 64)
	require.NoError(t, err)
	assert.Equal(t, change >= 0, s.IsUp)

	for i := 1; i < len(s.ChartData); i++ {
		assert.LessOrEqual(t, s.ChartData[i-1].Date, s.ChartData[i].Date)
	}
}

func TestResolveUsesFirstWorkingProvider(t *testing.T) {
	unconfigured := &fakeProvider{name: "polygon"}
	failing := &fakeProvider{name: "fmp", configured: true, err: errBoom}
	winner := &fakeProvider{name: "finnhub", configured: true, snap: liveSnapshot("Apple Inc.")}
	after := &fakeProvider{name: "twelvedata", configured: true, snap: liveSnapshot("Other")}

	r := newTestResolver(t, []repository.StockProvider{unconfigured, failing, winner, after}, fakeText{text: "Up."}, nil, nil)
	snap := r.Resolve(context.Background(), "aapl")

	assert.Equal(t, models.DataSourceLive, snap.DataSource)
	assert.Equal(t, "finnhub", snap.Provider)
	assert.Equal(t, "Apple Inc.", snap.Name)
	assert.Zero(t, unconfigured.Calls())
	assert.Equal(t, 1, failing.Calls())
	assert.Equal(t, 1, winner.Calls())
	assert.Zero(t, after.Calls())
	assertSnapshotInvariants(t, "AAPL", snap)
	assert.Equal(t, "Up."+PredictionDisclaimer, snap.Predictions)
}

func TestResolveFallsBackToMock(t *testing.T) {
	providers := []repository.StockProvider{
		&fakeProvider{name: "polygon", configured: true, err: errBoom},
		&fakeProvider{name: "fmp"},
		&fakeProvider{name: "finnhub", configured: true, err: errBoom},
	}
	r := newTestResolver(t, providers, fakeText{err: errBoom}, nil, nil)

	snap := r.Resolve(context.Background(), "zzzz")

	assert.Equal(t, models.DataSourceMock, snap.DataSource)
	assert.Equal(t, "ZZZZ", snap.Ticker)
	assert.Len(t, snap.ChartData, lookback)
	assert.NotEmpty(t, snap.Predictions)
	assertSnapshotInvariants(t, "ZZZZ", snap)
}

func TestResolveWithNoProviders(t *testing.T) {
	r := newTestResolver(t, nil, fakeText{}, nil, nil)
	snap := r.Resolve(context.Background(), "msft")
	assert.Equal(t, models.DataSourceMock, snap.DataSource)
	assertSnapshotInvariants(t, "MSFT", snap)
}

func TestResolvePredictionFailureDoesNotBlock(t *testing.T) {
	p := &fakeProvider{name: "polygon", configured: true, snap: liveSnapshot("Apple Inc.")}
	r := newTestResolver(t, []repository.StockProvider{p}, fakeText{err: errBoom}, nil, nil)

	done := make(chan models.StockSnapshot, 1)
	go func() { done <- r.Resolve(context.Background(), "AAPL") }()

	select {
	case snap := <-done:
		assert.Equal(t, models.DataSourceLive, snap.DataSource)
		assert.Equal(t, PredictionUnavailable, snap.Predictions)
	case <-time.After(2 * time.Second):
		t.Fatal("resolve blocked on a failing prediction backend")
	}
}

func TestResolveNormalizesLiveSnapshot(t *testing.T) {
	p := &fakeProvider{name: "polygon", configured: true, snap: liveSnapshot("Apple Inc.")}
	r := newTestResolver(t, []repository.StockProvider{p}, fakeText{text: "ok"}, nil, nil)

	snap := r.Resolve(context.Background(), " aapl ")
	require.Len(t, snap.ChartData, 3)
	assert.Equal(t, "2024-05-01", snap.ChartData[0].Date)
	assert.Equal(t, "2024-05-03", snap.ChartData[2].Date)
	assert.NotNil(t, snap.FundamentalsData)
}

func TestResolveCachesLiveSnapshots(t *testing.T) {
	c := cache.NewMemoryCache()
	t.Cleanup(func() { _ = c.Close() })

	p := &fakeProvider{name: "polygon", configured: true, snap: liveSnapshot("Apple Inc.")}
	r := newTestResolver(t, []repository.StockProvider{p}, fakeText{text: "ok"}, c, nil)
	ctx := context.Background()

	first := r.Resolve(ctx, "AAPL")
	second := r.Resolve(ctx, "aapl")
	assert.Equal(t, 1, p.Calls())
	assert.Equal(t, first.Price, second.Price)
	assert.Equal(t, first.Provider, second.Provider)
	assert.Equal(t, first.Predictions, second.Predictions)

	r.Refresh(ctx, "AAPL")
	assert.Equal(t, 2, p.Calls())
}

func TestResolveDoesNotCacheMock(t *testing.T) {
	c := cache.NewMemoryCache()
	t.Cleanup(func() { _ = c.Close() })

	p := &fakeProvider{name: "polygon", configured: true, err: errBoom}
	r := newTestResolver(t, []repository.StockProvider{p}, fakeText{}, c, nil)

	r.Resolve(context.Background(), "AAPL")
	r.Resolve(context.Background(), "AAPL")
	assert.Equal(t, 2, p.Calls())
}

func TestResolveRecordsEvent(t *testing.T) {
	sink := &eventCollector{}
	providers := []repository.StockProvider{
		&fakeProvider{name: "polygon", configured: true, err: errBoom},
		&fakeProvider{name: "fmp", configured: true, snap: liveSnapshot("Apple Inc.")},
	}
	r := newTestResolver(t, providers, fakeText{text: "ok"}, nil, sink)

	r.Resolve(context.Background(), "aapl")

	events := sink.All()
	require.Len(t, events, 1)
	e := events[0]
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "AAPL", e.Ticker)
	assert.Equal(t, "fmp", e.Provider)
	assert.Equal(t, models.DataSourceLive, e.DataSource)
	assert.Equal(t, "214.29", e.Price)
	assert.Equal(t, 2, e.Attempts)
	assert.False(t, e.ResolvedAt.IsZero())
}

func TestMockShapeIsStable(t *testing.T) {
	g := mock.NewGenerator(lookback)
	a, b := g.Generate("XYZ"), g.Generate("XYZ")

	assert.Equal(t, "XYZ", a.Ticker)
	assert.Equal(t, "XYZ", b.Ticker)
	assert.Len(t, b.FundamentalsData, len(a.FundamentalsData))
	assert.Len(t, b.News, len(a.News))
	assert.Len(t, b.ChartData, len(a.ChartData))
}
