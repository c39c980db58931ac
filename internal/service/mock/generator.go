// Package mock synthesizes plausible market data for when no live provider answers.
package mock

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"StockInsight/internal/domain/models"
	"StockInsight/pkg/util"
)

type Generator struct {
	mu       sync.Mutex
	rng      *rand.Rand
	lookback int
	now      func() time.Time
}

type Option func(*Generator)

// WithSeed makes output reproducible.
func WithSeed(seed int64) Option {
	return func(g *Generator) { g.rng = rand.New(rand.NewSource(seed)) }
}

func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

func NewGenerator(lookback int, opts ...Option) *Generator {
	if lookback < 2 {
		lookback = 90
	}
	g := &Generator{
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		lookback: lookback,
		now:      time.Now,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// uniform returns a value in [lo, hi).
func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

// Generate never fails. Values are random, shape is fixed: lookback chart
// points, four fundamentals, three news items and a prediction.
func (g *Generator) Generate(ticker string) models.StockSnapshot {
	ticker = util.NormalizeTicker(ticker)
	info, _ := Lookup(ticker)

	g.mu.Lock()
	defer g.mu.Unlock()

	chart := g.history(g.uniform(50, 550))
	last := chart[len(chart)-1].Price
	prev := chart[len(chart)-2].Price
	move := models.NewPriceMove(decimal.NewFromFloat(last), decimal.NewFromFloat(prev))

	today := g.now().UTC()
	snap := models.StockSnapshot{
		Name:      info.Name,
		Ticker:    ticker,
		ChartData: chart,
		FundamentalsData: []models.Fundamental{
			{Label: "Market Cap", Value: fixed2(g.uniform(100, 2100)) + "B"},
			{Label: "P/E Ratio", Value: fixed2(g.uniform(10, 40))},
			{Label: "EPS", Value: fixed2(g.uniform(1, 11))},
			{Label: "Revenue (TTM)", Value: fixed2(g.uniform(10, 110)) + "B"},
		},
		News: []models.NewsItem{
			{
				Title:       fmt.Sprintf("Exciting developments for %s as new product is announced.", info.Name),
				Source:      "Tech News Today",
				URL:         "https://example.com",
				PublishedAt: util.Date(today),
			},
			{
				Title:       fmt.Sprintf("%s sector sees major shift, with %s at the forefront.", info.Sector, ticker),
				Source:      "Market Watch",
				URL:         "https://example.com",
				PublishedAt: util.Date(today.AddDate(0, 0, -1)),
			},
			{
				Title:       fmt.Sprintf("Analysts rate %s a 'Strong Buy' after recent performance.", ticker),
				Source:      "Financial Times",
				URL:         "https://example.com",
				PublishedAt: util.Date(today.AddDate(0, 0, -2)),
			},
		},
		Predictions: fmt.Sprintf("AI analysis suggests a positive short-term outlook for %s, citing strong market position "+
			"and recent technological advancements. However, sector-wide volatility could introduce some risk. "+
			"This prediction is for informational purposes only.", info.Name),
		DataSource: models.DataSourceMock,
	}
	return snap.ApplyMove(move)
}

// history is a random walk ending today. Daily moves are (U-0.49)*5%, a
// slightly upward-centred band of roughly +/-2.5%.
func (g *Generator) history(base float64) []models.ChartPoint {
	today := g.now().UTC()
	out := make([]models.ChartPoint, g.lookback)
	price := base
	for i := range out {
		price *= 1 + (g.rng.Float64()-0.49)*0.05
		p, _ := decimal.NewFromFloat(price).Round(2).Float64()
		out[i] = models.ChartPoint{
			Date:   util.Date(today.AddDate(0, 0, -(g.lookback - 1 - i))),
			Price:  p,
			Volume: 1_000_000 + g.rng.Int63n(5_000_000),
		}
	}
	return out
}

// Movers picks count distinct reference stocks with synthetic moves in the
// requested direction. count is capped at the size of the reference list.
func (g *Generator) Movers(count int, dir models.MoverDirection) []models.MarketMover {
	if count > len(referenceStocks) {
		count = len(referenceStocks)
	}
	if count <= 0 {
		return []models.MarketMover{}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	picks := g.rng.Perm(len(referenceStocks))[:count]
	out := make([]models.MarketMover, 0, count)
	for _, idx := range picks {
		s := referenceStocks[idx]
		price := decimal.NewFromFloat(g.uniform(20, 820)).Round(2)
		change := decimal.NewFromFloat(g.uniform(1, 11))
		if dir == models.Losers {
			change = change.Neg()
		}
		move := models.PriceMoveFromChange(price, change, change.Div(price).Mul(decimal.NewFromInt(100)))
		out = append(out, models.MarketMover{
			Ticker:        s.Ticker,
			Name:          s.Name,
			Price:         move.Price,
			Change:        move.Change,
			ChangePercent: move.ChangePercent,
			IsUp:          dir != models.Losers,
		})
	}
	return out
}

func fixed2(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
