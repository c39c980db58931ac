package models

import (
	"sort"
	"strings"
)

// DataSource marks where a snapshot's numbers came from.
type DataSource string

const (
	DataSourceLive DataSource = "live"
	DataSourceMock DataSource = "mock"
)

// MaxNewsItems caps the news attached to a snapshot.
const MaxNewsItems = 5

// StockSnapshot is the canonical normalized view of one ticker, independent of
// which provider produced it. Treat it as a value: derive, don't mutate.
type StockSnapshot struct {
	Name             string        `json:"name"`
	Ticker           string        `json:"ticker"`
	Price            string        `json:"price"`
	Change           string        `json:"change"`
	ChangePercent    string        `json:"changePercent"`
	IsUp             bool          `json:"isUp"`
	ChartData        []ChartPoint  `json:"chartData"`
	FundamentalsData []Fundamental `json:"fundamentalsData"`
	News             []NewsItem    `json:"news,omitempty"`
	Predictions      string        `json:"predictions,omitempty"`
	DataSource       DataSource    `json:"dataSource"`
	Provider         string        `json:"provider,omitempty"`
}

type ChartPoint struct {
	Date   string  `json:"date"` // YYYY-MM-DD
	Price  float64 `json:"price"`
	Volume int64   `json:"volume,omitempty"`
}

type Fundamental struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type NewsItem struct {
	Title       string `json:"title"`
	Source      string `json:"source"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
}

// ApplyMove copies the formatted price fields of m onto the snapshot.
func (s StockSnapshot) ApplyMove(m PriceMove) StockSnapshot {
	s.Price = m.Price
	s.Change = m.Change
	s.ChangePercent = m.ChangePercent
	s.IsUp = m.IsUp
	return s
}

// WithPrediction returns a copy carrying the narrative.
func (s StockSnapshot) WithPrediction(p string) StockSnapshot {
	s.Predictions = p
	return s
}

// WithSource returns a copy stamped with provenance.
func (s StockSnapshot) WithSource(src DataSource, provider string) StockSnapshot {
	s.DataSource = src
	s.Provider = provider
	return s
}

// Normalize enforces the snapshot invariants: the requested ticker upper-cased,
// chart points ascending by date and limited to the most recent lookback points,
// at most MaxNewsItems news entries. Slices are copied, never sorted in place.
func (s StockSnapshot) Normalize(requested string, lookback int) StockSnapshot {
	s.Ticker = strings.ToUpper(strings.TrimSpace(requested))
	if s.Name == "" {
		s.Name = s.Ticker
	}

	chart := make([]ChartPoint, len(s.ChartData))
	copy(chart, s.ChartData)
	sort.SliceStable(chart, func(i, j int) bool { return chart[i].Date < chart[j].Date })
	if lookback > 0 && len(chart) > lookback {
		chart = chart[len(chart)-lookback:]
	}
	s.ChartData = chart

	if s.FundamentalsData == nil {
		s.FundamentalsData = []Fundamental{}
	}
	if len(s.News) > MaxNewsItems {
		s.News = append([]NewsItem(nil), s.News[:MaxNewsItems]...)
	}
	return s
}
