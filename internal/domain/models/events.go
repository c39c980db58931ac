package models

import "time"

// ResolutionEvent records the outcome of one resolve call.
type ResolutionEvent struct {
	ID            string     `json:"id"`
	Ticker        string     `json:"ticker"`
	Provider      string     `json:"provider"`
	DataSource    DataSource `json:"dataSource"`
	Price         string     `json:"price"`
	Change        string     `json:"change"`
	ChangePercent string     `json:"changePercent"`
	Attempts      int        `json:"attempts"`
	LatencyMs     int64      `json:"latencyMs"`
	ResolvedAt    time.Time  `json:"resolvedAt"`
}

// TickerQuote is the latest streamed trade for a symbol.
type TickerQuote struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"`
	Timestamp time.Time `json:"timestamp"`
}
