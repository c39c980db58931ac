package models

import "time"

type TransactionType string

const (
	Buy  TransactionType = "buy"
	Sell TransactionType = "sell"
)

type Transaction struct {
	ID     string          `json:"id"`
	Ticker string          `json:"ticker"`
	Type   TransactionType `json:"type"`
	Shares float64         `json:"shares"`
	Price  float64         `json:"price"`
	Date   time.Time       `json:"date"`
}

// Position is the replayed state of one ticker before pricing.
type Position struct {
	Ticker    string  `json:"ticker"`
	Shares    float64 `json:"shares"`
	TotalCost float64 `json:"totalCost"`
	AvgCost   float64 `json:"avgCost"`
}

// Holding is a Position valued at the current resolved price.
type Holding struct {
	Position
	Name          string     `json:"name"`
	CurrentPrice  float64    `json:"currentPrice"`
	Value         float64    `json:"value"`
	ProfitLoss    float64    `json:"profitLoss"`
	ProfitLossPct float64    `json:"profitLossPercent"`
	DisplayValue  string     `json:"displayValue"`
	DisplayPL     string     `json:"displayProfitLoss"`
	PriceSource   DataSource `json:"priceSource"`
}

type PortfolioSummary struct {
	TotalValue      float64 `json:"totalValue"`
	TotalInvestment float64 `json:"totalInvestment"`
	TotalPL         float64 `json:"totalPL"`
	TotalPLPercent  float64 `json:"totalPLPercent"`
	DisplayValue    string  `json:"displayValue"`
	DisplayPL       string  `json:"displayPL"`
}

type Portfolio struct {
	Holdings []Holding        `json:"holdings"`
	Summary  PortfolioSummary `json:"summary"`
}
