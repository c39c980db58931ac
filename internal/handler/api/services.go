package api

import (
	"context"

	"StockInsight/internal/domain/models"
)

// The handlers depend on these narrow views of the usecases.

type StockResolver interface {
	Resolve(ctx context.Context, ticker string) models.StockSnapshot
}

type NewsAnalyzer interface {
	FetchAndAnalyze(ctx context.Context, topic string) ([]models.AnalyzedArticle, error)
}

type Agent interface {
	Answer(ctx context.Context, query string) (models.AgentResponse, error)
}

type MarketAnalyst interface {
	AnalyzeSector(ctx context.Context, sector string) (models.SectorAnalysis, error)
	DiscoverRelations(ctx context.Context, assets, analysisType string) (models.CrossAssetRelations, error)
	GenerateMLNotes(ctx context.Context, modelName string, features []string, metrics string) (models.MLNotes, error)
	Movers(count int, dir models.MoverDirection) []models.MarketMover
}

type Portfolio interface {
	Valuation(ctx context.Context) (models.Portfolio, error)
	Transactions(ctx context.Context) ([]models.Transaction, error)
	AddTransaction(ctx context.Context, req models.TransactionRequest) (models.Transaction, error)
	RemoveTransaction(ctx context.Context, id string) error
}

type Watchlist interface {
	List(ctx context.Context) ([]string, error)
	Add(ctx context.Context, ticker string) ([]string, error)
	Remove(ctx context.Context, ticker string) ([]string, error)
}

type QuoteBoard interface {
	Quotes() []models.TickerQuote
	IsConnected() bool
}

type ResolutionHistory interface {
	Recent(ctx context.Context, ticker string, limit int) ([]models.ResolutionEvent, error)
}

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error
