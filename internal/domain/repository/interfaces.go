package repository

import (
	"context"
	"time"

	"StockInsight/internal/domain/models"
)

// StockProvider is one external market-data source.
type StockProvider interface {
	// Name identifies the provider in logs, metrics and snapshots.
	Name() string
	// Configured reports whether a credential is present. Unconfigured
	// providers are skipped, not failed.
	Configured() bool
	Fetch(ctx context.Context, ticker string) (models.StockSnapshot, error)
}

// ArticleSource supplies raw articles for a topic.
type ArticleSource interface {
	Articles(ctx context.Context, topic string) ([]models.RawArticle, error)
}

type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan models.TickerQuote, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// EventPublisher exports resolution events to a message bus.
type EventPublisher interface {
	Publish(ctx context.Context, e models.ResolutionEvent) error
	PublishBatch(ctx context.Context, events []models.ResolutionEvent) error
	Close() error
}

// EventStorage persists resolution events for later querying.
type EventStorage interface {
	Init(ctx context.Context) error
	Store(ctx context.Context, e models.ResolutionEvent) error
	StoreBatch(ctx context.Context, events []models.ResolutionEvent) error
	Query(ctx context.Context, ticker string, from, to time.Time, limit int) ([]models.ResolutionEvent, error)
	Health(ctx context.Context) error
	Close() error
}

// ListStore keeps the small per-instance collections (watchlist, transactions).
type ListStore interface {
	Load(ctx context.Context, key string, dest any) (bool, error)
	Save(ctx context.Context, key string, value any) error
}

type Metrics interface {
	RecordProviderAttempt(provider, outcome string, seconds float64)
	RecordResolution(source models.DataSource)
	RecordLLMCall(op, backend string, seconds float64, err error)
	RecordEventExported(backend string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
