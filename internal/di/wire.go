//go:build wireinject
// +build wireinject

package di

import (
	"StockInsight/pkg/config"
	"StockInsight/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application. The
// cleanup function releases clients in reverse construction order.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Infrastructure
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideMetrics,
		ProvideCache,
		ProvideHTTPClient,
		ProvideClickHouseClient,

		// Repositories and adapters
		ProvideStockProviders,
		ProvideMockGenerator,
		ProvideLLMBackends,
		ProvideEventStorage,
		ProvideEventQueue,
		ProvideEventSink,
		ProvideTickerBoard,

		// Use cases
		ProvidePredictor,
		ProvideResolver,
		ProvideNewsAnalyzer,
		ProvideAgent,
		ProvideMarketAnalyst,
		ProvidePortfolio,
		ProvideWatchlist,
		ProvideResolutionHistory,

		// HTTP
		ProvideRateLimiter,
		ProvideHealthChecks,
		ProvideHandlers,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}
