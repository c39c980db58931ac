package di

import (
	"context"
	"fmt"
	"time"

	"StockInsight/internal/domain/repository"
	"StockInsight/internal/handler/api"
	internalrepo "StockInsight/internal/repository"
	"StockInsight/internal/service/finnhub"
	"StockInsight/internal/service/llm"
	"StockInsight/internal/service/mock"
	"StockInsight/internal/service/news"
	"StockInsight/internal/service/providers"
	"StockInsight/internal/service/ratelimit"
	"StockInsight/internal/usecase"
	"StockInsight/pkg/cache"
	pkgch "StockInsight/pkg/clickhouse"
	"StockInsight/pkg/config"
	xhttp "StockInsight/pkg/http"
	pkgkafka "StockInsight/pkg/kafka"
	"StockInsight/pkg/logger"
	"StockInsight/pkg/metrics"
	"StockInsight/pkg/queue"
	"StockInsight/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

const initTimeout = 10 * time.Second

// ProvideKafkaProducer returns nil when neither the event export nor the
// log digest needs Kafka.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	if cfg.Events.Backend != "kafka" && !cfg.Log.ErrorDigest.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(pkgkafka.FromConfig(cfg.Events.Kafka)...)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideLogger builds the application logger and attaches the error digest
// when enabled.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*logger.Logger, func(), error) {
	l, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	if !cfg.Log.ErrorDigest.Enabled || producer == nil {
		return l, func() {}, nil
	}
	d := logger.NewDigest(logger.DigestConfig{
		FlushInterval:  cfg.Log.ErrorDigest.FlushInterval,
		CountThreshold: cfg.Log.ErrorDigest.CountThreshold,
		Topic:          cfg.Log.ErrorDigest.Topic,
		Publisher:      producer,
	})
	l.AttachDigest(d)
	return l, d.Close, nil
}

func ProvideMetrics() repository.Metrics {
	return metrics.New(prometheus.DefaultRegisterer)
}

func ProvideCache(cfg *config.Config, log *logger.Logger) (cache.Service, func(), error) {
	c, err := cache.New(cfg.Cache)
	if err != nil {
		return nil, nil, fmt.Errorf("cache: %w", err)
	}
	log.Info("cache ready", logger.String("backend", cfg.Cache.Backend))
	return c, func() { _ = c.Close() }, nil
}

func ProvideHTTPClient(cfg *config.Config) *xhttp.Client {
	return xhttp.NewClient(
		xhttp.WithTimeout(cfg.Providers.Timeout),
		xhttp.WithUserAgent("StockInsight/1.0"),
	)
}

func ProvideStockProviders(cfg *config.Config, client *xhttp.Client, log *logger.Logger) ([]repository.StockProvider, error) {
	return providers.FromConfig(cfg.Providers, client, log)
}

func ProvideMockGenerator(cfg *config.Config) *mock.Generator {
	return mock.NewGenerator(cfg.Providers.LookbackDays)
}

func ProvideLLMBackends(cfg *config.Config, m repository.Metrics, log *logger.Logger) (llm.Backends, error) {
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	return llm.New(ctx, cfg.LLM, m, log)
}

// ProvideClickHouseClient connects only when resolution events go to ClickHouse.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, func(), error) {
	if cfg.Events.Backend != "clickhouse" {
		return nil, func() {}, nil
	}
	client, err := pkgch.NewClient(pkgch.FromConfig(cfg.Events.ClickHouse)...)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideEventStorage creates the resolution table. The result is a nil
// interface when ClickHouse is not configured.
func ProvideEventStorage(client *pkgch.Client, cfg *config.Config) (repository.EventStorage, error) {
	if client == nil {
		return nil, nil
	}
	store := internalrepo.NewClickHouseEventStore(client.DB(), cfg.Events.ClickHouse.Table)

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvideEventQueue returns a nil queue when events.backend is "none". With
// events.queue "redis" pending events live in the cache's Redis server.
func ProvideEventQueue(
	cfg *config.Config,
	producer *pkgkafka.Producer,
	storage repository.EventStorage,
	m repository.Metrics,
	log *logger.Logger,
) (queue.Queue, func(), error) {
	var job queue.Job
	switch cfg.Events.Backend {
	case "kafka":
		job = usecase.NewKafkaExportJob(internalrepo.NewKafkaEventPublisher(producer, cfg.Events.Kafka.Topic), m)
	case "clickhouse":
		job = usecase.NewClickHouseExportJob(storage, m)
	case "", "none":
		return nil, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown events backend %q", cfg.Events.Backend)
	}

	qcfg := queue.QueueConfig{
		Workers:    cfg.Events.Workers,
		QueueSize:  cfg.Events.QueueSize,
		RetryLimit: cfg.Events.RetryLimit,
		RetryDelay: cfg.Events.RetryDelay,
	}
	switch cfg.Events.Queue {
	case "", "memory":
		return queue.NewMemoryQueue(log, qcfg, job), func() {}, nil
	case "redis":
		r := cfg.Cache.Redis
		client := redis.NewClient(&redis.Options{
			Addr:         fmt.Sprintf("%s:%d", r.Host, r.Port),
			Password:     r.Password,
			DB:           r.DB,
			PoolSize:     r.PoolSize,
			DialTimeout:  r.DialTimeout,
			ReadTimeout:  r.ReadTimeout,
			WriteTimeout: r.WriteTimeout,
		})
		q := queue.NewRedisQueue(log, qcfg, client, []queue.Job{job}, queue.WithKeyPrefix(r.KeyPrefix+":queue:events"))
		return q, func() { _ = client.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown events queue %q", cfg.Events.Queue)
}

func ProvideEventSink(q queue.Queue, log *logger.Logger) usecase.EventSink {
	if q == nil {
		return nil
	}
	return usecase.NewEventRecorder(q, log)
}

func ProvideResolutionHistory(storage repository.EventStorage) *usecase.ResolutionHistory {
	return usecase.NewResolutionHistory(storage)
}

func ProvidePredictor(cfg *config.Config, backends llm.Backends, log *logger.Logger) *usecase.Predictor {
	return usecase.NewPredictor(backends.Text, cfg.LLM.Timeout, log)
}

func ProvideResolver(
	cfg *config.Config,
	stockProviders []repository.StockProvider,
	predictor *usecase.Predictor,
	gen *mock.Generator,
	c cache.Service,
	sink usecase.EventSink,
	m repository.Metrics,
	log *logger.Logger,
) *usecase.Resolver {
	return usecase.NewResolver(stockProviders, predictor, gen, c, sink, m, log, usecase.ResolverConfig{
		Lookback:    cfg.Providers.LookbackDays,
		SnapshotTTL: cfg.Cache.SnapshotTTL,
	})
}

func ProvideNewsAnalyzer(cfg *config.Config, backends llm.Backends, log *logger.Logger) *usecase.NewsAnalyzer {
	return usecase.NewNewsAnalyzer(news.NewSeedSource(), backends.Structured, cfg.LLM.Timeout, log)
}

func ProvideAgent(cfg *config.Config, backends llm.Backends, resolver *usecase.Resolver, analyzer *usecase.NewsAnalyzer, log *logger.Logger) *usecase.Agent {
	tools := usecase.ServiceTools{Resolver: resolver, News: analyzer}
	return usecase.NewAgent(backends.Chat, tools, cfg.LLM.AgentMaxTurns, log)
}

func ProvideMarketAnalyst(cfg *config.Config, backends llm.Backends, gen *mock.Generator, log *logger.Logger) *usecase.MarketAnalyst {
	return usecase.NewMarketAnalyst(backends.Structured, gen, cfg.LLM.Timeout, log)
}

func ProvidePortfolio(c cache.Service, resolver *usecase.Resolver, log *logger.Logger) *usecase.PortfolioService {
	return usecase.NewPortfolioService(cache.NewListStore(c, "store"), resolver, log)
}

func ProvideWatchlist(cfg *config.Config, c cache.Service, resolver *usecase.Resolver, log *logger.Logger) *usecase.WatchlistService {
	return usecase.NewWatchlistService(cache.NewListStore(c, "store"), resolver, c, cfg.Watchlist.Tickers, log)
}

// ProvideTickerBoard returns nil when the live stream is disabled.
func ProvideTickerBoard(cfg *config.Config, m repository.Metrics, log *logger.Logger) *usecase.TickerBoard {
	if !cfg.Stream.Enabled {
		return nil
	}
	stream := finnhub.NewStream(
		cfg.Providers.Finnhub.APIKey,
		cfg.Stream.WebSocketURL,
		cfg.Stream.Symbols,
		cfg.Stream.ReconnectDelay,
		cfg.Stream.PingInterval,
		log,
	)
	return usecase.NewTickerBoard(stream, m, cfg.Stream.ReconnectDelay, log)
}

func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSec)
}

// ProvideHealthChecks probes the cache and, when configured, ClickHouse.
func ProvideHealthChecks(c cache.Service, ch *pkgch.Client) map[string]api.HealthCheck {
	checks := map[string]api.HealthCheck{
		"cache": func(ctx context.Context) error {
			_, err := c.Exists(ctx, "healthz")
			return err
		},
	}
	if ch != nil {
		checks["clickhouse"] = ch.Health
	}
	return checks
}

func ProvideHandlers(
	resolver *usecase.Resolver,
	analyzer *usecase.NewsAnalyzer,
	agent *usecase.Agent,
	market *usecase.MarketAnalyst,
	portfolio *usecase.PortfolioService,
	watchlist *usecase.WatchlistService,
	board *usecase.TickerBoard,
	history *usecase.ResolutionHistory,
	limiter *ratelimit.Limiter,
	checks map[string]api.HealthCheck,
	log *logger.Logger,
) []xhttp.Handler {
	var quotes api.QuoteBoard
	if board != nil {
		quotes = board
	}
	return []xhttp.Handler{
		api.NewStockHandler(resolver, analyzer, agent, market, limiter, log),
		api.NewPortfolioHandler(portfolio, watchlist, log),
		api.NewSystemHandler(quotes, history, checks, log),
	}
}

func ProvideHTTPServer(cfg *config.Config, handlers []xhttp.Handler, log *logger.Logger) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(log, handlers,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowRequest(cfg.Server.SlowRequest),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithMetricsPath(metricsPath),
	)
}

func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	srv *xhttp.Server,
	q queue.Queue,
	board *usecase.TickerBoard,
	watchlist *usecase.WatchlistService,
) *server.App {
	return server.New(cfg, log, srv, q, board, watchlist)
}
