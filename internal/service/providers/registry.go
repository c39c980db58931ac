package providers

import (
	"fmt"

	"StockInsight/internal/domain/repository"
	"StockInsight/pkg/config"
	xhttp "StockInsight/pkg/http"
	"StockInsight/pkg/logger"
)

type constructor func(Options) repository.StockProvider

var registry = map[string]constructor{
	"polygon":      func(o Options) repository.StockProvider { return NewPolygon(o) },
	"fmp":          func(o Options) repository.StockProvider { return NewFMP(o) },
	"finnhub":      func(o Options) repository.StockProvider { return NewFinnhub(o) },
	"twelvedata":   func(o Options) repository.StockProvider { return NewTwelveData(o) },
	"alphavantage": func(o Options) repository.StockProvider { return NewAlphaVantage(o) },
	"marketstack":  func(o Options) repository.StockProvider { return NewMarketstack(o) },
}

// FromConfig builds the adapters in cfg.Order, sharing one HTTP client.
func FromConfig(cfg config.ProvidersConfig, client *xhttp.Client, log *logger.Logger) ([]repository.StockProvider, error) {
	order := cfg.Order
	if len(order) == 0 {
		order = config.DefaultProviderOrder
	}
	out := make([]repository.StockProvider, 0, len(order))
	for _, name := range order {
		build, ok := registry[name]
		if !ok {
			return nil, fmt.Errorf("unknown provider %q", name)
		}
		pc, _ := cfg.Provider(name)
		out = append(out, build(Options{
			APIKey:    pc.APIKey,
			BaseURL:   pc.BaseURL,
			RateLimit: pc.RateLimit,
			Lookback:  cfg.LookbackDays,
			HTTP:      client,
			Logger:    log.With(logger.String("provider", name)),
		}))
	}
	return out, nil
}
