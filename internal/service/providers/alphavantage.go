package providers

import (
	"context"
	"net/url"
	"sort"
	"strconv"

	"StockInsight/internal/domain/models"
	"StockInsight/pkg/util"
)

const alphaVantageBaseURL = "https://www.alphavantage.co"

type AlphaVantage struct {
	rest *restClient
}

func NewAlphaVantage(opts Options) *AlphaVantage {
	return &AlphaVantage{rest: newRESTClient("alphavantage", alphaVantageBaseURL, "apikey", opts, alphaVantageCheck)}
}

func (a *AlphaVantage) Name() string     { return "alphavantage" }
func (a *AlphaVantage) Configured() bool { return a.rest.configured() }

// Throttling and bad symbols both arrive as HTTP 200 with one of these keys.
func alphaVantageCheck(body []byte) error {
	var env struct {
		Note         string `json:"Note"`
		Information  string `json:"Information"`
		ErrorMessage string `json:"Error Message"`
	}
	if !probe(body, &env) {
		return nil
	}
	for _, msg := range []string{env.ErrorMessage, env.Note, env.Information} {
		if msg != "" {
			return &APIError{Message: msg}
		}
	}
	return nil
}

type alphaVantageOverview struct {
	Symbol               string     `json:"Symbol"`
	Name                 string     `json:"Name"`
	MarketCapitalization flexNumber `json:"MarketCapitalization"`
	PERatio              string     `json:"PERatio"`
	EPS                  string     `json:"EPS"`
	RevenueTTM           flexNumber `json:"RevenueTTM"`
}

// ChangePercentAlt covers payloads using the underscored key.
type alphaVantageQuote struct {
	GlobalQuote struct {
		Price            flexNumber `json:"05. price"`
		Change           flexNumber `json:"09. change"`
		ChangePercent    flexNumber `json:"10. change percent"`
		ChangePercentAlt flexNumber `json:"10. change_percent"`
	} `json:"Global Quote"`
}

type alphaVantageDaily struct {
	Series map[string]struct {
		Close  flexNumber `json:"4. close"`
		Volume flexNumber `json:"5. volume"`
	} `json:"Time Series (Daily)"`
}

type alphaVantageNews struct {
	Feed []struct {
		Title         string `json:"title"`
		Source        string `json:"source"`
		URL           string `json:"url"`
		TimePublished string `json:"time_published"`
	} `json:"feed"`
}

func (a *AlphaVantage) Fetch(ctx context.Context, ticker string) (models.StockSnapshot, error) {
	var (
		overview alphaVantageOverview
		quote    alphaVantageQuote
		daily    alphaVantageDaily
		news     alphaVantageNews
	)
	fn := func(name string) url.Values { return url.Values{"function": {name}, "symbol": {ticker}} }

	errs := parallel(
		func() error { return a.rest.get(ctx, "profile", "/query", fn("OVERVIEW"), &overview) },
		func() error { return a.rest.get(ctx, "quote", "/query", fn("GLOBAL_QUOTE"), &quote) },
		func() error {
			q := url.Values{"function": {"NEWS_SENTIMENT"}, "tickers": {ticker}, "limit": {strconv.Itoa(models.MaxNewsItems)}}
			return a.rest.get(ctx, "news", "/query", q, &news)
		},
		func() error { return a.rest.get(ctx, "history", "/query", fn("TIME_SERIES_DAILY"), &daily) },
	)
	if err := firstErr(errs[0], errs[1]); err != nil {
		return models.StockSnapshot{}, err
	}
	if overview.Symbol == "" {
		return models.StockSnapshot{}, a.rest.fail("profile", ErrNoData)
	}
	gq := quote.GlobalQuote
	if !gq.Price.Valid() || !gq.Change.Valid() {
		return models.StockSnapshot{}, a.rest.fail("quote", ErrNoData)
	}
	a.rest.tolerate(ticker, errs[2])
	a.rest.tolerate(ticker, errs[3])

	pct := gq.ChangePercent
	if !pct.Valid() {
		pct = gq.ChangePercentAlt
	}
	move := models.PriceMoveFromChange(gq.Price.Decimal(), gq.Change.Decimal(), pct.Decimal())

	// the series is a date-keyed object; keep the newest window, ascending
	dates := make([]string, 0, len(daily.Series))
	for d := range daily.Series {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	dates = lastN(dates, a.rest.opts.Lookback)
	chart := make([]models.ChartPoint, 0, len(dates))
	for _, d := range dates {
		bar := daily.Series[d]
		chart = append(chart, models.ChartPoint{Date: d, Price: bar.Close.Float(), Volume: bar.Volume.Decimal().IntPart()})
	}

	items := make([]models.NewsItem, 0, len(news.Feed))
	for _, n := range news.Feed {
		items = append(items, models.NewsItem{
			Title:       n.Title,
			Source:      n.Source,
			URL:         n.URL,
			PublishedAt: util.CompactDate(n.TimePublished),
		})
	}

	snap := models.StockSnapshot{
		Name:      overview.Name,
		Ticker:    overview.Symbol,
		ChartData: chart,
		FundamentalsData: []models.Fundamental{
			{Label: "Market Cap", Value: models.FormatOptional(overview.MarketCapitalization.Ptr())},
			{Label: "P/E Ratio", Value: naIfNone(overview.PERatio)},
			{Label: "EPS", Value: naIfNone(overview.EPS)},
			{Label: "Revenue (TTM)", Value: models.FormatOptional(overview.RevenueTTM.Ptr())},
		},
		News: capNews(items),
	}
	return snap.ApplyMove(move), nil
}

func naIfNone(s string) string {
	if s == "None" || s == "-" {
		return "N/A"
	}
	return models.OrNA(s)
}
