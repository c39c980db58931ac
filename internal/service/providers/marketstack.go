package providers

import (
	"context"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"StockInsight/internal/domain/models"
	"StockInsight/pkg/util"
)

const marketstackBaseURL = "https://api.marketstack.com/v1"

type Marketstack struct {
	rest *restClient
}

func NewMarketstack(opts Options) *Marketstack {
	return &Marketstack{rest: newRESTClient("marketstack", marketstackBaseURL, "access_key", opts, marketstackCheck)}
}

func (m *Marketstack) Name() string     { return "marketstack" }
func (m *Marketstack) Configured() bool { return m.rest.configured() }

func marketstackCheck(body []byte) error {
	var env struct {
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if probe(body, &env) && env.Error != nil {
		return &APIError{Message: env.Error.Message}
	}
	return nil
}

type marketstackEOD struct {
	Data []struct {
		Date   string  `json:"date"`
		Close  float64 `json:"close"`
		Volume float64 `json:"volume"`
	} `json:"data"`
}

type marketstackTickers struct {
	Data []struct {
		Name          string `json:"name"`
		Symbol        string `json:"symbol"`
		StockExchange *struct {
			Acronym string `json:"acronym"`
		} `json:"stock_exchange"`
	} `json:"data"`
}

type marketstackNews struct {
	Data []struct {
		Title       string `json:"title"`
		Source      string `json:"source"`
		URL         string `json:"url"`
		PublishedAt string `json:"published_at"`
	} `json:"data"`
}

// Fetch derives the quote from the two most recent end-of-day bars, so the
// eod call is the required quote call here.
func (m *Marketstack) Fetch(ctx context.Context, ticker string) (models.StockSnapshot, error) {
	var (
		eod     marketstackEOD
		tickers marketstackTickers
		news    marketstackNews
	)

	errs := parallel(
		func() error {
			q := url.Values{"symbols": {ticker}, "limit": {strconv.Itoa(m.rest.opts.Lookback)}}
			return m.rest.get(ctx, "quote", "/eod", q, &eod)
		},
		func() error { return m.rest.get(ctx, "profile", "/tickers", url.Values{"symbols": {ticker}}, &tickers) },
		func() error {
			q := url.Values{"tickers": {ticker}, "limit": {strconv.Itoa(models.MaxNewsItems)}}
			return m.rest.get(ctx, "news", "/news", q, &news)
		},
	)
	if err := firstErr(errs[1], errs[0]); err != nil {
		return models.StockSnapshot{}, err
	}
	if len(tickers.Data) == 0 {
		return models.StockSnapshot{}, m.rest.fail("profile", ErrNoData)
	}
	if len(eod.Data) < 2 {
		return models.StockSnapshot{}, m.rest.fail("quote", ErrNoData)
	}
	m.rest.tolerate(ticker, errs[2])

	latest, previous := eod.Data[0], eod.Data[1]
	move := models.NewPriceMove(decimal.NewFromFloat(latest.Close), decimal.NewFromFloat(previous.Close))

	// newest first on the wire
	chart := make([]models.ChartPoint, 0, len(eod.Data))
	for _, d := range eod.Data {
		chart = append(chart, models.ChartPoint{Date: util.DatePrefix(d.Date), Price: round2(d.Close), Volume: int64(d.Volume)})
	}
	chart = reverse(chart)

	items := make([]models.NewsItem, 0, len(news.Data))
	for _, n := range news.Data {
		items = append(items, models.NewsItem{
			Title:       n.Title,
			Source:      n.Source,
			URL:         n.URL,
			PublishedAt: util.DatePrefix(n.PublishedAt),
		})
	}

	profile := tickers.Data[0]
	exchange := "N/A"
	if profile.StockExchange != nil {
		exchange = models.OrNA(profile.StockExchange.Acronym)
	}
	snap := models.StockSnapshot{
		Name:      profile.Name,
		Ticker:    profile.Symbol,
		ChartData: lastN(chart, m.rest.opts.Lookback),
		FundamentalsData: []models.Fundamental{
			{Label: "Exchange", Value: exchange},
			{Label: "Market Cap", Value: "N/A"},
			{Label: "P/E Ratio", Value: "N/A"},
			{Label: "EPS", Value: "N/A"},
		},
		News: capNews(items),
	}
	return snap.ApplyMove(move), nil
}
