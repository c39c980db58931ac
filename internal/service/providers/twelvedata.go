package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"StockInsight/internal/domain/models"
)

const twelveDataBaseURL = "https://api.twelvedata.com"

type TwelveData struct {
	rest *restClient
}

func NewTwelveData(opts Options) *TwelveData {
	return &TwelveData{rest: newRESTClient("twelvedata", twelveDataBaseURL, "apikey", opts, twelveDataCheck)}
}

func (t *TwelveData) Name() string     { return "twelvedata" }
func (t *TwelveData) Configured() bool { return t.rest.configured() }

// Errors come back as {"code": 404, "status": "error", "message": "..."}, often with HTTP 200.
func twelveDataCheck(body []byte) error {
	var env struct {
		Code    int    `json:"code"`
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if !probe(body, &env) {
		return nil
	}
	if env.Status == "error" || (env.Code > 200 && env.Status != "ok") {
		return &APIError{Message: fmt.Sprintf("%d %s", env.Code, env.Message)}
	}
	return nil
}

type twelveDataProfile struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
	Currency string `json:"currency"`
	Industry string `json:"industry"`
	Website  string `json:"website"`
}

type twelveDataQuote struct {
	Close         flexNumber `json:"close"`
	Change        flexNumber `json:"change"`
	PercentChange flexNumber `json:"percent_change"`
}

type twelveDataNews struct {
	Articles []struct {
		Title    string   `json:"title"`
		Source   string   `json:"source"`
		URL      string   `json:"url"`
		Datetime flexDate `json:"datetime"`
	} `json:"articles"`
}

type twelveDataSeries struct {
	Values []struct {
		Datetime string     `json:"datetime"`
		Close    flexNumber `json:"close"`
		Volume   flexNumber `json:"volume"`
	} `json:"values"`
}

func (t *TwelveData) Fetch(ctx context.Context, ticker string) (models.StockSnapshot, error) {
	var (
		profile twelveDataProfile
		quote   twelveDataQuote
		news    twelveDataNews
		series  twelveDataSeries
	)
	sym := url.Values{"symbol": {ticker}}

	errs := parallel(
		func() error { return t.rest.get(ctx, "profile", "/profile", sym, &profile) },
		func() error { return t.rest.get(ctx, "quote", "/quote", sym, &quote) },
		func() error {
			q := url.Values{"symbol": {ticker}, "limit": {strconv.Itoa(models.MaxNewsItems)}}
			return t.rest.get(ctx, "news", "/news", q, &news)
		},
		func() error {
			q := url.Values{"symbol": {ticker}, "interval": {"1day"}, "outputsize": {strconv.Itoa(t.rest.opts.Lookback)}}
			return t.rest.get(ctx, "history", "/time_series", q, &series)
		},
	)
	if err := firstErr(errs[0], errs[1]); err != nil {
		return models.StockSnapshot{}, err
	}
	if profile.Name == "" {
		return models.StockSnapshot{}, t.rest.fail("profile", ErrNoData)
	}
	if !quote.Close.Valid() || !quote.Change.Valid() {
		return models.StockSnapshot{}, t.rest.fail("quote", ErrNoData)
	}
	t.rest.tolerate(ticker, errs[2])
	t.rest.tolerate(ticker, errs[3])

	move := models.PriceMoveFromChange(quote.Close.Decimal(), quote.Change.Decimal(), quote.PercentChange.Decimal())

	// newest first on the wire
	chart := make([]models.ChartPoint, 0, len(series.Values))
	for _, v := range series.Values {
		if !v.Close.Valid() {
			continue
		}
		chart = append(chart, models.ChartPoint{
			Date:   v.Datetime,
			Price:  v.Close.Float(),
			Volume: v.Volume.Decimal().IntPart(),
		})
	}
	chart = reverse(chart)

	items := make([]models.NewsItem, 0, len(news.Articles))
	for _, a := range news.Articles {
		items = append(items, models.NewsItem{
			Title:       a.Title,
			Source:      a.Source,
			URL:         a.URL,
			PublishedAt: string(a.Datetime),
		})
	}

	snap := models.StockSnapshot{
		Name:      profile.Name,
		Ticker:    profile.Symbol,
		ChartData: lastN(chart, t.rest.opts.Lookback),
		FundamentalsData: []models.Fundamental{
			{Label: "Exchange", Value: models.OrNA(profile.Exchange)},
			{Label: "Currency", Value: models.OrNA(profile.Currency)},
			{Label: "Industry", Value: models.OrNA(profile.Industry)},
			{Label: "Website", Value: models.OrNA(profile.Website)},
		},
		News: capNews(items),
	}
	return snap.ApplyMove(move), nil
}
