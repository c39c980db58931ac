package providers

import (
	"context"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"StockInsight/internal/domain/models"
	"StockInsight/pkg/util"
)

const finnhubBaseURL = "https://finnhub.io/api/v1"

type Finnhub struct {
	rest *restClient
}

func NewFinnhub(opts Options) *Finnhub {
	return &Finnhub{rest: newRESTClient("finnhub", finnhubBaseURL, "token", opts, finnhubCheck)}
}

func (f *Finnhub) Name() string     { return "finnhub" }
func (f *Finnhub) Configured() bool { return f.rest.configured() }

func finnhubCheck(body []byte) error {
	var env struct {
		Error string `json:"error"`
	}
	if probe(body, &env) && env.Error != "" {
		return &APIError{Message: env.Error}
	}
	return nil
}

// Market cap and share count are reported in millions.
type finnhubProfile struct {
	Ticker               string   `json:"ticker"`
	Name                 string   `json:"name"`
	MarketCapitalization *float64 `json:"marketCapitalization"`
	ShareOutstanding     *float64 `json:"shareOutstanding"`
	FinnhubIndustry      string   `json:"finnhubIndustry"`
	WebURL               string   `json:"weburl"`
}

type finnhubQuote struct {
	C  float64  `json:"c"`
	D  *float64 `json:"d"`
	DP *float64 `json:"dp"`
}

type finnhubNews struct {
	Headline string `json:"headline"`
	Source   string `json:"source"`
	URL      string `json:"url"`
	Datetime int64  `json:"datetime"`
}

type finnhubCandle struct {
	S string    `json:"s"`
	T []int64   `json:"t"`
	C []float64 `json:"c"`
	V []float64 `json:"v"`
}

func (f *Finnhub) Fetch(ctx context.Context, ticker string) (models.StockSnapshot, error) {
	var (
		profile finnhubProfile
		quote   finnhubQuote
		news    []finnhubNews
		candle  finnhubCandle
	)
	now := f.rest.now()
	sym := url.Values{"symbol": {ticker}}

	errs := parallel(
		func() error { return f.rest.get(ctx, "profile", "/stock/profile2", sym, &profile) },
		func() error { return f.rest.get(ctx, "quote", "/quote", sym, &quote) },
		func() error {
			q := url.Values{"symbol": {ticker}, "from": {util.Date(util.MonthsAgo(now, 1))}, "to": {util.Date(now)}}
			return f.rest.get(ctx, "news", "/company-news", q, &news)
		},
		func() error {
			q := url.Values{
				"symbol":     {ticker},
				"resolution": {"D"},
				"from":       {strconv.FormatInt(util.MonthsAgo(now, 3).Unix(), 10)},
				"to":         {strconv.FormatInt(now.Unix(), 10)},
			}
			return f.rest.get(ctx, "history", "/stock/candle", q, &candle)
		},
	)
	if err := firstErr(errs[0], errs[1]); err != nil {
		return models.StockSnapshot{}, err
	}
	if profile.Ticker == "" {
		return models.StockSnapshot{}, f.rest.fail("profile", ErrNoData)
	}
	if quote.D == nil || quote.DP == nil {
		return models.StockSnapshot{}, f.rest.fail("quote", ErrNoData)
	}
	f.rest.tolerate(ticker, errs[2])
	f.rest.tolerate(ticker, errs[3])

	move := models.PriceMoveFromChange(
		decimal.NewFromFloat(quote.C),
		decimal.NewFromFloat(*quote.D),
		decimal.NewFromFloat(*quote.DP),
	)

	var chart []models.ChartPoint
	if n := min(len(candle.T), len(candle.C)); n > 0 {
		chart = make([]models.ChartPoint, 0, n)
		for i := 0; i < n; i++ {
			p := models.ChartPoint{Date: util.DateFromUnix(candle.T[i]), Price: round2(candle.C[i])}
			if i < len(candle.V) {
				p.Volume = int64(candle.V[i])
			}
			chart = append(chart, p)
		}
	}

	items := make([]models.NewsItem, 0, min(len(news), models.MaxNewsItems))
	for _, n := range capSlice(news, models.MaxNewsItems) {
		items = append(items, models.NewsItem{
			Title:       n.Headline,
			Source:      n.Source,
			URL:         n.URL,
			PublishedAt: util.DateFromUnix(n.Datetime),
		})
	}

	name := profile.Name
	if name == "" {
		name = ticker
	}
	snap := models.StockSnapshot{
		Name:      name,
		Ticker:    profile.Ticker,
		ChartData: lastN(chart, f.rest.opts.Lookback),
		FundamentalsData: []models.Fundamental{
			{Label: "Market Cap", Value: models.FormatOptional(millions(profile.MarketCapitalization))},
			{Label: "Shares", Value: models.FormatOptional(millions(profile.ShareOutstanding))},
			{Label: "Industry", Value: models.OrNA(profile.FinnhubIndustry)},
			{Label: "Website", Value: models.OrNA(profile.WebURL)},
		},
		News: items,
	}
	return snap.ApplyMove(move), nil
}

func millions(v *float64) *float64 {
	if v == nil {
		return nil
	}
	x := *v * 1e6
	return &x
}
