package providers

import (
	"context"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"StockInsight/internal/domain/models"
	"StockInsight/pkg/util"
)

const fmpBaseURL = "https://financialmodelingprep.com/api"

// FMP is Financial Modeling Prep.
type FMP struct {
	rest *restClient
}

func NewFMP(opts Options) *FMP {
	return &FMP{rest: newRESTClient("fmp", fmpBaseURL, "apikey", opts, fmpCheck)}
}

func (f *FMP) Name() string     { return "fmp" }
func (f *FMP) Configured() bool { return f.rest.configured() }

func fmpCheck(body []byte) error {
	var env struct {
		ErrorMessage string `json:"Error Message"`
	}
	if probe(body, &env) && env.ErrorMessage != "" {
		return &APIError{Message: env.ErrorMessage}
	}
	return nil
}

type fmpProfile struct {
	Symbol      string   `json:"symbol"`
	CompanyName string   `json:"companyName"`
	MktCap      *float64 `json:"mktCap"`
	Volume      *float64 `json:"volume"`
	Industry    string   `json:"industry"`
	Website     string   `json:"website"`
}

type fmpQuote struct {
	Price             float64 `json:"price"`
	Change            float64 `json:"change"`
	ChangesPercentage float64 `json:"changesPercentage"`
}

type fmpNews struct {
	Title         string `json:"title"`
	Site          string `json:"site"`
	URL           string `json:"url"`
	PublishedDate string `json:"publishedDate"`
}

type fmpHistory struct {
	Historical []struct {
		Date   string  `json:"date"`
		Close  float64 `json:"close"`
		Volume float64 `json:"volume"`
	} `json:"historical"`
}

func (f *FMP) Fetch(ctx context.Context, ticker string) (models.StockSnapshot, error) {
	var (
		profiles []fmpProfile
		quotes   []fmpQuote
		news     []fmpNews
		history  fmpHistory
	)
	now := f.rest.now()
	sym := url.PathEscape(ticker)

	errs := parallel(
		func() error { return f.rest.get(ctx, "profile", "/v3/profile/"+sym, nil, &profiles) },
		func() error { return f.rest.get(ctx, "quote", "/v3/quote/"+sym, nil, &quotes) },
		func() error {
			q := url.Values{"tickers": {ticker}, "limit": {strconv.Itoa(models.MaxNewsItems)}}
			return f.rest.get(ctx, "news", "/v1/stock_news", q, &news)
		},
		func() error {
			q := url.Values{"from": {util.Date(util.MonthsAgo(now, 3))}, "to": {util.Date(now)}}
			return f.rest.get(ctx, "history", "/v3/historical-price-full/"+sym, q, &history)
		},
	)
	if err := firstErr(errs[0], errs[1]); err != nil {
		return models.StockSnapshot{}, err
	}
	if len(profiles) == 0 {
		return models.StockSnapshot{}, f.rest.fail("profile", ErrNoData)
	}
	if len(quotes) == 0 {
		return models.StockSnapshot{}, f.rest.fail("quote", ErrNoData)
	}
	f.rest.tolerate(ticker, errs[2])
	f.rest.tolerate(ticker, errs[3])

	profile, quote := profiles[0], quotes[0]
	move := models.PriceMoveFromChange(
		decimal.NewFromFloat(quote.Price),
		decimal.NewFromFloat(quote.Change),
		decimal.NewFromFloat(quote.ChangesPercentage),
	)

	// newest first on the wire
	chart := make([]models.ChartPoint, 0, len(history.Historical))
	for _, d := range history.Historical {
		chart = append(chart, models.ChartPoint{Date: d.Date, Price: round2(d.Close), Volume: int64(d.Volume)})
	}
	chart = reverse(chart)

	items := make([]models.NewsItem, 0, len(news))
	for _, n := range news {
		items = append(items, models.NewsItem{
			Title:       n.Title,
			Source:      n.Site,
			URL:         n.URL,
			PublishedAt: util.DatePrefix(n.PublishedDate),
		})
	}

	snap := models.StockSnapshot{
		Name:      profile.CompanyName,
		Ticker:    profile.Symbol,
		ChartData: lastN(chart, f.rest.opts.Lookback),
		FundamentalsData: []models.Fundamental{
			{Label: "Market Cap", Value: models.FormatOptional(profile.MktCap)},
			{Label: "Volume", Value: models.FormatOptional(profile.Volume)},
			{Label: "Industry", Value: models.OrNA(profile.Industry)},
			{Label: "Website", Value: models.OrNA(profile.Website)},
		},
		News: capNews(items),
	}
	return snap.ApplyMove(move), nil
}
