package providers

import (
	"context"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"StockInsight/internal/domain/models"
	"StockInsight/pkg/util"
)

const polygonBaseURL = "https://api.polygon.io"

type Polygon struct {
	rest *restClient
}

func NewPolygon(opts Options) *Polygon {
	return &Polygon{rest: newRESTClient("polygon", polygonBaseURL, "apiKey", opts, polygonCheck)}
}

func (p *Polygon) Name() string     { return "polygon" }
func (p *Polygon) Configured() bool { return p.rest.configured() }

type polygonEnvelope struct {
	Status  string `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func polygonCheck(body []byte) error {
	var env polygonEnvelope
	if !probe(body, &env) {
		return nil
	}
	if env.Status == "OK" || env.Status == "DELAYED" {
		return nil
	}
	msg := env.Error
	if msg == "" {
		msg = env.Message
	}
	if msg == "" {
		msg = "status " + env.Status
	}
	return &APIError{Message: msg}
}

type polygonDetails struct {
	Results *struct {
		Ticker      string   `json:"ticker"`
		Name        string   `json:"name"`
		MarketCap   *float64 `json:"market_cap"`
		Shares      *float64 `json:"share_class_shares_outstanding"`
		SICDesc     string   `json:"sic_description"`
		HomepageURL string   `json:"homepage_url"`
	} `json:"results"`
}

type polygonBar struct {
	T int64   `json:"t"` // unix ms
	O float64 `json:"o"`
	C float64 `json:"c"`
	V float64 `json:"v"`
}

type polygonBars struct {
	Results []polygonBar `json:"results"`
}

type polygonNews struct {
	Results []struct {
		Title     string `json:"title"`
		Publisher struct {
			Name string `json:"name"`
		} `json:"publisher"`
		ArticleURL   string `json:"article_url"`
		PublishedUTC string `json:"published_utc"`
	} `json:"results"`
}

func (p *Polygon) Fetch(ctx context.Context, ticker string) (models.StockSnapshot, error) {
	var (
		details polygonDetails
		prev    polygonBars
		news    polygonNews
		aggs    polygonBars
	)
	now := p.rest.now()
	from := util.Date(util.MonthsAgo(now, 3))
	to := util.Date(now)

	errs := parallel(
		func() error {
			return p.rest.get(ctx, "profile", "/v3/reference/tickers/"+url.PathEscape(ticker), nil, &details)
		},
		func() error {
			return p.rest.get(ctx, "quote", "/v2/aggs/ticker/"+url.PathEscape(ticker)+"/prev", nil, &prev)
		},
		func() error {
			return p.rest.get(ctx, "news", "/v2/reference/news", url.Values{"ticker": {ticker}}, &news)
		},
		func() error {
			path := "/v2/aggs/ticker/" + url.PathEscape(ticker) + "/range/1/day/" + from + "/" + to
			return p.rest.get(ctx, "history", path, url.Values{"sort": {"asc"}, "limit": {strconv.Itoa(p.rest.opts.Lookback)}}, &aggs)
		},
	)
	if err := firstErr(errs[0], errs[1]); err != nil {
		return models.StockSnapshot{}, err
	}
	if details.Results == nil {
		return models.StockSnapshot{}, p.rest.fail("profile", ErrNoData)
	}
	if len(prev.Results) == 0 {
		return models.StockSnapshot{}, p.rest.fail("quote", ErrNoData)
	}
	p.rest.tolerate(ticker, errs[2])
	p.rest.tolerate(ticker, errs[3])

	profile := details.Results
	bar := prev.Results[0]
	move := models.NewPriceMove(decimal.NewFromFloat(bar.C), decimal.NewFromFloat(bar.O))

	chart := make([]models.ChartPoint, 0, len(aggs.Results))
	for _, a := range aggs.Results {
		chart = append(chart, models.ChartPoint{
			Date:   util.DateFromUnixMilli(a.T),
			Price:  round2(a.C),
			Volume: int64(a.V),
		})
	}

	items := make([]models.NewsItem, 0, len(news.Results))
	for _, n := range news.Results {
		items = append(items, models.NewsItem{
			Title:       n.Title,
			Source:      models.OrNA(n.Publisher.Name),
			URL:         n.ArticleURL,
			PublishedAt: util.DatePrefix(n.PublishedUTC),
		})
	}

	snap := models.StockSnapshot{
		Name:      profile.Name,
		Ticker:    profile.Ticker,
		ChartData: lastN(chart, p.rest.opts.Lookback),
		FundamentalsData: []models.Fundamental{
			{Label: "Market Cap", Value: models.FormatOptional(profile.MarketCap)},
			{Label: "Shares", Value: models.FormatOptional(profile.Shares)},
			{Label: "Industry", Value: models.OrNA(profile.SICDesc)},
			{Label: "Website", Value: models.OrNA(profile.HomepageURL)},
		},
		News: capNews(items),
	}
	return snap.ApplyMove(move), nil
}

func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
