package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockInsight/internal/domain/models"
	"StockInsight/internal/domain/repository"
	"StockInsight/pkg/config"
	xhttp "StockInsight/pkg/http"
	"StockInsight/pkg/logger"
)

var fixedNow = func() time.Time { return time.Date(2024, 7, 29, 15, 0, 0, 0, time.UTC) }

// route maps a path prefix (optionally "path?function=X") to a JSON body.
type route struct {
	status int
	body   string
}

func fakeAPI(t *testing.T, keyParam string, routes map[string]route) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "secret", r.URL.Query().Get(keyParam), "api key param")

		key := r.URL.Path
		if fn := r.URL.Query().Get("function"); fn != "" {
			key += "?function=" + fn
		}
		for prefix, rt := range routes {
			if strings.HasPrefix(key, prefix) {
				if rt.status != 0 {
					w.WriteHeader(rt.status)
				}
				_, _ = w.Write([]byte(rt.body))
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func opts(baseURL string) Options {
	return Options{APIKey: "secret", BaseURL: baseURL, Lookback: 90, Now: fixedNow, HTTP: xhttp.NewClient(), Logger: logger.Nop()}
}

var (
	twoPlaces   = regexp.MustCompile(`^-?\d+\.\d{2}$`)
	percentForm = regexp.MustCompile(`^-?\d+\.\d{2}%$`)
)

func assertShape(t *testing.T, s models.StockSnapshot) {
	t.Helper()
	assert.Regexp(t, twoPlaces, s.Price)
	assert.Regexp(t, twoPlaces, s.Change)
	assert.Regexp(t, percentForm, s.ChangePercent)
	assert.Equal(t, !strings.HasPrefix(s.Change, "-"), s.IsUp)
	for i := 1; i < len(s.ChartData); i++ {
		assert.LessOrEqual(t, s.ChartData[i-1].Date, s.ChartData[i].Date)
	}
	assert.LessOrEqual(t, len(s.News), models.MaxNewsItems)
}

const polygonProfile = `{"status":"OK","results":{"ticker":"AAPL","name":"Apple Inc.","market_cap":3290000000000,"share_class_shares_outstanding":15334082000,"sic_description":"ELECTRONIC COMPUTERS","homepage_url":"https://www.apple.com"}}`

func TestPolygonScenarioA(t *testing.T) {
	srv, _ := fakeAPI(t, "apiKey", map[string]route{
		"/v3/reference/tickers/AAPL":  {body: polygonProfile},
		"/v2/aggs/ticker/AAPL/prev":   {body: `{"status":"OK","results":[{"c":214.29,"o":209.70,"v":1000,"t":1722211200000}]}`},
		"/v2/aggs/ticker/AAPL/range/": {body: `{"status":"DELAYED","results":[{"t":1722124800000,"c":210.123,"v":5},{"t":1722211200000,"c":214.29,"v":6}]}`},
		"/v2/reference/news":          {body: `{"status":"OK","results":[{"title":"t1","publisher":{"name":"Reuters"},"article_url":"u1","published_utc":"2024-07-29T10:00:00Z"}]}`},
	})

	snap, err := NewPolygon(opts(srv.URL)).Fetch(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, "Apple Inc.", snap.Name)
	assert.Equal(t, "214.29", snap.Price)
	assert.Equal(t, "4.59", snap.Change)
	assert.Equal(t, "2.19%", snap.ChangePercent)
	assert.True(t, snap.IsUp)
	assert.Equal(t, []models.ChartPoint{{Date: "2024-07-28", Price: 210.12, Volume: 5}, {Date: "2024-07-29", Price: 214.29, Volume: 6}}, snap.ChartData)
	assert.Equal(t, []models.Fundamental{
		{Label: "Market Cap", Value: "3.29T"},
		{Label: "Shares", Value: "15.33B"},
		{Label: "Industry", Value: "ELECTRONIC COMPUTERS"},
		{Label: "Website", Value: "https://www.apple.com"},
	}, snap.FundamentalsData)
	assert.Equal(t, []models.NewsItem{{Title: "t1", Source: "Reuters", URL: "u1", PublishedAt: "2024-07-29"}}, snap.News)
	assertShape(t, snap)
}

func TestPolygonToleratesMissingNewsAndHistory(t *testing.T) {
	srv, _ := fakeAPI(t, "apiKey", map[string]route{
		"/v3/reference/tickers/AAPL": {body: polygonProfile},
		"/v2/aggs/ticker/AAPL/prev":  {body: `{"status":"OK","results":[{"c":100,"o":100}]}`},
		"/v2/reference/news":         {status: http.StatusInternalServerError, body: "down"},
	})

	snap, err := NewPolygon(opts(srv.URL)).Fetch(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Empty(t, snap.News)
	assert.Empty(t, snap.ChartData)
	assert.Equal(t, "0.00", snap.Change)
}

func TestPolygonErrorStatusFailsQuote(t *testing.T) {
	srv, _ := fakeAPI(t, "apiKey", map[string]route{
		"/v3/reference/tickers/AAPL": {body: polygonProfile},
		"/v2/aggs/ticker/AAPL/prev":  {body: `{"status":"ERROR","error":"not entitled"}`},
	})

	_, err := NewPolygon(opts(srv.URL)).Fetch(context.Background(), "AAPL")

	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "polygon", pe.Provider)
	assert.Equal(t, "quote", pe.Call)
	var api *APIError
	require.True(t, errors.As(err, &api))
	assert.Equal(t, "not entitled", api.Message)
}

func TestUnreachableProviderKeepsKeyOutOfErrors(t *testing.T) {
	o := opts("http://127.0.0.1:1")
	o.APIKey = "SECRET-KEY-123"

	for name, p := range map[string]repository.StockProvider{
		"polygon":    NewPolygon(o),
		"fmp":        NewFMP(o),
		"twelvedata": NewTwelveData(o),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := p.Fetch(context.Background(), "AAPL")
			require.Error(t, err)
			assert.NotContains(t, err.Error(), "SECRET-KEY-123")
		})
	}
}

func TestFMPReversesHistory(t *testing.T) {
	srv, _ := fakeAPI(t, "apikey", map[string]route{
		"/v3/profile/MSFT":               {body: `[{"symbol":"MSFT","companyName":"Microsoft","mktCap":3100000000000,"volume":20000000,"industry":"Software","website":"https://microsoft.com"}]`},
		"/v3/quote/MSFT":                 {body: `[{"price":447.671,"change":-2.345,"changesPercentage":-0.5211}]`},
		"/v1/stock_news":                 {body: `[{"title":"n","site":"cnbc.com","url":"u","publishedDate":"2024-07-29 08:30:00"}]`},
		"/v3/historical-price-full/MSFT": {body: `{"historical":[{"date":"2024-07-29","close":447.67,"volume":3},{"date":"2024-07-26","close":450.01,"volume":4}]}`},
	})

	snap, err := NewFMP(opts(srv.URL)).Fetch(context.Background(), "MSFT")
	require.NoError(t, err)
	assert.Equal(t, "447.67", snap.Price)
	assert.Equal(t, "-2.35", snap.Change)
	assert.Equal(t, "-0.52%", snap.ChangePercent)
	assert.False(t, snap.IsUp)
	assert.Equal(t, "2024-07-26", snap.ChartData[0].Date)
	assert.Equal(t, "2024-07-29", snap.News[0].PublishedAt)
	assert.Equal(t, "20.00M", snap.FundamentalsData[1].Value)
	assertShape(t, snap)
}

func TestFMPErrorMessagePayload(t *testing.T) {
	srv, _ := fakeAPI(t, "apikey", map[string]route{
		"/v3/profile/": {body: `{"Error Message":"Invalid API KEY"}`},
		"/v3/quote/":   {body: `[]`},
	})
	_, err := NewFMP(opts(srv.URL)).Fetch(context.Background(), "MSFT")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid API KEY")
}

func TestFinnhubScalesMillions(t *testing.T) {
	srv, _ := fakeAPI(t, "token", map[string]route{
		"/stock/profile2": {body: `{"ticker":"NVDA","name":"NVIDIA Corp","marketCapitalization":2800000,"shareOutstanding":24530,"finnhubIndustry":"Semiconductors","weburl":"https://nvidia.com"}`},
		"/quote":          {body: `{"c":113.06,"d":1.47,"dp":1.3173}`},
		"/company-news":   {body: `[{"headline":"h","source":"Yahoo","url":"u","datetime":1722211200}]`},
		"/stock/candle":   {body: `{"s":"ok","t":[1722124800,1722211200],"c":[111.59,113.06],"v":[10,11]}`},
	})

	snap, err := NewFinnhub(opts(srv.URL)).Fetch(context.Background(), "NVDA")
	require.NoError(t, err)
	assert.Equal(t, "1.47", snap.Change)
	assert.Equal(t, "1.32%", snap.ChangePercent)
	assert.Equal(t, "2.80T", snap.FundamentalsData[0].Value)
	assert.Equal(t, "24.53B", snap.FundamentalsData[1].Value)
	assert.Len(t, snap.ChartData, 2)
	assert.Equal(t, "2024-07-29", snap.News[0].PublishedAt)
}

func TestFinnhubUnknownSymbol(t *testing.T) {
	srv, _ := fakeAPI(t, "token", map[string]route{
		"/stock/profile2": {body: `{}`},
		"/quote":          {body: `{"c":0,"d":null,"dp":null}`},
	})
	_, err := NewFinnhub(opts(srv.URL)).Fetch(context.Background(), "ZZZZ")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestTwelveDataStrings(t *testing.T) {
	srv, _ := fakeAPI(t, "apikey", map[string]route{
		"/profile":     {body: `{"symbol":"TSLA","name":"Tesla Inc","exchange":"NASDAQ","industry":"Auto Manufacturers","website":"https://tesla.com"}`},
		"/quote":       {body: `{"close":"219.80000","change":"-0.45000","percent_change":"-0.20430"}`},
		"/news":        {body: `{"articles":[{"title":"a","source":"s","url":"u","datetime":1722211200}]}`},
		"/time_series": {body: `{"values":[{"datetime":"2024-07-29","close":"219.8","volume":"100"},{"datetime":"2024-07-26","close":"220.25","volume":"90"}],"status":"ok"}`},
	})

	snap, err := NewTwelveData(opts(srv.URL)).Fetch(context.Background(), "TSLA")
	require.NoError(t, err)
	assert.Equal(t, "219.80", snap.Price)
	assert.Equal(t, "-0.45", snap.Change)
	assert.Equal(t, "-0.20%", snap.ChangePercent)
	assert.Equal(t, []models.ChartPoint{{Date: "2024-07-26", Price: 220.25, Volume: 90}, {Date: "2024-07-29", Price: 219.8, Volume: 100}}, snap.ChartData)
	assert.Equal(t, "N/A", snap.FundamentalsData[1].Value)
	assert.Equal(t, "2024-07-29", snap.News[0].PublishedAt)
}

func TestTwelveDataErrorPayload(t *testing.T) {
	srv, _ := fakeAPI(t, "apikey", map[string]route{
		"/profile": {body: `{"code":404,"message":"symbol not found","status":"error"}`},
		"/quote":   {body: `{"code":404,"message":"symbol not found","status":"error"}`},
	})
	_, err := NewTwelveData(opts(srv.URL)).Fetch(context.Background(), "ZZZZ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "symbol not found")
}

func TestAlphaVantageSeriesWindow(t *testing.T) {
	var series strings.Builder
	series.WriteString(`{"Time Series (Daily)":{`)
	for i := 0; i < 100; i++ {
		if i > 0 {
			series.WriteString(",")
		}
		d := fixedNow().AddDate(0, 0, -i).Format("2006-01-02")
		fmt.Fprintf(&series, `"%s":{"4. close":"%d.00","5. volume":"%d"}`, d, 100+i, 1000+i)
	}
	series.WriteString(`}}`)

	srv, _ := fakeAPI(t, "apikey", map[string]route{
		"/query?function=OVERVIEW":          {body: `{"Symbol":"IBM","Name":"International Business Machines","MarketCapitalization":"175000000000","PERatio":"22.1","EPS":"None","RevenueTTM":"62000000000"}`},
		"/query?function=GLOBAL_QUOTE":      {body: `{"Global Quote":{"05. price":"191.7500","09. change":"1.2500","10. change percent":"0.6562%"}}`},
		"/query?function=TIME_SERIES_DAILY": {body: series.String()},
		"/query?function=NEWS_SENTIMENT":    {body: `{"feed":[{"title":"x","source":"Benzinga","url":"u","time_published":"20240729T133000"}]}`},
	})

	snap, err := NewAlphaVantage(opts(srv.URL)).Fetch(context.Background(), "IBM")
	require.NoError(t, err)
	assert.Equal(t, "0.66%", snap.ChangePercent)
	require.Len(t, snap.ChartData, 90)
	assert.Equal(t, "2024-07-29", snap.ChartData[89].Date)
	assert.Equal(t, 100.0, snap.ChartData[89].Price)
	assert.Equal(t, []models.Fundamental{
		{Label: "Market Cap", Value: "175.00B"},
		{Label: "P/E Ratio", Value: "22.1"},
		{Label: "EPS", Value: "N/A"},
		{Label: "Revenue (TTM)", Value: "62.00B"},
	}, snap.FundamentalsData)
	assert.Equal(t, "2024-07-29", snap.News[0].PublishedAt)
	assertShape(t, snap)
}

func TestAlphaVantageThrottleNote(t *testing.T) {
	srv, _ := fakeAPI(t, "apikey", map[string]route{
		"/query": {body: `{"Note":"Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute"}`},
	})
	_, err := NewAlphaVantage(opts(srv.URL)).Fetch(context.Background(), "IBM")
	var api *APIError
	require.True(t, errors.As(err, &api))
}

func TestMarketstackComputesChange(t *testing.T) {
	srv, _ := fakeAPI(t, "access_key", map[string]route{
		"/eod":     {body: `{"data":[{"date":"2024-07-29T00:00:00+0000","close":110,"volume":7},{"date":"2024-07-26T00:00:00+0000","close":100,"volume":6}]}`},
		"/tickers": {body: `{"data":[{"name":"Acme","symbol":"ACME","stock_exchange":{"acronym":"NYSE"}}]}`},
		"/news":    {status: http.StatusForbidden, body: `{"error":{"code":"function_access_restricted","message":"plan"}}`},
	})

	snap, err := NewMarketstack(opts(srv.URL)).Fetch(context.Background(), "ACME")
	require.NoError(t, err)
	assert.Equal(t, "110.00", snap.Price)
	assert.Equal(t, "10.00", snap.Change)
	assert.Equal(t, "10.00%", snap.ChangePercent)
	assert.Equal(t, "2024-07-26", snap.ChartData[0].Date)
	assert.Equal(t, "NYSE", snap.FundamentalsData[0].Value)
	assert.Empty(t, snap.News)
}

func TestMarketstackNeedsTwoBars(t *testing.T) {
	srv, _ := fakeAPI(t, "access_key", map[string]route{
		"/eod":     {body: `{"data":[{"date":"2024-07-29","close":110}]}`},
		"/tickers": {body: `{"data":[{"name":"Acme","symbol":"ACME"}]}`},
		"/news":    {body: `{"data":[]}`},
	})
	_, err := NewMarketstack(opts(srv.URL)).Fetch(context.Background(), "ACME")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestMissingKeyDoesNotCallOut(t *testing.T) {
	srv, hits := fakeAPI(t, "apikey", nil)
	o := opts(srv.URL)
	o.APIKey = ""
	p := NewFMP(o)

	assert.False(t, p.Configured())
	_, err := p.Fetch(context.Background(), "AAPL")
	require.Error(t, err)
	assert.Zero(t, atomic.LoadInt32(hits))
}

func TestFromConfigOrder(t *testing.T) {
	cfg := config.ProvidersConfig{
		Order:        []string{"marketstack", "polygon"},
		LookbackDays: 30,
		Polygon:      config.ProviderConfig{APIKey: "k"},
	}
	ps, err := FromConfig(cfg, xhttp.NewClient(), logger.Nop())
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, "marketstack", ps[0].Name())
	assert.False(t, ps[0].Configured())
	assert.Equal(t, "polygon", ps[1].Name())
	assert.True(t, ps[1].Configured())

	_, err = FromConfig(config.ProvidersConfig{Order: []string{"yahoo"}}, xhttp.NewClient(), logger.Nop())
	assert.Error(t, err)
}
