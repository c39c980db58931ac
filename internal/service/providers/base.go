// Package providers adapts the external market-data APIs to models.StockSnapshot.
package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"StockInsight/internal/domain/models"
	xhttp "StockInsight/pkg/http"
	"StockInsight/pkg/logger"
)

// ErrNoData marks a sub-call that succeeded on the wire but carried nothing usable.
var ErrNoData = errors.New("no data in response")

// ProviderError identifies the provider and the sub-call that failed.
type ProviderError struct {
	Provider string
	Call     string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Call, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// APIError is an error payload returned with a 2xx status.
type APIError struct {
	Message string
}

func (e *APIError) Error() string { return "api error: " + e.Message }

// Options carries the per-provider settings shared by every adapter.
type Options struct {
	APIKey    string
	BaseURL   string
	RateLimit float64 // requests per second, 0 = unlimited
	Lookback  int     // chart points to keep
	HTTP      *xhttp.Client
	Logger    *logger.Logger
	Now       func() time.Time
}

func (o Options) withDefaults(baseURL string) Options {
	if o.BaseURL == "" {
		o.BaseURL = baseURL
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.Lookback <= 0 {
		o.Lookback = 90
	}
	if o.HTTP == nil {
		o.HTTP = xhttp.NewClient(xhttp.WithTimeout(10 * time.Second))
	}
	if o.Logger == nil {
		o.Logger = logger.Nop()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// payloadCheck inspects a decoded-as-generic body for a provider error payload.
type payloadCheck func(body []byte) error

// restClient issues keyed GET requests against one provider's REST API.
type restClient struct {
	name     string
	opts     Options
	keyParam string
	limiter  *rate.Limiter
	check    payloadCheck
}

func newRESTClient(name, defaultBase, keyParam string, opts Options, check payloadCheck) *restClient {
	opts = opts.withDefaults(defaultBase)
	c := &restClient{name: name, opts: opts, keyParam: keyParam, check: check}
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return c
}

func (c *restClient) configured() bool { return c.opts.APIKey != "" }

func (c *restClient) fail(call string, err error) error {
	return &ProviderError{Provider: c.name, Call: call, Err: err}
}

// get fetches path with params plus the API key and decodes it into dest.
func (c *restClient) get(ctx context.Context, call, path string, params url.Values, dest any) error {
	if !c.configured() {
		return c.fail(call, errors.New("missing api key"))
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return c.fail(call, fmt.Errorf("rate limit wait: %w", err))
		}
	}

	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set(c.keyParam, c.opts.APIKey)

	var body []byte
	if err := c.opts.HTTP.GetJSON(ctx, c.opts.BaseURL+path, q, &body); err != nil {
		return c.fail(call, err)
	}
	if c.check != nil {
		if err := c.check(body); err != nil {
			return c.fail(call, err)
		}
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return c.fail(call, fmt.Errorf("decode: %w", err))
	}
	return nil
}

// tolerate logs a failed optional sub-call and reports whether it succeeded.
func (c *restClient) tolerate(ticker string, err error) bool {
	if err == nil {
		return true
	}
	c.opts.Logger.Debug("optional sub-call failed",
		logger.String("provider", c.name),
		logger.String("ticker", ticker),
		logger.Error(err))
	return false
}

func (c *restClient) now() time.Time { return c.opts.Now().UTC() }

// parallel runs every fn concurrently and returns their errors in order.
func parallel(fns ...func() error) []error {
	errs := make([]error, len(fns))
	var wg sync.WaitGroup
	for i, fn := range fns {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = fn()
		}()
	}
	wg.Wait()
	return errs
}

// firstErr returns the first non-nil error among the required sub-calls.
func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// probe decodes only the fields needed to recognise error payloads.
func probe(body []byte, dest any) bool {
	trimmed := strings.TrimSpace(string(body))
	if !strings.HasPrefix(trimmed, "{") {
		return false
	}
	return json.Unmarshal(body, dest) == nil
}

func lastN[T any](s []T, n int) []T {
	if n > 0 && len(s) > n {
		return s[len(s)-n:]
	}
	return s
}

func reverse[T any](s []T) []T {
	out := make([]T, len(s))
	for i, v := range s {
		out[len(s)-1-i] = v
	}
	return out
}

func capSlice[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func capNews(items []models.NewsItem) []models.NewsItem {
	return capSlice(items, models.MaxNewsItems)
}
