package usecase

import (
	"context"
	"errors"
	"sync"

	"StockInsight/internal/domain/models"
	"StockInsight/internal/domain/service"
)

var errBoom = errors.New("boom")

type fakeProvider struct {
	name       string
	configured bool
	snap       models.StockSnapshot
	err        error

	mu    sync.Mutex
	calls int
}

func (p *fakeProvider) Name() string     { return p.name }
func (p *fakeProvider) Configured() bool { return p.configured }

func (p *fakeProvider) Fetch(_ context.Context, ticker string) (models.StockSnapshot, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.err != nil {
		return models.StockSnapshot{}, p.err
	}
	s := p.snap
	s.Ticker = ticker
	return s, nil
}

func (p *fakeProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type fakeText struct {
	text string
	err  error
}

func (f fakeText) GenerateText(context.Context, string) (string, error) { return f.text, f.err }

// fakeStructured answers GenerateJSON through fn.
type fakeStructured func(req service.StructuredRequest, out any) error

func (f fakeStructured) GenerateJSON(_ context.Context, req service.StructuredRequest, out any) error {
	return f(req, out)
}

type fakeChat struct {
	converse func(ctx context.Context, conv service.Conversation) (string, error)
}

func (fakeChat) Backend() string { return "fake" }

func (f fakeChat) Converse(ctx context.Context, conv service.Conversation) (string, error) {
	return f.converse(ctx, conv)
}

type nopMetrics struct{}

func (nopMetrics) RecordProviderAttempt(string, string, float64) {}
func (nopMetrics) RecordResolution(models.DataSource)            {}
func (nopMetrics) RecordLLMCall(string, string, float64, error)  {}
func (nopMetrics) RecordEventExported(string)                    {}
func (nopMetrics) RecordError(string)                            {}
func (nopMetrics) RecordLastPrice(string, float64)               {}
func (nopMetrics) RecordLatency(string, float64)                 {}

type countingMetrics struct {
	nopMetrics
	mu       sync.Mutex
	exported map[string]int
	errors   map[string]int
	prices   map[string]float64
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{exported: map[string]int{}, errors: map[string]int{}, prices: map[string]float64{}}
}

func (m *countingMetrics) RecordEventExported(backend string) {
	m.mu.Lock()
	m.exported[backend]++
	m.mu.Unlock()
}

func (m *countingMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}

func (m *countingMetrics) RecordLastPrice(symbol string, price float64) {
	m.mu.Lock()
	m.prices[symbol] = price
	m.mu.Unlock()
}

type eventCollector struct {
	mu     sync.Mutex
	events []models.ResolutionEvent
}

func (c *eventCollector) Record(_ context.Context, e models.ResolutionEvent) {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
}

func (c *eventCollector) All() []models.ResolutionEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.ResolutionEvent(nil), c.events...)
}
