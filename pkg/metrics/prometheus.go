// Package metrics records service metrics with Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"StockInsight/internal/domain/models"
)

// Recorder implements repository.Metrics using Prometheus.
type Recorder struct {
	providerAttempts *prometheus.CounterVec
	providerLatency  *prometheus.HistogramVec
	resolutions      *prometheus.CounterVec
	llmCalls         *prometheus.CounterVec
	llmLatency       *prometheus.HistogramVec
	eventsExported   *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	lastPrice        *prometheus.GaugeVec
	latency          *prometheus.HistogramVec
}

// New registers the collectors on reg. A nil reg uses the default registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Recorder{
		providerAttempts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockinsight_provider_attempts_total",
				Help: "Provider fetch attempts by outcome (success, failure)",
			},
			[]string{"provider", "outcome"},
		),
		providerLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockinsight_provider_duration_seconds",
				Help:    "Duration of provider fetch attempts",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		resolutions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockinsight_resolutions_total",
				Help: "Resolved snapshots by data source (live, mock)",
			},
			[]string{"source"},
		),
		llmCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockinsight_llm_calls_total",
				Help: "Generative model calls by operation, backend and outcome",
			},
			[]string{"op", "backend", "outcome"},
		),
		llmLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockinsight_llm_duration_seconds",
				Help:    "Duration of generative model calls",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"op", "backend"},
		),
		eventsExported: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockinsight_events_exported_total",
				Help: "Resolution events exported by backend",
			},
			[]string{"backend"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockinsight_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockinsight_last_price",
				Help: "Last streamed price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockinsight_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordProviderAttempt(provider, outcome string, seconds float64) {
	r.providerAttempts.WithLabelValues(provider, outcome).Inc()
	r.providerLatency.WithLabelValues(provider).Observe(seconds)
}

func (r *Recorder) RecordResolution(source models.DataSource) {
	r.resolutions.WithLabelValues(string(source)).Inc()
}

func (r *Recorder) RecordLLMCall(op, backend string, seconds float64, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	r.llmCalls.WithLabelValues(op, backend, outcome).Inc()
	r.llmLatency.WithLabelValues(op, backend).Observe(seconds)
}

func (r *Recorder) RecordEventExported(backend string) {
	r.eventsExported.WithLabelValues(backend).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
