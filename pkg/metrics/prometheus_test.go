package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"StockInsight/internal/domain/models"
)

func TestRecorderCounts(t *testing.T) {
	r := New(prometheus.NewRegistry())

	r.RecordProviderAttempt("polygon", "failure", 0.2)
	r.RecordProviderAttempt("polygon", "failure", 0.1)
	r.RecordProviderAttempt("fmp", "success", 0.3)
	r.RecordResolution(models.DataSourceMock)
	r.RecordLLMCall("text", "gemini", 1.2, errors.New("quota"))
	r.RecordLastPrice("AAPL", 191.5)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.providerAttempts.WithLabelValues("polygon", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.providerAttempts.WithLabelValues("fmp", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.resolutions.WithLabelValues("mock")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.llmCalls.WithLabelValues("text", "gemini", "error")))
	assert.Equal(t, 191.5, testutil.ToFloat64(r.lastPrice.WithLabelValues("AAPL")))
}
