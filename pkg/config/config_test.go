package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppliesDefaults(t *testing.T) {
	c, err := Parse([]byte("environment: test\n"))
	require.NoError(t, err)

	assert.Equal(t, DefaultProviderOrder, c.Providers.Order)
	assert.Equal(t, 90, c.Providers.LookbackDays)
	assert.Equal(t, "gemini-2.0-flash", c.LLM.GeminiModel)
	assert.Equal(t, "none", c.Events.Backend)
	assert.Equal(t, "memory", c.Events.Queue)
	assert.Equal(t, 60*time.Second, c.Cache.SnapshotTTL)
	assert.Equal(t, 8080, c.Server.Port)
}

func TestParseRejectsUnknownProvider(t *testing.T) {
	_, err := Parse([]byte("providers:\n  order: [polygon, yahoo]\n"))
	require.Error(t, err)
}

func TestParseRejectsDuplicateProvider(t *testing.T) {
	_, err := Parse([]byte("providers:\n  order: [finnhub, finnhub]\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "twice")
}

func TestParseRejectsUnknownEventQueue(t *testing.T) {
	_, err := Parse([]byte("events:\n  queue: sqs\n"))
	require.Error(t, err)

	c, err := Parse([]byte("events:\n  queue: redis\n"))
	require.NoError(t, err)
	assert.Equal(t, "redis", c.Events.Queue)
}

func TestParseKafkaNeedsBrokers(t *testing.T) {
	_, err := Parse([]byte("events:\n  backend: kafka\n"))
	require.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	c, err := Parse(nil)
	require.NoError(t, err)

	env := map[string]string{
		"POLYGON_API_KEY":   "poly",
		"FMP_API_KEY":       "fmp",
		"GOOGLE_API_KEY":    "gem",
		"PROVIDER_ORDER":    "finnhub, polygon",
		"KAFKA_BROKERS":     "a:9092,b:9092",
		"ANTHROPIC_API_KEY": "",
	}
	c.ApplyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "poly", c.Providers.Polygon.APIKey)
	assert.Equal(t, "fmp", c.Providers.FMP.APIKey)
	assert.Equal(t, "gem", c.LLM.GeminiAPIKey)
	assert.Empty(t, c.LLM.AnthropicAPIKey)
	assert.Equal(t, []string{"finnhub", "polygon"}, c.Providers.Order)
	assert.Equal(t, []string{"a:9092", "b:9092"}, c.Events.Kafka.Brokers)

	p, ok := c.Providers.Provider("fmp")
	require.True(t, ok)
	assert.Equal(t, "fmp", p.APIKey)
	_, ok = c.Providers.Provider("yahoo")
	assert.False(t, ok)
}
