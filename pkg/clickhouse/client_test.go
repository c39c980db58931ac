package clickhouse

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockInsight/pkg/config"
)

func TestBuildDSN(t *testing.T) {
	cfg := &ClientConfig{}
	for _, opt := range FromConfig(config.ClickHouseConfig{
		Host:        "ch.local",
		Port:        9000,
		Database:    "stockinsight",
		User:        "default",
		Password:    "p@ss",
		DialTimeout: 10 * time.Second,
		ReadTimeout: 30 * time.Second,
		AsyncInsert: true,
	}) {
		opt(cfg)
	}

	u, err := url.Parse(buildDSN(*cfg))
	require.NoError(t, err)
	assert.Equal(t, "clickhouse", u.Scheme)
	assert.Equal(t, "ch.local:9000", u.Host)
	assert.Equal(t, "/stockinsight", u.Path)
	pw, _ := u.User.Password()
	assert.Equal(t, "p@ss", pw)

	q := u.Query()
	assert.Equal(t, "10s", q.Get("dial_timeout"))
	assert.Equal(t, "30s", q.Get("read_timeout"))
	assert.Equal(t, "1", q.Get("async_insert"))
	assert.Equal(t, "1", q.Get("wait_for_async_insert"))
	assert.Empty(t, q.Get("write_timeout"))
}

func TestNewClientRequiresHost(t *testing.T) {
	_, err := NewClient()
	assert.ErrorIs(t, err, ErrNoHost)
}
