package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu      sync.Mutex
	batches [][]DigestEntry
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, _ []byte, value any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches = append(p.batches, value.([]DigestEntry))
	return nil
}

func TestWriterLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, zerolog.DebugLevel).With(String("component", "resolver"))

	l.Warn("provider failed", String("provider", "polygon"), Error(errors.New("boom")), Duration("took", 1500*time.Millisecond))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "resolver", line["component"])
	assert.Equal(t, "polygon", line["provider"])
	assert.Equal(t, "boom", line["error"])
	assert.EqualValues(t, 1500, line["took"])
}

func TestDigestDeduplicatesAndFlushesOnClose(t *testing.T) {
	pub := &recordingPublisher{}
	d := NewDigest(DigestConfig{FlushInterval: time.Hour, CountThreshold: 10, Topic: "t", Publisher: pub})

	l := Nop()
	l.AttachDigest(d)
	for i := 0; i < 3; i++ {
		l.Error("provider failed", String("provider", "fmp"))
	}
	l.Warn("provider failed", String("provider", "finnhub"))
	assert.Equal(t, 2, d.Len())

	l.DetachDigest()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.batches, 1)
	counts := map[string]int{}
	for _, e := range pub.batches[0] {
		counts[e.Fields["provider"].(string)] = e.Count
	}
	assert.Equal(t, map[string]int{"fmp": 3, "finnhub": 1}, counts)
}

func TestDigestThresholdFlush(t *testing.T) {
	pub := &recordingPublisher{}
	d := NewDigest(DigestConfig{FlushInterval: time.Hour, CountThreshold: 2, Publisher: pub})
	d.Add("error", "a", nil, "x")
	d.Add("error", "b", nil, "x")
	assert.Equal(t, 0, d.Len())
	d.Close()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.batches, 1)
	assert.Len(t, pub.batches[0], 2)
}
