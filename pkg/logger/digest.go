package logger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Publisher ships a digest batch. The Kafka producer satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, key []byte, value any) error
}

type DigestConfig struct {
	FlushInterval  time.Duration
	CountThreshold int // distinct entries before an early flush
	Topic          string
	Publisher      Publisher
}

// DigestEntry is one distinct (level, message, fields, caller) combination.
type DigestEntry struct {
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields"`
	Caller    string         `json:"caller"`
	Count     int            `json:"count"`
	FirstSeen time.Time      `json:"first_seen"`
	LastSeen  time.Time      `json:"last_seen"`
}

// Digest deduplicates repeated warn/error lines (a provider failing on every
// request, say) and publishes them in periodic batches.
type Digest struct {
	cfg     DigestConfig
	mu      sync.Mutex
	entries map[string]*DigestEntry
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	pending sync.WaitGroup
}

func NewDigest(cfg DigestConfig) *Digest {
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 30 * time.Second
	}
	if cfg.CountThreshold <= 0 {
		cfg.CountThreshold = 100
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Digest{
		cfg:     cfg,
		entries: make(map[string]*DigestEntry),
		cancel:  cancel,
	}
	d.wg.Add(1)
	go d.loop(ctx)
	return d
}

func (d *Digest) Add(level, message string, fields map[string]any, caller string) {
	now := time.Now()
	key := digestKey(level, message, fields, caller)

	d.mu.Lock()
	defer d.mu.Unlock()

	if e, ok := d.entries[key]; ok {
		e.Count++
		e.LastSeen = now
	} else {
		d.entries[key] = &DigestEntry{
			Level:     level,
			Message:   message,
			Fields:    fields,
			Caller:    caller,
			Count:     1,
			FirstSeen: now,
			LastSeen:  now,
		}
	}

	if len(d.entries) >= d.cfg.CountThreshold {
		d.flushLocked()
	}
}

// Len reports the number of distinct entries waiting for the next flush.
func (d *Digest) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}

func digestKey(level, message string, fields map[string]any, caller string) string {
	b, _ := json.Marshal(struct {
		L string         `json:"l"`
		M string         `json:"m"`
		F map[string]any `json:"f"`
		C string         `json:"c"`
	}{level, message, fields, caller})
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func (d *Digest) loop(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.mu.Lock()
			d.flushLocked()
			d.mu.Unlock()
		case <-ctx.Done():
			d.mu.Lock()
			d.flushLocked()
			d.mu.Unlock()
			return
		}
	}
}

func (d *Digest) flushLocked() {
	if len(d.entries) == 0 {
		return
	}
	batch := make([]DigestEntry, 0, len(d.entries))
	for _, e := range d.entries {
		batch = append(batch, *e)
	}
	d.entries = make(map[string]*DigestEntry)

	if d.cfg.Publisher == nil {
		return
	}
	d.pending.Add(1)
	go func() {
		defer d.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := d.cfg.Publisher.Publish(ctx, d.cfg.Topic, nil, batch); err != nil {
			// the logger itself is the caller here, so fall back to stderr
			fmt.Fprintf(os.Stderr, "publish log digest: %v\n", err)
		}
	}()
}

// Close performs a final flush and waits for in-flight publishes.
func (d *Digest) Close() {
	d.cancel()
	d.wg.Wait()
	d.pending.Wait()
}
