package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"StockInsight/internal/domain/models"
	"StockInsight/internal/domain/repository"
)

const eventColumns = "id, ticker, provider, data_source, price, change, change_percent, attempts, latency_ms, resolved_at"

// ResolutionSchema returns the DDL for the events table.
func ResolutionSchema(table string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id String,
	ticker LowCardinality(String),
	provider LowCardinality(String),
	data_source LowCardinality(String),
	price String,
	change String,
	change_percent String,
	attempts UInt8,
	latency_ms UInt32,
	resolved_at DateTime64(3, 'UTC')
) ENGINE = MergeTree
ORDER BY (ticker, resolved_at)
TTL toDateTime(resolved_at) + INTERVAL 90 DAY`, table),
	}
}

// ClickHouseEventStore implements EventStorage on a ClickHouse table.
type ClickHouseEventStore struct {
	db    *sql.DB
	table string
}

var _ repository.EventStorage = (*ClickHouseEventStore)(nil)

func NewClickHouseEventStore(db *sql.DB, table string) *ClickHouseEventStore {
	return &ClickHouseEventStore{db: db, table: table}
}

func (s *ClickHouseEventStore) Init(ctx context.Context) error {
	for _, stmt := range ResolutionSchema(s.table) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create %s: %w", s.table, err)
		}
	}
	return nil
}

func (s *ClickHouseEventStore) Store(ctx context.Context, e models.ResolutionEvent) error {
	return s.StoreBatch(ctx, []models.ResolutionEvent{e})
}

// StoreBatch inserts multi-row VALUES in chunks.
func (s *ClickHouseEventStore) StoreBatch(ctx context.Context, events []models.ResolutionEvent) error {
	const chunkSize = 1000
	for start := 0; start < len(events); start += chunkSize {
		end := min(start+chunkSize, len(events))
		q, args := insertQuery(s.table, events[start:end])
		if len(args) == 0 {
			continue
		}
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert %s: %w", s.table, err)
		}
	}
	return nil
}

func insertQuery(table string, events []models.ResolutionEvent) (string, []any) {
	values := make([]string, 0, len(events))
	args := make([]any, 0, len(events)*10)
	for _, e := range events {
		if e.ID == "" || e.Ticker == "" {
			continue
		}
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			e.ID,
			e.Ticker,
			e.Provider,
			string(e.DataSource),
			e.Price,
			e.Change,
			e.ChangePercent,
			uint8(min(e.Attempts, 255)),
			uint32(max(e.LatencyMs, 0)),
			e.ResolvedAt.UTC(),
		)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", table, eventColumns, strings.Join(values, ",")), args
}

// selectQuery filters by time window and, when set, ticker. Newest first.
func selectQuery(table, ticker string, from, to time.Time, limit int) (string, []any) {
	where := []string{"resolved_at >= ?", "resolved_at <= ?"}
	args := []any{from.UTC(), to.UTC()}
	if ticker != "" {
		where = append(where, "ticker = ?")
		args = append(args, ticker)
	}
	args = append(args, limit)
	q := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY resolved_at DESC LIMIT ?",
		eventColumns, table, strings.Join(where, " AND "))
	return q, args
}

func (s *ClickHouseEventStore) Query(ctx context.Context, ticker string, from, to time.Time, limit int) ([]models.ResolutionEvent, error) {
	q, args := selectQuery(s.table, ticker, from, to, limit)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.table, err)
	}
	defer rows.Close()

	events := make([]models.ResolutionEvent, 0, limit)
	for rows.Next() {
		var (
			e        models.ResolutionEvent
			source   string
			attempts uint8
			latency  uint32
		)
		if err := rows.Scan(&e.ID, &e.Ticker, &e.Provider, &source, &e.Price, &e.Change,
			&e.ChangePercent, &attempts, &latency, &e.ResolvedAt); err != nil {
			return nil, err
		}
		e.DataSource = models.DataSource(source)
		e.Attempts = int(attempts)
		e.LatencyMs = int64(latency)
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *ClickHouseEventStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the pool belongs to pkg/clickhouse.Client.
func (s *ClickHouseEventStore) Close() error {
	return nil
}
