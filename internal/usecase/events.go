package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"StockInsight/internal/domain/models"
	"StockInsight/internal/domain/repository"
	"StockInsight/pkg/logger"
	"StockInsight/pkg/queue"
)

const resolutionEventType = "resolution_event"

var ErrHistoryUnavailable = errors.New("resolution history requires the clickhouse events backend")

// EventRecorder hands resolution events to the background queue. Record never
// blocks the resolve path; a full queue drops the event.
type EventRecorder struct {
	queue queue.QueueService
	log   *logger.Logger
}

func NewEventRecorder(q queue.QueueService, log *logger.Logger) *EventRecorder {
	return &EventRecorder{queue: q, log: log.With(logger.String("component", "event_recorder"))}
}

func (r *EventRecorder) Record(ctx context.Context, e models.ResolutionEvent) {
	if err := r.queue.PublishMessage(ctx, resolutionEventType, e); err != nil {
		r.log.Warn("resolution event dropped",
			logger.String("ticker", e.Ticker),
			logger.Error(err))
	}
}

// ExportJob writes queued resolution events to Kafka or ClickHouse.
type ExportJob struct {
	backend   string
	publisher repository.EventPublisher
	storage   repository.EventStorage
	metrics   repository.Metrics
}

var _ queue.Job = (*ExportJob)(nil)

func NewKafkaExportJob(p repository.EventPublisher, metrics repository.Metrics) *ExportJob {
	return &ExportJob{backend: "kafka", publisher: p, metrics: metrics}
}

func NewClickHouseExportJob(s repository.EventStorage, metrics repository.Metrics) *ExportJob {
	return &ExportJob{backend: "clickhouse", storage: s, metrics: metrics}
}

func (j *ExportJob) Name() string { return "export-resolution-" + j.backend }
func (j *ExportJob) Type() string { return resolutionEventType }

func (j *ExportJob) Handle(ctx context.Context, payload any) error {
	e, err := queue.ParsePayload[models.ResolutionEvent](payload)
	if err != nil {
		return err
	}

	switch {
	case j.publisher != nil:
		err = j.publisher.Publish(ctx, *e)
	case j.storage != nil:
		err = j.storage.Store(ctx, *e)
	default:
		return fmt.Errorf("export job %s has no sink", j.backend)
	}
	if err != nil {
		j.metrics.RecordError("event_export")
		return fmt.Errorf("export %s event %s: %w", j.backend, e.ID, err)
	}
	j.metrics.RecordEventExported(j.backend)
	return nil
}

// ResolutionHistory reads stored resolution events back.
type ResolutionHistory struct {
	storage repository.EventStorage
	window  time.Duration
	now     func() time.Time
}

// NewResolutionHistory accepts a nil storage; queries then fail with
// ErrHistoryUnavailable.
func NewResolutionHistory(storage repository.EventStorage) *ResolutionHistory {
	return &ResolutionHistory{storage: storage, window: 90 * 24 * time.Hour, now: time.Now}
}

// Recent returns up to limit events, newest first. An empty ticker matches all.
func (h *ResolutionHistory) Recent(ctx context.Context, ticker string, limit int) ([]models.ResolutionEvent, error) {
	if h.storage == nil {
		return nil, ErrHistoryUnavailable
	}
	to := h.now()
	events, err := h.storage.Query(ctx, ticker, to.Add(-h.window), to, limit)
	if err != nil {
		return nil, fmt.Errorf("query resolutions: %w", err)
	}
	if events == nil {
		events = []models.ResolutionEvent{}
	}
	return events, nil
}
