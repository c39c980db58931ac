package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"StockInsight/pkg/logger"
)

// MemoryQueue is a bounded in-process queue served by a worker pool. Failed
// messages are retried after RetryDelay up to RetryLimit times, then dropped.
type MemoryQueue struct {
	logger *logger.Logger
	config QueueConfig
	jobs   map[string]Job
	msgs   chan Message
	seq    atomic.Uint64

	mu        sync.RWMutex
	wg        sync.WaitGroup
	isRunning bool
	ctx       context.Context
	cancel    context.CancelFunc
	dropped   atomic.Int64
}

func NewMemoryQueue(lgr *logger.Logger, config QueueConfig, jobs ...Job) *MemoryQueue {
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 1024
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = time.Second
	}

	q := &MemoryQueue{
		logger: lgr,
		config: config,
		jobs:   make(map[string]Job),
	}
	for _, job := range jobs {
		q.RegisterJob(job)
	}
	return q
}

// RegisterJob registers a job. Call before Start.
func (q *MemoryQueue) RegisterJob(job Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, exists := q.jobs[job.Type()]; exists {
		q.logger.Warn("job already registered", logger.String("job", job.Name()))
		return
	}
	q.jobs[job.Type()] = job
	q.logger.Debug("job registered", logger.String("job", job.Name()), logger.String("type", job.Type()))
}

func (q *MemoryQueue) Start() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.isRunning {
		return ErrAlreadyStart
	}
	q.isRunning = true
	q.ctx, q.cancel = context.WithCancel(context.Background())
	q.msgs = make(chan Message, q.config.QueueSize)

	for i := 0; i < q.config.Workers; i++ {
		q.wg.Add(1)
		go q.worker(q.ctx, i, q.msgs)
	}
	q.logger.Info("queue started", logger.Int("workers", q.config.Workers), logger.Int("size", q.config.QueueSize))
	return nil
}

// Stop rejects new messages and lets the workers drain the buffer. When ctx
// expires first the workers are cancelled and what is left is discarded.
func (q *MemoryQueue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.isRunning {
		q.mu.Unlock()
		return nil
	}
	q.isRunning = false
	close(q.msgs)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		q.cancel()
		q.dropped.Add(int64(len(q.msgs)))
		q.logger.Warn("timeout waiting for queue workers", logger.Error(ctx.Err()))
		return fmt.Errorf("timeout: %w", ctx.Err())
	case <-done:
		q.cancel()
		q.logger.Info("queue stopped", logger.Int64("dropped", q.dropped.Load()))
		return nil
	}
}

// Enqueue never blocks: a full queue returns ErrQueueFull.
func (q *MemoryQueue) Enqueue(_ context.Context, msgType string, payload any) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if !q.isRunning {
		return ErrNotRunning
	}
	if _, ok := q.jobs[msgType]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownType, msgType)
	}

	msg := Message{
		ID:        fmt.Sprintf("%d", q.seq.Add(1)),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	}
	select {
	case q.msgs <- msg:
		return nil
	default:
		q.dropped.Add(1)
		return ErrQueueFull
	}
}

// PublishMessage implements QueueService.
func (q *MemoryQueue) PublishMessage(ctx context.Context, msgType string, payload any) error {
	return q.Enqueue(ctx, msgType, payload)
}

// Dropped reports how many messages were rejected or abandoned.
func (q *MemoryQueue) Dropped() int64 { return q.dropped.Load() }

func (q *MemoryQueue) worker(ctx context.Context, id int, msgs <-chan Message) {
	defer q.wg.Done()
	q.logger.Debug("queue worker started", logger.Int("worker_id", id))
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			q.process(ctx, msg)
		}
	}
}

func (q *MemoryQueue) process(ctx context.Context, msg Message) {
	q.mu.RLock()
	job := q.jobs[msg.Type]
	q.mu.RUnlock()

	for {
		err := job.Handle(ctx, msg.Payload)
		if err == nil {
			return
		}
		if errors.Is(err, context.Canceled) {
			return
		}

		q.logger.Warn("message processing error",
			logger.String("id", msg.ID),
			logger.String("job", job.Name()),
			logger.Int("attempt", msg.Attempts+1),
			logger.Error(err))

		if msg.Attempts >= q.config.RetryLimit {
			q.dropped.Add(1)
			q.logger.Error("max retries reached", logger.String("id", msg.ID), logger.String("job", job.Name()))
			return
		}
		msg.Attempts++

		select {
		case <-ctx.Done():
			return
		case <-time.After(q.config.RetryDelay):
		}
	}
}
