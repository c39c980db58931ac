package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrQueueFull    = errors.New("queue: full")
	ErrNotRunning   = errors.New("queue: not running")
	ErrUnknownType  = errors.New("queue: no job registered for type")
	ErrAlreadyStart = errors.New("queue: already running")
)

type QueueService interface {
	PublishMessage(ctx context.Context, msgType string, payload any) error
}

// Queue is a QueueService with a lifecycle. MemoryQueue and RedisQueue
// implement it.
type Queue interface {
	QueueService
	Start() error
	Stop(ctx context.Context) error
}

// QueueConfig contains the configuration for the queue
type QueueConfig struct {
	Workers    int           // number of workers
	QueueSize  int           // size of the queue
	RetryLimit int           // number of maximum retries
	RetryDelay time.Duration // time delay between retries
}

// Message represents a message in the queue
type Message struct {
	ID        string
	Type      string
	Payload   any
	Attempts  int
	Timestamp time.Time
}

// ParsePayload converts a job payload back into T.
func ParsePayload[T any](payload any) (*T, error) {
	var result T

	switch p := payload.(type) {
	case *T:
		return p, nil
	case T:
		return &p, nil
	case map[string]any, []any:
		jsonData, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		if err := json.Unmarshal(jsonData, &result); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
		return &result, nil
	case json.RawMessage:
		if err := json.Unmarshal(p, &result); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
		return &result, nil
	default:
		return nil, fmt.Errorf("invalid payload type: %T", payload)
	}
}
