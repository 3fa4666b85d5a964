package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/eventmate/backend/internal/models"
)

const (
	// QueueEventChanges is the Redis list key for event change jobs.
	QueueEventChanges = "worker:event_changes"

	// DequeueBackoff is the pause after a failed dequeue before dialing
	// Redis again, so an outage does not turn the consumer into a hot loop.
	DequeueBackoff = 5 * time.Second
)

// JobType identifies the job kind.
type JobType string

const (
	JobTypeEventChange JobType = "event_change"
)

// EventChangePayload carries the before/after snapshots of a single write
// to the events collection. A nil Before means creation; a nil After means
// deletion.
type EventChangePayload struct {
	EventID string           `json:"event_id"`
	Before  *models.EventDoc `json:"before,omitempty"`
	After   *models.EventDoc `json:"after,omitempty"`
}

// Job is a generic job envelope.
type Job struct {
	ID        string          `json:"id"`
	Type      JobType         `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// Queue enqueues and dequeues jobs via Redis. Change jobs are processed at
// most once: the fan-out pipeline is best-effort and failures only log, so
// there is no retry or dead-letter path here.
type Queue struct {
	client *redis.Client
	logger *zap.Logger
}

// NewQueue creates a new Redis-backed job queue.
func NewQueue(client *redis.Client, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{client: client, logger: logger}
}

// EnqueueEventChange enqueues an event change job.
func (q *Queue) EnqueueEventChange(ctx context.Context, payload EventChangePayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	job := Job{
		ID:        uuid.New().String(),
		Type:      JobTypeEventChange,
		Payload:   body,
		CreatedAt: time.Now(),
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.RPush(ctx, QueueEventChanges, raw).Err(); err != nil {
		return fmt.Errorf("rpush: %w", err)
	}
	q.logger.Debug("enqueued event change job", zap.String("job_id", job.ID), zap.String("event_id", payload.EventID))
	return nil
}

// Dequeue blocks until a job is available or ctx is done.
func (q *Queue) Dequeue(ctx context.Context) (*Job, error) {
	result, err := q.client.BLPop(ctx, 0, QueueEventChanges).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	if len(result) < 2 {
		return nil, nil
	}
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		q.logger.Warn("invalid job payload", zap.String("raw", result[1]), zap.Error(err))
		return nil, nil
	}
	return &job, nil
}
