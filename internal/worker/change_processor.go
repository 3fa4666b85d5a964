package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eventmate/backend/internal/events"
	"github.com/eventmate/backend/internal/models"
	"github.com/eventmate/backend/internal/notifications"
	"github.com/eventmate/backend/pkg/queue"
)

// JobSource dequeues jobs for the processor. Implemented by queue.Queue.
type JobSource interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
}

// AudienceResolver partitions invitee emails for notification routing.
// Implemented by notifications.Resolver.
type AudienceResolver interface {
	Resolve(ctx context.Context, emails []string) notifications.Audience
}

// Dispatcher fans a change out to the audience. Implemented by
// notifications.Dispatcher.
type Dispatcher interface {
	Dispatch(ctx context.Context, change events.Change, event *models.EventDoc, audience notifications.Audience)
}

// ChangeProcessor consumes event change jobs and runs the notification
// pipeline: classify the change, resolve the audience, dispatch. Each job
// is processed at most once; a failed job is logged and dropped, never
// retried.
type ChangeProcessor struct {
	queue      JobSource
	resolver   AudienceResolver
	dispatcher Dispatcher
	logger     *zap.Logger
	backoff    time.Duration
}

// NewChangeProcessor creates a change processor.
func NewChangeProcessor(q JobSource, resolver AudienceResolver, dispatcher Dispatcher, logger *zap.Logger) *ChangeProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChangeProcessor{
		queue:      q,
		resolver:   resolver,
		dispatcher: dispatcher,
		logger:     logger,
		backoff:    queue.DequeueBackoff,
	}
}

// Run consumes jobs until ctx is cancelled.
func (p *ChangeProcessor) Run(ctx context.Context) {
	p.logger.Info("change processor started")
	for {
		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				p.logger.Info("change processor stopped")
				return
			}
			p.logger.Error("dequeue job", zap.Error(err))
			select {
			case <-ctx.Done():
				p.logger.Info("change processor stopped")
				return
			case <-time.After(p.backoff):
			}
			continue
		}
		if job == nil {
			continue
		}
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("process job", zap.Error(err), zap.String("job_id", job.ID))
		}
	}
}

// Process handles a single job.
func (p *ChangeProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeEventChange {
		p.logger.Warn("skipping job of unknown type", zap.String("type", string(job.Type)), zap.String("job_id", job.ID))
		return nil
	}

	var payload queue.EventChangePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	change := events.Classify(payload.Before, payload.After)
	if change == events.ChangeNone {
		p.logger.Debug("no significant change", zap.String("event_id", payload.EventID))
		return nil
	}

	// Cancellation notifies from the last known state of the event.
	snapshot := payload.After
	if change == events.ChangeCancelled {
		snapshot = payload.Before
	}

	if len(snapshot.Invitees) == 0 {
		p.logger.Debug("no invitees to notify", zap.String("event_id", payload.EventID))
		return nil
	}

	p.logger.Info("processing event change",
		zap.String("event_id", payload.EventID),
		zap.String("change", string(change)),
		zap.Int("invitees", len(snapshot.Invitees)),
	)

	audience := p.resolver.Resolve(ctx, snapshot.Invitees)
	if audience.Empty() {
		return nil
	}
	p.dispatcher.Dispatch(ctx, change, snapshot, audience)
	return nil
}
