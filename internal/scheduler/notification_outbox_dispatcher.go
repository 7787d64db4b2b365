package scheduler

import (
	"context"
	"time"

	"interview_portal_backend/internal/notification/outbox"
	"interview_portal_backend/platform/config"
	"interview_portal_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	outboxPollInterval = 2 * time.Second
	outboxClaimLimit   = 50
)

// OutboxClaimer is the part of the outbox repository the dispatcher uses.
type OutboxClaimer interface {
	ClaimPending(ctx context.Context, limit int) ([]outbox.Record, error)
	MarkPending(ctx context.Context, id uuid.UUID, lastError *string) error
}

type taskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// NotificationOutboxDispatcher moves due outbox records onto the task queue.
type NotificationOutboxDispatcher struct {
	client   *asynq.Client
	enqueuer taskEnqueuer
	queue    string
	repo     OutboxClaimer
	log      *logger.Logger
}

func NewNotificationOutboxDispatcher(cfg config.SchedulerConfig, repo OutboxClaimer, log *logger.Logger) (*NotificationOutboxDispatcher, error) {
	opt, queue, err := clientOptFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	client := asynq.NewClient(opt)
	return &NotificationOutboxDispatcher{
		client:   client,
		enqueuer: client,
		queue:    queue,
		repo:     repo,
		log:      log,
	}, nil
}

func (d *NotificationOutboxDispatcher) Close() error {
	if d == nil || d.client == nil {
		return nil
	}
	return d.client.Close()
}

func (d *NotificationOutboxDispatcher) Run(ctx context.Context) error {
	if d == nil || d.enqueuer == nil || d.repo == nil {
		return nil
	}

	ticker := time.NewTicker(outboxPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		d.dispatch(ctx)
	}
}

// dispatch claims one batch and enqueues it. Records that fail to enqueue go
// back to pending with the error attached.
func (d *NotificationOutboxDispatcher) dispatch(ctx context.Context) int {
	records, err := d.repo.ClaimPending(ctx, outboxClaimLimit)
	if err != nil {
		d.log.Warn("outbox claim failed", "error", err)
		return 0
	}

	enqueued := 0
	for _, rec := range records {
		task, err := NewNotificationOutboxDueTask(NotificationOutboxDuePayload{
			OutboxID: rec.ID.String(),
		})
		if err == nil {
			_, err = d.enqueuer.EnqueueContext(ctx, task, asynq.ProcessAt(rec.RunAt), asynq.Queue(d.queue))
		}
		if err != nil {
			msg := err.Error()
			if markErr := d.repo.MarkPending(ctx, rec.ID, &msg); markErr != nil {
				d.log.Error("outbox record stuck in enqueued", "outboxId", rec.ID.String(), "error", markErr)
			}
			continue
		}
		enqueued++
	}

	if enqueued > 0 {
		d.log.Debug("outbox records dispatched", "count", enqueued)
	}
	return enqueued
}
