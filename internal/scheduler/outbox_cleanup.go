package scheduler

import (
	"context"
	"fmt"
	"time"

	"interview_portal_backend/platform/config"
	"interview_portal_backend/platform/logger"

	"github.com/robfig/cron/v3"
)

const (
	defaultOutboxCleanupSchedule = "@every 1h"
	defaultOutboxRetention       = 30 * 24 * time.Hour
)

// OutboxPruner deletes finished outbox records.
type OutboxPruner interface {
	DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// OutboxCleanup periodically removes succeeded and failed outbox records
// older than the configured retention.
type OutboxCleanup struct {
	repo      OutboxPruner
	log       *logger.Logger
	schedule  string
	retention time.Duration
	now       func() time.Time
}

func NewOutboxCleanup(cfg config.OutboxConfig, repo OutboxPruner, log *logger.Logger) *OutboxCleanup {
	schedule := cfg.GetOutboxCleanupSchedule()
	if schedule == "" {
		schedule = defaultOutboxCleanupSchedule
	}
	retention := cfg.GetOutboxRetention()
	if retention <= 0 {
		retention = defaultOutboxRetention
	}

	return &OutboxCleanup{
		repo:      repo,
		log:       log,
		schedule:  schedule,
		retention: retention,
		now:       time.Now,
	}
}

// Run registers the cleanup job and blocks until ctx is done. An invalid
// schedule is returned immediately.
func (c *OutboxCleanup) Run(ctx context.Context) error {
	if c == nil || c.repo == nil {
		return nil
	}

	runner := cron.New(cron.WithLocation(time.UTC))
	if _, err := runner.AddFunc(c.schedule, func() { c.cleanup(ctx) }); err != nil {
		return fmt.Errorf("outbox cleanup schedule %q: %w", c.schedule, err)
	}

	runner.Start()
	c.log.Info("outbox cleanup scheduled", "schedule", c.schedule, "retention", c.retention.String())

	<-ctx.Done()
	<-runner.Stop().Done()
	return nil
}

func (c *OutboxCleanup) cleanup(ctx context.Context) int64 {
	cutoff := c.now().Add(-c.retention)

	deleted, err := c.repo.DeleteFinishedBefore(ctx, cutoff)
	if err != nil {
		c.log.Warn("outbox cleanup failed", "error", err)
		return 0
	}

	if deleted > 0 {
		c.log.Info("outbox cleanup deleted finished records", "deleted", deleted)
	}
	return deleted
}
