package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/inventory-backend/pkg/logger"
)

type ResolvedAlertRetentionJobParams struct {
	Logger *logger.Logger
	Purger resolvedAlertPurger
	// Retention is how long resolved alerts are kept. Zero disables the job.
	Retention time.Duration
}

type resolvedAlertPurger interface {
	PurgeResolved(ctx context.Context, cutoff time.Time) (int64, error)
}

func NewResolvedAlertRetentionJob(params ResolvedAlertRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Purger == nil {
		return nil, fmt.Errorf("alert purger required")
	}
	if params.Retention < 0 {
		return nil, fmt.Errorf("retention must not be negative")
	}
	return &resolvedAlertRetentionJob{
		logg:      params.Logger,
		purger:    params.Purger,
		retention: params.Retention,
		now:       time.Now,
	}, nil
}

type resolvedAlertRetentionJob struct {
	logg      *logger.Logger
	purger    resolvedAlertPurger
	retention time.Duration
	now       func() time.Time
}

func (j *resolvedAlertRetentionJob) Name() string { return "resolved_alert_retention" }

func (j *resolvedAlertRetentionJob) Run(ctx context.Context) error {
	if j.retention == 0 {
		j.logg.Info(ctx, "resolved alert retention disabled")
		return nil
	}
	cutoff := j.now().UTC().Add(-j.retention)
	deleted, err := j.purger.PurgeResolved(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("resolved alert retention: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"retention":    j.retention.String(),
		"rows_deleted": deleted,
	})
	j.logg.Info(logCtx, "resolved alert retention cleanup complete")
	return nil
}
