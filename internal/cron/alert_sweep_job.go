package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/inventory-backend/internal/alerts"
	"github.com/angelmondragon/inventory-backend/pkg/logger"
)

type AlertSweepJobParams struct {
	Logger  *logger.Logger
	Sweeper alertSweeper
}

type alertSweeper interface {
	Sweep(ctx context.Context) (alerts.SweepResult, error)
}

// NewAlertSweepJob wraps the gap-filling alert sweep so it runs on the cron
// cadence as well as on demand.
func NewAlertSweepJob(params AlertSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sweeper == nil {
		return nil, fmt.Errorf("alert sweeper required")
	}
	return &alertSweepJob{logg: params.Logger, sweeper: params.Sweeper}, nil
}

type alertSweepJob struct {
	logg    *logger.Logger
	sweeper alertSweeper
}

func (j *alertSweepJob) Name() string { return "alert_sweep" }

func (j *alertSweepJob) Run(ctx context.Context) error {
	result, err := j.sweeper.Sweep(ctx)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"items_scanned":  result.Scanned,
		"alerts_created": result.Created,
	})
	if err != nil {
		return fmt.Errorf("alert sweep: %w", err)
	}
	j.logg.Info(logCtx, "alert sweep job complete")
	return nil
}
