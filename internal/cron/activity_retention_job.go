package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/coldrackhq/coldrack-backend/pkg/logger"
)

type activityCleaner interface {
	CleanupExpired(ctx context.Context, now time.Time) (int64, error)
}

// ActivityRetentionJobParams configure the activity history cleanup job.
type ActivityRetentionJobParams struct {
	Logger  *logger.Logger
	History activityCleaner
}

// NewActivityRetentionJob builds the job that drops activity records past
// the configured retention window.
func NewActivityRetentionJob(params ActivityRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.History == nil {
		return nil, fmt.Errorf("history service required")
	}
	return &activityRetentionJob{logg: params.Logger, history: params.History, now: time.Now}, nil
}

type activityRetentionJob struct {
	logg    *logger.Logger
	history activityCleaner
	now     func() time.Time
}

func (j *activityRetentionJob) Name() string { return "activity-retention" }

func (j *activityRetentionJob) Run(ctx context.Context) error {
	deleted, err := j.history.CleanupExpired(ctx, j.now().UTC())
	if err != nil {
		return fmt.Errorf("activity retention: %w", err)
	}
	logCtx := j.logg.WithField(ctx, "rows_deleted", deleted)
	j.logg.Info(logCtx, "activity retention cleanup complete")
	return nil
}
