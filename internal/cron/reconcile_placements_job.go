package cron

import (
	"context"
	"fmt"

	"github.com/coldrackhq/coldrack-backend/pkg/logger"
)

type placementReconciler interface {
	ReconcilePlacements(ctx context.Context) (int, error)
}

// ReconcilePlacementsJobParams configure the duplicate-placement sweep.
type ReconcilePlacementsJobParams struct {
	Logger *logger.Logger
	Racks  placementReconciler
}

// NewReconcilePlacementsJob builds the sweep that removes duplicate
// placements left behind by interrupted moves.
func NewReconcilePlacementsJob(params ReconcilePlacementsJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Racks == nil {
		return nil, fmt.Errorf("rack service required")
	}
	return &reconcilePlacementsJob{logg: params.Logger, racks: params.Racks}, nil
}

type reconcilePlacementsJob struct {
	logg  *logger.Logger
	racks placementReconciler
}

func (j *reconcilePlacementsJob) Name() string { return "reconcile-placements" }

func (j *reconcilePlacementsJob) Run(ctx context.Context) error {
	removed, err := j.racks.ReconcilePlacements(ctx)
	if err != nil {
		return fmt.Errorf("reconcile placements: %w", err)
	}
	if removed > 0 {
		logCtx := j.logg.WithField(ctx, "duplicates_removed", removed)
		j.logg.Info(logCtx, "placement reconciliation removed duplicates")
	}
	return nil
}
