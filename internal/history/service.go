package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coldrackhq/coldrack-backend/pkg/config"
	pkgerrors "github.com/coldrackhq/coldrack-backend/pkg/errors"
	"github.com/coldrackhq/coldrack-backend/pkg/logger"
	"github.com/coldrackhq/coldrack-backend/pkg/pagination"
)

// Service defines the behavior needed by the history controller.
type Service interface {
	Latest(ctx context.Context) ([]RecordDTO, error)
	List(ctx context.Context, params pagination.Params) (*Page, error)
	Restore(ctx context.Context, id uuid.UUID) error
	CleanupExpired(ctx context.Context, now time.Time) (int64, error)
}

type service struct {
	repo *Repository
	cfg  config.HistoryConfig
	logg *logger.Logger
}

// ServiceParams bundles the dependencies required to build a history service.
type ServiceParams struct {
	Repo   *Repository
	Config config.HistoryConfig
	Logger *logger.Logger
}

// NewService constructs a history service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("history repository is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		repo: params.Repo,
		cfg:  params.Config,
		logg: params.Logger,
	}, nil
}

// Latest returns the dashboard's recent-activity slice.
func (s *service) Latest(ctx context.Context) ([]RecordDTO, error) {
	limit := s.cfg.LatestLimit
	if limit <= 0 {
		limit = pagination.DefaultLimit
	}
	records, err := s.repo.Latest(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list latest activity")
	}
	return FromModels(records), nil
}

// List returns one cursor page of the full history feed.
func (s *service) List(ctx context.Context, params pagination.Params) (*Page, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	records, err := s.repo.ListPage(ctx, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list activity")
	}

	page := &Page{}
	if len(records) > limit {
		records = records[:limit]
		last := records[len(records)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	page.Records = FromModels(records)
	return page, nil
}

// Restore rejects state reversal. Records are append-only; the entry is
// looked up first so a missing id still reports not found.
func (s *service) Restore(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "activity record not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load activity record")
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, "activity records cannot be restored")
}

// CleanupExpired drops records past the retention window.
func (s *service) CleanupExpired(ctx context.Context, now time.Time) (int64, error) {
	days := s.cfg.RetentionDays
	if days <= 0 {
		return 0, nil
	}
	cutoff := now.AddDate(0, 0, -days)
	removed, err := s.repo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cleanup activity records")
	}
	if removed > 0 {
		lctx := s.logg.WithFields(ctx, map[string]any{
			"removed": removed,
			"cutoff":  cutoff,
		})
		s.logg.Info(lctx, "removed expired activity records")
	}
	return removed, nil
}
