package inventory

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/coldrackhq/coldrack-backend/internal/catalog"
	"github.com/coldrackhq/coldrack-backend/internal/history"
	"github.com/coldrackhq/coldrack-backend/internal/racks"
	"github.com/coldrackhq/coldrack-backend/internal/users"
	"github.com/coldrackhq/coldrack-backend/pkg/config"
	"github.com/coldrackhq/coldrack-backend/pkg/db/models"
	pkgerrors "github.com/coldrackhq/coldrack-backend/pkg/errors"
	"github.com/coldrackhq/coldrack-backend/pkg/logger"
	"github.com/coldrackhq/coldrack-backend/pkg/metrics"
)

type rackSource interface {
	ListWithPlacements(ctx context.Context) ([]models.Rack, error)
}

type catalogSource interface {
	ListCodes(ctx context.Context) ([]models.ProductCode, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
}

type userSource interface {
	List(ctx context.Context) ([]models.User, error)
}

type activitySource interface {
	Latest(ctx context.Context, limit int) ([]models.ActivityRecord, error)
}

// Service keeps the snapshot store warm. Refreshes are triggered by change
// events and by the staleness loop in Run.
type Service interface {
	Current() Snapshot
	Refresh(ctx context.Context) error
	Run(ctx context.Context) error
}

type service struct {
	store    *Store
	racks    rackSource
	catalog  catalogSource
	users    userSource
	activity activitySource
	cfg      config.InventoryConfig
	logg     *logger.Logger
	metrics  *metrics.InventoryMetrics
}

// ServiceParams bundles the dependencies required to build an inventory service.
type ServiceParams struct {
	Store    *Store
	Racks    rackSource
	Catalog  catalogSource
	Users    userSource
	Activity activitySource
	Config   config.InventoryConfig
	Logger   *logger.Logger
	Metrics  *metrics.InventoryMetrics
}

// NewService constructs an inventory service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("snapshot store is required")
	}
	if params.Racks == nil {
		return nil, fmt.Errorf("rack source is required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog source is required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user source is required")
	}
	if params.Activity == nil {
		return nil, fmt.Errorf("activity source is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		store:    params.Store,
		racks:    params.Racks,
		catalog:  params.Catalog,
		users:    params.Users,
		activity: params.Activity,
		cfg:      params.Config,
		logg:     params.Logger,
		metrics:  params.Metrics,
	}, nil
}

func (s *service) Current() Snapshot {
	return s.store.Current()
}

// Refresh loads all snapshot sections in parallel and swaps the store in one
// step. Any section failing aborts the whole refresh and the previous
// snapshot stays in place.
func (s *service) Refresh(ctx context.Context) error {
	started := time.Now()

	var (
		rackRows     []models.Rack
		codeRows     []models.ProductCode
		categoryRows []models.Category
		userRows     []models.User
		activityRows []models.ActivityRecord
	)

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		rackRows, err = s.racks.ListWithPlacements(gctx)
		return err
	})
	group.Go(func() error {
		var err error
		codeRows, err = s.catalog.ListCodes(gctx)
		return err
	})
	group.Go(func() error {
		var err error
		categoryRows, err = s.catalog.ListCategories(gctx)
		return err
	})
	group.Go(func() error {
		var err error
		userRows, err = s.users.List(gctx)
		return err
	})
	group.Go(func() error {
		var err error
		activityRows, err = s.activity.Latest(gctx, s.cfg.HistoryLimit)
		return err
	})

	if err := group.Wait(); err != nil {
		s.metrics.ObserveRefresh("error", time.Since(started))
		s.logg.Error(ctx, "snapshot refresh failed, keeping previous snapshot", err)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refresh inventory snapshot")
	}

	s.store.replace(Snapshot{
		Racks:        racks.FromModels(rackRows),
		ProductCodes: catalog.CodesFromModels(codeRows),
		Categories:   catalog.CategoriesFromModels(categoryRows),
		Users:        users.FromModels(userRows),
		Activity:     history.FromModels(activityRows),
		RefreshedAt:  time.Now(),
	})
	s.metrics.ObserveRefresh("success", time.Since(started))
	return nil
}

// Run refreshes once immediately, then keeps the snapshot from going stale
// when no change events arrive. Returns when the context is canceled.
func (s *service) Run(ctx context.Context) error {
	if err := s.Refresh(ctx); err != nil {
		s.logg.Error(ctx, "initial snapshot refresh failed", err)
	}

	ticker := time.NewTicker(s.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if time.Since(s.store.RefreshedAt()) < s.cfg.StaleAfter {
				continue
			}
			if err := s.Refresh(ctx); err != nil {
				lctx := s.logg.WithField(ctx, "stale_for", time.Since(s.store.RefreshedAt()).String())
				s.logg.Warn(lctx, "periodic snapshot refresh failed")
			}
		}
	}
}
