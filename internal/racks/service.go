package racks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coldrackhq/coldrack-backend/internal/history"
	"github.com/coldrackhq/coldrack-backend/internal/permissions"
	"github.com/coldrackhq/coldrack-backend/pkg/db/models"
	"github.com/coldrackhq/coldrack-backend/pkg/enums"
	pkgerrors "github.com/coldrackhq/coldrack-backend/pkg/errors"
	"github.com/coldrackhq/coldrack-backend/pkg/logger"
	"github.com/coldrackhq/coldrack-backend/pkg/outbox"
)

const (
	// FloorMin and FloorMax bound the storage floors inside a rack.
	FloorMin = 1
	FloorMax = 4
)

// Service defines the behavior needed by the racks controller and the
// reconciliation cron job.
type Service interface {
	List(ctx context.Context) ([]RackDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*RackDTO, error)
	Create(ctx context.Context, actor *permissions.Identity, req CreateRackRequest) (*RackDTO, error)
	Update(ctx context.Context, actor *permissions.Identity, id uuid.UUID, req UpdateRackRequest) (*RackDTO, error)
	Delete(ctx context.Context, actor *permissions.Identity, id uuid.UUID) error
	Copy(ctx context.Context, actor *permissions.Identity, id uuid.UUID) (*RackDTO, error)
	MoveLine(ctx context.Context, actor *permissions.Identity, id uuid.UUID, req MoveLineRequest) (*RackDTO, error)
	MoveProduct(ctx context.Context, actor *permissions.Identity, req MoveProductRequest) error
	AddProduct(ctx context.Context, actor *permissions.Identity, rackID uuid.UUID, req AddProductRequest) (*PlacementDTO, error)
	UpdateProduct(ctx context.Context, actor *permissions.Identity, rackID, productID uuid.UUID, req UpdatePlacementRequest) (*PlacementDTO, error)
	OutboundProduct(ctx context.Context, actor *permissions.Identity, rackID, productID uuid.UUID) (*PlacementDTO, error)
	RemoveProduct(ctx context.Context, actor *permissions.Identity, rackID, productID uuid.UUID) error
	ReconcilePlacements(ctx context.Context) (int, error)
}

type transactor interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	tx       transactor
	repo     *Repository
	recorder *history.Recorder
	changes  *outbox.Service
	logg     *logger.Logger
}

// ServiceParams bundles the dependencies required to build a racks service.
type ServiceParams struct {
	Tx       transactor
	Repo     *Repository
	Recorder *history.Recorder
	Changes  *outbox.Service
	Logger   *logger.Logger
}

// NewService constructs a racks service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("transactor is required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("racks repository is required")
	}
	if params.Recorder == nil {
		return nil, fmt.Errorf("history recorder is required")
	}
	if params.Changes == nil {
		return nil, fmt.Errorf("outbox service is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		tx:       params.Tx,
		repo:     params.Repo,
		recorder: params.Recorder,
		changes:  params.Changes,
		logg:     params.Logger,
	}, nil
}

func (s *service) List(ctx context.Context) ([]RackDTO, error) {
	racks, err := s.repo.ListWithPlacements(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list racks")
	}
	return FromModels(racks), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*RackDTO, error) {
	rack, err := s.findRack(ctx, id)
	if err != nil {
		return nil, err
	}
	return rackFromModel(rack), nil
}

func (s *service) Create(ctx context.Context, actor *permissions.Identity, req CreateRackRequest) (*RackDTO, error) {
	rack := &models.Rack{
		ID:       uuid.New(),
		Name:     strings.TrimSpace(req.Name),
		Line:     strings.TrimSpace(req.Line),
		Capacity: req.Capacity,
	}
	if rack.Name == "" || rack.Line == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rack name and line are required")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, rack); err != nil {
			return err
		}
		if err := s.recorder.Record(ctx, tx, history.Entry{
			Type:    enums.ActivityCreate,
			Actor:   actorOf(actor),
			Summary: fmt.Sprintf("created rack %s on line %s", rack.Name, rack.Line),
			Details: map[string]string{"rack_id": rack.ID.String()},
		}); err != nil {
			return err
		}
		return s.changes.Emit(ctx, tx, outbox.Change{
			Table:    enums.TableRacks,
			Action:   enums.ChangeInsert,
			EntityID: rack.ID,
			Actor:    actorRef(actor),
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create rack")
	}
	return rackFromModel(rack), nil
}

func (s *service) Update(ctx context.Context, actor *permissions.Identity, id uuid.UUID, req UpdateRackRequest) (*RackDTO, error) {
	rack, err := s.findRack(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "rack name cannot be empty")
		}
		rack.Name = name
	}
	if req.Line != nil {
		line := strings.TrimSpace(*req.Line)
		if line == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "rack line cannot be empty")
		}
		rack.Line = line
	}
	if req.Capacity != nil {
		if *req.Capacity < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "capacity cannot be negative")
		}
		rack.Capacity = *req.Capacity
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.SaveTx(tx, rack); err != nil {
			return err
		}
		if err := s.recorder.Record(ctx, tx, history.Entry{
			Type:    enums.ActivityUpdate,
			Actor:   actorOf(actor),
			Summary: fmt.Sprintf("updated rack %s", rack.Name),
			Details: map[string]string{"rack_id": rack.ID.String()},
		}); err != nil {
			return err
		}
		return s.changes.Emit(ctx, tx, outbox.Change{
			Table:    enums.TableRacks,
			Action:   enums.ChangeUpdate,
			EntityID: rack.ID,
			Actor:    actorRef(actor),
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update rack")
	}
	return rackFromModel(rack), nil
}

func (s *service) Delete(ctx context.Context, actor *permissions.Identity, id uuid.UUID) error {
	rack, err := s.findRack(ctx, id)
	if err != nil {
		return err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		affected, err := s.repo.DeleteTx(tx, id)
		if err != nil {
			return err
		}
		if affected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := s.recorder.Record(ctx, tx, history.Entry{
			Type:    enums.ActivityDelete,
			Actor:   actorOf(actor),
			Summary: fmt.Sprintf("deleted rack %s (%d products)", rack.Name, len(rack.Placements)),
			Details: map[string]string{"rack_id": id.String()},
		}); err != nil {
			return err
		}
		return s.changes.Emit(ctx, tx, outbox.Change{
			Table:    enums.TableRacks,
			Action:   enums.ChangeDelete,
			EntityID: id,
			Actor:    actorRef(actor),
		})
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "rack not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete rack")
	}
	return nil
}

// Copy clones the rack with a derived "(n)" name and deep-copies every
// placement under fresh ids (product ids included, so the copies are new
// physical products, not duplicates of the originals).
func (s *service) Copy(ctx context.Context, actor *permissions.Identity, id uuid.UUID) (*RackDTO, error) {
	source, err := s.findRack(ctx, id)
	if err != nil {
		return nil, err
	}
	names, err := s.repo.Names(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list rack names")
	}

	clone := &models.Rack{
		ID:       uuid.New(),
		Name:     NextCopyName(source.Name, names),
		Line:     source.Line,
		Capacity: source.Capacity,
	}
	now := time.Now().UTC()
	for i := range source.Placements {
		p := source.Placements[i]
		clone.Placements = append(clone.Placements, models.RackPlacement{
			ID:           uuid.New(),
			RackID:       clone.ID,
			ProductID:    uuid.New(),
			Code:         p.Code,
			Name:         p.Name,
			Floor:        p.Floor,
			WeightKG:     p.WeightKG,
			Manufacturer: p.Manufacturer,
			InboundAt:    now,
		})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, clone); err != nil {
			return err
		}
		if err := s.recorder.Record(ctx, tx, history.Entry{
			Type:    enums.ActivityCreate,
			Actor:   actorOf(actor),
			Summary: fmt.Sprintf("copied rack %s to %s", source.Name, clone.Name),
			Details: map[string]string{"source_rack_id": source.ID.String(), "rack_id": clone.ID.String()},
		}); err != nil {
			return err
		}
		return s.changes.Emit(ctx, tx, outbox.Change{
			Table:    enums.TableRacks,
			Action:   enums.ChangeInsert,
			EntityID: clone.ID,
			Actor:    actorRef(actor),
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "copy rack")
	}
	return rackFromModel(clone), nil
}

func (s *service) MoveLine(ctx context.Context, actor *permissions.Identity, id uuid.UUID, req MoveLineRequest) (*RackDTO, error) {
	rack, err := s.findRack(ctx, id)
	if err != nil {
		return nil, err
	}
	line := strings.TrimSpace(req.Line)
	if line == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "line is required")
	}
	if line == rack.Line {
		return rackFromModel(rack), nil
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.UpdateLineTx(tx, id, line); err != nil {
			return err
		}
		if err := s.recorder.Record(ctx, tx, history.Entry{
			Type:    enums.ActivityMove,
			Actor:   actorOf(actor),
			Summary: fmt.Sprintf("moved rack %s from line %s to %s", rack.Name, rack.Line, line),
			Details: map[string]string{"rack_id": id.String(), "from": rack.Line, "to": line},
		}); err != nil {
			return err
		}
		return s.changes.Emit(ctx, tx, outbox.Change{
			Table:    enums.TableRacks,
			Action:   enums.ChangeUpdate,
			EntityID: id,
			Actor:    actorRef(actor),
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "move rack line")
	}
	rack.Line = line
	return rackFromModel(rack), nil
}

// MoveProduct relocates one product between racks in a single transaction.
// The operation is idempotent: a product already in the destination and
// absent from the source reports success without writing anything.
func (s *service) MoveProduct(ctx context.Context, actor *permissions.Identity, req MoveProductRequest) error {
	if req.SourceRackID == req.DestRackID {
		return nil
	}
	source, err := s.findRack(ctx, req.SourceRackID)
	if err != nil {
		return err
	}
	dest, err := s.findRack(ctx, req.DestRackID)
	if err != nil {
		return err
	}

	moved := false
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		src, err := s.repo.FindPlacementTx(tx, req.SourceRackID, req.ProductID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		inDest := true
		if _, err := s.repo.FindPlacementTx(tx, req.DestRackID, req.ProductID); err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			inDest = false
		}

		switch {
		case src == nil && inDest:
			// Already moved; a retry lands here.
			return nil
		case src == nil:
			return pkgerrors.Newf(pkgerrors.CodeNotFound, "product not placed in rack %s", source.Name)
		case inDest:
			// Duplicate from an interrupted earlier attempt; finish the
			// move by dropping the source copy.
			if err := s.repo.DeletePlacementByIDTx(tx, src.ID); err != nil {
				return err
			}
		default:
			replacement := &models.RackPlacement{
				ID:           uuid.New(),
				RackID:       req.DestRackID,
				ProductID:    src.ProductID,
				Code:         src.Code,
				Name:         src.Name,
				Floor:        src.Floor,
				WeightKG:     src.WeightKG,
				Manufacturer: src.Manufacturer,
				InboundAt:    src.InboundAt,
				OutboundAt:   src.OutboundAt,
			}
			if err := s.repo.InsertPlacementTx(tx, replacement); err != nil {
				return err
			}
			if err := s.repo.DeletePlacementByIDTx(tx, src.ID); err != nil {
				return err
			}
		}
		moved = true

		if err := s.recorder.Record(ctx, tx, history.Entry{
			Type:  enums.ActivityMove,
			Actor: actorOf(actor),
			Summary: fmt.Sprintf("moved %s from rack %s to %s",
				src.Name, source.Name, dest.Name),
			Details: map[string]string{
				"product_id":     req.ProductID.String(),
				"source_rack_id": req.SourceRackID.String(),
				"dest_rack_id":   req.DestRackID.String(),
			},
		}); err != nil {
			return err
		}
		return s.changes.Emit(ctx, tx, outbox.Change{
			Table:    enums.TablePlacements,
			Action:   enums.ChangeUpdate,
			EntityID: req.ProductID,
			Actor:    actorRef(actor),
		})
	})
	if err != nil {
		if _, ok := pkgerrors.As(err); ok {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "move product")
	}
	if moved {
		lctx := s.logg.WithFields(ctx, map[string]any{
			"product_id": req.ProductID.String(),
			"source":     source.Name,
			"dest":       dest.Name,
		})
		s.logg.Info(lctx, "product moved between racks")
	}
	return nil
}

func (s *service) AddProduct(ctx context.Context, actor *permissions.Identity, rackID uuid.UUID, req AddProductRequest) (*PlacementDTO, error) {
	rack, err := s.findRack(ctx, rackID)
	if err != nil {
		return nil, err
	}
	floor := req.Floor
	if floor == 0 {
		floor = FloorMin
	}
	if floor < FloorMin || floor > FloorMax {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "floor must be between %d and %d", FloorMin, FloorMax)
	}
	if req.WeightKG.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "weight cannot be negative")
	}

	inboundAt := time.Now().UTC()
	if req.InboundAt != nil {
		inboundAt = req.InboundAt.UTC()
	}
	placement := &models.RackPlacement{
		ID:           uuid.New(),
		RackID:       rackID,
		ProductID:    uuid.New(),
		Code:         strings.TrimSpace(req.Code),
		Name:         strings.TrimSpace(req.Name),
		Floor:        floor,
		WeightKG:     req.WeightKG,
		Manufacturer: strings.TrimSpace(req.Manufacturer),
		InboundAt:    inboundAt,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.InsertPlacementTx(tx, placement); err != nil {
			return err
		}
		if err := s.recorder.Record(ctx, tx, history.Entry{
			Type:    enums.ActivityInbound,
			Actor:   actorOf(actor),
			Summary: fmt.Sprintf("inbound %s (%s) to rack %s floor %d", placement.Name, placement.Code, rack.Name, floor),
			Details: map[string]string{"product_id": placement.ProductID.String(), "rack_id": rackID.String()},
		}); err != nil {
			return err
		}
		return s.changes.Emit(ctx, tx, outbox.Change{
			Table:    enums.TablePlacements,
			Action:   enums.ChangeInsert,
			EntityID: placement.ProductID,
			Actor:    actorRef(actor),
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add product")
	}
	dto := placementFromModel(placement)
	return &dto, nil
}

func (s *service) UpdateProduct(ctx context.Context, actor *permissions.Identity, rackID, productID uuid.UUID, req UpdatePlacementRequest) (*PlacementDTO, error) {
	rack, err := s.findRack(ctx, rackID)
	if err != nil {
		return nil, err
	}

	var updated *models.RackPlacement
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		placement, err := s.repo.FindPlacementTx(tx, rackID, productID)
		if err != nil {
			return err
		}
		if req.Code != nil {
			placement.Code = strings.TrimSpace(*req.Code)
		}
		if req.Name != nil {
			placement.Name = strings.TrimSpace(*req.Name)
		}
		if req.Floor != nil {
			if *req.Floor < FloorMin || *req.Floor > FloorMax {
				return pkgerrors.Newf(pkgerrors.CodeValidation, "floor must be between %d and %d", FloorMin, FloorMax)
			}
			placement.Floor = *req.Floor
		}
		if req.WeightKG != nil {
			if req.WeightKG.IsNegative() {
				return pkgerrors.New(pkgerrors.CodeValidation, "weight cannot be negative")
			}
			placement.WeightKG = *req.WeightKG
		}
		if req.Manufacturer != nil {
			placement.Manufacturer = strings.TrimSpace(*req.Manufacturer)
		}
		if req.OutboundAt != nil {
			placement.OutboundAt = req.OutboundAt
		}
		if err := s.repo.SavePlacementTx(tx, placement); err != nil {
			return err
		}
		updated = placement

		if err := s.recorder.Record(ctx, tx, history.Entry{
			Type:    enums.ActivityUpdate,
			Actor:   actorOf(actor),
			Summary: fmt.Sprintf("updated %s in rack %s", placement.Name, rack.Name),
			Details: map[string]string{"product_id": productID.String(), "rack_id": rackID.String()},
		}); err != nil {
			return err
		}
		return s.changes.Emit(ctx, tx, outbox.Change{
			Table:    enums.TablePlacements,
			Action:   enums.ChangeUpdate,
			EntityID: productID,
			Actor:    actorRef(actor),
		})
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not placed in rack")
		}
		if _, ok := pkgerrors.As(err); ok {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
	}
	dto := placementFromModel(updated)
	return &dto, nil
}

// OutboundProduct stamps the placement's outbound time. The row is kept so
// the rack view still shows the departed product until it is removed.
func (s *service) OutboundProduct(ctx context.Context, actor *permissions.Identity, rackID, productID uuid.UUID) (*PlacementDTO, error) {
	rack, err := s.findRack(ctx, rackID)
	if err != nil {
		return nil, err
	}

	var updated *models.RackPlacement
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		placement, err := s.repo.FindPlacementTx(tx, rackID, productID)
		if err != nil {
			return err
		}
		if placement.OutboundAt != nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "product already outbound")
		}
		now := time.Now().UTC()
		placement.OutboundAt = &now
		if err := s.repo.SavePlacementTx(tx, placement); err != nil {
			return err
		}
		updated = placement

		if err := s.recorder.Record(ctx, tx, history.Entry{
			Type:    enums.ActivityOutbound,
			Actor:   actorOf(actor),
			Summary: fmt.Sprintf("outbound %s (%s) from rack %s", placement.Name, placement.Code, rack.Name),
			Details: map[string]string{"product_id": productID.String(), "rack_id": rackID.String()},
		}); err != nil {
			return err
		}
		return s.changes.Emit(ctx, tx, outbox.Change{
			Table:    enums.TablePlacements,
			Action:   enums.ChangeUpdate,
			EntityID: productID,
			Actor:    actorRef(actor),
		})
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not placed in rack")
		}
		if _, ok := pkgerrors.As(err); ok {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "outbound product")
	}
	dto := placementFromModel(updated)
	return &dto, nil
}

func (s *service) RemoveProduct(ctx context.Context, actor *permissions.Identity, rackID, productID uuid.UUID) error {
	rack, err := s.findRack(ctx, rackID)
	if err != nil {
		return err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		affected, err := s.repo.DeletePlacementTx(tx, rackID, productID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := s.recorder.Record(ctx, tx, history.Entry{
			Type:    enums.ActivityDelete,
			Actor:   actorOf(actor),
			Summary: fmt.Sprintf("removed product from rack %s", rack.Name),
			Details: map[string]string{"product_id": productID.String(), "rack_id": rackID.String()},
		}); err != nil {
			return err
		}
		return s.changes.Emit(ctx, tx, outbox.Change{
			Table:    enums.TablePlacements,
			Action:   enums.ChangeDelete,
			EntityID: productID,
			Actor:    actorRef(actor),
		})
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not placed in rack")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove product")
	}
	return nil
}

// ReconcilePlacements removes duplicate placements left by interrupted
// moves, keeping only the most recently updated row per product.
func (s *service) ReconcilePlacements(ctx context.Context) (int, error) {
	ids, err := s.repo.DuplicatedProductIDs(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "scan duplicate placements")
	}
	if len(ids) == 0 {
		return 0, nil
	}

	removed := 0
	for _, productID := range ids {
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			placements, err := s.repo.PlacementsForProductTx(tx, productID)
			if err != nil {
				return err
			}
			if len(placements) <= 1 {
				return nil
			}
			for _, stale := range placements[1:] {
				if err := s.repo.DeletePlacementByIDTx(tx, stale.ID); err != nil {
					return err
				}
				removed++
			}
			return s.changes.Emit(ctx, tx, outbox.Change{
				Table:    enums.TablePlacements,
				Action:   enums.ChangeDelete,
				EntityID: productID,
			})
		})
		if err != nil {
			return removed, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reconcile placements")
		}
		lctx := s.logg.WithField(ctx, "product_id", productID.String())
		s.logg.Warn(lctx, "removed duplicate rack placement")
	}
	return removed, nil
}

func (s *service) findRack(ctx context.Context, id uuid.UUID) (*models.Rack, error) {
	rack, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "rack not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup rack")
	}
	return rack, nil
}

func actorOf(identity *permissions.Identity) history.Actor {
	return history.ActorFrom(identity)
}

func actorRef(identity *permissions.Identity) *outbox.ActorRef {
	if identity == nil {
		return nil
	}
	return outbox.ActorRefFrom(identity.UserID, string(identity.Role))
}
