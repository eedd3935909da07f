package racks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coldrackhq/coldrack-backend/internal/repo"
	"github.com/coldrackhq/coldrack-backend/pkg/db/models"
)

// Repository exposes rack and placement persistence operations.
type Repository struct {
	repo.Base
}

// NewRepository constructs a racks repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// CreateTx inserts a rack (with any attached placements) in the caller's
// transaction.
func (r *Repository) CreateTx(tx *gorm.DB, rack *models.Rack) error {
	return tx.Create(rack).Error
}

// ListWithPlacements returns every rack with its placements, ordered by
// line then name.
func (r *Repository) ListWithPlacements(ctx context.Context) ([]models.Rack, error) {
	var racks []models.Rack
	err := r.DB(ctx).
		Preload("Placements").
		Order("line, name").
		Find(&racks).Error
	if err != nil {
		return nil, err
	}
	return racks, nil
}

// FindByID loads one rack with its placements.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Rack, error) {
	var rack models.Rack
	err := r.DB(ctx).
		Preload("Placements").
		First(&rack, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &rack, nil
}

// FindByLineAndName returns the rack matching line+name, if any.
func (r *Repository) FindByLineAndName(ctx context.Context, line, name string) (*models.Rack, error) {
	var rack models.Rack
	err := r.DB(ctx).
		Preload("Placements").
		First(&rack, "line = ? AND name = ?", line, name).Error
	if err != nil {
		return nil, err
	}
	return &rack, nil
}

// Names returns every rack name.
func (r *Repository) Names(ctx context.Context) ([]string, error) {
	var names []string
	err := r.DB(ctx).
		Model(&models.Rack{}).
		Pluck("name", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

// DistinctLines returns the set of lines present across racks.
func (r *Repository) DistinctLines(ctx context.Context) ([]string, error) {
	var lines []string
	err := r.DB(ctx).
		Model(&models.Rack{}).
		Distinct("line").
		Pluck("line", &lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// SaveTx persists rack fields (not placements) in the caller's transaction.
func (r *Repository) SaveTx(tx *gorm.DB, rack *models.Rack) error {
	return tx.Omit("Placements").Save(rack).Error
}

// UpdateLineTx reassigns the rack's line in a single column update.
func (r *Repository) UpdateLineTx(tx *gorm.DB, id uuid.UUID, line string) error {
	return tx.Model(&models.Rack{}).
		Where("id = ?", id).
		UpdateColumn("line", line).Error
}

// DeleteTx removes the rack and its placements.
func (r *Repository) DeleteTx(tx *gorm.DB, id uuid.UUID) (int64, error) {
	if err := tx.Delete(&models.RackPlacement{}, "rack_id = ?", id).Error; err != nil {
		return 0, err
	}
	res := tx.Delete(&models.Rack{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

// InsertPlacementTx adds a placement row in the caller's transaction.
func (r *Repository) InsertPlacementTx(tx *gorm.DB, placement *models.RackPlacement) error {
	return tx.Create(placement).Error
}

// SavePlacementTx persists placement fields in the caller's transaction.
func (r *Repository) SavePlacementTx(tx *gorm.DB, placement *models.RackPlacement) error {
	return tx.Save(placement).Error
}

// FindPlacementTx returns the placement of a product in a rack, or
// gorm.ErrRecordNotFound.
func (r *Repository) FindPlacementTx(tx *gorm.DB, rackID, productID uuid.UUID) (*models.RackPlacement, error) {
	var placement models.RackPlacement
	err := tx.First(&placement, "rack_id = ? AND product_id = ?", rackID, productID).Error
	if err != nil {
		return nil, err
	}
	return &placement, nil
}

// DeletePlacementTx removes a product's placement from a rack.
func (r *Repository) DeletePlacementTx(tx *gorm.DB, rackID, productID uuid.UUID) (int64, error) {
	res := tx.Delete(&models.RackPlacement{}, "rack_id = ? AND product_id = ?", rackID, productID)
	return res.RowsAffected, res.Error
}

// DuplicatedProductIDs returns product ids placed in more than one rack.
func (r *Repository) DuplicatedProductIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.DB(ctx).
		Model(&models.RackPlacement{}).
		Select("product_id").
		Group("product_id").
		Having("COUNT(DISTINCT rack_id) > 1").
		Pluck("product_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// PlacementsForProductTx returns every placement of a product, most
// recently updated first.
func (r *Repository) PlacementsForProductTx(tx *gorm.DB, productID uuid.UUID) ([]models.RackPlacement, error) {
	var placements []models.RackPlacement
	err := tx.
		Where("product_id = ?", productID).
		Order("updated_at DESC, created_at DESC").
		Find(&placements).Error
	if err != nil {
		return nil, err
	}
	return placements, nil
}

// DeletePlacementByIDTx removes a single placement row by its id.
func (r *Repository) DeletePlacementByIDTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Delete(&models.RackPlacement{}, "id = ?", id).Error
}

// TouchTx bumps the rack's updated_at after a placement-only change.
func (r *Repository) TouchTx(tx *gorm.DB, id uuid.UUID, at time.Time) error {
	return tx.Model(&models.Rack{}).
		Where("id = ?", id).
		UpdateColumn("updated_at", at).Error
}
