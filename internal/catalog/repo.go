package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coldrackhq/coldrack-backend/internal/repo"
	"github.com/coldrackhq/coldrack-backend/pkg/db/models"
)

// Repository exposes product code and category persistence operations.
type Repository struct {
	repo.Base
}

// NewRepository constructs a catalog repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// ListCodes returns the catalog ordered by code.
func (r *Repository) ListCodes(ctx context.Context) ([]models.ProductCode, error) {
	var codes []models.ProductCode
	if err := r.DB(ctx).Order("code, created_at").Find(&codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

// FindCodeByID loads one catalog entry.
func (r *Repository) FindCodeByID(ctx context.Context, id uuid.UUID) (*models.ProductCode, error) {
	var code models.ProductCode
	if err := r.DB(ctx).First(&code, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &code, nil
}

// ExistingCodes reports which of the given code strings are present in the
// catalog.
func (r *Repository) ExistingCodes(ctx context.Context, codes []string) (map[string]bool, error) {
	if len(codes) == 0 {
		return map[string]bool{}, nil
	}
	var found []string
	err := r.DB(ctx).
		Model(&models.ProductCode{}).
		Where("code IN ?", codes).
		Pluck("code", &found).Error
	if err != nil {
		return nil, err
	}
	present := make(map[string]bool, len(found))
	for _, c := range found {
		present[c] = true
	}
	return present, nil
}

// CodesByCode returns catalog entries keyed by code string. Duplicate codes
// resolve to the most recently created entry.
func (r *Repository) CodesByCode(ctx context.Context, codes []string) (map[string]models.ProductCode, error) {
	if len(codes) == 0 {
		return map[string]models.ProductCode{}, nil
	}
	var rows []models.ProductCode
	err := r.DB(ctx).
		Where("code IN ?", codes).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]models.ProductCode, len(rows))
	for _, row := range rows {
		byCode[row.Code] = row
	}
	return byCode, nil
}

// CreateCodeTx inserts a catalog entry in the caller's transaction.
func (r *Repository) CreateCodeTx(tx *gorm.DB, code *models.ProductCode) error {
	return tx.Create(code).Error
}

// SaveCodeTx persists a catalog entry in the caller's transaction.
func (r *Repository) SaveCodeTx(tx *gorm.DB, code *models.ProductCode) error {
	return tx.Save(code).Error
}

// DeleteCodeTx removes a catalog entry.
func (r *Repository) DeleteCodeTx(tx *gorm.DB, id uuid.UUID) (int64, error) {
	res := tx.Delete(&models.ProductCode{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

// ListCategories returns every category by name.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.DB(ctx).Order("name").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// FindCategoryByID loads one category.
func (r *Repository) FindCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.DB(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// FindCategoryByName loads the category with the exact name.
func (r *Repository) FindCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	if err := r.DB(ctx).First(&category, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// CreateCategoryTx inserts a category in the caller's transaction.
func (r *Repository) CreateCategoryTx(tx *gorm.DB, category *models.Category) error {
	return tx.Create(category).Error
}

// RenameCategoryTx renames the category row.
func (r *Repository) RenameCategoryTx(tx *gorm.DB, id uuid.UUID, name string) error {
	return tx.Model(&models.Category{}).
		Where("id = ?", id).
		UpdateColumn("name", name).Error
}

// DeleteCategoryTx removes the category row.
func (r *Repository) DeleteCategoryTx(tx *gorm.DB, id uuid.UUID) (int64, error) {
	res := tx.Delete(&models.Category{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

// RetagCodesTx rewrites the category field of every product code matching
// the old name. Used for both rename (new name) and delete (empty string).
func (r *Repository) RetagCodesTx(tx *gorm.DB, oldName, newName string) (int64, error) {
	res := tx.Model(&models.ProductCode{}).
		Where("category = ?", oldName).
		UpdateColumn("category", newName)
	return res.RowsAffected, res.Error
}
