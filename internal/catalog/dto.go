package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/coldrackhq/coldrack-backend/pkg/db/models"
)

// ProductCodeDTO is the transport shape of a catalog entry.
type ProductCodeDTO struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CategoryDTO is the transport shape of a category.
type CategoryDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateProductCodeRequest captures a new catalog entry. Code uniqueness
// is by convention and deliberately not enforced.
type CreateProductCodeRequest struct {
	Code        string `json:"code" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// UpdateProductCodeRequest carries a partial catalog update.
type UpdateProductCodeRequest struct {
	Code        *string `json:"code"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
}

// CreateCategoryRequest captures a new category.
type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required"`
}

// RenameCategoryRequest renames a category; referencing product codes
// follow by name.
type RenameCategoryRequest struct {
	Name string `json:"name" validate:"required"`
}

func codeFromModel(c *models.ProductCode) *ProductCodeDTO {
	if c == nil {
		return nil
	}
	return &ProductCodeDTO{
		ID:          c.ID,
		Code:        c.Code,
		Name:        c.Name,
		Description: c.Description,
		Category:    c.Category,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func CodesFromModels(codes []models.ProductCode) []ProductCodeDTO {
	out := make([]ProductCodeDTO, 0, len(codes))
	for i := range codes {
		out = append(out, *codeFromModel(&codes[i]))
	}
	return out
}

func categoryFromModel(c *models.Category) *CategoryDTO {
	if c == nil {
		return nil
	}
	return &CategoryDTO{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt}
}

func CategoriesFromModels(categories []models.Category) []CategoryDTO {
	out := make([]CategoryDTO, 0, len(categories))
	for i := range categories {
		out = append(out, *categoryFromModel(&categories[i]))
	}
	return out
}
