package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductCode is a catalog entry. Category is denormalized by name so the
// catalog survives category deletion; uniqueness of Code is by convention.
type ProductCode struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Code        string    `gorm:"column:code;not null;index"`
	Name        string    `gorm:"column:name;not null"`
	Description string    `gorm:"column:description;not null;default:''"`
	Category    string    `gorm:"column:category;not null;default:'';index"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
