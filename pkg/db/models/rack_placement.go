package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RackPlacement is a product resident in a rack. ProductID identifies the
// physical product across moves; the placement row itself is replaced when
// the product changes racks.
type RackPlacement struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RackID       uuid.UUID       `gorm:"column:rack_id;type:uuid;not null;index"`
	ProductID    uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index"`
	Code         string          `gorm:"column:code;not null"`
	Name         string          `gorm:"column:name;not null"`
	Floor        int             `gorm:"column:floor;not null;default:1"`
	WeightKG     decimal.Decimal `gorm:"column:weight_kg;type:numeric(12,3);not null"`
	Manufacturer string          `gorm:"column:manufacturer;not null"`
	InboundAt    time.Time       `gorm:"column:inbound_at;not null"`
	OutboundAt   *time.Time      `gorm:"column:outbound_at"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
