package models

import (
	"time"

	"github.com/google/uuid"
)

// Rack is a storage rack on a warehouse line. Names carry copy suffixes
// of the form "BASE (n)"; the plain base name counts as the first copy.
type Rack struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;not null;index"`
	Line      string    `gorm:"column:line;not null;index"`
	Capacity  int       `gorm:"column:capacity;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`

	Placements []RackPlacement `gorm:"foreignKey:RackID;constraint:OnDelete:CASCADE"`
}
