package models

import (
	"time"

	dbtypes "github.com/coldrackhq/coldrack-backend/pkg/db/types"
	"github.com/coldrackhq/coldrack-backend/pkg/enums"
	"github.com/google/uuid"
)

// User represents a dashboard operator account.
type User struct {
	ID           uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string             `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash string             `gorm:"column:password_hash;not null"`
	Name         string             `gorm:"column:name;not null"`
	Role         enums.UserRole     `gorm:"column:role;type:text;not null;default:'viewer'"`
	Grants       dbtypes.PageGrants `gorm:"column:grants;type:jsonb;not null;default:'{}'"`
	IsActive     bool               `gorm:"column:is_active;not null;default:true"`
	LastLoginAt  *time.Time         `gorm:"column:last_login_at"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
