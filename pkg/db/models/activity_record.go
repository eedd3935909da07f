package models

import (
	"encoding/json"
	"time"

	"github.com/coldrackhq/coldrack-backend/pkg/enums"
	"github.com/google/uuid"
)

// ActivityRecord is an append-only audit entry. Actor fields are captured
// at write time so the record stays readable after the user is removed.
type ActivityRecord struct {
	ID        uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Type      enums.ActivityType `gorm:"column:type;type:text;not null;index"`
	ActorID   *uuid.UUID         `gorm:"column:actor_id;type:uuid"`
	ActorName string             `gorm:"column:actor_name;not null;default:''"`
	Summary   string             `gorm:"column:summary;not null"`
	Details   json.RawMessage    `gorm:"column:details;type:jsonb"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime;index:idx_activity_created_at,sort:desc"`
}
