package models

import (
	"encoding/json"
	"time"

	"github.com/coldrackhq/coldrack-backend/pkg/enums"
	"github.com/google/uuid"
)

// ChangeEvent is an outbox row enqueued in the same transaction as the
// mutation it describes and published asynchronously.
type ChangeEvent struct {
	ID           uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Table        enums.ChangeTable  `gorm:"column:table_name;type:text;not null"`
	Action       enums.ChangeAction `gorm:"column:action;type:text;not null"`
	EntityID     uuid.UUID          `gorm:"column:entity_id;type:uuid;not null"`
	ActorID      *uuid.UUID         `gorm:"column:actor_id;type:uuid"`
	Payload      json.RawMessage    `gorm:"column:payload;type:jsonb"`
	Status       enums.OutboxStatus `gorm:"column:status;type:text;not null;default:'pending';index"`
	AttemptCount int                `gorm:"column:attempt_count;not null;default:0"`
	LastError    *string            `gorm:"column:last_error"`
	OccurredAt   time.Time          `gorm:"column:occurred_at;autoCreateTime"`
	PublishedAt  *time.Time         `gorm:"column:published_at"`
}

// TableName keeps the storage name distinct from the generic struct name.
func (ChangeEvent) TableName() string {
	return "change_events"
}
