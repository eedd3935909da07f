package history

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/coldrackhq/coldrack-backend/pkg/db/models"
	"github.com/coldrackhq/coldrack-backend/pkg/enums"
)

// RecordDTO is the transport shape of an activity record.
type RecordDTO struct {
	ID        uuid.UUID          `json:"id"`
	Type      enums.ActivityType `json:"type"`
	ActorID   *uuid.UUID         `json:"actor_id,omitempty"`
	ActorName string             `json:"actor_name"`
	Summary   string             `json:"summary"`
	Details   json.RawMessage    `json:"details,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

// Page is one cursor page of records; NextCursor is empty on the last page.
type Page struct {
	Records    []RecordDTO `json:"records"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

func FromModel(r *models.ActivityRecord) RecordDTO {
	return RecordDTO{
		ID:        r.ID,
		Type:      r.Type,
		ActorID:   r.ActorID,
		ActorName: r.ActorName,
		Summary:   r.Summary,
		Details:   r.Details,
		CreatedAt: r.CreatedAt,
	}
}

func FromModels(records []models.ActivityRecord) []RecordDTO {
	out := make([]RecordDTO, 0, len(records))
	for i := range records {
		out = append(out, FromModel(&records[i]))
	}
	return out
}
