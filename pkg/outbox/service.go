package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coldrackhq/coldrack-backend/pkg/db/models"
	"github.com/coldrackhq/coldrack-backend/pkg/enums"
	"github.com/coldrackhq/coldrack-backend/pkg/logger"
)

// Change describes a committed mutation to record in the outbox.
type Change struct {
	Table      enums.ChangeTable
	Action     enums.ChangeAction
	EntityID   uuid.UUID
	Actor      *ActorRef
	OccurredAt time.Time
}

type Service struct {
	repo *Repository
	logg *logger.Logger
}

func NewService(repo *Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg}
}

// Emit appends a change event within the mutation's transaction so the event
// commits or rolls back with the data it describes.
func (s *Service) Emit(ctx context.Context, tx *gorm.DB, change Change) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if !change.Table.IsValid() {
		return errors.New("invalid change table")
	}
	if !change.Action.IsValid() {
		return errors.New("invalid change action")
	}
	if change.OccurredAt.IsZero() {
		change.OccurredAt = time.Now()
	}

	envelope := ChangeEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		Table:      change.Table,
		Action:     change.Action,
		EntityID:   change.EntityID,
		Actor:      change.Actor,
		OccurredAt: change.OccurredAt,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	row := models.ChangeEvent{
		ID:       uuid.New(),
		Table:    change.Table,
		Action:   change.Action,
		EntityID: change.EntityID,
		Payload:  json.RawMessage(payload),
		Status:   enums.OutboxPending,
	}
	row.OccurredAt = change.OccurredAt
	if change.Actor != nil {
		actorID := change.Actor.UserID
		row.ActorID = &actorID
	}
	if err := s.repo.Insert(tx, &row); err != nil {
		return err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"event_id": envelope.EventID,
			"table":    change.Table,
			"action":   change.Action,
			"entity":   change.EntityID.String(),
		})
		s.logg.Info(logCtx, "change event queued")
	}
	return nil
}
