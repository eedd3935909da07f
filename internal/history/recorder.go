package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coldrackhq/coldrack-backend/internal/permissions"
	"github.com/coldrackhq/coldrack-backend/pkg/db/models"
	"github.com/coldrackhq/coldrack-backend/pkg/enums"
	pkgerrors "github.com/coldrackhq/coldrack-backend/pkg/errors"
)

// Actor identifies who performed an action. Name is denormalized into the
// record so history stays readable after the account is gone.
type Actor struct {
	ID   *uuid.UUID
	Name string
}

// ActorFrom converts the evaluator identity into a record actor. A nil
// identity attributes the action to the system.
func ActorFrom(identity *permissions.Identity) Actor {
	if identity == nil {
		return Actor{Name: "system"}
	}
	actor := Actor{Name: identity.Name}
	if identity.UserID != uuid.Nil {
		id := identity.UserID
		actor.ID = &id
	}
	return actor
}

// Entry describes one activity to append. Details may be any
// JSON-marshalable value and is stored verbatim.
type Entry struct {
	Type    enums.ActivityType
	Actor   Actor
	Summary string
	Details any
}

// Recorder appends activity records inside the caller's transaction so the
// audit entry commits or rolls back with the mutation it describes.
type Recorder struct {
	repo *Repository
}

// NewRecorder constructs a Recorder backed by the history repository.
func NewRecorder(repo *Repository) (*Recorder, error) {
	if repo == nil {
		return nil, fmt.Errorf("history repository is required")
	}
	return &Recorder{repo: repo}, nil
}

// Record appends one entry. The transaction is required; records are never
// written outside a mutation.
func (r *Recorder) Record(ctx context.Context, tx *gorm.DB, entry Entry) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction is required")
	}
	if !entry.Type.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid activity type %q", entry.Type)
	}
	if entry.Summary == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "activity summary is required")
	}

	var details json.RawMessage
	if entry.Details != nil {
		raw, err := json.Marshal(entry.Details)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal activity details")
		}
		details = raw
	}

	record := &models.ActivityRecord{
		ID:        uuid.New(),
		Type:      entry.Type,
		ActorID:   entry.Actor.ID,
		ActorName: entry.Actor.Name,
		Summary:   entry.Summary,
		Details:   details,
	}
	return r.repo.InsertTx(tx.WithContext(ctx), record)
}
