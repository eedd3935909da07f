package outbox

import (
	"time"

	"github.com/coldrackhq/coldrack-backend/pkg/enums"
	"github.com/google/uuid"
)

// ActorRef identifies who produced the event.
type ActorRef struct {
	UserID uuid.UUID `json:"userId"`
	Role   string    `json:"role,omitempty"`
}

// ActorRefFrom builds an ActorRef. The nil UUID (system actions) yields nil.
func ActorRefFrom(userID uuid.UUID, role string) *ActorRef {
	if userID == uuid.Nil {
		return nil
	}
	return &ActorRef{UserID: userID, Role: role}
}

// ChangeEnvelope is the wire payload published for every committed mutation.
// Consumers treat it coarsely: any change to a table triggers a snapshot
// refresh plus a {table, action} broadcast.
type ChangeEnvelope struct {
	Version    int                `json:"version"`
	EventID    string             `json:"eventId"`
	Table      enums.ChangeTable  `json:"table"`
	Action     enums.ChangeAction `json:"action"`
	EntityID   uuid.UUID          `json:"entityId"`
	Actor      *ActorRef          `json:"actor,omitempty"`
	OccurredAt time.Time          `json:"occurredAt"`
}
