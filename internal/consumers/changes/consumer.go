package changes

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/coldrackhq/coldrack-backend/internal/realtime"
	"github.com/coldrackhq/coldrack-backend/pkg/logger"
	"github.com/coldrackhq/coldrack-backend/pkg/outbox"
)

type refresher interface {
	Refresh(ctx context.Context) error
}

type broadcaster interface {
	Broadcast(msg realtime.Message)
}

// Consumer reacts to published change envelopes: it refreshes the inventory
// snapshot and pushes a coarse {table, action} notification to websocket
// clients. Refreshes are idempotent, so redelivered events are harmless.
type Consumer struct {
	inventory refresher
	hub       broadcaster
	logg      *logger.Logger
}

// NewConsumer builds a change-event consumer.
func NewConsumer(inventory refresher, hub broadcaster, logg *logger.Logger) (*Consumer, error) {
	if inventory == nil {
		return nil, fmt.Errorf("inventory service required")
	}
	if hub == nil {
		return nil, fmt.Errorf("realtime hub required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{inventory: inventory, hub: hub, logg: logg}, nil
}

// Process handles one raw message payload. A decode failure is terminal and
// returns nil so the message is not redelivered forever; a refresh failure
// returns the error so the subscription retries.
func (c *Consumer) Process(ctx context.Context, data []byte) error {
	var envelope outbox.ChangeEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.logg.Error(ctx, "discarding undecodable change envelope", err)
		return nil
	}

	logCtx := c.logg.WithFields(ctx, map[string]any{
		"event_id": envelope.EventID,
		"table":    string(envelope.Table),
		"action":   string(envelope.Action),
	})
	if !envelope.Table.IsValid() || !envelope.Action.IsValid() {
		c.logg.Warn(logCtx, "discarding change envelope with unknown table or action")
		return nil
	}

	if err := c.inventory.Refresh(ctx); err != nil {
		c.logg.Error(logCtx, "snapshot refresh failed for change event", err)
		return err
	}

	c.hub.Broadcast(realtime.Message{Table: envelope.Table, Action: envelope.Action})
	c.logg.Info(logCtx, "change event applied")
	return nil
}
