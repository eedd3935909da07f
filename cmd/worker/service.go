package main

import (
	"context"
	"errors"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"golang.org/x/sync/errgroup"

	"github.com/coldrackhq/coldrack-backend/internal/consumers/changes"
	"github.com/coldrackhq/coldrack-backend/internal/inventory"
	"github.com/coldrackhq/coldrack-backend/internal/realtime"
	"github.com/coldrackhq/coldrack-backend/pkg/logger"
)

// Service runs the three worker loops: the change-event subscription, the
// websocket hub, and the snapshot staleness ticker.
type Service struct {
	subscription *gcppubsub.Subscriber
	consumer     *changes.Consumer
	hub          *realtime.Hub
	inventory    inventory.Service
	logg         *logger.Logger
}

func NewService(subscription *gcppubsub.Subscriber, consumer *changes.Consumer, hub *realtime.Hub, inventorySvc inventory.Service, logg *logger.Logger) (*Service, error) {
	if subscription == nil {
		return nil, errors.New("changes subscription is required")
	}
	if consumer == nil {
		return nil, errors.New("changes consumer is required")
	}
	if hub == nil {
		return nil, errors.New("realtime hub is required")
	}
	if inventorySvc == nil {
		return nil, errors.New("inventory service is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Service{
		subscription: subscription,
		consumer:     consumer,
		hub:          hub,
		inventory:    inventorySvc,
		logg:         logg,
	}, nil
}

// Run blocks until the context is canceled or one of the loops fails.
func (s *Service) Run(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return s.hub.Run(groupCtx)
	})
	group.Go(func() error {
		return s.inventory.Run(groupCtx)
	})
	group.Go(func() error {
		return s.subscription.Receive(groupCtx, func(innerCtx context.Context, msg *gcppubsub.Message) {
			if err := s.consumer.Process(innerCtx, msg.Data); err != nil {
				msg.Nack()
				return
			}
			msg.Ack()
		})
	})

	return group.Wait()
}
