package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/coldrackhq/coldrack-backend/internal/catalog"
	"github.com/coldrackhq/coldrack-backend/internal/consumers/changes"
	"github.com/coldrackhq/coldrack-backend/internal/history"
	"github.com/coldrackhq/coldrack-backend/internal/inventory"
	"github.com/coldrackhq/coldrack-backend/internal/racks"
	"github.com/coldrackhq/coldrack-backend/internal/realtime"
	"github.com/coldrackhq/coldrack-backend/internal/users"
	"github.com/coldrackhq/coldrack-backend/pkg/config"
	"github.com/coldrackhq/coldrack-backend/pkg/db"
	"github.com/coldrackhq/coldrack-backend/pkg/logger"
	"github.com/coldrackhq/coldrack-backend/pkg/metrics"
	"github.com/coldrackhq/coldrack-backend/pkg/pubsub"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "failed to close database client", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "failed to close pubsub client", err)
		}
	}()

	subscription := pubsubClient.ChangesSubscription()
	if subscription == nil {
		requireResource(ctx, logg, "changes subscription", errors.New("subscription not configured"))
	}

	inventorySvc, err := inventory.NewService(inventory.ServiceParams{
		Store:    inventory.NewStore(),
		Racks:    racks.NewRepository(dbClient.DB()),
		Catalog:  catalog.NewRepository(dbClient.DB()),
		Users:    users.NewRepository(dbClient.DB()),
		Activity: history.NewRepository(dbClient.DB()),
		Config:   cfg.Inventory,
		Logger:   logg,
		Metrics:  metrics.NewInventoryMetrics(prometheus.DefaultRegisterer),
	})
	requireResource(ctx, logg, "inventory service", err)

	hub := realtime.NewHub(cfg.Realtime, logg)

	consumer, err := changes.NewConsumer(inventorySvc, hub, logg)
	requireResource(ctx, logg, "changes consumer", err)

	service, err := NewService(subscription, consumer, hub, inventorySvc, logg)
	requireResource(ctx, logg, "worker service", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": "worker",
	})
	logg.Info(runCtx, "worker ready")

	if err := service.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "worker failed", err)
		os.Exit(1)
	}

	logg.Info(runCtx, "worker shutting down gracefully")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
