package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/coldrackhq/coldrack-backend/api/routes"
	"github.com/coldrackhq/coldrack-backend/internal/auth"
	"github.com/coldrackhq/coldrack-backend/internal/catalog"
	"github.com/coldrackhq/coldrack-backend/internal/consumers/changes"
	"github.com/coldrackhq/coldrack-backend/internal/history"
	"github.com/coldrackhq/coldrack-backend/internal/imports"
	"github.com/coldrackhq/coldrack-backend/internal/inventory"
	"github.com/coldrackhq/coldrack-backend/internal/racks"
	"github.com/coldrackhq/coldrack-backend/internal/realtime"
	"github.com/coldrackhq/coldrack-backend/internal/users"
	"github.com/coldrackhq/coldrack-backend/pkg/auth/session"
	"github.com/coldrackhq/coldrack-backend/pkg/config"
	"github.com/coldrackhq/coldrack-backend/pkg/db"
	"github.com/coldrackhq/coldrack-backend/pkg/logger"
	"github.com/coldrackhq/coldrack-backend/pkg/metrics"
	"github.com/coldrackhq/coldrack-backend/pkg/migrate"
	"github.com/coldrackhq/coldrack-backend/pkg/outbox"
	"github.com/coldrackhq/coldrack-backend/pkg/pubsub"
	"github.com/coldrackhq/coldrack-backend/pkg/redis"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

const shutdownGrace = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(dbClient.DB())
	rackRepo := racks.NewRepository(dbClient.DB())
	catalogRepo := catalog.NewRepository(dbClient.DB())
	historyRepo := history.NewRepository(dbClient.DB())

	recorder, err := history.NewRecorder(historyRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create history recorder", err)
		os.Exit(1)
	}
	changesOutbox := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:        userRepo,
		SessionManager:  sessionManager,
		RateLimiter:     redisClient,
		JWTConfig:       cfg.JWT,
		RateLimitConfig: cfg.AuthRateLimit,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	rackService, err := racks.NewService(racks.ServiceParams{
		Tx:       dbClient,
		Repo:     rackRepo,
		Recorder: recorder,
		Changes:  changesOutbox,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create racks service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalog.ServiceParams{
		Tx:       dbClient,
		Repo:     catalogRepo,
		Recorder: recorder,
		Changes:  changesOutbox,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	userService, err := users.NewService(users.ServiceParams{
		Tx:             dbClient,
		Repo:           userRepo,
		Recorder:       recorder,
		Changes:        changesOutbox,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	historyService, err := history.NewService(history.ServiceParams{
		Repo:   historyRepo,
		Config: cfg.History,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create history service", err)
		os.Exit(1)
	}

	importService, err := imports.NewService(imports.ServiceParams{
		Tx:       dbClient,
		Racks:    rackRepo,
		Catalog:  catalogRepo,
		Recorder: recorder,
		Changes:  changesOutbox,
		Config:   cfg.Import,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create import service", err)
		os.Exit(1)
	}

	inventoryService, err := inventory.NewService(inventory.ServiceParams{
		Store:    inventory.NewStore(),
		Racks:    rackRepo,
		Catalog:  catalogRepo,
		Users:    userRepo,
		Activity: historyRepo,
		Config:   cfg.Inventory,
		Logger:   logg,
		Metrics:  metrics.NewInventoryMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The api instance keeps its own snapshot warm and feeds its own hub
	// so websocket clients connected here see every committed change.
	hub := realtime.NewHub(cfg.Realtime, logg)
	go hub.Run(ctx)
	go func() {
		if err := inventoryService.Run(ctx); err != nil && err != context.Canceled {
			logg.Error(ctx, "inventory refresh loop stopped", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	consumer, err := changes.NewConsumer(inventoryService, hub, logg)
	if err != nil {
		logg.Error(ctx, "failed to create change consumer", err)
		os.Exit(1)
	}
	subscription := pubsubClient.ChangesSubscription()
	if subscription == nil {
		logg.Error(ctx, "changes subscription is not configured", errors.New("subscription not configured"))
		os.Exit(1)
	}
	go func() {
		err := subscription.Receive(ctx, func(ctx context.Context, msg *gcppubsub.Message) {
			if err := consumer.Process(ctx, msg.Data); err != nil {
				msg.Nack()
				return
			}
			msg.Ack()
		})
		if err != nil && ctx.Err() == nil {
			logg.Error(ctx, "change subscription receive stopped", err)
		}
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	startCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(startCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:    cfg,
			Logger:    logg,
			DB:        dbClient,
			Redis:     redisClient,
			Sessions:  sessionManager,
			Users:     userRepo,
			Auth:      authService,
			Racks:     rackService,
			Catalog:   catalogService,
			UsersSvc:  userService,
			History:   historyService,
			Imports:   importService,
			Inventory: inventoryService,
			Hub:       hub,
		}),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(context.Background(), "api server shutdown error", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(startCtx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
