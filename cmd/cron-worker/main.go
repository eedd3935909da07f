package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/coldrackhq/coldrack-backend/internal/cron"
	"github.com/coldrackhq/coldrack-backend/internal/history"
	"github.com/coldrackhq/coldrack-backend/internal/racks"
	"github.com/coldrackhq/coldrack-backend/pkg/config"
	"github.com/coldrackhq/coldrack-backend/pkg/db"
	"github.com/coldrackhq/coldrack-backend/pkg/logger"
	"github.com/coldrackhq/coldrack-backend/pkg/metrics"
	"github.com/coldrackhq/coldrack-backend/pkg/migrate"
	"github.com/coldrackhq/coldrack-backend/pkg/outbox"
	"github.com/coldrackhq/coldrack-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	recorder, err := history.NewRecorder(history.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create history recorder", err)
		os.Exit(1)
	}
	racksService, err := racks.NewService(racks.ServiceParams{
		Tx:       dbClient,
		Repo:     racks.NewRepository(dbClient.DB()),
		Recorder: recorder,
		Changes:  outbox.NewService(outbox.NewRepository(dbClient.DB()), logg),
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create racks service", err)
		os.Exit(1)
	}
	historyService, err := history.NewService(history.ServiceParams{
		Repo:   history.NewRepository(dbClient.DB()),
		Config: cfg.History,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create history service", err)
		os.Exit(1)
	}

	reconcileJob, err := cron.NewReconcilePlacementsJob(cron.ReconcilePlacementsJobParams{
		Logger: logg,
		Racks:  racksService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reconcile job", err)
		os.Exit(1)
	}
	activityJob, err := cron.NewActivityRetentionJob(cron.ActivityRetentionJobParams{
		Logger:  logg,
		History: historyService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create activity retention job", err)
		os.Exit(1)
	}
	outboxJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		Repository: outbox.NewRepository(dbClient.DB()),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)

	// The sweep and the cleanups run on separate cadences, each behind its
	// own distributed lock so multiple instances never double-run a job.
	reconcileService, err := newLockedService(cfg, logg, redisClient, metricsCollector, "reconcile", cfg.Cron.ReconcileInterval, reconcileJob)
	if err != nil {
		logg.Error(context.Background(), "failed to create reconcile cron service", err)
		os.Exit(1)
	}
	cleanupService, err := newLockedService(cfg, logg, redisClient, metricsCollector, "cleanup", cfg.Cron.CleanupInterval, activityJob, outboxJob)
	if err != nil {
		logg.Error(context.Background(), "failed to create cleanup cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": "cron-worker",
	})
	logg.Info(ctx, "starting cron worker")

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error { return reconcileService.Run(groupCtx) })
	group.Go(func() error { return cleanupService.Run(groupCtx) })

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func newLockedService(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *redis.Client,
	metricsCollector *metrics.CronJobMetrics,
	name string,
	interval time.Duration,
	jobs ...cron.Job,
) (*cron.Service, error) {
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(name), cfg.Cron.LockTTL)
	if err != nil {
		return nil, err
	}
	return cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(jobs...),
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: interval,
	})
}
