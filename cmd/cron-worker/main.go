package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/stockroomhq/stockroom-backend/internal/cron"
	"github.com/stockroomhq/stockroom-backend/internal/events"
	"github.com/stockroomhq/stockroom-backend/internal/expiry"
	"github.com/stockroomhq/stockroom-backend/internal/inventory"
	"github.com/stockroomhq/stockroom-backend/internal/notifications"
	"github.com/stockroomhq/stockroom-backend/internal/orders"
	"github.com/stockroomhq/stockroom-backend/internal/reorder"
	"github.com/stockroomhq/stockroom-backend/pkg/config"
	"github.com/stockroomhq/stockroom-backend/pkg/db"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
	"github.com/stockroomhq/stockroom-backend/pkg/metrics"
	"github.com/stockroomhq/stockroom-backend/pkg/migrate"
	"github.com/stockroomhq/stockroom-backend/pkg/redis"
)

const lockKeyFormat = "sr:cron-worker:lock:%s:%s"

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

	cfg.Service.Kind = "cron-worker"

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

	txRunner := db.NewGormTxRunner(dbClient.DB())

	eventsService, err := events.NewService(events.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create events service", err)
		os.Exit(1)
	}
	notificationsService := notifications.NewService(
		notifications.NewRepository(dbClient.DB()),
		cfg.Reorder.NotifyRecipientCap,
	)
	reorderEngine := reorder.NewEngine(
		reorder.NewRepository(dbClient.DB()),
		orders.NewRepository(dbClient.DB()),
		eventsService,
		notificationsService,
		txRunner,
		logg,
		cfg.Reorder,
	)
	expiryEngine := expiry.NewEngine(
		inventory.NewRepository(dbClient.DB()),
		eventsService,
		notificationsService,
		txRunner,
		logg,
		cfg.Expiry,
	)

	reorderJob, err := cron.NewReorderJob(cron.ReorderJobParams{
		Logger:   logg,
		Engine:   reorderEngine,
		Interval: cfg.Cron.ReorderInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reorder job", err)
		os.Exit(1)
	}
	emergencyJob, err := cron.NewEmergencyJob(cron.EmergencyJobParams{
		Logger:   logg,
		Engine:   reorderEngine,
		Interval: cfg.Cron.EmergencyInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create emergency job", err)
		os.Exit(1)
	}
	expiryJob, err := cron.NewExpiryJob(cron.ExpiryJobParams{
		Logger:   logg,
		Engine:   expiryEngine,
		Interval: cfg.Cron.ExpiryInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create expiry job", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	registry := cron.NewRegistry(reorderJob, emergencyJob, expiryJob)
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Locks: func(jobName string) (cron.Lock, error) {
			return cron.NewRedisLock(redisClient, lockKey(cfg.App.Env, jobName), cfg.Cron.JobTimeout)
		},
		Metrics:    metricsCollector,
		JobTimeout: cfg.Cron.JobTimeout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env, job string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env, job)
}
