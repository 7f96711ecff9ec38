package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Davidayo16/ArtisanPro-server/internal/app"
	"github.com/Davidayo16/ArtisanPro-server/internal/cron"
	"github.com/Davidayo16/ArtisanPro-server/pkg/config"
	"github.com/Davidayo16/ArtisanPro-server/pkg/db"
	"github.com/Davidayo16/ArtisanPro-server/pkg/logger"
	"github.com/Davidayo16/ArtisanPro-server/pkg/metrics"
	"github.com/Davidayo16/ArtisanPro-server/pkg/migrate"
	"github.com/Davidayo16/ArtisanPro-server/pkg/redis"
)

const lockKeyFormat = "ap:cron-worker:lock:%s"

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

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	services, err := app.Build(cfg, logg, dbClient, redisClient, prometheus.DefaultRegisterer)
	if err != nil {
		logg.Error(context.Background(), "failed to build services", err)
		os.Exit(1)
	}

	registry, err := buildRegistry(cfg, logg, dbClient, services, metricsCollector)
	if err != nil {
		logg.Error(context.Background(), "failed to register cron jobs", err)
		os.Exit(1)
	}
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Tick:     cfg.Sweeper.Tick,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
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

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}

func buildRegistry(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, services *app.Services, items *metrics.CronJobMetrics) (*cron.Registry, error) {
	sweep := cfg.Sweeper
	expiry, err := cron.NewBookingExpiryJob(cron.BookingExpiryJobParams{
		Logger: logg, Bookings: services.Bookings, Metrics: items, BatchSize: sweep.BatchSize,
	})
	if err != nil {
		return nil, err
	}
	negotiations, err := cron.NewNegotiationExpiryJob(cron.NegotiationExpiryJobParams{
		Logger: logg, Bookings: services.Bookings, Metrics: items, BatchSize: sweep.BatchSize,
	})
	if err != nil {
		return nil, err
	}
	release, err := cron.NewEscrowReleaseJob(cron.EscrowReleaseJobParams{
		Logger: logg, Bookings: services.Bookings, Metrics: items, BatchSize: sweep.BatchSize,
	})
	if err != nil {
		return nil, err
	}
	reverify, err := cron.NewPaymentReverifyJob(cron.PaymentReverifyJobParams{
		Logger: logg, Payments: services.Payments, Metrics: items, Age: sweep.PaymentReverifyAge, BatchSize: sweep.BatchSize,
	})
	if err != nil {
		return nil, err
	}
	payouts, err := cron.NewPayoutJob(cron.PayoutJobParams{
		Logger: logg, Payouts: services.Payouts, Metrics: items, BatchSize: sweep.BatchSize,
	})
	if err != nil {
		return nil, err
	}
	reminders, err := cron.NewReminderJob(cron.ReminderJobParams{
		Logger: logg, Bookings: services.Bookings, Metrics: items, BatchSize: sweep.BatchSize,
	})
	if err != nil {
		return nil, err
	}
	notificationCleanup, err := cron.NewNotificationCleanupJob(cron.NotificationCleanupJobParams{
		Logger: logg, DB: dbClient, Repository: services.NotificationRepo,
	})
	if err != nil {
		return nil, err
	}
	outboxRetention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger: logg, Repository: services.Outbox, Retention: cfg.Eventing.OutboxRetention,
	})
	if err != nil {
		return nil, err
	}

	return cron.NewRegistry(
		cron.Every(expiry, sweep.BookingExpiryInterval),
		cron.Every(negotiations, sweep.BookingExpiryInterval),
		cron.Every(release, sweep.AutoReleaseInterval),
		cron.Every(reverify, sweep.PaymentReverifyInterval),
		cron.Every(payouts, sweep.PayoutInterval),
		cron.Every(reminders, sweep.ReminderInterval),
		cron.Every(notificationCleanup, sweep.RetentionInterval),
		cron.Every(outboxRetention, sweep.RetentionInterval),
	), nil
}
