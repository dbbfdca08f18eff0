package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/agroscan/agroscan-backend/internal/alerts"
	"github.com/agroscan/agroscan-backend/internal/cron"
	"github.com/agroscan/agroscan-backend/internal/crops"
	"github.com/agroscan/agroscan-backend/internal/users"
	"github.com/agroscan/agroscan-backend/pkg/config"
	"github.com/agroscan/agroscan-backend/pkg/db"
	"github.com/agroscan/agroscan-backend/pkg/logger"
	"github.com/agroscan/agroscan-backend/pkg/metrics"
	"github.com/agroscan/agroscan-backend/pkg/migrate"
	"github.com/agroscan/agroscan-backend/pkg/redis"
	"github.com/agroscan/agroscan-backend/pkg/sms"
	"github.com/agroscan/agroscan-backend/pkg/storage"
	gcsstore "github.com/agroscan/agroscan-backend/pkg/storage/gcs"
	localstore "github.com/agroscan/agroscan-backend/pkg/storage/local"
	"github.com/agroscan/agroscan-backend/pkg/weather"
)

const lockKeyFormat = "agro:cron-worker:lock:%s"

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

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	weatherClient, err := weather.NewClient(cfg.Weather, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create weather client", err)
		os.Exit(1)
	}

	composer, err := alerts.NewComposer(weatherClient, cfg.Alerts, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create alert composer", err)
		os.Exit(1)
	}

	smsClient, err := sms.NewClient(cfg.SMS, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create sms client", err)
		os.Exit(1)
	}

	alertJob, err := cron.NewDailyAlertJob(cron.DailyAlertJobParams{
		Logger:   logg,
		Users:    users.NewRepository(dbClient.DB()),
		Composer: composer,
		Sender:   smsClient,
		Logs:     alerts.NewRepository(dbClient.DB()),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create daily alert job", err)
		os.Exit(1)
	}

	uploadStore, err := newUploadStore(context.Background(), cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create upload store", err)
		os.Exit(1)
	}

	cleanupJob, err := cron.NewUploadCleanupJob(cron.UploadCleanupJobParams{
		Logger:       logg,
		Store:        uploadStore,
		Crops:        crops.NewRepository(dbClient.DB()),
		OrphanMaxAge: cfg.Uploads.OrphanMaxAge,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create upload cleanup job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(alertJob, cleanupJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Alerts.Interval,
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

func newUploadStore(ctx context.Context, cfg *config.Config, logg *logger.Logger) (storage.Store, error) {
	if cfg.Uploads.UsesGCS() {
		return gcsstore.New(ctx, cfg.GCS, logg)
	}
	return localstore.New(cfg.Uploads.LocalDir)
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
