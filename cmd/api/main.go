package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/agroscan/agroscan-backend/api/routes"
	"github.com/agroscan/agroscan-backend/internal/alerts"
	"github.com/agroscan/agroscan-backend/internal/auth"
	"github.com/agroscan/agroscan-backend/internal/crops"
	"github.com/agroscan/agroscan-backend/internal/dashboard"
	"github.com/agroscan/agroscan-backend/internal/predict"
	"github.com/agroscan/agroscan-backend/internal/queries"
	"github.com/agroscan/agroscan-backend/internal/soil"
	"github.com/agroscan/agroscan-backend/internal/users"
	"github.com/agroscan/agroscan-backend/pkg/auth/session"
	"github.com/agroscan/agroscan-backend/pkg/config"
	"github.com/agroscan/agroscan-backend/pkg/db"
	"github.com/agroscan/agroscan-backend/pkg/logger"
	"github.com/agroscan/agroscan-backend/pkg/metrics"
	"github.com/agroscan/agroscan-backend/pkg/migrate"
	"github.com/agroscan/agroscan-backend/pkg/redis"
	"github.com/agroscan/agroscan-backend/pkg/storage"
	gcsstore "github.com/agroscan/agroscan-backend/pkg/storage/gcs"
	localstore "github.com/agroscan/agroscan-backend/pkg/storage/local"
	"github.com/agroscan/agroscan-backend/pkg/weather"
)

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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		DB:             dbClient,
		UserRepo:       users.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	uploadStore, err := newUploadStore(context.Background(), cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create upload store", err)
		os.Exit(1)
	}

	cropsRepo := crops.NewRepository(dbClient.DB())
	soilRepo := soil.NewRepository(dbClient.DB())
	queriesRepo := queries.NewRepository(dbClient.DB())

	modelRegistry := predict.NewRegistry(context.Background(), cfg.Models, logg)
	predictService, err := predict.NewService(
		modelRegistry,
		predict.NewRunner(cfg.Models.RunnerTimeout),
		cropsRepo,
		soilRepo,
		uploadStore,
		metrics.NewPredictionMetrics(prometheus.DefaultRegisterer),
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create prediction service", err)
		os.Exit(1)
	}

	cropsService, err := crops.NewService(cropsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create crops service", err)
		os.Exit(1)
	}

	queriesService, err := queries.NewService(queriesRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create queries service", err)
		os.Exit(1)
	}

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

	dashboardService, err := dashboard.NewService(composer, soilRepo, cropsRepo, queriesRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create dashboard service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	// The write timeout sits above the request timeout so the timeout
	// middleware can still flush its response.
	server := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.App.RequestTimeout,
		WriteTimeout:      cfg.App.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:    cfg,
			Logger:    logg,
			DB:        dbClient,
			Redis:     redisClient,
			Sessions:  sessionManager,
			Auth:      authService,
			Predict:   predictService,
			Crops:     cropsService,
			Queries:   queriesService,
			Dashboard: dashboardService,
			Soil:      soilRepo,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func newUploadStore(ctx context.Context, cfg *config.Config, logg *logger.Logger) (storage.Store, error) {
	if cfg.Uploads.UsesGCS() {
		return gcsstore.New(ctx, cfg.GCS, logg)
	}
	return localstore.New(cfg.Uploads.LocalDir)
}
