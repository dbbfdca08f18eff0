package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/agroscan/agroscan-backend/api/controllers"
	"github.com/agroscan/agroscan-backend/api/middleware"
	"github.com/agroscan/agroscan-backend/internal/auth"
	"github.com/agroscan/agroscan-backend/internal/crops"
	"github.com/agroscan/agroscan-backend/internal/dashboard"
	"github.com/agroscan/agroscan-backend/internal/predict"
	"github.com/agroscan/agroscan-backend/internal/queries"
	"github.com/agroscan/agroscan-backend/pkg/auth/session"
	"github.com/agroscan/agroscan-backend/pkg/config"
	"github.com/agroscan/agroscan-backend/pkg/db/models"
	"github.com/agroscan/agroscan-backend/pkg/enums"
	"github.com/agroscan/agroscan-backend/pkg/logger"
	"github.com/agroscan/agroscan-backend/pkg/redis"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type soilHistoryRepo interface {
	ListByUsername(ctx context.Context, username string) ([]models.SoilData, error)
}

// RouterParams bundle the dependencies the HTTP surface needs.
type RouterParams struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        pinger
	Redis     *redis.Client
	Sessions  session.SessionChecker
	Auth      auth.Service
	Predict   predict.Service
	Crops     crops.Service
	Queries   queries.Service
	Dashboard dashboard.Service
	Soil      soilHistoryRepo
}

// NewRouter builds the chi route tree. The farmer and agronomist subtrees are
// role-gated on top of the shared session check.
func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)
	if cfg.App.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.App.RequestTimeout))
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUserLimit,
	)
	signupPolicy := middleware.NewAuthRateLimitPolicy(
		"signup",
		cfg.AuthRateLimit.SignupWindow,
		cfg.AuthRateLimit.SignupIPLimit,
		cfg.AuthRateLimit.SignupUserLimit,
	)

	var cache pinger
	if params.Redis != nil {
		cache = params.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, params.DB, cache, params.Predict, logg))
	})

	sessionTTL := cfg.JWT.SessionTTL()
	r.Route("/api/v1/auth", func(r chi.Router) {
		if params.Redis != nil {
			r.With(middleware.AuthRateLimit(signupPolicy, params.Redis, logg)).Post("/signup", controllers.AuthSignup(params.Auth, sessionTTL, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, params.Redis, logg)).Post("/login", controllers.AuthLogin(params.Auth, sessionTTL, logg))
		} else {
			r.Post("/signup", controllers.AuthSignup(params.Auth, sessionTTL, logg))
			r.Post("/login", controllers.AuthLogin(params.Auth, sessionTTL, logg))
		}
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, params.Sessions, logg))
			r.Post("/logout", controllers.AuthLogout(params.Auth, logg))
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, params.Sessions, logg))

		r.With(middleware.RequireRole(enums.RoleFarmer, logg)).
			Get("/dashboard/live", controllers.DashboardLive(params.Dashboard, logg))

		r.Route("/farmer", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.RoleFarmer, logg))
			r.Post("/crop-health", controllers.CropHealthPredict(params.Predict, cfg.Uploads.MaxUploadMB, logg))
			r.Get("/crop-health", controllers.CropHealthHistory(params.Crops, logg))
			r.Post("/recommend", controllers.CropRecommend(params.Predict, logg))
			r.Get("/soil", controllers.SoilHistory(params.Soil, logg))
			r.Post("/queries", controllers.QuerySubmit(params.Queries, logg))
			r.Get("/queries", controllers.QueryListMine(params.Queries, logg))
		})

		r.Route("/agronomist", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.RoleAgronomist, logg))
			r.Get("/queries", controllers.QueryListPending(params.Queries, logg))
			r.Post("/queries/{queryId}/reply", controllers.QueryReply(params.Queries, logg))
			r.Post("/crops/{cropId}/correct", controllers.CropHealthCorrect(params.Crops, logg))
		})
	})

	return r
}
