package controllers

import (
	"context"
	"net/http"

	"github.com/agroscan/agroscan-backend/api/responses"
	"github.com/agroscan/agroscan-backend/pkg/config"
	pkgerrors "github.com/agroscan/agroscan-backend/pkg/errors"
	"github.com/agroscan/agroscan-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// degradedReporter exposes whether the model pipelines loaded.
type degradedReporter interface {
	Degraded() bool
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-AgroScan-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady checks the datastore dependencies. A degraded model registry is
// reported but does not fail readiness; auth and history still work without
// the pipelines.
func HealthReady(cfg *config.Config, db, cache pinger, models degradedReporter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-AgroScan-Env", cfg.App.Env)

		if db != nil {
			if err := db.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable"))
				return
			}
		}
		if cache != nil {
			if err := cache.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable"))
				return
			}
		}

		payload := map[string]any{"status": "ready"}
		if models != nil && models.Degraded() {
			payload["models"] = "degraded"
		}
		responses.WriteSuccess(w, payload)
	}
}
