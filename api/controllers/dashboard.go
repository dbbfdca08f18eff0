package controllers

import (
	"net/http"

	"github.com/agroscan/agroscan-backend/api/middleware"
	"github.com/agroscan/agroscan-backend/api/responses"
	"github.com/agroscan/agroscan-backend/internal/dashboard"
	pkgerrors "github.com/agroscan/agroscan-backend/pkg/errors"
	"github.com/agroscan/agroscan-backend/pkg/logger"
)

// DashboardLive returns the farmer's polling payload: current weather alert,
// latest soil recommendation, last crop label, and latest query state.
func DashboardLive(svc dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "dashboard service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		view, err := svc.Live(ctx, middleware.UsernameFromContext(ctx), middleware.LocationFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}
