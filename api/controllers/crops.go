package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/agroscan/agroscan-backend/api/middleware"
	"github.com/agroscan/agroscan-backend/api/responses"
	"github.com/agroscan/agroscan-backend/api/validators"
	"github.com/agroscan/agroscan-backend/internal/crops"
	pkgerrors "github.com/agroscan/agroscan-backend/pkg/errors"
	"github.com/agroscan/agroscan-backend/pkg/logger"
)

// CropHealthHistory returns the caller's classifications, newest first.
func CropHealthHistory(svc crops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "crops service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListMine(r.Context(), middleware.UsernameFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// CropHealthCorrect lets an agronomist overwrite a stored prediction.
func CropHealthCorrect(svc crops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "crops service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cropID, err := uuid.Parse(chi.URLParam(r, "cropId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid classification id"))
			return
		}

		var body crops.CorrectRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Correct(r.Context(), cropID, middleware.UsernameFromContext(r.Context()), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
