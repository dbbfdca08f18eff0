package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/agroscan/agroscan-backend/api/middleware"
	"github.com/agroscan/agroscan-backend/api/responses"
	"github.com/agroscan/agroscan-backend/pkg/db/models"
	pkgerrors "github.com/agroscan/agroscan-backend/pkg/errors"
	"github.com/agroscan/agroscan-backend/pkg/logger"
)

type soilHistoryRepo interface {
	ListByUsername(ctx context.Context, username string) ([]models.SoilData, error)
}

type soilReadingDTO struct {
	ID             uuid.UUID `json:"id"`
	PH             float64   `json:"ph"`
	Moisture       float64   `json:"moisture"`
	SoilType       string    `json:"soil_type"`
	Recommendation string    `json:"recommendation"`
	CreatedAt      time.Time `json:"created_at"`
}

// SoilHistory returns the caller's soil readings, newest first.
func SoilHistory(repo soilHistoryRepo, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "soil repository unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := repo.ListByUsername(r.Context(), middleware.UsernameFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list soil readings"))
			return
		}

		out := make([]soilReadingDTO, 0, len(rows))
		for _, row := range rows {
			out = append(out, soilReadingDTO{
				ID:             row.ID,
				PH:             row.PH,
				Moisture:       row.Moisture,
				SoilType:       row.SoilType,
				Recommendation: row.Recommendation,
				CreatedAt:      row.CreatedAt,
			})
		}

		responses.WriteSuccess(w, out)
	}
}
