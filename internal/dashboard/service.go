package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/agroscan/agroscan-backend/pkg/db/models"
	pkgerrors "github.com/agroscan/agroscan-backend/pkg/errors"
	"github.com/agroscan/agroscan-backend/pkg/logger"
)

// LiveView is the polling payload for a farmer's dashboard. Sections are
// independent; a missing record leaves its section nil rather than failing
// the whole view.
type LiveView struct {
	WeatherAlert string        `json:"weather_alert"`
	Soil         *SoilSection  `json:"soil,omitempty"`
	Crop         *CropSection  `json:"crop,omitempty"`
	Query        *QuerySection `json:"query,omitempty"`
	GeneratedAt  time.Time     `json:"generated_at"`
}

// SoilSection carries the latest soil reading and its recommendation.
type SoilSection struct {
	PH             float64   `json:"ph"`
	Moisture       float64   `json:"moisture"`
	SoilType       string    `json:"soil_type"`
	Recommendation string    `json:"recommendation"`
	RecordedAt     time.Time `json:"recorded_at"`
}

// CropSection carries the latest classification label.
type CropSection struct {
	Prediction  string     `json:"prediction"`
	ModelName   string     `json:"model_name"`
	CorrectedBy *string    `json:"corrected_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CorrectedAt *time.Time `json:"corrected_at,omitempty"`
}

// QuerySection carries the latest question and its answer state.
type QuerySection struct {
	Question   string     `json:"question"`
	Answer     string     `json:"answer"`
	Status     string     `json:"status"`
	AnsweredAt *time.Time `json:"answered_at,omitempty"`
}

// Service assembles the farmer dashboard.
type Service interface {
	Live(ctx context.Context, username, location string) (*LiveView, error)
}

type alertComposer interface {
	Compose(ctx context.Context, location string) string
}

type soilRepository interface {
	LatestByUsername(ctx context.Context, username string) (*models.SoilData, error)
}

type cropRepository interface {
	LatestByUsername(ctx context.Context, username string) (*models.CropHealth, error)
}

type queryRepository interface {
	LatestByUsername(ctx context.Context, username string) (*models.Query, error)
}

type service struct {
	composer alertComposer
	soil     soilRepository
	crops    cropRepository
	queries  queryRepository
	logg     *logger.Logger
	now      func() time.Time
}

// NewService wires the dashboard service.
func NewService(composer alertComposer, soil soilRepository, crops cropRepository, queries queryRepository, logg *logger.Logger) (Service, error) {
	if composer == nil {
		return nil, fmt.Errorf("alert composer is required")
	}
	if soil == nil || crops == nil || queries == nil {
		return nil, fmt.Errorf("dashboard repositories are required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		composer: composer,
		soil:     soil,
		crops:    crops,
		queries:  queries,
		logg:     logg,
		now:      time.Now,
	}, nil
}

func (s *service) Live(ctx context.Context, username, location string) (*LiveView, error) {
	view := &LiveView{
		WeatherAlert: s.composer.Compose(ctx, location),
		GeneratedAt:  s.now().UTC(),
	}

	soilRow, err := s.soil.LatestByUsername(ctx, username)
	switch {
	case err == nil:
		view.Soil = &SoilSection{
			PH:             soilRow.PH,
			Moisture:       soilRow.Moisture,
			SoilType:       soilRow.SoilType,
			Recommendation: soilRow.Recommendation,
			RecordedAt:     soilRow.CreatedAt,
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load latest soil reading")
	}

	cropRow, err := s.crops.LatestByUsername(ctx, username)
	switch {
	case err == nil:
		view.Crop = &CropSection{
			Prediction:  cropRow.Prediction,
			ModelName:   cropRow.ModelName,
			CorrectedBy: cropRow.CorrectedBy,
			CreatedAt:   cropRow.CreatedAt,
			CorrectedAt: cropRow.CorrectedAt,
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load latest classification")
	}

	queryRow, err := s.queries.LatestByUsername(ctx, username)
	switch {
	case err == nil:
		view.Query = &QuerySection{
			Question:   queryRow.Question,
			Answer:     queryRow.Answer,
			Status:     string(queryRow.Status),
			AnsweredAt: queryRow.AnsweredAt,
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load latest query")
	}

	return view, nil
}
