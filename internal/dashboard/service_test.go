package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/agroscan/agroscan-backend/pkg/db/models"
	"github.com/agroscan/agroscan-backend/pkg/enums"
	pkgerrors "github.com/agroscan/agroscan-backend/pkg/errors"
	"github.com/agroscan/agroscan-backend/pkg/logger"
)

type stubComposer struct {
	alert string
}

func (s stubComposer) Compose(context.Context, string) string { return s.alert }

type stubSoilRepo struct {
	row *models.SoilData
	err error
}

func (s stubSoilRepo) LatestByUsername(context.Context, string) (*models.SoilData, error) {
	return s.row, s.err
}

type stubCropRepo struct {
	row *models.CropHealth
	err error
}

func (s stubCropRepo) LatestByUsername(context.Context, string) (*models.CropHealth, error) {
	return s.row, s.err
}

type stubQueryRepo struct {
	row *models.Query
	err error
}

func (s stubQueryRepo) LatestByUsername(context.Context, string) (*models.Query, error) {
	return s.row, s.err
}

func TestLiveAssemblesAllSections(t *testing.T) {
	answeredAt := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	svc, err := NewService(
		stubComposer{alert: "Weather in Pune: clear sky, 28.0 C."},
		stubSoilRepo{row: &models.SoilData{PH: 6.5, Moisture: 40, SoilType: "Loamy", Recommendation: "cotton"}},
		stubCropRepo{row: &models.CropHealth{Prediction: "Healthy", ModelName: "crop_health"}},
		stubQueryRepo{row: &models.Query{
			Question:   "Which fertilizer?",
			Answer:     "NPK 10-10-10",
			Status:     enums.QueryStatusAnswered,
			AnsweredAt: &answeredAt,
		}},
		logger.New(logger.Options{ServiceName: "test"}),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	view, err := svc.Live(context.Background(), "ravi", "Pune")
	if err != nil {
		t.Fatalf("live: %v", err)
	}
	if view.WeatherAlert == "" {
		t.Fatal("expected a weather alert line")
	}
	if view.Soil == nil || view.Soil.Recommendation != "cotton" {
		t.Fatalf("unexpected soil section %+v", view.Soil)
	}
	if view.Crop == nil || view.Crop.Prediction != "Healthy" {
		t.Fatalf("unexpected crop section %+v", view.Crop)
	}
	if view.Query == nil || view.Query.Status != "answered" || view.Query.AnsweredAt == nil {
		t.Fatalf("unexpected query section %+v", view.Query)
	}
}

func TestLiveOmitsMissingSections(t *testing.T) {
	svc, err := NewService(
		stubComposer{alert: "Weather location not set."},
		stubSoilRepo{err: gorm.ErrRecordNotFound},
		stubCropRepo{err: gorm.ErrRecordNotFound},
		stubQueryRepo{err: gorm.ErrRecordNotFound},
		logger.New(logger.Options{ServiceName: "test"}),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	view, err := svc.Live(context.Background(), "ravi", "")
	if err != nil {
		t.Fatalf("a farmer with no history still gets a view: %v", err)
	}
	if view.Soil != nil || view.Crop != nil || view.Query != nil {
		t.Fatalf("expected empty sections, got %+v", view)
	}
}

func TestLiveSurfacesRepositoryFailures(t *testing.T) {
	svc, err := NewService(
		stubComposer{alert: "ok"},
		stubSoilRepo{err: errors.New("db down")},
		stubCropRepo{err: gorm.ErrRecordNotFound},
		stubQueryRepo{err: gorm.ErrRecordNotFound},
		logger.New(logger.Options{ServiceName: "test"}),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.Live(context.Background(), "ravi", "Pune")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
}
