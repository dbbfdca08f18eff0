package predict

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agroscan/agroscan-backend/pkg/db/models"
	pkgerrors "github.com/agroscan/agroscan-backend/pkg/errors"
	"github.com/agroscan/agroscan-backend/pkg/logger"
	"github.com/agroscan/agroscan-backend/pkg/metrics"
)

const uploadPrefix = "uploads"

type cropHealthRepository interface {
	Create(ctx context.Context, row *models.CropHealth) (*models.CropHealth, error)
}

type soilDataRepository interface {
	Create(ctx context.Context, row *models.SoilData) (*models.SoilData, error)
}

type uploadStore interface {
	Save(ctx context.Context, key string, r io.Reader, contentType string) error
}

// Service runs both model pipelines. A prediction only succeeds once its row
// is committed; a write failure after inference surfaces as an error.
type Service interface {
	PredictImage(ctx context.Context, input PredictImageInput) (*CropHealthResult, error)
	RecommendCrop(ctx context.Context, input SoilInput) (*RecommendationResult, error)
	Degraded() bool
}

type service struct {
	registry *Registry
	runner   Runner
	crops    cropHealthRepository
	soil     soilDataRepository
	uploads  uploadStore
	metrics  *metrics.PredictionMetrics
	logg     *logger.Logger
}

// NewService wires the prediction service.
func NewService(registry *Registry, runner Runner, crops cropHealthRepository, soil soilDataRepository, uploads uploadStore, pm *metrics.PredictionMetrics, logg *logger.Logger) (Service, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry required")
	}
	if runner == nil {
		return nil, fmt.Errorf("runner required")
	}
	if crops == nil {
		return nil, fmt.Errorf("crop health repository required")
	}
	if soil == nil {
		return nil, fmt.Errorf("soil data repository required")
	}
	if uploads == nil {
		return nil, fmt.Errorf("upload store required")
	}
	return &service{
		registry: registry,
		runner:   runner,
		crops:    crops,
		soil:     soil,
		uploads:  uploads,
		metrics:  pm,
		logg:     logg,
	}, nil
}

// PredictImageInput carries one upload. Data holds the raw image bytes,
// already extracted from the multipart part or data URI by the controller.
type PredictImageInput struct {
	Username string
	FileName string
	Data     []byte
}

// CropHealthResult is the persisted outcome of one classification.
type CropHealthResult struct {
	ID         uuid.UUID `json:"id"`
	Prediction string    `json:"prediction"`
	Score      float64   `json:"score"`
	ModelName  string    `json:"model_name"`
	ImagePath  string    `json:"image_path"`
	CreatedAt  time.Time `json:"created_at"`
}

// SoilInput carries one soil reading.
type SoilInput struct {
	Username    string
	PH          float64
	Moisture    float64
	SoilType    string
	Temperature float64
}

// RecommendationResult is the persisted outcome of one recommendation.
type RecommendationResult struct {
	ID             uuid.UUID `json:"id"`
	Recommendation string    `json:"recommendation"`
	CreatedAt      time.Time `json:"created_at"`
}

func (s *service) Degraded() bool {
	return s.registry.Degraded()
}

func (s *service) PredictImage(ctx context.Context, input PredictImageInput) (*CropHealthResult, error) {
	started := time.Now()
	result, err := s.predictImage(ctx, input)
	s.metrics.ObserveLatency("crop_health", time.Since(started))
	s.metrics.IncOutcome("crop_health", outcomeLabel(err))
	return result, err
}

func (s *service) predictImage(ctx context.Context, input PredictImageInput) (*CropHealthResult, error) {
	if input.Username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	if len(input.Data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image payload is required")
	}

	manifest, err := s.registry.CropHealth()
	if err != nil {
		return nil, err
	}

	img, format, err := DecodeUpload(input.Data)
	if err != nil {
		return nil, err
	}

	tensor, err := Preprocess(img, manifest)
	if err != nil {
		return nil, err
	}

	rows, err := s.runner.Predict(ctx, manifest.RunnerURL, tensor)
	if err != nil {
		return nil, err
	}
	if len(rows[0]) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "model runner returned an empty row")
	}

	score := rows[0][0]
	label := manifest.NegativeLabel
	if score >= manifest.Threshold {
		label = manifest.PositiveLabel
	}

	key := uploadKey(input.Username, input.FileName, format)
	if err := s.uploads.Save(ctx, key, bytes.NewReader(input.Data), "image/"+format); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "archiving upload")
	}

	row := &models.CropHealth{
		Username:   input.Username,
		ImagePath:  key,
		Prediction: label,
		ModelName:  manifest.Name,
	}
	saved, err := s.crops.Create(ctx, row)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting crop health result")
	}

	return &CropHealthResult{
		ID:         saved.ID,
		Prediction: saved.Prediction,
		Score:      score,
		ModelName:  saved.ModelName,
		ImagePath:  saved.ImagePath,
		CreatedAt:  saved.CreatedAt,
	}, nil
}

func (s *service) RecommendCrop(ctx context.Context, input SoilInput) (*RecommendationResult, error) {
	started := time.Now()
	result, err := s.recommendCrop(ctx, input)
	s.metrics.ObserveLatency("crop_recommender", time.Since(started))
	s.metrics.IncOutcome("crop_recommender", outcomeLabel(err))
	return result, err
}

func (s *service) recommendCrop(ctx context.Context, input SoilInput) (*RecommendationResult, error) {
	if input.Username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	if input.PH < 0 || input.PH > 14 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ph must be between 0 and 14")
	}
	if input.Moisture < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "moisture must be non-negative")
	}

	manifest, err := s.registry.Recommender()
	if err != nil {
		return nil, err
	}

	encoded, err := EncodeSoilType(manifest, input.SoilType)
	if err != nil {
		return nil, err
	}

	features := BuildSoilFeatures(input.PH, input.Moisture, encoded, input.Temperature)
	rows, err := s.runner.Predict(ctx, manifest.RunnerURL, [][]float64{features})
	if err != nil {
		return nil, err
	}
	if len(rows[0]) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "model runner returned an empty row")
	}

	label, err := LabelFor(manifest, argmax(rows[0]))
	if err != nil {
		return nil, err
	}

	row := &models.SoilData{
		Username:       input.Username,
		PH:             input.PH,
		Moisture:       input.Moisture,
		SoilType:       strings.TrimSpace(input.SoilType),
		Recommendation: label,
	}
	saved, err := s.soil.Create(ctx, row)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting soil recommendation")
	}

	return &RecommendationResult{
		ID:             saved.ID,
		Recommendation: saved.Recommendation,
		CreatedAt:      saved.CreatedAt,
	}, nil
}

func uploadKey(username, fileName, format string) string {
	ext := strings.ToLower(path.Ext(fileName))
	if ext == "" {
		ext = "." + format
	}
	return path.Join(uploadPrefix, username, uuid.NewString()+ext)
}

func argmax(row []float64) int {
	best := 0
	for i, v := range row {
		if v > row[best] {
			best = i
		}
	}
	return best
}

func outcomeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if typed := pkgerrors.As(err); typed != nil {
		switch typed.Code() {
		case pkgerrors.CodeValidation:
			return "validation"
		case pkgerrors.CodeUnavailable:
			return "unavailable"
		case pkgerrors.CodeDependency:
			return "dependency"
		}
	}
	return "internal"
}
