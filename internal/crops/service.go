package crops

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agroscan/agroscan-backend/pkg/db/models"
	pkgerrors "github.com/agroscan/agroscan-backend/pkg/errors"
)

// CorrectRequest is an agronomist's label override payload.
type CorrectRequest struct {
	Label string `json:"label" validate:"required,min=2,max=128"`
}

// CropHealthDTO is the transport shape for one classification.
type CropHealthDTO struct {
	ID          uuid.UUID  `json:"id"`
	Username    string     `json:"username"`
	ImagePath   string     `json:"image_path"`
	Prediction  string     `json:"prediction"`
	ModelName   string     `json:"model_name"`
	CorrectedBy *string    `json:"corrected_by,omitempty"`
	CorrectedAt *time.Time `json:"corrected_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Service covers classification history and agronomist corrections.
type Service interface {
	ListMine(ctx context.Context, username string) ([]CropHealthDTO, error)
	Correct(ctx context.Context, cropID uuid.UUID, agronomist string, req CorrectRequest) (*CropHealthDTO, error)
}

type repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.CropHealth, error)
	ListByUsername(ctx context.Context, username string) ([]models.CropHealth, error)
	Correct(ctx context.Context, id uuid.UUID, label, correctedBy string, at time.Time) error
}

type service struct {
	repo repository
	now  func() time.Time
}

// NewService constructs the crop health service.
func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("crops repository is required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) ListMine(ctx context.Context, username string) ([]CropHealthDTO, error) {
	rows, err := s.repo.ListByUsername(ctx, username)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list crop health")
	}
	return fromModels(rows), nil
}

func (s *service) Correct(ctx context.Context, cropID uuid.UUID, agronomist string, req CorrectRequest) (*CropHealthDTO, error) {
	label := strings.TrimSpace(req.Label)
	if label == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "label is required")
	}
	agronomist = strings.TrimSpace(agronomist)
	if agronomist == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing agronomist identity")
	}

	if _, err := s.repo.FindByID(ctx, cropID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "classification not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load classification")
	}

	if err := s.repo.Correct(ctx, cropID, label, agronomist, s.now().UTC()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "correct classification")
	}

	row, err := s.repo.FindByID(ctx, cropID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload classification")
	}
	return fromModel(row), nil
}

func fromModel(row *models.CropHealth) *CropHealthDTO {
	return &CropHealthDTO{
		ID:          row.ID,
		Username:    row.Username,
		ImagePath:   row.ImagePath,
		Prediction:  row.Prediction,
		ModelName:   row.ModelName,
		CorrectedBy: row.CorrectedBy,
		CorrectedAt: row.CorrectedAt,
		CreatedAt:   row.CreatedAt,
	}
}

func fromModels(rows []models.CropHealth) []CropHealthDTO {
	out := make([]CropHealthDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *fromModel(&rows[i]))
	}
	return out
}
