package soil

import (
	"context"

	"gorm.io/gorm"

	"github.com/agroscan/agroscan-backend/pkg/db/models"
)

// Repository exposes soil reading persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a soil repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts one soil reading with its recommendation.
func (r *Repository) Create(ctx context.Context, row *models.SoilData) (*models.SoilData, error) {
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// ListByUsername returns a farmer's readings, newest first.
func (r *Repository) ListByUsername(ctx context.Context, username string) ([]models.SoilData, error) {
	var rows []models.SoilData
	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// LatestByUsername returns the most recent reading for a farmer, or
// gorm.ErrRecordNotFound when they have none.
func (r *Repository) LatestByUsername(ctx context.Context, username string) (*models.SoilData, error) {
	var row models.SoilData
	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		Order("created_at DESC").
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}
