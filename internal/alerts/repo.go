package alerts

import (
	"context"

	"gorm.io/gorm"

	"github.com/agroscan/agroscan-backend/pkg/db/models"
)

// Repository exposes SMS delivery log persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an SMS log repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateBatch inserts one delivery row per attempted send.
func (r *Repository) CreateBatch(ctx context.Context, rows []models.SmsLog) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// ListRecent returns the newest delivery rows, capped at limit.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]models.SmsLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.SmsLog
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
