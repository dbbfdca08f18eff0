package crops

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agroscan/agroscan-backend/pkg/db/models"
)

// Repository exposes crop health persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a crop health repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts one classification row.
func (r *Repository) Create(ctx context.Context, row *models.CropHealth) (*models.CropHealth, error) {
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// FindByID loads one classification.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.CropHealth, error) {
	var row models.CropHealth
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// ListByUsername returns a farmer's classifications, newest first.
func (r *Repository) ListByUsername(ctx context.Context, username string) ([]models.CropHealth, error) {
	var rows []models.CropHealth
	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// LatestByUsername returns the most recent classification for a farmer, or
// gorm.ErrRecordNotFound when they have none.
func (r *Repository) LatestByUsername(ctx context.Context, username string) (*models.CropHealth, error) {
	var row models.CropHealth
	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		Order("created_at DESC").
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Correct overwrites the stored prediction and stamps who corrected it.
func (r *Repository) Correct(ctx context.Context, id uuid.UUID, label, correctedBy string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.CropHealth{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"prediction":   label,
			"corrected_by": correctedBy,
			"corrected_at": at,
		}).Error
}

// ExistsByImagePath reports whether any classification references the stored
// upload key. The cleanup job uses it to spot orphaned files.
func (r *Repository) ExistsByImagePath(ctx context.Context, imagePath string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CropHealth{}).
		Where("image_path = ?", imagePath).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
