package queries

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agroscan/agroscan-backend/pkg/db/models"
	"github.com/agroscan/agroscan-backend/pkg/enums"
)

// Repository exposes query persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a queries repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new open question with the default pending answer.
func (r *Repository) Create(ctx context.Context, username, question string) (*models.Query, error) {
	row := &models.Query{
		Username: username,
		Question: question,
		Answer:   "Pending",
		Status:   enums.QueryStatusOpen,
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// FindByID loads one query.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Query, error) {
	var row models.Query
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// ListByUsername returns a farmer's own questions, newest first.
func (r *Repository) ListByUsername(ctx context.Context, username string) ([]models.Query, error) {
	var rows []models.Query
	if err := r.db.WithContext(ctx).
		Where("username = ?", username).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListPending returns every open question, oldest first, so agronomists
// work the queue in arrival order.
func (r *Repository) ListPending(ctx context.Context) ([]models.Query, error) {
	var rows []models.Query
	if err := r.db.WithContext(ctx).
		Where("status = ?", enums.QueryStatusOpen).
		Order("created_at").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Answer overwrites the answer in place and marks the row answered. Replying
// again replaces the previous answer on the same single row.
func (r *Repository) Answer(ctx context.Context, id uuid.UUID, answer string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Query{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"answer":      answer,
			"status":      enums.QueryStatusAnswered,
			"answered_at": at,
		}).Error
}

// LatestByUsername returns the farmer's most recent question, if any.
func (r *Repository) LatestByUsername(ctx context.Context, username string) (*models.Query, error) {
	var row models.Query
	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		Order("created_at DESC").
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}
