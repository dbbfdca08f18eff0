package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CropHealth stores one image classification result. An agronomist may later
// overwrite Prediction, which stamps the corrected_* columns.
type CropHealth struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Username    string     `gorm:"type:text;not null;index"`
	ImagePath   string     `gorm:"column:image_path;type:text;not null"`
	Prediction  string     `gorm:"type:text;not null"`
	ModelName   string     `gorm:"column:model_name;type:text;not null"`
	CorrectedBy *string    `gorm:"column:corrected_by"`
	CorrectedAt *time.Time `gorm:"column:corrected_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (c *CropHealth) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
