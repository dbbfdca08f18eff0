package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SoilData stores one soil reading together with the crop recommendation the
// model produced for it.
type SoilData struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username       string    `gorm:"type:text;not null;index"`
	PH             float64   `gorm:"column:ph;not null"`
	Moisture       float64   `gorm:"not null"`
	SoilType       string    `gorm:"column:soil_type;type:text;not null"`
	Recommendation string    `gorm:"type:text;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName pins the table since "data" does not pluralize cleanly.
func (SoilData) TableName() string {
	return "soil_data"
}

func (s *SoilData) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
