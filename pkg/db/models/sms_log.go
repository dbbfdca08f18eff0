package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SmsLog records one delivery attempt from the alert batch job. Rows are
// append-only and written in a single batch at the end of each run.
type SmsLog struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ToNumber  string    `gorm:"column:to_number;type:text;not null"`
	Message   string    `gorm:"type:text;not null"`
	Response  string    `gorm:"type:text;not null;default:''"`
	Success   bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (s *SmsLog) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
