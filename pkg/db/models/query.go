package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agroscan/agroscan-backend/pkg/enums"
)

// Query is a farmer question awaiting an agronomist answer. Replies
// overwrite Answer in place, so a question is always a single row.
type Query struct {
	ID         uuid.UUID         `gorm:"type:uuid;primaryKey"`
	Username   string            `gorm:"type:text;not null;index"`
	Question   string            `gorm:"type:text;not null"`
	Answer     string            `gorm:"type:text;not null;default:'Pending'"`
	Status     enums.QueryStatus `gorm:"type:text;not null;default:'open'"`
	AnsweredAt *time.Time        `gorm:"column:answered_at"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (q *Query) BeforeCreate(*gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}
