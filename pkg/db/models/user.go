package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agroscan/agroscan-backend/pkg/enums"
)

// User represents the canonical identity entity. Role is fixed at signup.
type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Username     string     `gorm:"type:text;not null;uniqueIndex:users_username_key"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	Location     string     `gorm:"type:text;not null;default:''"`
	Role         enums.Role `gorm:"type:text;not null"`
	Mobile       string     `gorm:"type:text;uniqueIndex:users_mobile_key"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the primary key client-side so the model works on
// both Postgres and SQLite.
func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
