package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tradepulse/tradepulse-backend/pkg/enums"
)

// User is a platform account: subscribers plus back-office staff.
type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string         `gorm:"column:email;not null;uniqueIndex"`
	Name         *string        `gorm:"column:name"`
	PasswordHash string         `gorm:"column:password_hash;not null"`
	Role         enums.UserRole `gorm:"column:role;type:user_role;not null;default:'USER'"`
	Disabled     bool           `gorm:"column:disabled;not null;default:false"`
	ReferredByID *uuid.UUID     `gorm:"column:referred_by_id;type:uuid;index"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
