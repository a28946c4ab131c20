package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/tradepulse/tradepulse-backend/pkg/enums"
)

// AuditLog records an immutable state change performed by a staff actor
// (ADMIN/SUPPORT/MANAGER). Rows are append-only and never updated.
type AuditLog struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ActorID    uuid.UUID       `gorm:"column:actor_id;type:uuid;not null;index"`
	ActorRole  enums.UserRole  `gorm:"column:actor_role;type:user_role;not null"`
	Action     string          `gorm:"column:action;not null"`
	EntityType string          `gorm:"column:entity_type;not null;index"`
	EntityID   *uuid.UUID      `gorm:"column:entity_id;type:uuid;index"`
	Previous   json.RawMessage `gorm:"column:previous;type:jsonb"`
	Next       json.RawMessage `gorm:"column:next;type:jsonb"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
}
