package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event records an immutable action performed by a USER actor. Like audit
// logs, rows are append-only.
type Event struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index"`
	Action     string          `gorm:"column:action;not null"`
	EntityType string          `gorm:"column:entity_type;not null;index"`
	EntityID   *uuid.UUID      `gorm:"column:entity_id;type:uuid;index"`
	Payload    json.RawMessage `gorm:"column:payload;type:jsonb"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
}
