package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Affiliate is a referral relationship: the owner earns a commission on
// payments made by users they referred.
type Affiliate struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerUserID    uuid.UUID       `gorm:"column:owner_user_id;type:uuid;not null;uniqueIndex"`
	ReferralCode   string          `gorm:"column:referral_code;not null;uniqueIndex"`
	CommissionRate decimal.Decimal `gorm:"column:commission_rate;type:numeric(5,4);not null"`
	Disabled       bool            `gorm:"column:disabled;not null;default:false"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
