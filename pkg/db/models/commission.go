package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradepulse/tradepulse-backend/pkg/enums"
)

// Commission is an affiliate's cut of one paid payment. Rate is snapshotted
// at accrual time so later rate changes never reprice old commissions.
type Commission struct {
	ID          uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AffiliateID uuid.UUID              `gorm:"column:affiliate_id;type:uuid;not null;index"`
	PaymentID   uuid.UUID              `gorm:"column:payment_id;type:uuid;not null;uniqueIndex"`
	Amount      decimal.Decimal        `gorm:"column:amount;type:numeric(12,2);not null"`
	Rate        decimal.Decimal        `gorm:"column:rate;type:numeric(5,4);not null"`
	Status      enums.CommissionStatus `gorm:"column:status;type:commission_status;not null;default:'PENDING'"`
	PaidAt      *time.Time             `gorm:"column:paid_at"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
