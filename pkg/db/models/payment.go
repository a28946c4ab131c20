package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradepulse/tradepulse-backend/pkg/enums"
)

// Payment records one checkout event. ActuallyPaid can differ from
// TotalAmount when the processor settles a partial amount (UNDERPAID).
type Payment struct {
	ID           uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	Status       enums.PaymentStatus `gorm:"column:status;type:payment_status;not null;default:'PENDING'"`
	TotalAmount  decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null"`
	ActuallyPaid *decimal.Decimal    `gorm:"column:actually_paid;type:numeric(12,2)"`
	Currency     string              `gorm:"column:currency;not null;default:'USD'"`
	PaidAt       *time.Time          `gorm:"column:paid_at"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime"`

	Items         []PaymentItem  `gorm:"foreignKey:PaymentID;constraint:OnDelete:CASCADE"`
	Subscriptions []Subscription `gorm:"foreignKey:PaymentID"`
}
