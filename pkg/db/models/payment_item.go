package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradepulse/tradepulse-backend/pkg/enums"
)

// PaymentItem is one pair/period line inside a checkout.
type PaymentItem struct {
	ID           uuid.UUID                `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PaymentID    uuid.UUID                `gorm:"column:payment_id;type:uuid;not null;index"`
	PairID       uuid.UUID                `gorm:"column:pair_id;type:uuid;not null"`
	Period       enums.SubscriptionPeriod `gorm:"column:period;type:subscription_period;not null"`
	BasePrice    decimal.Decimal          `gorm:"column:base_price;type:numeric(12,2);not null"`
	DiscountRate *decimal.Decimal         `gorm:"column:discount_rate;type:numeric(5,4)"`
	FinalPrice   decimal.Decimal          `gorm:"column:final_price;type:numeric(12,2);not null"`
	CreatedAt    time.Time                `gorm:"column:created_at;autoCreateTime"`
}
