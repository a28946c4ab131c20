package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradepulse/tradepulse-backend/pkg/enums"
)

// Subscription grants one user access to one pair's signals for one billing
// period. StartDate/ExpiryDate stay nil until the channel invite completes;
// completing the invite stamps StartDate and derives ExpiryDate from Period.
type Subscription struct {
	ID           uuid.UUID                `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       uuid.UUID                `gorm:"column:user_id;type:uuid;not null;index"`
	PairID       uuid.UUID                `gorm:"column:pair_id;type:uuid;not null;index"`
	PaymentID    *uuid.UUID               `gorm:"column:payment_id;type:uuid;index"`
	Status       enums.SubscriptionStatus `gorm:"column:status;type:subscription_status;not null;default:'PENDING'"`
	InviteStatus enums.InviteStatus       `gorm:"column:invite_status;type:invite_status;not null;default:'PENDING'"`
	Period       enums.SubscriptionPeriod `gorm:"column:period;type:subscription_period;not null"`
	StartDate    *time.Time               `gorm:"column:start_date"`
	ExpiryDate   *time.Time               `gorm:"column:expiry_date;index"`
	BasePrice    *decimal.Decimal         `gorm:"column:base_price;type:numeric(12,2)"`
	DiscountRate *decimal.Decimal         `gorm:"column:discount_rate;type:numeric(5,4)"`
	CreatedAt    time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time                `gorm:"column:updated_at;autoUpdateTime"`

	User *User `gorm:"foreignKey:UserID"`
	Pair *Pair `gorm:"foreignKey:PairID"`
}
