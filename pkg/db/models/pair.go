package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradepulse/tradepulse-backend/pkg/enums"
)

// Pair is a catalog entry for one tradable signal stream: a market symbol at
// a given timeframe and strategy version.
type Pair struct {
	ID           uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Symbol       string           `gorm:"column:symbol;not null;uniqueIndex:idx_pairs_symbol_timeframe_version"`
	Timeframe    string           `gorm:"column:timeframe;not null;uniqueIndex:idx_pairs_symbol_timeframe_version"`
	Version      string           `gorm:"column:version;not null;uniqueIndex:idx_pairs_symbol_timeframe_version"`
	Status       enums.PairStatus `gorm:"column:status;type:pair_status;not null;default:'ACTIVE'"`
	BasePrice    decimal.Decimal  `gorm:"column:base_price;type:numeric(12,2);not null"`
	DiscountRate *decimal.Decimal `gorm:"column:discount_rate;type:numeric(5,4)"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
