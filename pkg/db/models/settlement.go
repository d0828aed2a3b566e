package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Settlement is the flattened settlement read-model row. SettlementID is
// the deterministic aggregate ID derived from (date, merchant, estate).
type Settlement struct {
	SettlementID   uuid.UUID  `gorm:"column:settlement_id;type:uuid;primaryKey"`
	EstateID       uuid.UUID  `gorm:"column:estate_id;type:uuid;not null;index:ix_settlements_estate_merchant,priority:1"`
	MerchantID     uuid.UUID  `gorm:"column:merchant_id;type:uuid;not null;index:ix_settlements_estate_merchant,priority:2"`
	SettlementDate time.Time  `gorm:"column:settlement_date;type:date;not null"`
	IsCompleted    bool       `gorm:"column:is_completed;not null;default:false"`
	CompletedAt    *time.Time `gorm:"column:completed_at"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// SettlementFee is one merchant fee inside a settlement, pending until
// the settlement run marks it settled.
type SettlementFee struct {
	SettlementID    uuid.UUID       `gorm:"column:settlement_id;type:uuid;primaryKey"`
	TransactionID   uuid.UUID       `gorm:"column:transaction_id;type:uuid;primaryKey"`
	FeeID           uuid.UUID       `gorm:"column:fee_id;type:uuid;primaryKey"`
	CalculatedValue decimal.Decimal `gorm:"column:calculated_value;type:numeric(18,4);not null"`
	IsSettled       bool            `gorm:"column:is_settled;not null;default:false"`
	SettledAt       *time.Time      `gorm:"column:settled_at"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
}
