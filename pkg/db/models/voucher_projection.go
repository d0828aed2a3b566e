package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VoucherProjection is the per-voucher projection partition. The voucher
// code is the partition key; lifecycle timestamps fill in as events fold.
type VoucherProjection struct {
	VoucherID     uuid.UUID       `gorm:"column:voucher_id;type:uuid;primaryKey"`
	EstateID      uuid.UUID       `gorm:"column:estate_id;type:uuid;not null;index"`
	TransactionID uuid.UUID       `gorm:"column:transaction_id;type:uuid;not null"`
	VoucherCode   string          `gorm:"column:voucher_code;type:text;not null;uniqueIndex:ux_voucher_projections_code"`
	MerchantID    uuid.UUID       `gorm:"column:merchant_id;type:uuid;not null;index"`
	Value         decimal.Decimal `gorm:"column:value;type:numeric(18,4);not null"`
	GeneratedAt   *time.Time      `gorm:"column:generated_at"`
	IssuedAt      *time.Time      `gorm:"column:issued_at"`
	RedeemedAt    *time.Time      `gorm:"column:redeemed_at"`
	IsGenerated   bool            `gorm:"column:is_generated;not null;default:false"`
	IsIssued      bool            `gorm:"column:is_issued;not null;default:false"`
	IsRedeemed    bool            `gorm:"column:is_redeemed;not null;default:false"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
