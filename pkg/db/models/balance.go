package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/estatepay/estatepay-backend/pkg/enums"
)

// MerchantBalanceSnapshot is the denormalized running balance per
// (estate, merchant) partition. It is only mutated by the ordered
// projection pipeline, full-replace on every fold.
type MerchantBalanceSnapshot struct {
	EstateID           uuid.UUID       `gorm:"column:estate_id;type:uuid;primaryKey"`
	MerchantID         uuid.UUID       `gorm:"column:merchant_id;type:uuid;primaryKey"`
	Balance            decimal.Decimal `gorm:"column:balance;type:numeric(18,4);not null"`
	AvailableBalance   decimal.Decimal `gorm:"column:available_balance;type:numeric(18,4);not null"`
	DepositCount       int             `gorm:"column:deposit_count;not null;default:0"`
	WithdrawalCount    int             `gorm:"column:withdrawal_count;not null;default:0"`
	SaleCount          int             `gorm:"column:sale_count;not null;default:0"`
	DeclinedSaleCount  int             `gorm:"column:declined_sale_count;not null;default:0"`
	FeeCount           int             `gorm:"column:fee_count;not null;default:0"`
	LastDepositAt      *time.Time      `gorm:"column:last_deposit_at"`
	LastWithdrawalAt   *time.Time      `gorm:"column:last_withdrawal_at"`
	LastSaleAt         *time.Time      `gorm:"column:last_sale_at"`
	LastFeeAt          *time.Time      `gorm:"column:last_fee_at"`
	LastAppliedEventID uuid.UUID       `gorm:"column:last_applied_event_id;type:uuid"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// BalanceHistoryEntry is the immutable audit record of one balance
// movement. One row per causing event; the unique event_id index makes
// duplicate delivery a no-op instead of a double-count.
type BalanceHistoryEntry struct {
	ID           uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EstateID     uuid.UUID              `gorm:"column:estate_id;type:uuid;not null;index:ix_balance_history_partition,priority:1"`
	MerchantID   uuid.UUID              `gorm:"column:merchant_id;type:uuid;not null;index:ix_balance_history_partition,priority:2"`
	EventID      uuid.UUID              `gorm:"column:event_id;type:uuid;not null;uniqueIndex:ux_balance_history_event_id"`
	EntryType    enums.BalanceEntryType `gorm:"column:entry_type;type:text;not null"`
	Reference    string                 `gorm:"column:reference;type:text;not null"`
	ChangeAmount decimal.Decimal        `gorm:"column:change_amount;type:numeric(18,4);not null"`
	Debit        bool                   `gorm:"column:debit;not null"`
	Balance      decimal.Decimal        `gorm:"column:balance;type:numeric(18,4);not null"`
	EntryAt      time.Time              `gorm:"column:entry_at;not null"`
	CreatedAt    time.Time              `gorm:"column:created_at;autoCreateTime"`
}
