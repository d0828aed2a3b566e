package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Merchant is the flattened merchant read-model row, scoped to its estate.
type Merchant struct {
	MerchantID uuid.UUID `gorm:"column:merchant_id;type:uuid;primaryKey"`
	EstateID   uuid.UUID `gorm:"column:estate_id;type:uuid;not null;index"`
	Name       string    `gorm:"column:name;type:text;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// MerchantOperator records an operator assignment with the optional
// operator-specific merchant/terminal numbers.
type MerchantOperator struct {
	MerchantID     uuid.UUID `gorm:"column:merchant_id;type:uuid;primaryKey"`
	OperatorID     uuid.UUID `gorm:"column:operator_id;type:uuid;primaryKey"`
	MerchantNumber string    `gorm:"column:merchant_number;type:text"`
	TerminalNumber string    `gorm:"column:terminal_number;type:text"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

// MerchantDevice is a terminal device registered against a merchant.
type MerchantDevice struct {
	MerchantID       uuid.UUID `gorm:"column:merchant_id;type:uuid;primaryKey"`
	DeviceID         uuid.UUID `gorm:"column:device_id;type:uuid;primaryKey"`
	DeviceIdentifier string    `gorm:"column:device_identifier;type:text;not null;uniqueIndex:ux_merchant_devices_identifier"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
}

// FloatMovement records one credit purchase or drawdown against a
// float. The causing event ID dedupes redelivered events before the
// additive balance update is applied.
type FloatMovement struct {
	EventID   uuid.UUID       `gorm:"column:event_id;type:uuid;primaryKey"`
	FloatID   uuid.UUID       `gorm:"column:float_id;type:uuid;not null;index"`
	Reference string          `gorm:"column:reference;type:text"`
	Amount    decimal.Decimal `gorm:"column:amount;type:numeric(18,4);not null"`
	Credit    bool            `gorm:"column:credit;not null"`
	MovedAt   time.Time       `gorm:"column:moved_at;not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// Float is the read-model row for a merchant's prepaid operator float.
type Float struct {
	FloatID          uuid.UUID       `gorm:"column:float_id;type:uuid;primaryKey"`
	EstateID         uuid.UUID       `gorm:"column:estate_id;type:uuid;not null;index"`
	MerchantID       uuid.UUID       `gorm:"column:merchant_id;type:uuid;not null;index"`
	OperatorID       uuid.UUID       `gorm:"column:operator_id;type:uuid;not null"`
	TotalCredit      decimal.Decimal `gorm:"column:total_credit;type:numeric(18,4);not null"`
	AvailableBalance decimal.Decimal `gorm:"column:available_balance;type:numeric(18,4);not null"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
