package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/estatepay/estatepay-backend/pkg/enums"
)

// Contract binds an operator's products to an estate.
type Contract struct {
	ContractID  uuid.UUID `gorm:"column:contract_id;type:uuid;primaryKey"`
	EstateID    uuid.UUID `gorm:"column:estate_id;type:uuid;not null;index"`
	OperatorID  uuid.UUID `gorm:"column:operator_id;type:uuid;not null"`
	Description string    `gorm:"column:description;type:text;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

// ContractProduct is a sellable product on a contract. Value is null for
// variable-value products where the terminal supplies the amount.
type ContractProduct struct {
	ProductID   uuid.UUID         `gorm:"column:product_id;type:uuid;primaryKey"`
	ContractID  uuid.UUID         `gorm:"column:contract_id;type:uuid;not null;index"`
	Name        string            `gorm:"column:name;type:text;not null"`
	DisplayText string            `gorm:"column:display_text;type:text;not null"`
	Value       *decimal.Decimal  `gorm:"column:value;type:numeric(18,4)"`
	ProductType enums.ProductType `gorm:"column:product_type;type:text;not null"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
}

// ContractProductFee is one entry of a product's fee schedule.
type ContractProductFee struct {
	FeeID           uuid.UUID             `gorm:"column:fee_id;type:uuid;primaryKey"`
	ProductID       uuid.UUID             `gorm:"column:product_id;type:uuid;not null;index"`
	Description     string                `gorm:"column:description;type:text;not null"`
	CalculationType enums.CalculationType `gorm:"column:calculation_type;type:text;not null"`
	FeeType         enums.FeeType         `gorm:"column:fee_type;type:text;not null"`
	Value           decimal.Decimal       `gorm:"column:value;type:numeric(18,4);not null"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
}
