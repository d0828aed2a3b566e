package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/estatepay/estatepay-backend/pkg/enums"
)

// Transaction is the flattened transaction read-model row, updated as
// events arrive for the transaction stream.
type Transaction struct {
	TransactionID           uuid.UUID             `gorm:"column:transaction_id;type:uuid;primaryKey"`
	EstateID                uuid.UUID             `gorm:"column:estate_id;type:uuid;not null;index:ix_transactions_estate_merchant,priority:1"`
	MerchantID              uuid.UUID             `gorm:"column:merchant_id;type:uuid;not null;index:ix_transactions_estate_merchant,priority:2"`
	TransactionType         enums.TransactionType `gorm:"column:transaction_type;type:text;not null"`
	TransactionNumber       string                `gorm:"column:transaction_number;type:text;not null"`
	TransactionReference    string                `gorm:"column:transaction_reference;type:text"`
	DeviceIdentifier        string                `gorm:"column:device_identifier;type:text"`
	OperatorID              *uuid.UUID            `gorm:"column:operator_id;type:uuid"`
	ProductID               *uuid.UUID            `gorm:"column:product_id;type:uuid"`
	Amount                  *decimal.Decimal      `gorm:"column:amount;type:numeric(18,4)"`
	AdditionalRequestData   json.RawMessage       `gorm:"column:additional_request_data;type:jsonb"`
	AuthorisationCode       string                `gorm:"column:authorisation_code;type:text"`
	OperatorTransactionID   string                `gorm:"column:operator_transaction_id;type:text"`
	ResponseCode            string                `gorm:"column:response_code;type:text"`
	ResponseMessage         string                `gorm:"column:response_message;type:text"`
	IsAuthorised            bool                  `gorm:"column:is_authorised;not null;default:false"`
	IsCompleted             bool                  `gorm:"column:is_completed;not null;default:false"`
	TransactionDate         time.Time             `gorm:"column:transaction_date;not null"`
	CompletedAt             *time.Time            `gorm:"column:completed_at"`
	CreatedAt               time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt               time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// TransactionFee is a fee calculated for a completed transaction,
// tracked from pending through settled.
type TransactionFee struct {
	TransactionID   uuid.UUID             `gorm:"column:transaction_id;type:uuid;primaryKey"`
	FeeID           uuid.UUID             `gorm:"column:fee_id;type:uuid;primaryKey"`
	CalculationType enums.CalculationType `gorm:"column:calculation_type;type:text;not null"`
	FeeType         enums.FeeType         `gorm:"column:fee_type;type:text;not null"`
	FeeValue        decimal.Decimal       `gorm:"column:fee_value;type:numeric(18,4);not null"`
	CalculatedValue decimal.Decimal       `gorm:"column:calculated_value;type:numeric(18,4);not null"`
	IsSettled       bool                  `gorm:"column:is_settled;not null;default:false"`
	FeeCalculatedAt time.Time             `gorm:"column:fee_calculated_at;not null"`
	SettledAt       *time.Time            `gorm:"column:settled_at"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
}
