package events

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/estatepay/estatepay-backend/pkg/enums"
)

// ContractCreated binds an operator's catalogue to an estate.
type ContractCreated struct {
	ContractID  uuid.UUID `json:"contractId"`
	EstateID    uuid.UUID `json:"estateId"`
	OperatorID  uuid.UUID `json:"operatorId"`
	Description string    `json:"description"`
}

func (ContractCreated) EventType() enums.EventType { return enums.EventContractCreated }

// FixedValueProductAdded adds a product whose sale amount is fixed.
type FixedValueProductAdded struct {
	ContractID  uuid.UUID       `json:"contractId"`
	EstateID    uuid.UUID       `json:"estateId"`
	ProductID   uuid.UUID       `json:"productId"`
	Name        string          `json:"name"`
	DisplayText string          `json:"displayText"`
	Value       decimal.Decimal `json:"value"`
}

func (FixedValueProductAdded) EventType() enums.EventType { return enums.EventFixedProductAdded }

// VariableValueProductAdded adds a product whose sale amount comes from
// the terminal at transaction time.
type VariableValueProductAdded struct {
	ContractID  uuid.UUID `json:"contractId"`
	EstateID    uuid.UUID `json:"estateId"`
	ProductID   uuid.UUID `json:"productId"`
	Name        string    `json:"name"`
	DisplayText string    `json:"displayText"`
}

func (VariableValueProductAdded) EventType() enums.EventType { return enums.EventVariableProductAdded }

// TransactionFeeForProductAdded appends one entry to a product's fee schedule.
type TransactionFeeForProductAdded struct {
	ContractID      uuid.UUID             `json:"contractId"`
	EstateID        uuid.UUID             `json:"estateId"`
	ProductID       uuid.UUID             `json:"productId"`
	FeeID           uuid.UUID             `json:"feeId"`
	Description     string                `json:"description"`
	CalculationType enums.CalculationType `json:"calculationType"`
	FeeType         enums.FeeType         `json:"feeType"`
	Value           decimal.Decimal       `json:"value"`
}

func (TransactionFeeForProductAdded) EventType() enums.EventType { return enums.EventProductFeeAdded }
