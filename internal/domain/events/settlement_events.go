package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/estatepay/estatepay-backend/pkg/enums"
)

// SettlementCreated opens the settlement stream for one merchant and
// date. The stream ID is derived from (date, merchant, estate), so the
// same combination always lands on the same stream.
type SettlementCreated struct {
	SettlementID   uuid.UUID `json:"settlementId"`
	EstateID       uuid.UUID `json:"estateId"`
	MerchantID     uuid.UUID `json:"merchantId"`
	SettlementDate time.Time `json:"settlementDate"`
}

func (SettlementCreated) EventType() enums.EventType { return enums.EventSettlementCreated }

// MerchantFeeAddedPendingSettlement registers a transaction fee with the
// settlement, awaiting processing.
type MerchantFeeAddedPendingSettlement struct {
	SettlementID    uuid.UUID       `json:"settlementId"`
	EstateID        uuid.UUID       `json:"estateId"`
	MerchantID      uuid.UUID       `json:"merchantId"`
	TransactionID   uuid.UUID       `json:"transactionId"`
	FeeID           uuid.UUID       `json:"feeId"`
	CalculatedValue decimal.Decimal `json:"calculatedValue"`
}

func (MerchantFeeAddedPendingSettlement) EventType() enums.EventType {
	return enums.EventFeeAddedToSettlement
}

// MerchantFeeSettled moves one registered fee from pending to settled.
type MerchantFeeSettled struct {
	SettlementID    uuid.UUID       `json:"settlementId"`
	EstateID        uuid.UUID       `json:"estateId"`
	MerchantID      uuid.UUID       `json:"merchantId"`
	TransactionID   uuid.UUID       `json:"transactionId"`
	FeeID           uuid.UUID       `json:"feeId"`
	CalculatedValue decimal.Decimal `json:"calculatedValue"`
	SettledAt       time.Time       `json:"settledAt"`
}

func (MerchantFeeSettled) EventType() enums.EventType { return enums.EventFeeSettled }

// SettlementProcessingStarted marks the beginning of a settlement run.
type SettlementProcessingStarted struct {
	SettlementID uuid.UUID `json:"settlementId"`
	EstateID     uuid.UUID `json:"estateId"`
	MerchantID   uuid.UUID `json:"merchantId"`
	StartedAt    time.Time `json:"startedAt"`
}

func (SettlementProcessingStarted) EventType() enums.EventType {
	return enums.EventSettlementProcessing
}

// SettlementCompleted closes the settlement. Emitted only once every
// registered fee has been settled.
type SettlementCompleted struct {
	SettlementID uuid.UUID       `json:"settlementId"`
	EstateID     uuid.UUID       `json:"estateId"`
	MerchantID   uuid.UUID       `json:"merchantId"`
	TotalSettled decimal.Decimal `json:"totalSettled"`
	CompletedAt  time.Time       `json:"completedAt"`
}

func (SettlementCompleted) EventType() enums.EventType { return enums.EventSettlementCompleted }
