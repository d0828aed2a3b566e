package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/estatepay/estatepay-backend/pkg/enums"
)

// TransactionHasStarted opens a transaction stream for one terminal request.
type TransactionHasStarted struct {
	TransactionID     uuid.UUID             `json:"transactionId"`
	EstateID          uuid.UUID             `json:"estateId"`
	MerchantID        uuid.UUID             `json:"merchantId"`
	DeviceIdentifier  string                `json:"deviceIdentifier"`
	TransactionType   enums.TransactionType `json:"transactionType"`
	TransactionNumber int64                 `json:"transactionNumber"`
	StartedAt         time.Time             `json:"startedAt"`
}

func (TransactionHasStarted) EventType() enums.EventType { return enums.EventTransactionStarted }

// AdditionalRequestDataRecorded carries terminal fields outside the core
// sale shape. Keys are restricted to the allow-listed request field names.
type AdditionalRequestDataRecorded struct {
	TransactionID uuid.UUID         `json:"transactionId"`
	EstateID      uuid.UUID         `json:"estateId"`
	MerchantID    uuid.UUID         `json:"merchantId"`
	Fields        map[string]string `json:"fields"`
}

func (AdditionalRequestDataRecorded) EventType() enums.EventType {
	return enums.EventAdditionalDataRecorded
}

// ProductDetailsAddedToTransaction binds the sold product and its amount
// to the transaction.
type ProductDetailsAddedToTransaction struct {
	TransactionID     uuid.UUID       `json:"transactionId"`
	EstateID          uuid.UUID       `json:"estateId"`
	MerchantID        uuid.UUID       `json:"merchantId"`
	ContractID        uuid.UUID       `json:"contractId"`
	ProductID         uuid.UUID       `json:"productId"`
	OperatorID        uuid.UUID       `json:"operatorId"`
	TransactionAmount decimal.Decimal `json:"transactionAmount"`
}

func (ProductDetailsAddedToTransaction) EventType() enums.EventType {
	return enums.EventProductDetailsAdded
}

// TransactionAuthorisedByOperator records an upstream operator approval.
type TransactionAuthorisedByOperator struct {
	TransactionID         uuid.UUID `json:"transactionId"`
	EstateID              uuid.UUID `json:"estateId"`
	MerchantID            uuid.UUID `json:"merchantId"`
	OperatorResponseCode  string    `json:"operatorResponseCode"`
	OperatorTransactionID string    `json:"operatorTransactionId,omitempty"`
	AdditionalResponse    string    `json:"additionalResponse,omitempty"`
}

func (TransactionAuthorisedByOperator) EventType() enums.EventType {
	return enums.EventTransactionAuthorised
}

// TransactionDeclinedByOperator records an upstream operator decline.
type TransactionDeclinedByOperator struct {
	TransactionID        uuid.UUID `json:"transactionId"`
	EstateID             uuid.UUID `json:"estateId"`
	MerchantID           uuid.UUID `json:"merchantId"`
	OperatorResponseCode string    `json:"operatorResponseCode"`
	DeclineReason        string    `json:"declineReason,omitempty"`
}

func (TransactionDeclinedByOperator) EventType() enums.EventType {
	return enums.EventTransactionDeclined
}

// TransactionHasBeenLocallyAuthorised records the local authorisation
// decision, made without an upstream operator round trip.
type TransactionHasBeenLocallyAuthorised struct {
	TransactionID uuid.UUID `json:"transactionId"`
	EstateID      uuid.UUID `json:"estateId"`
	MerchantID    uuid.UUID `json:"merchantId"`
	ResponseCode  string    `json:"responseCode"`
}

func (TransactionHasBeenLocallyAuthorised) EventType() enums.EventType {
	return enums.EventLocallyAuthorised
}

// TransactionHasBeenLocallyDeclined records a local decline, typically
// for insufficient available balance.
type TransactionHasBeenLocallyDeclined struct {
	TransactionID uuid.UUID `json:"transactionId"`
	EstateID      uuid.UUID `json:"estateId"`
	MerchantID    uuid.UUID `json:"merchantId"`
	ResponseCode  string    `json:"responseCode"`
	DeclineReason string    `json:"declineReason,omitempty"`
}

func (TransactionHasBeenLocallyDeclined) EventType() enums.EventType {
	return enums.EventLocallyDeclined
}

// TransactionHasBeenCompleted closes the transaction with its final
// amount and outcome.
type TransactionHasBeenCompleted struct {
	TransactionID     uuid.UUID             `json:"transactionId"`
	EstateID          uuid.UUID             `json:"estateId"`
	MerchantID        uuid.UUID             `json:"merchantId"`
	TransactionType   enums.TransactionType `json:"transactionType"`
	TransactionAmount decimal.Decimal       `json:"transactionAmount"`
	ResponseCode      string                `json:"responseCode"`
	IsAuthorised      bool                  `json:"isAuthorised"`
	CompletedAt       time.Time             `json:"completedAt"`
}

func (TransactionHasBeenCompleted) EventType() enums.EventType {
	return enums.EventTransactionCompleted
}

// MerchantFeePendingSettlementAdded attaches one calculated fee to the
// transaction, awaiting settlement.
type MerchantFeePendingSettlementAdded struct {
	TransactionID   uuid.UUID             `json:"transactionId"`
	EstateID        uuid.UUID             `json:"estateId"`
	MerchantID      uuid.UUID             `json:"merchantId"`
	FeeID           uuid.UUID             `json:"feeId"`
	Description     string                `json:"description"`
	CalculationType enums.CalculationType `json:"calculationType"`
	FeeType         enums.FeeType         `json:"feeType"`
	FeeValue        decimal.Decimal       `json:"feeValue"`
	CalculatedValue decimal.Decimal       `json:"calculatedValue"`
}

func (MerchantFeePendingSettlementAdded) EventType() enums.EventType {
	return enums.EventMerchantFeePending
}

// SettledMerchantFeeAdded marks one of the transaction's fees as settled
// by a settlement run.
type SettledMerchantFeeAdded struct {
	TransactionID   uuid.UUID       `json:"transactionId"`
	EstateID        uuid.UUID       `json:"estateId"`
	MerchantID      uuid.UUID       `json:"merchantId"`
	FeeID           uuid.UUID       `json:"feeId"`
	SettlementID    uuid.UUID       `json:"settlementId"`
	CalculatedValue decimal.Decimal `json:"calculatedValue"`
	SettledAt       time.Time       `json:"settledAt"`
}

func (SettledMerchantFeeAdded) EventType() enums.EventType { return enums.EventSettledMerchantFee }
