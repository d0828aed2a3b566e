package aggregates

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/estatepay/estatepay-backend/internal/domain/events"
	"github.com/estatepay/estatepay-backend/pkg/enums"
	"github.com/estatepay/estatepay-backend/pkg/errors"
)

type transactionFeeState struct {
	Description     string
	CalculationType enums.CalculationType
	FeeType         enums.FeeType
	CalculatedValue decimal.Decimal
	Settled         bool
}

// Transaction models a single terminal request, from start through
// authorisation to completion and fee settlement.
type Transaction struct {
	Base

	EstateID          uuid.UUID
	MerchantID        uuid.UUID
	DeviceIdentifier  string
	TransactionType   enums.TransactionType
	TransactionNumber int64
	ContractID        uuid.UUID
	ProductID         uuid.UUID
	OperatorID        uuid.UUID
	TransactionAmount decimal.Decimal
	ResponseCode      string
	AdditionalData    map[string]string

	authorised  bool
	declined    bool
	completed   bool
	fees        map[uuid.UUID]transactionFeeState
	hasProducts bool
}

// NewTransaction returns an empty transaction positioned on the given
// stream, ready for replay.
func NewTransaction(id uuid.UUID) *Transaction {
	t := &Transaction{fees: make(map[uuid.UUID]transactionFeeState)}
	t.setID(id)
	return t
}

func (t *Transaction) AggregateType() enums.AggregateType { return enums.AggregateTransaction }

// Apply folds one event into transaction state.
func (t *Transaction) Apply(payload events.Payload) error {
	switch event := payload.(type) {
	case events.TransactionHasStarted:
		t.setID(event.TransactionID)
		t.EstateID = event.EstateID
		t.MerchantID = event.MerchantID
		t.DeviceIdentifier = event.DeviceIdentifier
		t.TransactionType = event.TransactionType
		t.TransactionNumber = event.TransactionNumber
		t.markCreated()
	case events.AdditionalRequestDataRecorded:
		if t.AdditionalData == nil {
			t.AdditionalData = make(map[string]string, len(event.Fields))
		}
		for key, value := range event.Fields {
			t.AdditionalData[key] = value
		}
	case events.ProductDetailsAddedToTransaction:
		t.ContractID = event.ContractID
		t.ProductID = event.ProductID
		t.OperatorID = event.OperatorID
		t.TransactionAmount = event.TransactionAmount
		t.hasProducts = true
	case events.TransactionAuthorisedByOperator:
		t.authorised = true
		t.ResponseCode = event.OperatorResponseCode
	case events.TransactionDeclinedByOperator:
		t.declined = true
		t.ResponseCode = event.OperatorResponseCode
	case events.TransactionHasBeenLocallyAuthorised:
		t.authorised = true
		t.ResponseCode = event.ResponseCode
	case events.TransactionHasBeenLocallyDeclined:
		t.declined = true
		t.ResponseCode = event.ResponseCode
	case events.TransactionHasBeenCompleted:
		t.completed = true
		t.TransactionAmount = event.TransactionAmount
		t.ResponseCode = event.ResponseCode
	case events.MerchantFeePendingSettlementAdded:
		t.fees[event.FeeID] = transactionFeeState{
			Description:     event.Description,
			CalculationType: event.CalculationType,
			FeeType:         event.FeeType,
			CalculatedValue: event.CalculatedValue,
		}
	case events.SettledMerchantFeeAdded:
		fee := t.fees[event.FeeID]
		fee.Settled = true
		t.fees[event.FeeID] = fee
	default:
		return errors.New(errors.CodeConfiguration, fmt.Sprintf("transaction cannot apply %s", payload.EventType()))
	}
	t.advance()
	return nil
}

// IsAuthorised reports whether any authorisation path approved the
// transaction.
func (t *Transaction) IsAuthorised() bool { return t.authorised }

// IsDeclined reports whether any authorisation path declined the
// transaction.
func (t *Transaction) IsDeclined() bool { return t.declined }

// IsCompleted reports whether the completion event has been applied.
func (t *Transaction) IsCompleted() bool { return t.completed }

// PendingFees returns the IDs of fees awaiting settlement, in no
// particular order.
func (t *Transaction) PendingFees() []uuid.UUID {
	var pending []uuid.UUID
	for feeID, fee := range t.fees {
		if !fee.Settled {
			pending = append(pending, feeID)
		}
	}
	return pending
}

// FeeValue returns the calculated value recorded for a fee.
func (t *Transaction) FeeValue(feeID uuid.UUID) (decimal.Decimal, bool) {
	fee, ok := t.fees[feeID]
	return fee.CalculatedValue, ok
}

// Start opens the transaction stream. Valid only on a not-yet-created
// aggregate.
func (t *Transaction) Start(estateID, merchantID uuid.UUID, deviceIdentifier string, transactionType enums.TransactionType, transactionNumber int64, startedAt time.Time) error {
	if t.IsCreated() {
		return errors.New(errors.CodeStateConflict, "transaction already started")
	}
	if !transactionType.IsValid() {
		return errors.New(errors.CodeValidation, fmt.Sprintf("invalid transaction type %q", transactionType))
	}
	return raise(t, events.TransactionHasStarted{
		TransactionID:     t.AggregateID(),
		EstateID:          estateID,
		MerchantID:        merchantID,
		DeviceIdentifier:  deviceIdentifier,
		TransactionType:   transactionType,
		TransactionNumber: transactionNumber,
		StartedAt:         startedAt,
	})
}

// RecordAdditionalRequestData captures allow-listed terminal fields.
func (t *Transaction) RecordAdditionalRequestData(fields map[string]string) error {
	if !t.IsCreated() {
		return errors.New(errors.CodeStateConflict, "transaction not started")
	}
	if t.completed {
		return errors.New(errors.CodeStateConflict, "transaction already completed")
	}
	if len(fields) == 0 {
		return errors.New(errors.CodeValidation, "no additional request data supplied")
	}
	return raise(t, events.AdditionalRequestDataRecorded{
		TransactionID: t.AggregateID(),
		EstateID:      t.EstateID,
		MerchantID:    t.MerchantID,
		Fields:        fields,
	})
}

// AddProductDetails binds the sold product and amount to the transaction.
func (t *Transaction) AddProductDetails(contractID, productID, operatorID uuid.UUID, amount decimal.Decimal) error {
	if !t.IsCreated() {
		return errors.New(errors.CodeStateConflict, "transaction not started")
	}
	if t.completed {
		return errors.New(errors.CodeStateConflict, "transaction already completed")
	}
	if t.hasProducts {
		return errors.New(errors.CodeStateConflict, "product details already added")
	}
	if amount.IsNegative() {
		return errors.New(errors.CodeValidation, "transaction amount must not be negative")
	}
	return raise(t, events.ProductDetailsAddedToTransaction{
		TransactionID:     t.AggregateID(),
		EstateID:          t.EstateID,
		MerchantID:        t.MerchantID,
		ContractID:        contractID,
		ProductID:         productID,
		OperatorID:        operatorID,
		TransactionAmount: amount,
	})
}

// AuthoriseByOperator records an upstream operator approval.
func (t *Transaction) AuthoriseByOperator(responseCode, operatorTransactionID, additionalResponse string) error {
	if err := t.ensureUndecided(); err != nil {
		return err
	}
	return raise(t, events.TransactionAuthorisedByOperator{
		TransactionID:         t.AggregateID(),
		EstateID:              t.EstateID,
		MerchantID:            t.MerchantID,
		OperatorResponseCode:  responseCode,
		OperatorTransactionID: operatorTransactionID,
		AdditionalResponse:    additionalResponse,
	})
}

// DeclineByOperator records an upstream operator decline.
func (t *Transaction) DeclineByOperator(responseCode, reason string) error {
	if err := t.ensureUndecided(); err != nil {
		return err
	}
	return raise(t, events.TransactionDeclinedByOperator{
		TransactionID:        t.AggregateID(),
		EstateID:             t.EstateID,
		MerchantID:           t.MerchantID,
		OperatorResponseCode: responseCode,
		DeclineReason:        reason,
	})
}

// AuthoriseLocally approves without an upstream operator round trip.
func (t *Transaction) AuthoriseLocally(responseCode string) error {
	if err := t.ensureUndecided(); err != nil {
		return err
	}
	return raise(t, events.TransactionHasBeenLocallyAuthorised{
		TransactionID: t.AggregateID(),
		EstateID:      t.EstateID,
		MerchantID:    t.MerchantID,
		ResponseCode:  responseCode,
	})
}

// DeclineLocally declines without an upstream operator round trip,
// typically for insufficient available balance.
func (t *Transaction) DeclineLocally(responseCode, reason string) error {
	if err := t.ensureUndecided(); err != nil {
		return err
	}
	return raise(t, events.TransactionHasBeenLocallyDeclined{
		TransactionID: t.AggregateID(),
		EstateID:      t.EstateID,
		MerchantID:    t.MerchantID,
		ResponseCode:  responseCode,
		DeclineReason: reason,
	})
}

// Complete closes the transaction. Requires an authorisation decision
// first; the completion carries the final amount and outcome.
func (t *Transaction) Complete(completedAt time.Time) error {
	if !t.IsCreated() {
		return errors.New(errors.CodeStateConflict, "transaction not started")
	}
	if t.completed {
		return errors.New(errors.CodeStateConflict, "transaction already completed")
	}
	if !t.authorised && !t.declined {
		return errors.New(errors.CodeStateConflict, "transaction has no authorisation decision")
	}
	return raise(t, events.TransactionHasBeenCompleted{
		TransactionID:     t.AggregateID(),
		EstateID:          t.EstateID,
		MerchantID:        t.MerchantID,
		TransactionType:   t.TransactionType,
		TransactionAmount: t.TransactionAmount,
		ResponseCode:      t.ResponseCode,
		IsAuthorised:      t.authorised,
		CompletedAt:       completedAt,
	})
}

// AddMerchantFeePendingSettlement attaches a calculated fee awaiting
// settlement. Only authorised, completed transactions accrue fees.
func (t *Transaction) AddMerchantFeePendingSettlement(feeID uuid.UUID, description string, calculationType enums.CalculationType, feeType enums.FeeType, feeValue, calculatedValue decimal.Decimal) error {
	if !t.completed {
		return errors.New(errors.CodeStateConflict, "transaction not completed")
	}
	if !t.authorised {
		return errors.New(errors.CodeStateConflict, "declined transaction cannot accrue fees")
	}
	if _, exists := t.fees[feeID]; exists {
		return errors.New(errors.CodeConflict, fmt.Sprintf("fee %s already added", feeID))
	}
	return raise(t, events.MerchantFeePendingSettlementAdded{
		TransactionID:   t.AggregateID(),
		EstateID:        t.EstateID,
		MerchantID:      t.MerchantID,
		FeeID:           feeID,
		Description:     description,
		CalculationType: calculationType,
		FeeType:         feeType,
		FeeValue:        feeValue,
		CalculatedValue: calculatedValue,
	})
}

// AddSettledMerchantFee marks one pending fee as settled by the given
// settlement run.
func (t *Transaction) AddSettledMerchantFee(feeID, settlementID uuid.UUID, settledAt time.Time) error {
	fee, exists := t.fees[feeID]
	if !exists {
		return errors.New(errors.CodeNotFound, fmt.Sprintf("fee %s not found on transaction", feeID))
	}
	if fee.Settled {
		return errors.New(errors.CodeStateConflict, fmt.Sprintf("fee %s already settled", feeID))
	}
	return raise(t, events.SettledMerchantFeeAdded{
		TransactionID:   t.AggregateID(),
		EstateID:        t.EstateID,
		MerchantID:      t.MerchantID,
		FeeID:           feeID,
		SettlementID:    settlementID,
		CalculatedValue: fee.CalculatedValue,
		SettledAt:       settledAt,
	})
}

func (t *Transaction) ensureUndecided() error {
	if !t.IsCreated() {
		return errors.New(errors.CodeStateConflict, "transaction not started")
	}
	if t.completed {
		return errors.New(errors.CodeStateConflict, "transaction already completed")
	}
	if t.authorised || t.declined {
		return errors.New(errors.CodeStateConflict, "transaction already has an authorisation decision")
	}
	return nil
}
