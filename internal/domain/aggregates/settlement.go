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

type settlementFeeKey struct {
	TransactionID uuid.UUID
	FeeID         uuid.UUID
}

type settlementFeeState struct {
	CalculatedValue decimal.Decimal
	Settled         bool
}

// Settlement collects a merchant's fees for one date and settles them in
// a single run. Its stream ID derives from (date, merchant, estate), so
// fee registration and settlement runs for the same day always converge
// on one stream.
type Settlement struct {
	Base

	EstateID       uuid.UUID
	MerchantID     uuid.UUID
	SettlementDate time.Time

	processing bool
	completed  bool
	fees       map[settlementFeeKey]settlementFeeState
}

// NewSettlement returns an empty settlement positioned on the given
// stream, ready for replay.
func NewSettlement(id uuid.UUID) *Settlement {
	s := &Settlement{fees: make(map[settlementFeeKey]settlementFeeState)}
	s.setID(id)
	return s
}

func (s *Settlement) AggregateType() enums.AggregateType { return enums.AggregateSettlement }

// Apply folds one event into settlement state.
func (s *Settlement) Apply(payload events.Payload) error {
	switch event := payload.(type) {
	case events.SettlementCreated:
		s.setID(event.SettlementID)
		s.EstateID = event.EstateID
		s.MerchantID = event.MerchantID
		s.SettlementDate = event.SettlementDate
		s.markCreated()
	case events.MerchantFeeAddedPendingSettlement:
		s.fees[settlementFeeKey{TransactionID: event.TransactionID, FeeID: event.FeeID}] = settlementFeeState{
			CalculatedValue: event.CalculatedValue,
		}
	case events.MerchantFeeSettled:
		key := settlementFeeKey{TransactionID: event.TransactionID, FeeID: event.FeeID}
		fee := s.fees[key]
		fee.Settled = true
		s.fees[key] = fee
	case events.SettlementProcessingStarted:
		s.processing = true
	case events.SettlementCompleted:
		s.completed = true
	default:
		return errors.New(errors.CodeConfiguration, fmt.Sprintf("settlement cannot apply %s", payload.EventType()))
	}
	s.advance()
	return nil
}

// IsCompleted reports whether the settlement run has closed.
func (s *Settlement) IsCompleted() bool { return s.completed }

// PendingFeeCount counts fees registered but not yet settled.
func (s *Settlement) PendingFeeCount() int {
	count := 0
	for _, fee := range s.fees {
		if !fee.Settled {
			count++
		}
	}
	return count
}

// SettledTotal sums the calculated value of every settled fee.
func (s *Settlement) SettledTotal() decimal.Decimal {
	total := decimal.Zero
	for _, fee := range s.fees {
		if fee.Settled {
			total = total.Add(fee.CalculatedValue)
		}
	}
	return total
}

// PendingSettlementFee describes one fee still awaiting settlement.
type PendingSettlementFee struct {
	TransactionID uuid.UUID
	FeeID         uuid.UUID
	Value         decimal.Decimal
}

// PendingFees lists (transaction, fee) pairs awaiting settlement.
func (s *Settlement) PendingFees() []PendingSettlementFee {
	var pending []PendingSettlementFee
	for key, fee := range s.fees {
		if !fee.Settled {
			pending = append(pending, PendingSettlementFee{
				TransactionID: key.TransactionID,
				FeeID:         key.FeeID,
				Value:         fee.CalculatedValue,
			})
		}
	}
	return pending
}

// Create opens the settlement stream for one merchant and date.
func (s *Settlement) Create(estateID, merchantID uuid.UUID, settlementDate time.Time) error {
	if s.IsCreated() {
		return errors.New(errors.CodeStateConflict, "settlement already created")
	}
	return raise(s, events.SettlementCreated{
		SettlementID:   s.AggregateID(),
		EstateID:       estateID,
		MerchantID:     merchantID,
		SettlementDate: settlementDate,
	})
}

// AddMerchantFeePendingSettlement registers a transaction fee with this
// settlement. Fees cannot join a completed settlement.
func (s *Settlement) AddMerchantFeePendingSettlement(transactionID, feeID uuid.UUID, calculatedValue decimal.Decimal) error {
	if !s.IsCreated() {
		return errors.New(errors.CodeStateConflict, "settlement not created")
	}
	if s.completed {
		return errors.New(errors.CodeStateConflict, "settlement already completed")
	}
	if _, exists := s.fees[settlementFeeKey{TransactionID: transactionID, FeeID: feeID}]; exists {
		return errors.New(errors.CodeConflict, fmt.Sprintf("fee %s for transaction %s already registered", feeID, transactionID))
	}
	return raise(s, events.MerchantFeeAddedPendingSettlement{
		SettlementID:    s.AggregateID(),
		EstateID:        s.EstateID,
		MerchantID:      s.MerchantID,
		TransactionID:   transactionID,
		FeeID:           feeID,
		CalculatedValue: calculatedValue,
	})
}

// AddSettledFeeToSettlement moves one registered fee from pending to
// settled. Valid only inside an active settlement.
func (s *Settlement) AddSettledFeeToSettlement(transactionID, feeID uuid.UUID, settledAt time.Time) error {
	if !s.IsCreated() {
		return errors.New(errors.CodeStateConflict, "settlement not created")
	}
	if s.completed {
		return errors.New(errors.CodeStateConflict, "settlement already completed")
	}
	key := settlementFeeKey{TransactionID: transactionID, FeeID: feeID}
	fee, exists := s.fees[key]
	if !exists {
		return errors.New(errors.CodeNotFound, fmt.Sprintf("fee %s for transaction %s not registered", feeID, transactionID))
	}
	if fee.Settled {
		return errors.New(errors.CodeStateConflict, fmt.Sprintf("fee %s for transaction %s already settled", feeID, transactionID))
	}
	return raise(s, events.MerchantFeeSettled{
		SettlementID:    s.AggregateID(),
		EstateID:        s.EstateID,
		MerchantID:      s.MerchantID,
		TransactionID:   transactionID,
		FeeID:           feeID,
		CalculatedValue: fee.CalculatedValue,
		SettledAt:       settledAt,
	})
}

// ProcessSettlement settles every pending fee and completes the
// settlement in one command: one settled event per pending fee, then
// the completion event carrying the settled total.
func (s *Settlement) ProcessSettlement(processedAt time.Time) error {
	if !s.IsCreated() {
		return errors.New(errors.CodeStateConflict, "settlement not created")
	}
	if s.completed {
		return errors.New(errors.CodeStateConflict, "settlement already completed")
	}
	if s.PendingFeeCount() == 0 {
		return errors.New(errors.CodeStateConflict, "settlement has no pending fees")
	}
	if !s.processing {
		if err := raise(s, events.SettlementProcessingStarted{
			SettlementID: s.AggregateID(),
			EstateID:     s.EstateID,
			MerchantID:   s.MerchantID,
			StartedAt:    processedAt,
		}); err != nil {
			return err
		}
	}
	for _, fee := range s.PendingFees() {
		if err := raise(s, events.MerchantFeeSettled{
			SettlementID:    s.AggregateID(),
			EstateID:        s.EstateID,
			MerchantID:      s.MerchantID,
			TransactionID:   fee.TransactionID,
			FeeID:           fee.FeeID,
			CalculatedValue: fee.Value,
			SettledAt:       processedAt,
		}); err != nil {
			return err
		}
	}
	return raise(s, events.SettlementCompleted{
		SettlementID: s.AggregateID(),
		EstateID:     s.EstateID,
		MerchantID:   s.MerchantID,
		TotalSettled: s.SettledTotal(),
		CompletedAt:  processedAt,
	})
}
