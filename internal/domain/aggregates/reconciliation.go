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

// Reconciliation is a terminal batch close: the device reports its
// totals, the host compares them against its own view and either
// authorises or declines before completing.
type Reconciliation struct {
	Base

	EstateID         uuid.UUID
	MerchantID       uuid.UUID
	DeviceIdentifier string
	SaleCount        int
	SaleValue        decimal.Decimal

	totalsRecorded bool
	authorised     bool
	declined       bool
	completed      bool
}

func NewReconciliation(id uuid.UUID) *Reconciliation {
	r := &Reconciliation{}
	r.setID(id)
	return r
}

func (r *Reconciliation) AggregateType() enums.AggregateType { return enums.AggregateReconciliation }

func (r *Reconciliation) Apply(payload events.Payload) error {
	switch event := payload.(type) {
	case events.ReconciliationHasStarted:
		r.setID(event.ReconciliationID)
		r.EstateID = event.EstateID
		r.MerchantID = event.MerchantID
		r.DeviceIdentifier = event.DeviceIdentifier
		r.markCreated()
	case events.OverallTotalsRecorded:
		r.SaleCount = event.SaleCount
		r.SaleValue = event.SaleValue
		r.totalsRecorded = true
	case events.ReconciliationHasBeenLocallyAuthorised:
		r.authorised = true
	case events.ReconciliationHasBeenLocallyDeclined:
		r.declined = true
	case events.ReconciliationHasCompleted:
		r.completed = true
	default:
		return errors.New(errors.CodeConfiguration, fmt.Sprintf("reconciliation cannot apply %s", payload.EventType()))
	}
	r.advance()
	return nil
}

// IsAuthorised reports whether the reported totals matched.
func (r *Reconciliation) IsAuthorised() bool { return r.authorised }

// IsCompleted reports whether the batch close has finished.
func (r *Reconciliation) IsCompleted() bool { return r.completed }

func (r *Reconciliation) Start(estateID, merchantID uuid.UUID, deviceIdentifier string, startedAt time.Time) error {
	if r.IsCreated() {
		return errors.New(errors.CodeStateConflict, "reconciliation already started")
	}
	return raise(r, events.ReconciliationHasStarted{
		ReconciliationID: r.AggregateID(),
		EstateID:         estateID,
		MerchantID:       merchantID,
		DeviceIdentifier: deviceIdentifier,
		StartedAt:        startedAt,
	})
}

func (r *Reconciliation) RecordOverallTotals(saleCount int, saleValue decimal.Decimal) error {
	if !r.IsCreated() {
		return errors.New(errors.CodeStateConflict, "reconciliation not started")
	}
	if r.completed {
		return errors.New(errors.CodeStateConflict, "reconciliation already completed")
	}
	if r.totalsRecorded {
		return errors.New(errors.CodeStateConflict, "totals already recorded")
	}
	if saleCount < 0 || saleValue.IsNegative() {
		return errors.New(errors.CodeValidation, "totals must not be negative")
	}
	return raise(r, events.OverallTotalsRecorded{
		ReconciliationID: r.AggregateID(),
		EstateID:         r.EstateID,
		MerchantID:       r.MerchantID,
		SaleCount:        saleCount,
		SaleValue:        saleValue,
	})
}

func (r *Reconciliation) AuthoriseLocally(responseCode string) error {
	if err := r.ensureDecidable(); err != nil {
		return err
	}
	return raise(r, events.ReconciliationHasBeenLocallyAuthorised{
		ReconciliationID: r.AggregateID(),
		EstateID:         r.EstateID,
		MerchantID:       r.MerchantID,
		ResponseCode:     responseCode,
	})
}

func (r *Reconciliation) DeclineLocally(responseCode, reason string) error {
	if err := r.ensureDecidable(); err != nil {
		return err
	}
	return raise(r, events.ReconciliationHasBeenLocallyDeclined{
		ReconciliationID: r.AggregateID(),
		EstateID:         r.EstateID,
		MerchantID:       r.MerchantID,
		ResponseCode:     responseCode,
		DeclineReason:    reason,
	})
}

func (r *Reconciliation) Complete(responseCode string, completedAt time.Time) error {
	if !r.IsCreated() {
		return errors.New(errors.CodeStateConflict, "reconciliation not started")
	}
	if r.completed {
		return errors.New(errors.CodeStateConflict, "reconciliation already completed")
	}
	if !r.authorised && !r.declined {
		return errors.New(errors.CodeStateConflict, "reconciliation has no decision")
	}
	return raise(r, events.ReconciliationHasCompleted{
		ReconciliationID: r.AggregateID(),
		EstateID:         r.EstateID,
		MerchantID:       r.MerchantID,
		ResponseCode:     responseCode,
		CompletedAt:      completedAt,
	})
}

func (r *Reconciliation) ensureDecidable() error {
	if !r.IsCreated() {
		return errors.New(errors.CodeStateConflict, "reconciliation not started")
	}
	if r.completed {
		return errors.New(errors.CodeStateConflict, "reconciliation already completed")
	}
	if !r.totalsRecorded {
		return errors.New(errors.CodeStateConflict, "totals not recorded")
	}
	if r.authorised || r.declined {
		return errors.New(errors.CodeStateConflict, "reconciliation already has a decision")
	}
	return nil
}
