package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/estatepay/estatepay-backend/internal/domain/aggregates"
	"github.com/estatepay/estatepay-backend/internal/domain/aggregates/repository"
	"github.com/estatepay/estatepay-backend/internal/domain/events"
	"github.com/estatepay/estatepay-backend/internal/eventstore"
	"github.com/estatepay/estatepay-backend/pkg/enums"
	"github.com/estatepay/estatepay-backend/pkg/logger"
)

// SaleTotalsSource supplies the host-side sale totals a terminal's
// reported totals are compared against. Backed by the transaction read
// model in production.
type SaleTotalsSource interface {
	SaleTotals(ctx context.Context, estateID, merchantID uuid.UUID, day time.Time) (count int, value decimal.Decimal, err error)
}

// ReconciliationService processes terminal batch closes.
type ReconciliationService struct {
	reconciliations *repository.Repository[*aggregates.Reconciliation]
	merchants       *repository.Repository[*aggregates.Merchant]
	totals          SaleTotalsSource
	logg            *logger.Logger
}

func NewReconciliationService(store eventstore.Store, registry *events.Registry, totals SaleTotalsSource, logg *logger.Logger) *ReconciliationService {
	return &ReconciliationService{
		reconciliations: repository.New(store, registry, aggregates.NewReconciliation),
		merchants:       repository.New(store, registry, aggregates.NewMerchant),
		totals:          totals,
		logg:            logg,
	}
}

type ReconcileParams struct {
	EstateID         uuid.UUID
	MerchantID       uuid.UUID
	DeviceIdentifier string
	SaleCount        int
	SaleValue        decimal.Decimal
}

// ProcessReconciliation records the terminal's reported totals and
// authorises the batch close when they match the host's view of the
// day's authorised sales.
func (s *ReconciliationService) ProcessReconciliation(ctx context.Context, params ReconcileParams) (TransactionOutcome, error) {
	recon := aggregates.NewReconciliation(uuid.New())
	now := timeNowUTC()
	if err := recon.Start(params.EstateID, params.MerchantID, params.DeviceIdentifier, now); err != nil {
		return TransactionOutcome{}, err
	}

	merchant, err := s.merchants.GetLatestVersion(ctx, params.MerchantID)
	if err != nil {
		return TransactionOutcome{}, err
	}
	if code, reason, ok := validateDevice(merchant, params.EstateID, params.DeviceIdentifier); !ok {
		return s.failReconciliation(ctx, recon, params, code, reason)
	}

	if err := recon.RecordOverallTotals(params.SaleCount, params.SaleValue); err != nil {
		return TransactionOutcome{}, err
	}

	hostCount, hostValue, err := s.totals.SaleTotals(ctx, params.EstateID, params.MerchantID, now)
	if err != nil {
		return TransactionOutcome{}, err
	}

	responseCode := enums.ResponseCodeSuccess
	message := ""
	if hostCount == params.SaleCount && hostValue.Equal(params.SaleValue) {
		if err := recon.AuthoriseLocally(responseCode); err != nil {
			return TransactionOutcome{}, err
		}
	} else {
		responseCode = enums.ResponseCodeTotalsMismatch
		message = fmt.Sprintf("host totals %d/%s, terminal totals %d/%s", hostCount, hostValue, params.SaleCount, params.SaleValue)
		if err := recon.DeclineLocally(responseCode, message); err != nil {
			return TransactionOutcome{}, err
		}
	}
	if err := recon.Complete(responseCode, timeNowUTC()); err != nil {
		return TransactionOutcome{}, err
	}
	if err := s.reconciliations.SaveChanges(ctx, recon); err != nil {
		return TransactionOutcome{}, err
	}

	return TransactionOutcome{
		TransactionID:   recon.AggregateID(),
		ResponseCode:    responseCode,
		ResponseMessage: message,
		Authorised:      recon.IsAuthorised(),
		Amount:          params.SaleValue,
	}, nil
}

// failReconciliation declines the batch close for an invalid device or
// merchant. Totals are still recorded so the decline carries the
// terminal's claim.
func (s *ReconciliationService) failReconciliation(ctx context.Context, recon *aggregates.Reconciliation, params ReconcileParams, code, reason string) (TransactionOutcome, error) {
	if err := recon.RecordOverallTotals(params.SaleCount, params.SaleValue); err != nil {
		return TransactionOutcome{}, err
	}
	if err := recon.DeclineLocally(code, reason); err != nil {
		return TransactionOutcome{}, err
	}
	if err := recon.Complete(code, timeNowUTC()); err != nil {
		return TransactionOutcome{}, err
	}
	if err := s.reconciliations.SaveChanges(ctx, recon); err != nil {
		return TransactionOutcome{}, err
	}
	return TransactionOutcome{
		TransactionID:   recon.AggregateID(),
		ResponseCode:    code,
		ResponseMessage: reason,
		Authorised:      false,
		Amount:          params.SaleValue,
	}, nil
}
