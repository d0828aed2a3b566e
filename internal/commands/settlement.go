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
	"github.com/estatepay/estatepay-backend/internal/settlement"
	"github.com/estatepay/estatepay-backend/pkg/errors"
	"github.com/estatepay/estatepay-backend/pkg/logger"
)

// SettlementOutcome summarises one settlement run.
type SettlementOutcome struct {
	SettlementID uuid.UUID
	FeesSettled  int
	TotalSettled decimal.Decimal
}

// SettlementService runs merchant settlements. The settlement stream ID
// derives from (date, merchant, estate), so reprocessing the same day
// addresses the stream the sales registered their fees on.
type SettlementService struct {
	settlements  *repository.Repository[*aggregates.Settlement]
	transactions *repository.Repository[*aggregates.Transaction]
	logg         *logger.Logger
}

func NewSettlementService(store eventstore.Store, registry *events.Registry, logg *logger.Logger) *SettlementService {
	return &SettlementService{
		settlements:  repository.New(store, registry, aggregates.NewSettlement),
		transactions: repository.New(store, registry, aggregates.NewTransaction),
		logg:         logg,
	}
}

// ProcessSettlement settles every pending fee for the merchant's
// settlement on the given date, then echoes the settlement back onto
// each transaction so its fees read as settled.
func (s *SettlementService) ProcessSettlement(ctx context.Context, settlementDate time.Time, merchantID, estateID uuid.UUID) (SettlementOutcome, error) {
	settlementID := settlement.DeriveAggregateID(settlementDate, merchantID, estateID)

	var settled []aggregates.PendingSettlementFee
	err := withConflictRetry(ctx, func(ctx context.Context) error {
		run, err := s.settlements.GetLatestVersion(ctx, settlementID)
		if err != nil {
			return err
		}
		if !run.IsCreated() {
			return errors.New(errors.CodeNotFound, fmt.Sprintf("no settlement for merchant %s on %s", merchantID, settlementDate.UTC().Format("2006-01-02")))
		}
		settled = run.PendingFees()
		if err := run.ProcessSettlement(timeNowUTC()); err != nil {
			return err
		}
		return s.settlements.SaveChanges(ctx, run)
	})
	if err != nil {
		return SettlementOutcome{}, err
	}

	total := decimal.Zero
	for _, fee := range settled {
		total = total.Add(fee.Value)
		if err := s.markTransactionFeeSettled(ctx, fee, settlementID); err != nil {
			return SettlementOutcome{}, err
		}
	}

	ctx = s.logg.WithMerchantID(s.logg.WithEstateID(ctx, estateID.String()), merchantID.String())
	s.logg.Info(s.logg.WithField(ctx, "settlement_id", settlementID.String()), "settlement processed")

	return SettlementOutcome{
		SettlementID: settlementID,
		FeesSettled:  len(settled),
		TotalSettled: total,
	}, nil
}

// PendingSettlement is the live view of an in-flight settlement, built
// by replaying the settlement stream rather than the read model.
type PendingSettlement struct {
	SettlementID    uuid.UUID
	EstateID        uuid.UUID
	MerchantID      uuid.UUID
	SettlementDate  time.Time
	PendingFeeCount int
	PendingTotal    decimal.Decimal
	PendingFees     []aggregates.PendingSettlementFee
}

// GetPendingSettlement replays the merchant's settlement stream for the
// given date. In-flight settlements are served from the aggregate so
// the caller never sees projection lag; completed runs belong to the
// read model and surface here as a state conflict.
func (s *SettlementService) GetPendingSettlement(ctx context.Context, settlementDate time.Time, merchantID, estateID uuid.UUID) (PendingSettlement, error) {
	settlementID := settlement.DeriveAggregateID(settlementDate, merchantID, estateID)

	run, err := s.settlements.GetLatestVersion(ctx, settlementID)
	if err != nil {
		return PendingSettlement{}, err
	}
	if !run.IsCreated() {
		return PendingSettlement{}, errors.New(errors.CodeNotFound, fmt.Sprintf("no settlement for merchant %s on %s", merchantID, settlementDate.UTC().Format("2006-01-02")))
	}
	if run.IsCompleted() {
		return PendingSettlement{}, errors.New(errors.CodeStateConflict, fmt.Sprintf("settlement %s already completed", settlementID))
	}

	pending := run.PendingFees()
	total := decimal.Zero
	for _, fee := range pending {
		total = total.Add(fee.Value)
	}

	return PendingSettlement{
		SettlementID:    settlementID,
		EstateID:        run.EstateID,
		MerchantID:      run.MerchantID,
		SettlementDate:  run.SettlementDate,
		PendingFeeCount: len(pending),
		PendingTotal:    total,
		PendingFees:     pending,
	}, nil
}

// markTransactionFeeSettled echoes one settled fee back onto its
// transaction stream. A fee already marked settled is a rerun of an
// interrupted settlement, not a failure.
func (s *SettlementService) markTransactionFeeSettled(ctx context.Context, fee aggregates.PendingSettlementFee, settlementID uuid.UUID) error {
	return withConflictRetry(ctx, func(ctx context.Context) error {
		txn, err := s.transactions.GetLatestVersion(ctx, fee.TransactionID)
		if err != nil {
			return err
		}
		if err := txn.AddSettledMerchantFee(fee.FeeID, settlementID, timeNowUTC()); err != nil {
			if errors.Is(err, errors.CodeStateConflict) {
				return nil
			}
			return err
		}
		return s.transactions.SaveChanges(ctx, txn)
	})
}
