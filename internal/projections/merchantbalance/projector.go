package merchantbalance

import (
	"context"
	stdErrors "errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/estatepay/estatepay-backend/internal/domain/events"
	"github.com/estatepay/estatepay-backend/pkg/db/models"
	"github.com/estatepay/estatepay-backend/pkg/enums"
	"github.com/estatepay/estatepay-backend/pkg/logger"
)

// Projector folds deposit, withdrawal, completed-sale and settled-fee
// events into the merchant balance partition. Runs on the ordered
// pipeline, single writer per partition. Duplicate deliveries hit the
// history's unique event index and are acknowledged without effect.
type Projector struct {
	repo Repository
	logg *logger.Logger
}

func NewProjector(repo Repository, logg *logger.Logger) *Projector {
	return &Projector{repo: repo, logg: logg}
}

func (p *Projector) Name() string { return "merchant-balance" }

// EventTypes lists the subset of events this projection folds.
func (p *Projector) EventTypes() []enums.EventType {
	return []enums.EventType{
		enums.EventManualDepositMade,
		enums.EventWithdrawalMade,
		enums.EventTransactionCompleted,
		enums.EventSettledMerchantFee,
	}
}

func (p *Projector) Handle(ctx context.Context, envelope events.Envelope) error {
	var (
		snapshot models.MerchantBalanceSnapshot
		entry    models.BalanceHistoryEntry
		err      error
	)

	switch payload := envelope.Payload.(type) {
	case events.ManualDepositMade:
		snapshot, err = p.repo.Load(ctx, payload.EstateID, payload.MerchantID)
		if err != nil {
			return err
		}
		applyDeposit(&snapshot, payload.Amount, payload.DepositedAt)
		entry = models.BalanceHistoryEntry{
			EntryType:    enums.BalanceEntryDeposit,
			Reference:    payload.Reference,
			ChangeAmount: payload.Amount,
			Debit:        false,
			EntryAt:      payload.DepositedAt,
		}
	case events.WithdrawalMade:
		snapshot, err = p.repo.Load(ctx, payload.EstateID, payload.MerchantID)
		if err != nil {
			return err
		}
		applyWithdrawal(&snapshot, payload.Amount, payload.WithdrawnAt)
		entry = models.BalanceHistoryEntry{
			EntryType:    enums.BalanceEntryWithdrawal,
			Reference:    payload.Reference,
			ChangeAmount: payload.Amount,
			Debit:        true,
			EntryAt:      payload.WithdrawnAt,
		}
	case events.TransactionHasBeenCompleted:
		// Logon and reconciliation completions never move money and
		// leave no trace in the balance partition.
		if payload.TransactionType != enums.TransactionSale {
			return nil
		}
		snapshot, err = p.repo.Load(ctx, payload.EstateID, payload.MerchantID)
		if err != nil {
			return err
		}
		changeAmount := decimal.Zero
		if payload.IsAuthorised {
			applyAuthorisedSale(&snapshot, payload.TransactionAmount, payload.CompletedAt)
			changeAmount = payload.TransactionAmount
		} else {
			applyDeclinedSale(&snapshot, payload.CompletedAt)
		}
		entry = models.BalanceHistoryEntry{
			EntryType:    enums.BalanceEntrySale,
			Reference:    payload.TransactionID.String(),
			ChangeAmount: changeAmount,
			Debit:        payload.IsAuthorised,
			EntryAt:      payload.CompletedAt,
		}
	case events.SettledMerchantFeeAdded:
		snapshot, err = p.repo.Load(ctx, payload.EstateID, payload.MerchantID)
		if err != nil {
			return err
		}
		applySettledFee(&snapshot, payload.CalculatedValue, payload.SettledAt)
		entry = models.BalanceHistoryEntry{
			EntryType:    enums.BalanceEntryFee,
			Reference:    payload.TransactionID.String(),
			ChangeAmount: payload.CalculatedValue,
			Debit:        true,
			EntryAt:      payload.SettledAt,
		}
	default:
		// Registered event types and this switch must stay in sync.
		return fmt.Errorf("merchant balance projector cannot fold %s", envelope.EventType)
	}

	entry.EstateID = snapshot.EstateID
	entry.MerchantID = snapshot.MerchantID
	entry.EventID = envelope.EventID
	entry.Balance = snapshot.Balance
	snapshot.LastAppliedEventID = envelope.EventID

	if err := p.repo.Save(ctx, snapshot, entry); err != nil {
		if stdErrors.Is(err, ErrDuplicateEvent) {
			duplicateCtx := p.logg.WithEventID(ctx, envelope.EventID.String())
			p.logg.Warn(duplicateCtx, "duplicate balance event skipped")
			return nil
		}
		return err
	}
	return nil
}
