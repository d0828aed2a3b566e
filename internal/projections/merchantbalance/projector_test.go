package merchantbalance

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estatepay/estatepay-backend/internal/domain/events"
	"github.com/estatepay/estatepay-backend/pkg/enums"
	"github.com/estatepay/estatepay-backend/pkg/logger"
)

func newProjector(repo Repository) *Projector {
	return NewProjector(repo, logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel}))
}

func envelopeFor(payload events.Payload, version int64) events.Envelope {
	return events.Envelope{
		StreamID:  uuid.New(),
		EventID:   uuid.New(),
		EventType: payload.EventType(),
		Version:   version,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

func TestBalanceFolding(t *testing.T) {
	repo := NewMemoryRepository()
	projector := newProjector(repo)
	estateID, merchantID := uuid.New(), uuid.New()
	now := time.Now().UTC()

	deposit := events.ManualDepositMade{
		EstateID: estateID, MerchantID: merchantID,
		DepositID: uuid.New(), Reference: "top-up-1",
		Amount: decimal.RequireFromString("100.00"), DepositedAt: now,
	}
	sale := events.TransactionHasBeenCompleted{
		TransactionID: uuid.New(), EstateID: estateID, MerchantID: merchantID,
		TransactionType:   enums.TransactionSale,
		TransactionAmount: decimal.RequireFromString("10.00"),
		ResponseCode:      enums.ResponseCodeSuccess, IsAuthorised: true, CompletedAt: now,
	}
	fee := events.SettledMerchantFeeAdded{
		TransactionID: sale.TransactionID, EstateID: estateID, MerchantID: merchantID,
		FeeID: uuid.New(), SettlementID: uuid.New(),
		CalculatedValue: decimal.RequireFromString("0.25"), SettledAt: now,
	}
	withdrawal := events.WithdrawalMade{
		EstateID: estateID, MerchantID: merchantID,
		WithdrawalID: uuid.New(), Reference: "payout-1",
		Amount: decimal.RequireFromString("50.00"), WithdrawnAt: now,
	}

	for i, payload := range []events.Payload{deposit, sale, fee, withdrawal} {
		require.NoError(t, projector.Handle(context.Background(), envelopeFor(payload, int64(i+1))))
	}

	snapshot, err := repo.Load(context.Background(), estateID, merchantID)
	require.NoError(t, err)
	assert.True(t, snapshot.Balance.Equal(decimal.RequireFromString("39.75")), "100 - 10 - 0.25 - 50, got %s", snapshot.Balance)
	assert.Equal(t, 1, snapshot.DepositCount)
	assert.Equal(t, 1, snapshot.SaleCount)
	assert.Equal(t, 1, snapshot.FeeCount)
	assert.Equal(t, 1, snapshot.WithdrawalCount)
	assert.Equal(t, 0, snapshot.DeclinedSaleCount)

	history, err := repo.History(context.Background(), estateID, merchantID, 0)
	require.NoError(t, err)
	assert.Len(t, history, 4, "one history entry per causing event")
}

func TestDeclinedSaleCountsWithoutMovingBalance(t *testing.T) {
	repo := NewMemoryRepository()
	projector := newProjector(repo)
	estateID, merchantID := uuid.New(), uuid.New()

	declined := events.TransactionHasBeenCompleted{
		TransactionID: uuid.New(), EstateID: estateID, MerchantID: merchantID,
		TransactionType:   enums.TransactionSale,
		TransactionAmount: decimal.RequireFromString("30.00"),
		ResponseCode:      enums.ResponseCodeNoFloat, IsAuthorised: false, CompletedAt: time.Now(),
	}
	require.NoError(t, projector.Handle(context.Background(), envelopeFor(declined, 1)))

	snapshot, err := repo.Load(context.Background(), estateID, merchantID)
	require.NoError(t, err)
	assert.True(t, snapshot.Balance.IsZero())
	assert.Equal(t, 1, snapshot.DeclinedSaleCount)
	assert.Equal(t, 0, snapshot.SaleCount)

	history, err := repo.History(context.Background(), estateID, merchantID, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].ChangeAmount.IsZero(), "declined sales record no movement")
	assert.False(t, history[0].Debit)
}

func TestLogonCompletionLeavesBalanceUntouched(t *testing.T) {
	repo := NewMemoryRepository()
	projector := newProjector(repo)
	estateID, merchantID := uuid.New(), uuid.New()

	logon := events.TransactionHasBeenCompleted{
		TransactionID: uuid.New(), EstateID: estateID, MerchantID: merchantID,
		TransactionType: enums.TransactionLogon,
		ResponseCode:    enums.ResponseCodeSuccess, IsAuthorised: true, CompletedAt: time.Now(),
	}
	require.NoError(t, projector.Handle(context.Background(), envelopeFor(logon, 2)))

	snapshot, err := repo.Load(context.Background(), estateID, merchantID)
	require.NoError(t, err)
	assert.Equal(t, 0, snapshot.SaleCount, "a logon is not a sale")
	assert.True(t, snapshot.Balance.IsZero())

	history, err := repo.History(context.Background(), estateID, merchantID, 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestDuplicateDeliveryDoesNotDoubleCount(t *testing.T) {
	repo := NewMemoryRepository()
	projector := newProjector(repo)
	estateID, merchantID := uuid.New(), uuid.New()

	deposit := events.ManualDepositMade{
		EstateID: estateID, MerchantID: merchantID,
		DepositID: uuid.New(), Reference: "top-up",
		Amount: decimal.RequireFromString("20.00"), DepositedAt: time.Now(),
	}
	envelope := envelopeFor(deposit, 1)

	require.NoError(t, projector.Handle(context.Background(), envelope))
	require.NoError(t, projector.Handle(context.Background(), envelope), "redelivery returns success")

	snapshot, err := repo.Load(context.Background(), estateID, merchantID)
	require.NoError(t, err)
	assert.True(t, snapshot.Balance.Equal(decimal.RequireFromString("20.00")))
	assert.Equal(t, 1, snapshot.DepositCount)

	history, err := repo.History(context.Background(), estateID, merchantID, 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestSaleOfTenProducesSingleHistoryEntry(t *testing.T) {
	repo := NewMemoryRepository()
	projector := newProjector(repo)
	estateID, merchantID := uuid.New(), uuid.New()

	sale := events.TransactionHasBeenCompleted{
		TransactionID: uuid.New(), EstateID: estateID, MerchantID: merchantID,
		TransactionType:   enums.TransactionSale,
		TransactionAmount: decimal.RequireFromString("10.00"),
		ResponseCode:      enums.ResponseCodeSuccess, IsAuthorised: true, CompletedAt: time.Now(),
	}
	require.NoError(t, projector.Handle(context.Background(), envelopeFor(sale, 4)))

	history, err := repo.History(context.Background(), estateID, merchantID, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, enums.BalanceEntrySale, history[0].EntryType)
	assert.True(t, history[0].ChangeAmount.Equal(decimal.RequireFromString("10.00")))
	assert.True(t, history[0].Debit)

	snapshot, err := repo.Load(context.Background(), estateID, merchantID)
	require.NoError(t, err)
	assert.True(t, snapshot.Balance.Equal(decimal.RequireFromString("-10.00")), "sales debit the running balance")
}
