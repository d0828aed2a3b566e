package commands

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estatepay/estatepay-backend/internal/domain/events"
	"github.com/estatepay/estatepay-backend/internal/eventstore"
	"github.com/estatepay/estatepay-backend/internal/projections/merchantbalance"
	"github.com/estatepay/estatepay-backend/pkg/db/models"
	"github.com/estatepay/estatepay-backend/pkg/errors"
)

func seedBalance(t *testing.T, balances *merchantbalance.MemoryRepository, estateID, merchantID uuid.UUID, available string) {
	t.Helper()
	amount := decimal.RequireFromString(available)
	err := balances.Save(context.Background(), models.MerchantBalanceSnapshot{
		EstateID:         estateID,
		MerchantID:       merchantID,
		Balance:          amount,
		AvailableBalance: amount,
	}, models.BalanceHistoryEntry{
		EventID:      uuid.New(),
		EstateID:     estateID,
		MerchantID:   merchantID,
		ChangeAmount: amount,
		Balance:      amount,
	})
	require.NoError(t, err)
}

func TestMakeWithdrawalDebitsUpToAvailableBalance(t *testing.T) {
	ctx := context.Background()
	store := eventstore.NewMemoryStore()
	registry := events.NewRegistry()
	logg := testLogger()
	balances := merchantbalance.NewMemoryRepository()

	estates := NewEstateService(store, registry, logg)
	merchants := NewMerchantService(store, registry, balances, logg)

	estateID, err := estates.CreateEstate(ctx, CreateEstateParams{Name: "Northgate", Reference: "NG-01"})
	require.NoError(t, err)
	merchantID, err := merchants.CreateMerchant(ctx, estateID, "Kiosk 12")
	require.NoError(t, err)
	seedBalance(t, balances, estateID, merchantID, "120.00")

	withdrawalID, err := merchants.MakeWithdrawal(ctx, merchantID, "payout-1", decimal.RequireFromString("100.00"))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, withdrawalID)

	// The snapshot has not moved yet, so a second withdrawal still sees
	// 120.00 available. Asking for more than that is refused outright.
	_, err = merchants.MakeWithdrawal(ctx, merchantID, "payout-2", decimal.RequireFromString("150.00"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeStateConflict))
}

func TestMakeWithdrawalUnknownMerchant(t *testing.T) {
	ctx := context.Background()
	merchants := NewMerchantService(eventstore.NewMemoryStore(), events.NewRegistry(), merchantbalance.NewMemoryRepository(), testLogger())

	_, err := merchants.MakeWithdrawal(ctx, uuid.New(), "payout-1", decimal.RequireFromString("10.00"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestMakeManualDepositAppendsToStream(t *testing.T) {
	ctx := context.Background()
	store := eventstore.NewMemoryStore()
	registry := events.NewRegistry()
	logg := testLogger()

	estates := NewEstateService(store, registry, logg)
	merchants := NewMerchantService(store, registry, merchantbalance.NewMemoryRepository(), logg)

	estateID, err := estates.CreateEstate(ctx, CreateEstateParams{Name: "Northgate", Reference: "NG-01"})
	require.NoError(t, err)
	merchantID, err := merchants.CreateMerchant(ctx, estateID, "Kiosk 12")
	require.NoError(t, err)

	depositID, err := merchants.MakeManualDeposit(ctx, merchantID, "opening-balance", decimal.RequireFromString("250.00"))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, depositID)
}
