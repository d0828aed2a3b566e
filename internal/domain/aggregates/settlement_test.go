package aggregates

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estatepay/estatepay-backend/internal/domain/events"
	"github.com/estatepay/estatepay-backend/pkg/errors"
)

func TestSettlementLifecycle(t *testing.T) {
	settlement := NewSettlement(uuid.New())
	estateID, merchantID := uuid.New(), uuid.New()
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	require.False(t, settlement.IsCreated())
	require.NoError(t, settlement.Create(estateID, merchantID, date))
	require.True(t, settlement.IsCreated())

	txnID, feeID := uuid.New(), uuid.New()
	require.NoError(t, settlement.AddMerchantFeePendingSettlement(txnID, feeID, decimal.RequireFromString("1.50")))
	assert.Equal(t, 1, settlement.PendingFeeCount())

	require.NoError(t, settlement.ProcessSettlement(date.Add(24*time.Hour)))
	assert.Equal(t, 0, settlement.PendingFeeCount())
	assert.True(t, settlement.IsCompleted())
	assert.True(t, settlement.SettledTotal().Equal(decimal.RequireFromString("1.50")))

	// create + fee + processing + settled + completed
	assert.Len(t, settlement.PendingEvents(), 5)
	assert.Equal(t, int64(5), settlement.Version())
}

func TestSettlementProcessEmitsCompletionLast(t *testing.T) {
	settlement := NewSettlement(uuid.New())
	require.NoError(t, settlement.Create(uuid.New(), uuid.New(), time.Now()))
	require.NoError(t, settlement.AddMerchantFeePendingSettlement(uuid.New(), uuid.New(), decimal.RequireFromString("2.00")))
	require.NoError(t, settlement.AddMerchantFeePendingSettlement(uuid.New(), uuid.New(), decimal.RequireFromString("3.00")))
	require.NoError(t, settlement.ProcessSettlement(time.Now()))

	pending := settlement.PendingEvents()
	last, ok := pending[len(pending)-1].(events.SettlementCompleted)
	require.True(t, ok, "last event must be the completion")
	assert.True(t, last.TotalSettled.Equal(decimal.RequireFromString("5.00")))
}

func TestSettlementRejectsInvalidTransitions(t *testing.T) {
	settlement := NewSettlement(uuid.New())

	err := settlement.AddMerchantFeePendingSettlement(uuid.New(), uuid.New(), decimal.New(1, 0))
	assert.True(t, errors.Is(err, errors.CodeStateConflict), "fee before create: %v", err)

	err = settlement.ProcessSettlement(time.Now())
	assert.True(t, errors.Is(err, errors.CodeStateConflict), "process before create: %v", err)

	require.NoError(t, settlement.Create(uuid.New(), uuid.New(), time.Now()))
	err = settlement.Create(uuid.New(), uuid.New(), time.Now())
	assert.True(t, errors.Is(err, errors.CodeStateConflict), "double create: %v", err)

	err = settlement.ProcessSettlement(time.Now())
	assert.True(t, errors.Is(err, errors.CodeStateConflict), "process with no fees: %v", err)

	txnID, feeID := uuid.New(), uuid.New()
	require.NoError(t, settlement.AddMerchantFeePendingSettlement(txnID, feeID, decimal.New(1, 0)))
	err = settlement.AddMerchantFeePendingSettlement(txnID, feeID, decimal.New(1, 0))
	assert.True(t, errors.Is(err, errors.CodeConflict), "duplicate fee: %v", err)

	err = settlement.AddSettledFeeToSettlement(uuid.New(), uuid.New(), time.Now())
	assert.True(t, errors.Is(err, errors.CodeNotFound), "settle unknown fee: %v", err)

	require.NoError(t, settlement.ProcessSettlement(time.Now()))
	err = settlement.AddMerchantFeePendingSettlement(uuid.New(), uuid.New(), decimal.New(1, 0))
	assert.True(t, errors.Is(err, errors.CodeStateConflict), "fee after completion: %v", err)
	err = settlement.ProcessSettlement(time.Now())
	assert.True(t, errors.Is(err, errors.CodeStateConflict), "double process: %v", err)
}

func TestSettlementFailedCommandEmitsNothing(t *testing.T) {
	settlement := NewSettlement(uuid.New())
	require.NoError(t, settlement.Create(uuid.New(), uuid.New(), time.Now()))
	emitted := len(settlement.PendingEvents())

	require.Error(t, settlement.ProcessSettlement(time.Now()))
	assert.Len(t, settlement.PendingEvents(), emitted)
}

func TestSettlementApplyRejectsForeignEvents(t *testing.T) {
	settlement := NewSettlement(uuid.New())
	err := settlement.Apply(events.EstateCreated{EstateID: uuid.New(), Name: "x"})
	assert.True(t, errors.Is(err, errors.CodeConfiguration))
	assert.Equal(t, int64(0), settlement.Version())
}
