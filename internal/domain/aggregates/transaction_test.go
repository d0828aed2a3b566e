package aggregates

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estatepay/estatepay-backend/internal/domain/events"
	"github.com/estatepay/estatepay-backend/pkg/enums"
	"github.com/estatepay/estatepay-backend/pkg/errors"
)

func startedTransaction(t *testing.T) *Transaction {
	t.Helper()
	txn := NewTransaction(uuid.New())
	require.NoError(t, txn.Start(uuid.New(), uuid.New(), "term-001", enums.TransactionSale, 1, time.Now()))
	return txn
}

func TestTransactionSaleFlow(t *testing.T) {
	txn := startedTransaction(t)
	amount := decimal.RequireFromString("10.00")

	require.NoError(t, txn.AddProductDetails(uuid.New(), uuid.New(), uuid.New(), amount))
	require.NoError(t, txn.AuthoriseLocally(enums.ResponseCodeSuccess))
	require.NoError(t, txn.Complete(time.Now()))

	assert.True(t, txn.IsAuthorised())
	assert.True(t, txn.IsCompleted())
	assert.Equal(t, enums.ResponseCodeSuccess, txn.ResponseCode)

	pending := txn.PendingEvents()
	require.Len(t, pending, 4)
	completed, ok := pending[3].(events.TransactionHasBeenCompleted)
	require.True(t, ok)
	assert.True(t, completed.TransactionAmount.Equal(amount))
	assert.True(t, completed.IsAuthorised)
	assert.Equal(t, enums.TransactionSale, completed.TransactionType)
}

func TestTransactionDeclineFlow(t *testing.T) {
	txn := startedTransaction(t)
	require.NoError(t, txn.AddProductDetails(uuid.New(), uuid.New(), uuid.New(), decimal.RequireFromString("25.00")))
	require.NoError(t, txn.DeclineLocally(enums.ResponseCodeNoFloat, "insufficient float"))
	require.NoError(t, txn.Complete(time.Now()))

	assert.True(t, txn.IsDeclined())
	assert.False(t, txn.IsAuthorised())

	err := txn.AddMerchantFeePendingSettlement(uuid.New(), "txn fee", enums.CalculationFixed, enums.FeeTypeMerchant, decimal.New(1, 0), decimal.New(1, 0))
	assert.True(t, errors.Is(err, errors.CodeStateConflict), "declined transactions accrue no fees: %v", err)
}

func TestTransactionFeeSettlement(t *testing.T) {
	txn := startedTransaction(t)
	require.NoError(t, txn.AddProductDetails(uuid.New(), uuid.New(), uuid.New(), decimal.RequireFromString("100.00")))
	require.NoError(t, txn.AuthoriseByOperator(enums.ResponseCodeSuccess, "op-ref-9", ""))
	require.NoError(t, txn.Complete(time.Now()))

	feeID := uuid.New()
	calculated := decimal.RequireFromString("2.50")
	require.NoError(t, txn.AddMerchantFeePendingSettlement(feeID, "merchant txn fee", enums.CalculationPercentage, enums.FeeTypeMerchant, decimal.RequireFromString("2.5"), calculated))
	require.Equal(t, []uuid.UUID{feeID}, txn.PendingFees())

	settlementID := uuid.New()
	require.NoError(t, txn.AddSettledMerchantFee(feeID, settlementID, time.Now()))
	assert.Empty(t, txn.PendingFees())

	err := txn.AddSettledMerchantFee(feeID, settlementID, time.Now())
	assert.True(t, errors.Is(err, errors.CodeStateConflict), "double settle: %v", err)

	err = txn.AddSettledMerchantFee(uuid.New(), settlementID, time.Now())
	assert.True(t, errors.Is(err, errors.CodeNotFound), "unknown fee: %v", err)
}

func TestTransactionGuards(t *testing.T) {
	txn := NewTransaction(uuid.New())

	err := txn.Complete(time.Now())
	assert.True(t, errors.Is(err, errors.CodeStateConflict), "complete before start: %v", err)

	require.NoError(t, txn.Start(uuid.New(), uuid.New(), "term-002", enums.TransactionSale, 7, time.Now()))
	err = txn.Start(uuid.New(), uuid.New(), "term-002", enums.TransactionSale, 8, time.Now())
	assert.True(t, errors.Is(err, errors.CodeStateConflict), "double start: %v", err)

	err = txn.Complete(time.Now())
	assert.True(t, errors.Is(err, errors.CodeStateConflict), "complete without decision: %v", err)

	require.NoError(t, txn.AuthoriseLocally(enums.ResponseCodeSuccess))
	err = txn.DeclineLocally(enums.ResponseCodeNoFloat, "late decline")
	assert.True(t, errors.Is(err, errors.CodeStateConflict), "decision after decision: %v", err)

	require.NoError(t, txn.Complete(time.Now()))
	err = txn.RecordAdditionalRequestData(map[string]string{"batchNumber": "12"})
	assert.True(t, errors.Is(err, errors.CodeStateConflict), "data after completion: %v", err)
}

func TestTransactionReplayMatchesLiveState(t *testing.T) {
	live := startedTransaction(t)
	require.NoError(t, live.AddProductDetails(uuid.New(), uuid.New(), uuid.New(), decimal.RequireFromString("42.00")))
	require.NoError(t, live.AuthoriseLocally(enums.ResponseCodeSuccess))
	require.NoError(t, live.Complete(time.Now()))

	replayed := NewTransaction(live.AggregateID())
	for _, event := range live.PendingEvents() {
		require.NoError(t, replayed.Apply(event))
	}

	assert.Equal(t, live.Version(), replayed.Version())
	assert.Equal(t, live.IsCompleted(), replayed.IsCompleted())
	assert.Equal(t, live.ResponseCode, replayed.ResponseCode)
	assert.True(t, live.TransactionAmount.Equal(replayed.TransactionAmount))
	assert.Empty(t, replayed.PendingEvents(), "replay must not queue events")
}
