package commands

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estatepay/estatepay-backend/pkg/enums"
)

type stubTotals struct {
	count int
	value decimal.Decimal
}

func (s stubTotals) SaleTotals(context.Context, uuid.UUID, uuid.UUID, time.Time) (int, decimal.Decimal, error) {
	return s.count, s.value, nil
}

func TestProcessReconciliationMatchingTotalsAuthorises(t *testing.T) {
	f := newFixture(t)
	recons := NewReconciliationService(f.store, f.registry, stubTotals{count: 3, value: decimal.RequireFromString("45.00")}, testLogger())

	outcome, err := recons.ProcessReconciliation(context.Background(), ReconcileParams{
		EstateID:         f.estateID,
		MerchantID:       f.merchantID,
		DeviceIdentifier: f.device,
		SaleCount:        3,
		SaleValue:        decimal.RequireFromString("45.00"),
	})
	require.NoError(t, err)
	assert.True(t, outcome.Authorised)
	assert.Equal(t, enums.ResponseCodeSuccess, outcome.ResponseCode)
}

func TestProcessReconciliationMismatchedTotalsDeclines(t *testing.T) {
	f := newFixture(t)
	recons := NewReconciliationService(f.store, f.registry, stubTotals{count: 3, value: decimal.RequireFromString("45.00")}, testLogger())

	outcome, err := recons.ProcessReconciliation(context.Background(), ReconcileParams{
		EstateID:         f.estateID,
		MerchantID:       f.merchantID,
		DeviceIdentifier: f.device,
		SaleCount:        2,
		SaleValue:        decimal.RequireFromString("30.00"),
	})
	require.NoError(t, err)
	assert.False(t, outcome.Authorised)
	assert.Equal(t, enums.ResponseCodeTotalsMismatch, outcome.ResponseCode)
	assert.Contains(t, outcome.ResponseMessage, "host totals 3/45")
}

func TestProcessReconciliationUnknownDeviceDeclines(t *testing.T) {
	f := newFixture(t)
	recons := NewReconciliationService(f.store, f.registry, stubTotals{}, testLogger())

	outcome, err := recons.ProcessReconciliation(context.Background(), ReconcileParams{
		EstateID:         f.estateID,
		MerchantID:       f.merchantID,
		DeviceIdentifier: "never-registered",
		SaleCount:        0,
		SaleValue:        decimal.Zero,
	})
	require.NoError(t, err)
	assert.False(t, outcome.Authorised)
	assert.Equal(t, enums.ResponseCodeUnknownDevice, outcome.ResponseCode)
}
