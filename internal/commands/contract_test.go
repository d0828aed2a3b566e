package commands

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estatepay/estatepay-backend/pkg/errors"
)

func TestAddProductRejectsZeroFixedValue(t *testing.T) {
	f := newFixture(t)

	// A zero-value fixed product could never clear the float draw-down,
	// so it is rejected at catalogue time.
	zero := decimal.Zero
	_, err := f.contracts.AddProduct(context.Background(), AddProductParams{
		ContractID:  f.contractID,
		Name:        "Free Airtime",
		DisplayText: "Airtime",
		Value:       &zero,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeValidation), "zero value: %v", err)

	negative := decimal.RequireFromString("-5.00")
	_, err = f.contracts.AddProduct(context.Background(), AddProductParams{
		ContractID:  f.contractID,
		Name:        "Negative Airtime",
		DisplayText: "Airtime",
		Value:       &negative,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeValidation), "negative value: %v", err)
}
