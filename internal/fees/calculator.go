// Package fees computes fee amounts from a product's fee schedule.
// Pure arithmetic, no I/O; everything is fixed-point decimal.
package fees

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/estatepay/estatepay-backend/pkg/enums"
	"github.com/estatepay/estatepay-backend/pkg/errors"
)

var oneHundred = decimal.NewFromInt(100)

// FeeToCalculate is one fee schedule entry as configured on a contract
// product.
type FeeToCalculate struct {
	FeeID           uuid.UUID
	Description     string
	CalculationType enums.CalculationType
	FeeType         enums.FeeType
	Value           decimal.Decimal
}

// CalculatedFee echoes the input fee with its computed monetary value.
type CalculatedFee struct {
	FeeToCalculate
	CalculatedValue decimal.Decimal
}

// CalculateFees computes every fee in the schedule against the
// transaction amount, preserving input order. Percentage fees take
// value/100 of the amount; fixed fees ignore the amount. Results round
// half up to 2 decimal places. An unknown calculation type is a
// configuration error, never a silent default.
func CalculateFees(schedule []FeeToCalculate, transactionAmount decimal.Decimal) ([]CalculatedFee, error) {
	calculated := make([]CalculatedFee, 0, len(schedule))
	for _, fee := range schedule {
		var value decimal.Decimal
		switch fee.CalculationType {
		case enums.CalculationPercentage:
			value = fee.Value.Div(oneHundred).Mul(transactionAmount)
		case enums.CalculationFixed:
			value = fee.Value
		default:
			return nil, errors.New(errors.CodeConfiguration, fmt.Sprintf("unknown calculation type %q for fee %s", fee.CalculationType, fee.FeeID))
		}
		calculated = append(calculated, CalculatedFee{
			FeeToCalculate:  fee,
			CalculatedValue: value.Round(2),
		})
	}
	return calculated, nil
}
