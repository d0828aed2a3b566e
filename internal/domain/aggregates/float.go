package aggregates

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/estatepay/estatepay-backend/internal/domain/events"
	"github.com/estatepay/estatepay-backend/pkg/enums"
	"github.com/estatepay/estatepay-backend/pkg/errors"
)

// Float holds the operator credit a merchant draws down when selling
// that operator's products.
type Float struct {
	Base

	EstateID   uuid.UUID
	MerchantID uuid.UUID
	OperatorID uuid.UUID
	Balance    decimal.Decimal
}

func NewFloat(id uuid.UUID) *Float {
	f := &Float{}
	f.setID(id)
	return f
}

func (f *Float) AggregateType() enums.AggregateType { return enums.AggregateFloat }

func (f *Float) Apply(payload events.Payload) error {
	switch event := payload.(type) {
	case events.FloatCreatedForTransaction:
		f.setID(event.FloatID)
		f.EstateID = event.EstateID
		f.MerchantID = event.MerchantID
		f.OperatorID = event.OperatorID
		f.Balance = decimal.Zero
		f.markCreated()
	case events.FloatCreditPurchased:
		f.Balance = f.Balance.Add(event.Amount)
	case events.FloatDecreasedByTransaction:
		f.Balance = f.Balance.Sub(event.Amount)
	default:
		return errors.New(errors.CodeConfiguration, fmt.Sprintf("float cannot apply %s", payload.EventType()))
	}
	f.advance()
	return nil
}

func (f *Float) Create(estateID, merchantID, operatorID uuid.UUID, createdAt time.Time) error {
	if f.IsCreated() {
		return errors.New(errors.CodeStateConflict, "float already created")
	}
	return raise(f, events.FloatCreatedForTransaction{
		FloatID:    f.AggregateID(),
		EstateID:   estateID,
		MerchantID: merchantID,
		OperatorID: operatorID,
		CreatedAt:  createdAt,
	})
}

func (f *Float) PurchaseCredit(reference string, amount decimal.Decimal, purchasedAt time.Time) error {
	if !f.IsCreated() {
		return errors.New(errors.CodeStateConflict, "float not created")
	}
	if !amount.IsPositive() {
		return errors.New(errors.CodeValidation, "credit amount must be positive")
	}
	return raise(f, events.FloatCreditPurchased{
		FloatID:     f.AggregateID(),
		EstateID:    f.EstateID,
		MerchantID:  f.MerchantID,
		Reference:   reference,
		Amount:      amount,
		PurchasedAt: purchasedAt,
	})
}

// DecreaseForTransaction draws down the float for one sale. The float
// never goes negative; a sale exceeding the balance is a state conflict
// the caller maps to a local decline.
func (f *Float) DecreaseForTransaction(transactionID uuid.UUID, amount decimal.Decimal, decreasedAt time.Time) error {
	if !f.IsCreated() {
		return errors.New(errors.CodeStateConflict, "float not created")
	}
	if !amount.IsPositive() {
		return errors.New(errors.CodeValidation, "decrease amount must be positive")
	}
	if f.Balance.LessThan(amount) {
		return errors.New(errors.CodeStateConflict, "insufficient float balance")
	}
	return raise(f, events.FloatDecreasedByTransaction{
		FloatID:       f.AggregateID(),
		EstateID:      f.EstateID,
		MerchantID:    f.MerchantID,
		TransactionID: transactionID,
		Amount:        amount,
		DecreasedAt:   decreasedAt,
	})
}
