package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/estatepay/estatepay-backend/pkg/enums"
)

// FloatCreatedForTransaction opens a float stream for a merchant and
// operator pair.
type FloatCreatedForTransaction struct {
	FloatID    uuid.UUID `json:"floatId"`
	EstateID   uuid.UUID `json:"estateId"`
	MerchantID uuid.UUID `json:"merchantId"`
	OperatorID uuid.UUID `json:"operatorId"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (FloatCreatedForTransaction) EventType() enums.EventType { return enums.EventFloatCreated }

// FloatCreditPurchased tops up the float with purchased operator credit.
type FloatCreditPurchased struct {
	FloatID     uuid.UUID       `json:"floatId"`
	EstateID    uuid.UUID       `json:"estateId"`
	MerchantID  uuid.UUID       `json:"merchantId"`
	Reference   string          `json:"reference"`
	Amount      decimal.Decimal `json:"amount"`
	PurchasedAt time.Time       `json:"purchasedAt"`
}

func (FloatCreditPurchased) EventType() enums.EventType { return enums.EventFloatCreditPurchased }

// FloatDecreasedByTransaction draws down the float for one sale.
type FloatDecreasedByTransaction struct {
	FloatID       uuid.UUID       `json:"floatId"`
	EstateID      uuid.UUID       `json:"estateId"`
	MerchantID    uuid.UUID       `json:"merchantId"`
	TransactionID uuid.UUID       `json:"transactionId"`
	Amount        decimal.Decimal `json:"amount"`
	DecreasedAt   time.Time       `json:"decreasedAt"`
}

func (FloatDecreasedByTransaction) EventType() enums.EventType { return enums.EventFloatDecreased }
