package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/estatepay/estatepay-backend/pkg/enums"
)

// VoucherGenerated creates a voucher with its code and face value.
type VoucherGenerated struct {
	VoucherID   uuid.UUID       `json:"voucherId"`
	EstateID    uuid.UUID       `json:"estateId"`
	MerchantID  uuid.UUID       `json:"merchantId"`
	VoucherCode string          `json:"voucherCode"`
	Value       decimal.Decimal `json:"value"`
	GeneratedAt time.Time       `json:"generatedAt"`
}

func (VoucherGenerated) EventType() enums.EventType { return enums.EventVoucherGenerated }

// VoucherIssued hands the voucher to a customer via a sale transaction.
type VoucherIssued struct {
	VoucherID     uuid.UUID `json:"voucherId"`
	EstateID      uuid.UUID `json:"estateId"`
	MerchantID    uuid.UUID `json:"merchantId"`
	TransactionID uuid.UUID `json:"transactionId"`
	IssuedAt      time.Time `json:"issuedAt"`
}

func (VoucherIssued) EventType() enums.EventType { return enums.EventVoucherIssued }

// VoucherFullyRedeemed terminates the voucher lifecycle once its full
// value has been consumed.
type VoucherFullyRedeemed struct {
	VoucherID  uuid.UUID `json:"voucherId"`
	EstateID   uuid.UUID `json:"estateId"`
	MerchantID uuid.UUID `json:"merchantId"`
	RedeemedAt time.Time `json:"redeemedAt"`
}

func (VoucherFullyRedeemed) EventType() enums.EventType { return enums.EventVoucherFullyRedeemed }
