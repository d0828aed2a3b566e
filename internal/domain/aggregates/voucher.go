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

// Voucher moves through generated, issued and fully redeemed, strictly
// in that order.
type Voucher struct {
	Base

	EstateID    uuid.UUID
	MerchantID  uuid.UUID
	VoucherCode string
	Value       decimal.Decimal

	issued   bool
	redeemed bool
}

func NewVoucher(id uuid.UUID) *Voucher {
	v := &Voucher{}
	v.setID(id)
	return v
}

func (v *Voucher) AggregateType() enums.AggregateType { return enums.AggregateVoucher }

func (v *Voucher) Apply(payload events.Payload) error {
	switch event := payload.(type) {
	case events.VoucherGenerated:
		v.setID(event.VoucherID)
		v.EstateID = event.EstateID
		v.MerchantID = event.MerchantID
		v.VoucherCode = event.VoucherCode
		v.Value = event.Value
		v.markCreated()
	case events.VoucherIssued:
		v.issued = true
	case events.VoucherFullyRedeemed:
		v.redeemed = true
	default:
		return errors.New(errors.CodeConfiguration, fmt.Sprintf("voucher cannot apply %s", payload.EventType()))
	}
	v.advance()
	return nil
}

// IsIssued reports whether the voucher has been handed to a customer.
func (v *Voucher) IsIssued() bool { return v.issued }

// IsRedeemed reports whether the voucher value has been fully consumed.
func (v *Voucher) IsRedeemed() bool { return v.redeemed }

func (v *Voucher) Generate(estateID, merchantID uuid.UUID, voucherCode string, value decimal.Decimal, generatedAt time.Time) error {
	if v.IsCreated() {
		return errors.New(errors.CodeStateConflict, "voucher already generated")
	}
	if voucherCode == "" {
		return errors.New(errors.CodeValidation, "voucher code is required")
	}
	if !value.IsPositive() {
		return errors.New(errors.CodeValidation, "voucher value must be positive")
	}
	return raise(v, events.VoucherGenerated{
		VoucherID:   v.AggregateID(),
		EstateID:    estateID,
		MerchantID:  merchantID,
		VoucherCode: voucherCode,
		Value:       value,
		GeneratedAt: generatedAt,
	})
}

func (v *Voucher) Issue(transactionID uuid.UUID, issuedAt time.Time) error {
	if !v.IsCreated() {
		return errors.New(errors.CodeStateConflict, "voucher not generated")
	}
	if v.issued {
		return errors.New(errors.CodeStateConflict, "voucher already issued")
	}
	return raise(v, events.VoucherIssued{
		VoucherID:     v.AggregateID(),
		EstateID:      v.EstateID,
		MerchantID:    v.MerchantID,
		TransactionID: transactionID,
		IssuedAt:      issuedAt,
	})
}

func (v *Voucher) Redeem(redeemedAt time.Time) error {
	if !v.IsCreated() {
		return errors.New(errors.CodeStateConflict, "voucher not generated")
	}
	if !v.issued {
		return errors.New(errors.CodeStateConflict, "voucher not issued")
	}
	if v.redeemed {
		return errors.New(errors.CodeStateConflict, "voucher already redeemed")
	}
	return raise(v, events.VoucherFullyRedeemed{
		VoucherID:  v.AggregateID(),
		EstateID:   v.EstateID,
		MerchantID: v.MerchantID,
		RedeemedAt: redeemedAt,
	})
}
