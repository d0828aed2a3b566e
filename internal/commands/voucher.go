package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/estatepay/estatepay-backend/internal/domain/aggregates"
	"github.com/estatepay/estatepay-backend/internal/domain/aggregates/repository"
	"github.com/estatepay/estatepay-backend/internal/domain/events"
	"github.com/estatepay/estatepay-backend/internal/eventstore"
	"github.com/estatepay/estatepay-backend/pkg/errors"
	"github.com/estatepay/estatepay-backend/pkg/logger"
)

// VoucherService handles the voucher lifecycle: generate, issue via a
// sale transaction, redeem.
type VoucherService struct {
	vouchers *repository.Repository[*aggregates.Voucher]
	logg     *logger.Logger
}

func NewVoucherService(store eventstore.Store, registry *events.Registry, logg *logger.Logger) *VoucherService {
	return &VoucherService{
		vouchers: repository.New(store, registry, aggregates.NewVoucher),
		logg:     logg,
	}
}

type GenerateVoucherParams struct {
	EstateID    uuid.UUID
	MerchantID  uuid.UUID
	VoucherCode string
	Value       decimal.Decimal
}

func (s *VoucherService) GenerateVoucher(ctx context.Context, params GenerateVoucherParams) (uuid.UUID, error) {
	voucherID := uuid.New()
	voucher := aggregates.NewVoucher(voucherID)
	if err := voucher.Generate(params.EstateID, params.MerchantID, params.VoucherCode, params.Value, timeNowUTC()); err != nil {
		return uuid.Nil, err
	}
	if err := s.vouchers.SaveChanges(ctx, voucher); err != nil {
		return uuid.Nil, err
	}
	return voucherID, nil
}

func (s *VoucherService) IssueVoucher(ctx context.Context, voucherID, transactionID uuid.UUID) error {
	return withConflictRetry(ctx, func(ctx context.Context) error {
		voucher, err := s.loadVoucher(ctx, voucherID)
		if err != nil {
			return err
		}
		if err := voucher.Issue(transactionID, timeNowUTC()); err != nil {
			return err
		}
		return s.vouchers.SaveChanges(ctx, voucher)
	})
}

func (s *VoucherService) RedeemVoucher(ctx context.Context, voucherID uuid.UUID) error {
	return withConflictRetry(ctx, func(ctx context.Context) error {
		voucher, err := s.loadVoucher(ctx, voucherID)
		if err != nil {
			return err
		}
		if err := voucher.Redeem(timeNowUTC()); err != nil {
			return err
		}
		return s.vouchers.SaveChanges(ctx, voucher)
	})
}

func (s *VoucherService) loadVoucher(ctx context.Context, voucherID uuid.UUID) (*aggregates.Voucher, error) {
	voucher, err := s.vouchers.GetLatestVersion(ctx, voucherID)
	if err != nil {
		return nil, err
	}
	if !voucher.IsCreated() {
		return nil, errors.New(errors.CodeNotFound, fmt.Sprintf("voucher %s not found", voucherID))
	}
	return voucher, nil
}
