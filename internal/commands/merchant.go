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
	"github.com/estatepay/estatepay-backend/internal/projections/merchantbalance"
	"github.com/estatepay/estatepay-backend/pkg/errors"
	"github.com/estatepay/estatepay-backend/pkg/logger"
)

// MerchantService handles merchant lifecycle and balance-moving
// commands. Withdrawals are gated on the balance projection's available
// balance before the event is issued.
type MerchantService struct {
	merchants *repository.Repository[*aggregates.Merchant]
	estates   *repository.Repository[*aggregates.Estate]
	balances  merchantbalance.Repository
	logg      *logger.Logger
}

func NewMerchantService(store eventstore.Store, registry *events.Registry, balances merchantbalance.Repository, logg *logger.Logger) *MerchantService {
	return &MerchantService{
		merchants: repository.New(store, registry, aggregates.NewMerchant),
		estates:   repository.New(store, registry, aggregates.NewEstate),
		balances:  balances,
		logg:      logg,
	}
}

func (s *MerchantService) CreateMerchant(ctx context.Context, estateID uuid.UUID, name string) (uuid.UUID, error) {
	estate, err := s.estates.GetLatestVersion(ctx, estateID)
	if err != nil {
		return uuid.Nil, err
	}
	if !estate.IsCreated() {
		return uuid.Nil, errors.New(errors.CodeNotFound, fmt.Sprintf("estate %s not found", estateID))
	}

	merchantID := uuid.New()
	merchant := aggregates.NewMerchant(merchantID)
	if err := merchant.Create(estateID, name); err != nil {
		return uuid.Nil, err
	}
	if err := s.merchants.SaveChanges(ctx, merchant); err != nil {
		return uuid.Nil, err
	}
	ctx = s.logg.WithMerchantID(s.logg.WithEstateID(ctx, estateID.String()), merchantID.String())
	s.logg.Info(ctx, "merchant created")
	return merchantID, nil
}

type AssignOperatorParams struct {
	MerchantID     uuid.UUID
	OperatorID     uuid.UUID
	MerchantNumber string
	TerminalNumber string
}

// AssignOperator assigns an estate-enabled operator to a merchant.
func (s *MerchantService) AssignOperator(ctx context.Context, params AssignOperatorParams) error {
	return withConflictRetry(ctx, func(ctx context.Context) error {
		merchant, err := s.merchants.GetLatestVersion(ctx, params.MerchantID)
		if err != nil {
			return err
		}
		if !merchant.IsCreated() {
			return errors.New(errors.CodeNotFound, fmt.Sprintf("merchant %s not found", params.MerchantID))
		}

		estate, err := s.estates.GetLatestVersion(ctx, merchant.EstateID)
		if err != nil {
			return err
		}
		if !estate.HasOperator(params.OperatorID) {
			return errors.New(errors.CodeStateConflict, fmt.Sprintf("operator %s not enabled for estate %s", params.OperatorID, merchant.EstateID))
		}

		if err := merchant.AssignOperator(params.OperatorID, params.MerchantNumber, params.TerminalNumber); err != nil {
			return err
		}
		return s.merchants.SaveChanges(ctx, merchant)
	})
}

func (s *MerchantService) AddDevice(ctx context.Context, merchantID uuid.UUID, deviceIdentifier string) (uuid.UUID, error) {
	deviceID := uuid.New()
	err := withConflictRetry(ctx, func(ctx context.Context) error {
		merchant, err := s.merchants.GetLatestVersion(ctx, merchantID)
		if err != nil {
			return err
		}
		if !merchant.IsCreated() {
			return errors.New(errors.CodeNotFound, fmt.Sprintf("merchant %s not found", merchantID))
		}
		if err := merchant.AddDevice(deviceID, deviceIdentifier); err != nil {
			return err
		}
		return s.merchants.SaveChanges(ctx, merchant)
	})
	if err != nil {
		return uuid.Nil, err
	}
	return deviceID, nil
}

func (s *MerchantService) MakeManualDeposit(ctx context.Context, merchantID uuid.UUID, reference string, amount decimal.Decimal) (uuid.UUID, error) {
	depositID := uuid.New()
	err := withConflictRetry(ctx, func(ctx context.Context) error {
		merchant, err := s.merchants.GetLatestVersion(ctx, merchantID)
		if err != nil {
			return err
		}
		if !merchant.IsCreated() {
			return errors.New(errors.CodeNotFound, fmt.Sprintf("merchant %s not found", merchantID))
		}
		if err := merchant.MakeManualDeposit(depositID, reference, amount, timeNowUTC()); err != nil {
			return err
		}
		return s.merchants.SaveChanges(ctx, merchant)
	})
	if err != nil {
		return uuid.Nil, err
	}
	return depositID, nil
}

// MakeWithdrawal debits the merchant balance. The available balance
// check reads the projection snapshot, which trails the stream by the
// dispatcher's lag; a withdrawal racing an unprojected debit is caught
// by the projection going negative and flagged in reconciliation, not
// prevented here.
func (s *MerchantService) MakeWithdrawal(ctx context.Context, merchantID uuid.UUID, reference string, amount decimal.Decimal) (uuid.UUID, error) {
	withdrawalID := uuid.New()
	err := withConflictRetry(ctx, func(ctx context.Context) error {
		merchant, err := s.merchants.GetLatestVersion(ctx, merchantID)
		if err != nil {
			return err
		}
		if !merchant.IsCreated() {
			return errors.New(errors.CodeNotFound, fmt.Sprintf("merchant %s not found", merchantID))
		}

		snapshot, err := s.balances.Load(ctx, merchant.EstateID, merchantID)
		if err != nil {
			return err
		}
		if snapshot.AvailableBalance.LessThan(amount) {
			return errors.New(errors.CodeStateConflict, "insufficient available balance")
		}

		if err := merchant.MakeWithdrawal(withdrawalID, reference, amount, timeNowUTC()); err != nil {
			return err
		}
		return s.merchants.SaveChanges(ctx, merchant)
	})
	if err != nil {
		return uuid.Nil, err
	}
	return withdrawalID, nil
}
