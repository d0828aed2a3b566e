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

// FloatService manages the prepaid operator credit merchants sell
// against. A merchant has at most one float per operator; the stream ID
// is derived from the pair.
type FloatService struct {
	floats    *repository.Repository[*aggregates.Float]
	merchants *repository.Repository[*aggregates.Merchant]
	logg      *logger.Logger
}

func NewFloatService(store eventstore.Store, registry *events.Registry, logg *logger.Logger) *FloatService {
	return &FloatService{
		floats:    repository.New(store, registry, aggregates.NewFloat),
		merchants: repository.New(store, registry, aggregates.NewMerchant),
		logg:      logg,
	}
}

// CreateFloat opens the float stream for a merchant/operator pair. The
// operator must already be assigned to the merchant.
func (s *FloatService) CreateFloat(ctx context.Context, merchantID, operatorID uuid.UUID) (uuid.UUID, error) {
	merchant, err := s.merchants.GetLatestVersion(ctx, merchantID)
	if err != nil {
		return uuid.Nil, err
	}
	if !merchant.IsCreated() {
		return uuid.Nil, errors.New(errors.CodeNotFound, fmt.Sprintf("merchant %s not found", merchantID))
	}
	if !merchant.HasOperator(operatorID) {
		return uuid.Nil, errors.New(errors.CodeStateConflict, fmt.Sprintf("operator %s not assigned to merchant %s", operatorID, merchantID))
	}

	floatID := deriveFloatID(merchantID, operatorID)
	float, err := s.floats.GetLatestVersion(ctx, floatID)
	if err != nil {
		return uuid.Nil, err
	}
	if err := float.Create(merchant.EstateID, merchantID, operatorID, timeNowUTC()); err != nil {
		return uuid.Nil, err
	}
	if err := s.floats.SaveChanges(ctx, float); err != nil {
		return uuid.Nil, err
	}
	return floatID, nil
}

// PurchaseCredit tops up the merchant's float for an operator.
func (s *FloatService) PurchaseCredit(ctx context.Context, merchantID, operatorID uuid.UUID, reference string, amount decimal.Decimal) error {
	floatID := deriveFloatID(merchantID, operatorID)
	return withConflictRetry(ctx, func(ctx context.Context) error {
		float, err := s.floats.GetLatestVersion(ctx, floatID)
		if err != nil {
			return err
		}
		if !float.IsCreated() {
			return errors.New(errors.CodeNotFound, fmt.Sprintf("no float for merchant %s and operator %s", merchantID, operatorID))
		}
		if err := float.PurchaseCredit(reference, amount, timeNowUTC()); err != nil {
			return err
		}
		return s.floats.SaveChanges(ctx, float)
	})
}
