package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/estatepay/estatepay-backend/internal/domain/aggregates"
	"github.com/estatepay/estatepay-backend/internal/domain/aggregates/repository"
	"github.com/estatepay/estatepay-backend/internal/domain/events"
	"github.com/estatepay/estatepay-backend/internal/eventstore"
	"github.com/estatepay/estatepay-backend/pkg/errors"
	"github.com/estatepay/estatepay-backend/pkg/logger"
)

// EstateService handles estate and operator lifecycle commands.
type EstateService struct {
	estates   *repository.Repository[*aggregates.Estate]
	operators *repository.Repository[*aggregates.Operator]
	logg      *logger.Logger
}

func NewEstateService(store eventstore.Store, registry *events.Registry, logg *logger.Logger) *EstateService {
	return &EstateService{
		estates:   repository.New(store, registry, aggregates.NewEstate),
		operators: repository.New(store, registry, aggregates.NewOperator),
		logg:      logg,
	}
}

type CreateEstateParams struct {
	Name      string
	Reference string
}

func (s *EstateService) CreateEstate(ctx context.Context, params CreateEstateParams) (uuid.UUID, error) {
	estateID := uuid.New()
	estate := aggregates.NewEstate(estateID)
	if err := estate.Create(params.Name, params.Reference); err != nil {
		return uuid.Nil, err
	}
	if err := s.estates.SaveChanges(ctx, estate); err != nil {
		return uuid.Nil, err
	}
	ctx = s.logg.WithEstateID(ctx, estateID.String())
	s.logg.Info(ctx, "estate created")
	return estateID, nil
}

type CreateOperatorParams struct {
	Name                        string
	RequireCustomMerchantNumber bool
	RequireCustomTerminalNumber bool
}

func (s *EstateService) CreateOperator(ctx context.Context, params CreateOperatorParams) (uuid.UUID, error) {
	operatorID := uuid.New()
	operator := aggregates.NewOperator(operatorID)
	if err := operator.Create(params.Name, params.RequireCustomMerchantNumber, params.RequireCustomTerminalNumber); err != nil {
		return uuid.Nil, err
	}
	if err := s.operators.SaveChanges(ctx, operator); err != nil {
		return uuid.Nil, err
	}
	return operatorID, nil
}

// AddOperatorToEstate enables an existing operator for an estate. The
// operator's display name is copied onto the estate event so estate
// consumers never need the operator stream.
func (s *EstateService) AddOperatorToEstate(ctx context.Context, estateID, operatorID uuid.UUID) error {
	operator, err := s.operators.GetLatestVersion(ctx, operatorID)
	if err != nil {
		return err
	}
	if !operator.IsCreated() {
		return errors.New(errors.CodeNotFound, fmt.Sprintf("operator %s not found", operatorID))
	}

	return withConflictRetry(ctx, func(ctx context.Context) error {
		estate, err := s.estates.GetLatestVersion(ctx, estateID)
		if err != nil {
			return err
		}
		if !estate.IsCreated() {
			return errors.New(errors.CodeNotFound, fmt.Sprintf("estate %s not found", estateID))
		}
		if err := estate.AddOperator(operatorID, operator.Name); err != nil {
			return err
		}
		return s.estates.SaveChanges(ctx, estate)
	})
}
