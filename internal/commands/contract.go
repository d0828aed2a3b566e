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
	"github.com/estatepay/estatepay-backend/pkg/enums"
	"github.com/estatepay/estatepay-backend/pkg/errors"
	"github.com/estatepay/estatepay-backend/pkg/logger"
)

// ContractService handles contract catalogue commands.
type ContractService struct {
	contracts *repository.Repository[*aggregates.Contract]
	estates   *repository.Repository[*aggregates.Estate]
	logg      *logger.Logger
}

func NewContractService(store eventstore.Store, registry *events.Registry, logg *logger.Logger) *ContractService {
	return &ContractService{
		contracts: repository.New(store, registry, aggregates.NewContract),
		estates:   repository.New(store, registry, aggregates.NewEstate),
		logg:      logg,
	}
}

// CreateContract binds an operator's catalogue to an estate. The
// operator must already be enabled for the estate.
func (s *ContractService) CreateContract(ctx context.Context, estateID, operatorID uuid.UUID, description string) (uuid.UUID, error) {
	estate, err := s.estates.GetLatestVersion(ctx, estateID)
	if err != nil {
		return uuid.Nil, err
	}
	if !estate.IsCreated() {
		return uuid.Nil, errors.New(errors.CodeNotFound, fmt.Sprintf("estate %s not found", estateID))
	}
	if !estate.HasOperator(operatorID) {
		return uuid.Nil, errors.New(errors.CodeStateConflict, fmt.Sprintf("operator %s not enabled for estate %s", operatorID, estateID))
	}

	contractID := uuid.New()
	contract := aggregates.NewContract(contractID)
	if err := contract.Create(estateID, operatorID, description); err != nil {
		return uuid.Nil, err
	}
	if err := s.contracts.SaveChanges(ctx, contract); err != nil {
		return uuid.Nil, err
	}
	return contractID, nil
}

type AddProductParams struct {
	ContractID  uuid.UUID
	Name        string
	DisplayText string
	// Value is nil for variable-value products.
	Value *decimal.Decimal
}

func (s *ContractService) AddProduct(ctx context.Context, params AddProductParams) (uuid.UUID, error) {
	productID := uuid.New()
	err := withConflictRetry(ctx, func(ctx context.Context) error {
		contract, err := s.contracts.GetLatestVersion(ctx, params.ContractID)
		if err != nil {
			return err
		}
		if !contract.IsCreated() {
			return errors.New(errors.CodeNotFound, fmt.Sprintf("contract %s not found", params.ContractID))
		}
		if params.Value != nil {
			if err := contract.AddFixedValueProduct(productID, params.Name, params.DisplayText, *params.Value); err != nil {
				return err
			}
		} else {
			if err := contract.AddVariableValueProduct(productID, params.Name, params.DisplayText); err != nil {
				return err
			}
		}
		return s.contracts.SaveChanges(ctx, contract)
	})
	if err != nil {
		return uuid.Nil, err
	}
	return productID, nil
}

type AddProductFeeParams struct {
	ContractID      uuid.UUID
	ProductID       uuid.UUID
	Description     string
	CalculationType enums.CalculationType
	FeeType         enums.FeeType
	Value           decimal.Decimal
}

func (s *ContractService) AddProductFee(ctx context.Context, params AddProductFeeParams) (uuid.UUID, error) {
	feeID := uuid.New()
	err := withConflictRetry(ctx, func(ctx context.Context) error {
		contract, err := s.contracts.GetLatestVersion(ctx, params.ContractID)
		if err != nil {
			return err
		}
		if !contract.IsCreated() {
			return errors.New(errors.CodeNotFound, fmt.Sprintf("contract %s not found", params.ContractID))
		}
		if err := contract.AddTransactionFeeForProduct(params.ProductID, feeID, params.Description, params.CalculationType, params.FeeType, params.Value); err != nil {
			return err
		}
		return s.contracts.SaveChanges(ctx, contract)
	})
	if err != nil {
		return uuid.Nil, err
	}
	return feeID, nil
}
