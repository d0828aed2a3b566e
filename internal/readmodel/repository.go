// Package readmodel maintains the flattened relational query views.
// Each write method consumes exactly one event type. Inserts are
// idempotent via do-nothing conflict clauses; updates rewrite the same
// values on redelivery.
package readmodel

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/estatepay/estatepay-backend/internal/domain/events"
	"github.com/estatepay/estatepay-backend/pkg/db"
	"github.com/estatepay/estatepay-backend/pkg/db/models"
	"github.com/estatepay/estatepay-backend/pkg/enums"
	"github.com/estatepay/estatepay-backend/pkg/errors"
)

type Repository struct {
	client *db.Client
}

func NewRepository(client *db.Client) *Repository {
	return &Repository{client: client}
}

func (r *Repository) insert(ctx context.Context, row any, conflictColumns []clause.Column, what string) error {
	err := r.client.DB().WithContext(ctx).
		Clauses(clause.OnConflict{Columns: conflictColumns, DoNothing: true}).
		Create(row).Error
	if err != nil {
		return errors.Wrap(errors.CodeDependency, err, fmt.Sprintf("insert %s", what))
	}
	return nil
}

func (r *Repository) AddEstate(ctx context.Context, event events.EstateCreated) error {
	row := models.Estate{
		EstateID:  event.EstateID,
		Name:      event.Name,
		Reference: event.Reference,
	}
	return r.insert(ctx, &row, []clause.Column{{Name: "estate_id"}}, "estate")
}

func (r *Repository) AddOperator(ctx context.Context, event events.OperatorCreated) error {
	row := models.Operator{
		OperatorID:                  event.OperatorID,
		Name:                        event.Name,
		RequireCustomMerchantNumber: event.RequireCustomMerchantNumber,
		RequireCustomTerminalNumber: event.RequireCustomTerminalNumber,
	}
	return r.insert(ctx, &row, []clause.Column{{Name: "operator_id"}}, "operator")
}

func (r *Repository) AddOperatorToEstate(ctx context.Context, event events.OperatorAddedToEstate) error {
	row := models.EstateOperator{
		EstateID:   event.EstateID,
		OperatorID: event.OperatorID,
		Name:       event.Name,
	}
	columns := []clause.Column{{Name: "estate_id"}, {Name: "operator_id"}}
	return r.insert(ctx, &row, columns, "estate operator")
}

func (r *Repository) AddMerchant(ctx context.Context, event events.MerchantCreated) error {
	row := models.Merchant{
		MerchantID: event.MerchantID,
		EstateID:   event.EstateID,
		Name:       event.Name,
	}
	return r.insert(ctx, &row, []clause.Column{{Name: "merchant_id"}}, "merchant")
}

func (r *Repository) AssignOperatorToMerchant(ctx context.Context, event events.OperatorAssignedToMerchant) error {
	row := models.MerchantOperator{
		MerchantID:     event.MerchantID,
		OperatorID:     event.OperatorID,
		MerchantNumber: event.MerchantNumber,
		TerminalNumber: event.TerminalNumber,
	}
	columns := []clause.Column{{Name: "merchant_id"}, {Name: "operator_id"}}
	return r.insert(ctx, &row, columns, "merchant operator")
}

func (r *Repository) AddMerchantDevice(ctx context.Context, event events.DeviceAddedToMerchant) error {
	row := models.MerchantDevice{
		MerchantID:       event.MerchantID,
		DeviceID:         event.DeviceID,
		DeviceIdentifier: event.DeviceIdentifier,
	}
	columns := []clause.Column{{Name: "merchant_id"}, {Name: "device_id"}}
	return r.insert(ctx, &row, columns, "merchant device")
}

func (r *Repository) AddContract(ctx context.Context, event events.ContractCreated) error {
	row := models.Contract{
		ContractID:  event.ContractID,
		EstateID:    event.EstateID,
		OperatorID:  event.OperatorID,
		Description: event.Description,
	}
	return r.insert(ctx, &row, []clause.Column{{Name: "contract_id"}}, "contract")
}

func (r *Repository) AddFixedValueProduct(ctx context.Context, event events.FixedValueProductAdded) error {
	value := event.Value
	row := models.ContractProduct{
		ProductID:   event.ProductID,
		ContractID:  event.ContractID,
		Name:        event.Name,
		DisplayText: event.DisplayText,
		Value:       &value,
		ProductType: enums.ProductFixed,
	}
	return r.insert(ctx, &row, []clause.Column{{Name: "product_id"}}, "contract product")
}

func (r *Repository) AddVariableValueProduct(ctx context.Context, event events.VariableValueProductAdded) error {
	row := models.ContractProduct{
		ProductID:   event.ProductID,
		ContractID:  event.ContractID,
		Name:        event.Name,
		DisplayText: event.DisplayText,
		ProductType: enums.ProductVariable,
	}
	return r.insert(ctx, &row, []clause.Column{{Name: "product_id"}}, "contract product")
}

func (r *Repository) AddContractProductFee(ctx context.Context, event events.TransactionFeeForProductAdded) error {
	row := models.ContractProductFee{
		FeeID:           event.FeeID,
		ProductID:       event.ProductID,
		Description:     event.Description,
		CalculationType: event.CalculationType,
		FeeType:         event.FeeType,
		Value:           event.Value,
	}
	return r.insert(ctx, &row, []clause.Column{{Name: "fee_id"}}, "product fee")
}

func (r *Repository) AddFloat(ctx context.Context, event events.FloatCreatedForTransaction) error {
	row := models.Float{
		FloatID:          event.FloatID,
		EstateID:         event.EstateID,
		MerchantID:       event.MerchantID,
		OperatorID:       event.OperatorID,
		TotalCredit:      decimal.Zero,
		AvailableBalance: decimal.Zero,
	}
	return r.insert(ctx, &row, []clause.Column{{Name: "float_id"}}, "float")
}

func (r *Repository) RecordFloatCreditPurchase(ctx context.Context, eventID uuid.UUID, event events.FloatCreditPurchased) error {
	movement := models.FloatMovement{
		EventID:   eventID,
		FloatID:   event.FloatID,
		Reference: event.Reference,
		Amount:    event.Amount,
		Credit:    true,
		MovedAt:   event.PurchasedAt,
	}
	return r.adjustFloat(ctx, movement, event.Amount, event.Amount)
}

func (r *Repository) RecordFloatDecrease(ctx context.Context, eventID uuid.UUID, event events.FloatDecreasedByTransaction) error {
	movement := models.FloatMovement{
		EventID:   eventID,
		FloatID:   event.FloatID,
		Reference: event.TransactionID.String(),
		Amount:    event.Amount,
		Credit:    false,
		MovedAt:   event.DecreasedAt,
	}
	return r.adjustFloat(ctx, movement, decimal.Zero, event.Amount.Neg())
}

// adjustFloat applies an additive balance change exactly once per
// causing event. The movement insert dedupes redeliveries; the balance
// update only runs when the movement is new.
func (r *Repository) adjustFloat(ctx context.Context, movement models.FloatMovement, creditDelta, balanceDelta decimal.Decimal) error {
	err := r.client.WithTx(ctx, func(tx *gorm.DB) error {
		insert := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).Create(&movement)
		if insert.Error != nil {
			return insert.Error
		}
		if insert.RowsAffected == 0 {
			return nil
		}
		return tx.Model(&models.Float{}).
			Where("float_id = ?", movement.FloatID).
			Updates(map[string]any{
				"total_credit":      gorm.Expr("total_credit + ?", creditDelta),
				"available_balance": gorm.Expr("available_balance + ?", balanceDelta),
			}).Error
	})
	if err != nil {
		return errors.Wrap(errors.CodeDependency, err, "adjust float")
	}
	return nil
}
