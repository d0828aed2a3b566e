package readmodel

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/estatepay/estatepay-backend/internal/domain/events"
	"github.com/estatepay/estatepay-backend/pkg/db/models"
	"github.com/estatepay/estatepay-backend/pkg/errors"
)

func (r *Repository) AddSettlement(ctx context.Context, event events.SettlementCreated) error {
	row := models.Settlement{
		SettlementID:   event.SettlementID,
		EstateID:       event.EstateID,
		MerchantID:     event.MerchantID,
		SettlementDate: event.SettlementDate,
	}
	return r.insert(ctx, &row, []clause.Column{{Name: "settlement_id"}}, "settlement")
}

func (r *Repository) AddSettlementFee(ctx context.Context, event events.MerchantFeeAddedPendingSettlement) error {
	row := models.SettlementFee{
		SettlementID:    event.SettlementID,
		TransactionID:   event.TransactionID,
		FeeID:           event.FeeID,
		CalculatedValue: event.CalculatedValue,
	}
	columns := []clause.Column{{Name: "settlement_id"}, {Name: "transaction_id"}, {Name: "fee_id"}}
	return r.insert(ctx, &row, columns, "settlement fee")
}

func (r *Repository) MarkSettlementFeeSettled(ctx context.Context, event events.MerchantFeeSettled) error {
	settledAt := event.SettledAt
	result := r.client.DB().WithContext(ctx).
		Model(&models.SettlementFee{}).
		Where("settlement_id = ? AND transaction_id = ? AND fee_id = ?", event.SettlementID, event.TransactionID, event.FeeID).
		Updates(map[string]any{
			"is_settled": true,
			"settled_at": settledAt,
		})
	if result.Error != nil {
		return errors.Wrap(errors.CodeDependency, result.Error, "mark settlement fee settled")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.CodeNotFound, fmt.Sprintf("settlement fee %s/%s not found", event.TransactionID, event.FeeID))
	}
	return nil
}

func (r *Repository) MarkSettlementCompleted(ctx context.Context, event events.SettlementCompleted) error {
	completedAt := event.CompletedAt
	result := r.client.DB().WithContext(ctx).
		Model(&models.Settlement{}).
		Where("settlement_id = ?", event.SettlementID).
		Updates(map[string]any{
			"is_completed": true,
			"completed_at": completedAt,
		})
	if result.Error != nil {
		return errors.Wrap(errors.CodeDependency, result.Error, "mark settlement completed")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.CodeNotFound, fmt.Sprintf("settlement %s not found", event.SettlementID))
	}
	return nil
}
