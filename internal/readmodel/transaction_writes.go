package readmodel

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"github.com/estatepay/estatepay-backend/internal/domain/events"
	"github.com/estatepay/estatepay-backend/pkg/db/models"
	"github.com/estatepay/estatepay-backend/pkg/errors"
)

func (r *Repository) StartTransaction(ctx context.Context, event events.TransactionHasStarted) error {
	row := models.Transaction{
		TransactionID:     event.TransactionID,
		EstateID:          event.EstateID,
		MerchantID:        event.MerchantID,
		TransactionType:   event.TransactionType,
		TransactionNumber: strconv.FormatInt(event.TransactionNumber, 10),
		DeviceIdentifier:  event.DeviceIdentifier,
		TransactionDate:   event.StartedAt,
	}
	return r.insert(ctx, &row, []clause.Column{{Name: "transaction_id"}}, "transaction")
}

func (r *Repository) RecordAdditionalRequestData(ctx context.Context, event events.AdditionalRequestDataRecorded) error {
	fields, err := json.Marshal(event.Fields)
	if err != nil {
		return errors.Wrap(errors.CodeValidation, err, "marshal additional request data")
	}
	return r.updateTransaction(ctx, event.TransactionID, map[string]any{
		"additional_request_data": json.RawMessage(fields),
	})
}

func (r *Repository) AddProductDetails(ctx context.Context, event events.ProductDetailsAddedToTransaction) error {
	amount := event.TransactionAmount
	return r.updateTransaction(ctx, event.TransactionID, map[string]any{
		"operator_id": event.OperatorID,
		"product_id":  event.ProductID,
		"amount":      amount,
	})
}

func (r *Repository) RecordOperatorAuthorisation(ctx context.Context, event events.TransactionAuthorisedByOperator) error {
	return r.updateTransaction(ctx, event.TransactionID, map[string]any{
		"is_authorised":           true,
		"response_code":           event.OperatorResponseCode,
		"operator_transaction_id": event.OperatorTransactionID,
		"authorisation_code":      event.AdditionalResponse,
	})
}

func (r *Repository) RecordOperatorDecline(ctx context.Context, event events.TransactionDeclinedByOperator) error {
	return r.updateTransaction(ctx, event.TransactionID, map[string]any{
		"is_authorised":    false,
		"response_code":    event.OperatorResponseCode,
		"response_message": event.DeclineReason,
	})
}

func (r *Repository) RecordLocalAuthorisation(ctx context.Context, event events.TransactionHasBeenLocallyAuthorised) error {
	return r.updateTransaction(ctx, event.TransactionID, map[string]any{
		"is_authorised": true,
		"response_code": event.ResponseCode,
	})
}

func (r *Repository) RecordLocalDecline(ctx context.Context, event events.TransactionHasBeenLocallyDeclined) error {
	return r.updateTransaction(ctx, event.TransactionID, map[string]any{
		"is_authorised":    false,
		"response_code":    event.ResponseCode,
		"response_message": event.DeclineReason,
	})
}

func (r *Repository) CompleteTransaction(ctx context.Context, event events.TransactionHasBeenCompleted) error {
	amount := event.TransactionAmount
	completedAt := event.CompletedAt
	return r.updateTransaction(ctx, event.TransactionID, map[string]any{
		"is_completed":  true,
		"is_authorised": event.IsAuthorised,
		"amount":        amount,
		"response_code": event.ResponseCode,
		"completed_at":  completedAt,
	})
}

func (r *Repository) AddTransactionFee(ctx context.Context, event events.MerchantFeePendingSettlementAdded, calculatedAt time.Time) error {
	row := models.TransactionFee{
		TransactionID:   event.TransactionID,
		FeeID:           event.FeeID,
		CalculationType: event.CalculationType,
		FeeType:         event.FeeType,
		FeeValue:        event.FeeValue,
		CalculatedValue: event.CalculatedValue,
		FeeCalculatedAt: calculatedAt,
	}
	columns := []clause.Column{{Name: "transaction_id"}, {Name: "fee_id"}}
	return r.insert(ctx, &row, columns, "transaction fee")
}

func (r *Repository) MarkTransactionFeeSettled(ctx context.Context, event events.SettledMerchantFeeAdded) error {
	settledAt := event.SettledAt
	result := r.client.DB().WithContext(ctx).
		Model(&models.TransactionFee{}).
		Where("transaction_id = ? AND fee_id = ?", event.TransactionID, event.FeeID).
		Updates(map[string]any{
			"is_settled": true,
			"settled_at": settledAt,
		})
	if result.Error != nil {
		return errors.Wrap(errors.CodeDependency, result.Error, "mark transaction fee settled")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.CodeNotFound, fmt.Sprintf("transaction fee %s/%s not found", event.TransactionID, event.FeeID))
	}
	return nil
}

func (r *Repository) updateTransaction(ctx context.Context, transactionID uuid.UUID, updates map[string]any) error {
	result := r.client.DB().WithContext(ctx).
		Model(&models.Transaction{}).
		Where("transaction_id = ?", transactionID).
		Updates(updates)
	if result.Error != nil {
		return errors.Wrap(errors.CodeDependency, result.Error, "update transaction")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.CodeNotFound, fmt.Sprintf("transaction %s not found", transactionID))
	}
	return nil
}
