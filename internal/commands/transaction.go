package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/estatepay/estatepay-backend/internal/domain/aggregates"
	"github.com/estatepay/estatepay-backend/internal/domain/aggregates/repository"
	"github.com/estatepay/estatepay-backend/internal/domain/events"
	"github.com/estatepay/estatepay-backend/internal/eventstore"
	"github.com/estatepay/estatepay-backend/internal/fees"
	"github.com/estatepay/estatepay-backend/internal/settlement"
	"github.com/estatepay/estatepay-backend/pkg/enums"
	"github.com/estatepay/estatepay-backend/pkg/errors"
	"github.com/estatepay/estatepay-backend/pkg/logger"
)

// TransactionOutcome is the terminal-facing result of a transaction
// command. Business declines land here with their response code;
// only infrastructure failures surface as errors.
type TransactionOutcome struct {
	TransactionID   uuid.UUID
	ResponseCode    string
	ResponseMessage string
	Authorised      bool
	Amount          decimal.Decimal
}

// TransactionService processes terminal requests: logons and sales.
// Sales authorise locally against the merchant's operator float, accrue
// merchant fees and register them with the day's settlement.
type TransactionService struct {
	transactions *repository.Repository[*aggregates.Transaction]
	merchants    *repository.Repository[*aggregates.Merchant]
	contracts    *repository.Repository[*aggregates.Contract]
	floats       *repository.Repository[*aggregates.Float]
	settlements  *repository.Repository[*aggregates.Settlement]
	logg         *logger.Logger
}

func NewTransactionService(store eventstore.Store, registry *events.Registry, logg *logger.Logger) *TransactionService {
	return &TransactionService{
		transactions: repository.New(store, registry, aggregates.NewTransaction),
		merchants:    repository.New(store, registry, aggregates.NewMerchant),
		contracts:    repository.New(store, registry, aggregates.NewContract),
		floats:       repository.New(store, registry, aggregates.NewFloat),
		settlements:  repository.New(store, registry, aggregates.NewSettlement),
		logg:         logg,
	}
}

type LogonParams struct {
	EstateID          uuid.UUID
	MerchantID        uuid.UUID
	DeviceIdentifier  string
	TransactionNumber int64
}

// ProcessLogon verifies the terminal is known and records the logon as
// its own transaction stream.
func (s *TransactionService) ProcessLogon(ctx context.Context, params LogonParams) (TransactionOutcome, error) {
	txn := aggregates.NewTransaction(uuid.New())
	if err := txn.Start(params.EstateID, params.MerchantID, params.DeviceIdentifier, enums.TransactionLogon, params.TransactionNumber, timeNowUTC()); err != nil {
		return TransactionOutcome{}, err
	}

	merchant, err := s.merchants.GetLatestVersion(ctx, params.MerchantID)
	if err != nil {
		return TransactionOutcome{}, err
	}
	if code, reason, ok := validateDevice(merchant, params.EstateID, params.DeviceIdentifier); !ok {
		return s.declineAndComplete(ctx, txn, code, reason)
	}

	if err := txn.AuthoriseLocally(enums.ResponseCodeSuccess); err != nil {
		return TransactionOutcome{}, err
	}
	return s.completeAndSave(ctx, txn, "")
}

type SaleParams struct {
	EstateID          uuid.UUID
	MerchantID        uuid.UUID
	DeviceIdentifier  string
	TransactionNumber int64
	ContractID        uuid.UUID
	ProductID         uuid.UUID
	// Amount is required for variable-value products and ignored for
	// fixed-value ones.
	Amount         *decimal.Decimal
	AdditionalData map[string]string
}

// ProcessSale runs the full sale flow: start the stream, bind the
// product, authorise against the operator float, complete, calculate
// merchant fees and register them with the day's settlement. Business
// declines complete the transaction with their response code.
func (s *TransactionService) ProcessSale(ctx context.Context, params SaleParams) (TransactionOutcome, error) {
	txn := aggregates.NewTransaction(uuid.New())
	if err := txn.Start(params.EstateID, params.MerchantID, params.DeviceIdentifier, enums.TransactionSale, params.TransactionNumber, timeNowUTC()); err != nil {
		return TransactionOutcome{}, err
	}
	if len(params.AdditionalData) > 0 {
		if err := txn.RecordAdditionalRequestData(params.AdditionalData); err != nil {
			return TransactionOutcome{}, err
		}
	}

	merchant, err := s.merchants.GetLatestVersion(ctx, params.MerchantID)
	if err != nil {
		return TransactionOutcome{}, err
	}
	if code, reason, ok := validateDevice(merchant, params.EstateID, params.DeviceIdentifier); !ok {
		return s.declineAndComplete(ctx, txn, code, reason)
	}

	contract, err := s.contracts.GetLatestVersion(ctx, params.ContractID)
	if err != nil {
		return TransactionOutcome{}, err
	}
	if !contract.IsCreated() || contract.EstateID != params.EstateID {
		return s.declineAndComplete(ctx, txn, enums.ResponseCodeInvalidProduct, "unknown contract")
	}
	product, ok := contract.Product(params.ProductID)
	if !ok {
		return s.declineAndComplete(ctx, txn, enums.ResponseCodeInvalidProduct, "product not on contract")
	}

	amount, err := resolveSaleAmount(product, params.Amount)
	if err != nil {
		return s.declineAndComplete(ctx, txn, enums.ResponseCodeInvalidAmount, err.Error())
	}
	if err := txn.AddProductDetails(params.ContractID, params.ProductID, contract.OperatorID, amount); err != nil {
		return TransactionOutcome{}, err
	}

	drawn, err := s.drawDownFloat(ctx, params.MerchantID, contract.OperatorID, txn.AggregateID(), amount)
	if err != nil {
		return TransactionOutcome{}, err
	}
	if !drawn {
		return s.declineAndComplete(ctx, txn, enums.ResponseCodeNoFloat, "insufficient float balance")
	}

	if err := txn.AuthoriseLocally(enums.ResponseCodeSuccess); err != nil {
		return TransactionOutcome{}, err
	}
	completedAt := timeNowUTC()
	if err := txn.Complete(completedAt); err != nil {
		return TransactionOutcome{}, err
	}

	calculated, err := s.accrueMerchantFees(txn, product, amount)
	if err != nil {
		return TransactionOutcome{}, err
	}
	if err := s.transactions.SaveChanges(ctx, txn); err != nil {
		return TransactionOutcome{}, err
	}
	if err := s.registerFeesWithSettlement(ctx, txn, calculated, completedAt); err != nil {
		return TransactionOutcome{}, err
	}

	ctx = s.logg.WithMerchantID(s.logg.WithEstateID(ctx, params.EstateID.String()), params.MerchantID.String())
	s.logg.Info(s.logg.WithField(ctx, "transaction_id", txn.AggregateID().String()), "sale authorised")

	return outcomeFrom(txn, ""), nil
}

// drawDownFloat decreases the merchant's operator float by the sale
// amount. Returns false when the float is missing or short, which the
// caller maps to a local decline.
func (s *TransactionService) drawDownFloat(ctx context.Context, merchantID, operatorID, transactionID uuid.UUID, amount decimal.Decimal) (bool, error) {
	floatID := deriveFloatID(merchantID, operatorID)
	var drawn bool
	err := withConflictRetry(ctx, func(ctx context.Context) error {
		drawn = false
		float, err := s.floats.GetLatestVersion(ctx, floatID)
		if err != nil {
			return err
		}
		if !float.IsCreated() {
			return nil
		}
		if err := float.DecreaseForTransaction(transactionID, amount, timeNowUTC()); err != nil {
			if errors.Is(err, errors.CodeStateConflict) {
				return nil
			}
			return err
		}
		if err := s.floats.SaveChanges(ctx, float); err != nil {
			return err
		}
		drawn = true
		return nil
	})
	return drawn, err
}

func (s *TransactionService) accrueMerchantFees(txn *aggregates.Transaction, product aggregates.ContractProduct, amount decimal.Decimal) ([]fees.CalculatedFee, error) {
	schedule := make([]fees.FeeToCalculate, 0, len(product.Fees))
	for _, fee := range product.Fees {
		if fee.FeeType != enums.FeeTypeMerchant {
			continue
		}
		schedule = append(schedule, fees.FeeToCalculate{
			FeeID:           fee.FeeID,
			Description:     fee.Description,
			CalculationType: fee.CalculationType,
			FeeType:         fee.FeeType,
			Value:           fee.Value,
		})
	}
	calculated, err := fees.CalculateFees(schedule, amount)
	if err != nil {
		return nil, err
	}
	for _, fee := range calculated {
		if err := txn.AddMerchantFeePendingSettlement(fee.FeeID, fee.Description, fee.CalculationType, fee.FeeType, fee.Value, fee.CalculatedValue); err != nil {
			return nil, err
		}
	}
	return calculated, nil
}

// registerFeesWithSettlement adds each calculated fee to the settlement
// stream for the completion date, creating the stream on first use. The
// settlement ID derivation guarantees every sale for the same merchant
// and date converges on one stream.
func (s *TransactionService) registerFeesWithSettlement(ctx context.Context, txn *aggregates.Transaction, calculated []fees.CalculatedFee, completedAt time.Time) error {
	if len(calculated) == 0 {
		return nil
	}
	settlementID := settlement.DeriveAggregateID(completedAt, txn.MerchantID, txn.EstateID)
	return withConflictRetry(ctx, func(ctx context.Context) error {
		run, err := s.settlements.GetLatestVersion(ctx, settlementID)
		if err != nil {
			return err
		}
		if !run.IsCreated() {
			if err := run.Create(txn.EstateID, txn.MerchantID, dateOnly(completedAt)); err != nil {
				return err
			}
		}
		for _, fee := range calculated {
			if err := run.AddMerchantFeePendingSettlement(txn.AggregateID(), fee.FeeID, fee.CalculatedValue); err != nil {
				if errors.Is(err, errors.CodeConflict) {
					continue
				}
				return err
			}
		}
		return s.settlements.SaveChanges(ctx, run)
	})
}

func (s *TransactionService) declineAndComplete(ctx context.Context, txn *aggregates.Transaction, responseCode, reason string) (TransactionOutcome, error) {
	if err := txn.DeclineLocally(responseCode, reason); err != nil {
		return TransactionOutcome{}, err
	}
	return s.completeAndSave(ctx, txn, reason)
}

func (s *TransactionService) completeAndSave(ctx context.Context, txn *aggregates.Transaction, message string) (TransactionOutcome, error) {
	if err := txn.Complete(timeNowUTC()); err != nil {
		return TransactionOutcome{}, err
	}
	if err := s.transactions.SaveChanges(ctx, txn); err != nil {
		return TransactionOutcome{}, err
	}
	return outcomeFrom(txn, message), nil
}

func outcomeFrom(txn *aggregates.Transaction, message string) TransactionOutcome {
	return TransactionOutcome{
		TransactionID:   txn.AggregateID(),
		ResponseCode:    txn.ResponseCode,
		ResponseMessage: message,
		Authorised:      txn.IsAuthorised(),
		Amount:          txn.TransactionAmount,
	}
}

func validateDevice(merchant *aggregates.Merchant, estateID uuid.UUID, deviceIdentifier string) (code, reason string, ok bool) {
	switch {
	case !merchant.IsCreated():
		return enums.ResponseCodeInvalidMerchant, "unknown merchant", false
	case merchant.EstateID != estateID:
		return enums.ResponseCodeInvalidEstate, "merchant not under estate", false
	case !merchant.HasDevice(deviceIdentifier):
		return enums.ResponseCodeUnknownDevice, fmt.Sprintf("device %q not registered", deviceIdentifier), false
	default:
		return "", "", true
	}
}

func resolveSaleAmount(product aggregates.ContractProduct, supplied *decimal.Decimal) (decimal.Decimal, error) {
	if product.IsVariable() {
		if supplied == nil || !supplied.IsPositive() {
			return decimal.Zero, fmt.Errorf("variable-value product requires a positive amount")
		}
		return *supplied, nil
	}
	return *product.Value, nil
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
