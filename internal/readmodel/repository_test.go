package readmodel

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estatepay/estatepay-backend/internal/domain/events"
	"github.com/estatepay/estatepay-backend/pkg/config"
	"github.com/estatepay/estatepay-backend/pkg/db"
	"github.com/estatepay/estatepay-backend/pkg/db/models"
	"github.com/estatepay/estatepay-backend/pkg/enums"
	"github.com/estatepay/estatepay-backend/pkg/errors"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	client, err := db.New(context.Background(), config.DBConfig{Driver: "sqlite", DSN: dsn}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.DB().AutoMigrate(
		&models.Estate{},
		&models.EstateOperator{},
		&models.Operator{},
		&models.Merchant{},
		&models.MerchantOperator{},
		&models.MerchantDevice{},
		&models.Contract{},
		&models.ContractProduct{},
		&models.ContractProductFee{},
		&models.Float{},
		&models.FloatMovement{},
		&models.Transaction{},
		&models.TransactionFee{},
		&models.Settlement{},
		&models.SettlementFee{},
	))

	return NewRepository(client)
}

func TestCatalogueViewsBuildFromEvents(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	estateID := uuid.New()
	operatorID := uuid.New()
	contractID := uuid.New()
	productID := uuid.New()
	feeID := uuid.New()

	require.NoError(t, repo.AddEstate(ctx, events.EstateCreated{
		EstateID: estateID, Name: "Northgate", Reference: "NG-01",
	}))
	require.NoError(t, repo.AddOperator(ctx, events.OperatorCreated{
		OperatorID: operatorID, Name: "AirTime Co",
	}))
	require.NoError(t, repo.AddOperatorToEstate(ctx, events.OperatorAddedToEstate{
		EstateID: estateID, OperatorID: operatorID, Name: "AirTime Co",
	}))
	require.NoError(t, repo.AddContract(ctx, events.ContractCreated{
		ContractID: contractID, EstateID: estateID, OperatorID: operatorID, Description: "airtime",
	}))
	require.NoError(t, repo.AddFixedValueProduct(ctx, events.FixedValueProductAdded{
		ContractID: contractID, EstateID: estateID, ProductID: productID,
		Name: "R10 Airtime", DisplayText: "Airtime R10",
		Value: decimal.RequireFromString("10.00"),
	}))
	require.NoError(t, repo.AddContractProductFee(ctx, events.TransactionFeeForProductAdded{
		ContractID: contractID, EstateID: estateID, ProductID: productID, FeeID: feeID,
		Description:     "merchant commission",
		CalculationType: enums.CalculationPercentage,
		FeeType:         enums.FeeTypeMerchant,
		Value:           decimal.RequireFromString("2.5"),
	}))

	// Replaying the creation event must not duplicate the row.
	require.NoError(t, repo.AddEstate(ctx, events.EstateCreated{
		EstateID: estateID, Name: "Northgate", Reference: "NG-01",
	}))
	estates, err := repo.GetEstates(ctx)
	require.NoError(t, err)
	require.Len(t, estates, 1)

	view, err := repo.GetContract(ctx, contractID)
	require.NoError(t, err)
	assert.Equal(t, "airtime", view.Contract.Description)
	require.Len(t, view.Products, 1)
	assert.Equal(t, enums.ProductFixed, view.Products[0].Product.ProductType)
	require.NotNil(t, view.Products[0].Product.Value)
	assert.True(t, view.Products[0].Product.Value.Equal(decimal.RequireFromString("10.00")))
	require.Len(t, view.Products[0].Fees, 1)
	assert.Equal(t, enums.FeeTypeMerchant, view.Products[0].Fees[0].FeeType)
}

func TestTransactionRowFollowsLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	estateID := uuid.New()
	merchantID := uuid.New()
	transactionID := uuid.New()
	operatorID := uuid.New()
	productID := uuid.New()
	feeID := uuid.New()
	startedAt := time.Date(2026, 4, 2, 8, 30, 0, 0, time.UTC)

	require.NoError(t, repo.StartTransaction(ctx, events.TransactionHasStarted{
		TransactionID: transactionID, EstateID: estateID, MerchantID: merchantID,
		DeviceIdentifier: "term-7", TransactionType: enums.TransactionSale,
		TransactionNumber: 42, StartedAt: startedAt,
	}))
	require.NoError(t, repo.AddProductDetails(ctx, events.ProductDetailsAddedToTransaction{
		TransactionID: transactionID, EstateID: estateID, MerchantID: merchantID,
		ContractID: uuid.New(), ProductID: productID, OperatorID: operatorID,
		TransactionAmount: decimal.RequireFromString("10.00"),
	}))
	require.NoError(t, repo.RecordLocalAuthorisation(ctx, events.TransactionHasBeenLocallyAuthorised{
		TransactionID: transactionID, EstateID: estateID, MerchantID: merchantID,
		ResponseCode: enums.ResponseCodeSuccess,
	}))
	require.NoError(t, repo.CompleteTransaction(ctx, events.TransactionHasBeenCompleted{
		TransactionID: transactionID, EstateID: estateID, MerchantID: merchantID,
		TransactionType:   enums.TransactionSale,
		TransactionAmount: decimal.RequireFromString("10.00"),
		ResponseCode:      enums.ResponseCodeSuccess,
		IsAuthorised:      true,
		CompletedAt:       startedAt.Add(2 * time.Second),
	}))
	require.NoError(t, repo.AddTransactionFee(ctx, events.MerchantFeePendingSettlementAdded{
		TransactionID: transactionID, EstateID: estateID, MerchantID: merchantID,
		FeeID: feeID, Description: "merchant commission",
		CalculationType: enums.CalculationPercentage, FeeType: enums.FeeTypeMerchant,
		FeeValue:        decimal.RequireFromString("2.5"),
		CalculatedValue: decimal.RequireFromString("0.25"),
	}, startedAt.Add(2*time.Second)))
	require.NoError(t, repo.MarkTransactionFeeSettled(ctx, events.SettledMerchantFeeAdded{
		TransactionID: transactionID, EstateID: estateID, MerchantID: merchantID,
		FeeID: feeID, SettlementID: uuid.New(),
		CalculatedValue: decimal.RequireFromString("0.25"),
		SettledAt:       startedAt.Add(24 * time.Hour),
	}))

	view, err := repo.GetTransaction(ctx, transactionID)
	require.NoError(t, err)
	assert.True(t, view.Transaction.IsCompleted)
	assert.True(t, view.Transaction.IsAuthorised)
	assert.Equal(t, "42", view.Transaction.TransactionNumber)
	assert.Equal(t, enums.ResponseCodeSuccess, view.Transaction.ResponseCode)
	require.NotNil(t, view.Transaction.Amount)
	assert.True(t, view.Transaction.Amount.Equal(decimal.RequireFromString("10.00")))
	require.Len(t, view.Fees, 1)
	assert.True(t, view.Fees[0].IsSettled)
	require.NotNil(t, view.Fees[0].SettledAt)

	listed, err := repo.GetTransactions(ctx, estateID, merchantID, 10, 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
}

func TestTransactionUpdateWithoutRowIsNotFound(t *testing.T) {
	repo := newTestRepository(t)
	err := repo.RecordLocalDecline(context.Background(), events.TransactionHasBeenLocallyDeclined{
		TransactionID: uuid.New(),
		ResponseCode:  enums.ResponseCodeNoFloat,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestSettlementViewFollowsRun(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	settlementID := uuid.New()
	estateID := uuid.New()
	merchantID := uuid.New()
	transactionID := uuid.New()
	feeID := uuid.New()
	date := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.AddSettlement(ctx, events.SettlementCreated{
		SettlementID: settlementID, EstateID: estateID, MerchantID: merchantID,
		SettlementDate: date,
	}))
	require.NoError(t, repo.AddSettlementFee(ctx, events.MerchantFeeAddedPendingSettlement{
		SettlementID: settlementID, EstateID: estateID, MerchantID: merchantID,
		TransactionID: transactionID, FeeID: feeID,
		CalculatedValue: decimal.RequireFromString("0.25"),
	}))
	require.NoError(t, repo.MarkSettlementFeeSettled(ctx, events.MerchantFeeSettled{
		SettlementID: settlementID, EstateID: estateID, MerchantID: merchantID,
		TransactionID: transactionID, FeeID: feeID,
		CalculatedValue: decimal.RequireFromString("0.25"),
		SettledAt:       date.Add(25 * time.Hour),
	}))
	require.NoError(t, repo.MarkSettlementCompleted(ctx, events.SettlementCompleted{
		SettlementID: settlementID, EstateID: estateID, MerchantID: merchantID,
		TotalSettled: decimal.RequireFromString("0.25"),
		CompletedAt:  date.Add(25 * time.Hour),
	}))

	view, err := repo.GetSettlement(ctx, settlementID)
	require.NoError(t, err)
	assert.True(t, view.Settlement.IsCompleted)
	require.Len(t, view.Fees, 1)
	assert.True(t, view.Fees[0].IsSettled)

	listed, err := repo.GetSettlements(ctx, estateID, merchantID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
}

func TestFloatBalanceDedupesRedeliveredEvents(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	floatID := uuid.New()
	estateID := uuid.New()
	merchantID := uuid.New()
	operatorID := uuid.New()

	require.NoError(t, repo.AddFloat(ctx, events.FloatCreatedForTransaction{
		FloatID: floatID, EstateID: estateID, MerchantID: merchantID, OperatorID: operatorID,
		CreatedAt: time.Now().UTC(),
	}))

	purchaseEventID := uuid.New()
	purchase := events.FloatCreditPurchased{
		FloatID: floatID, EstateID: estateID, MerchantID: merchantID,
		Reference: "topup-1",
		Amount:      decimal.RequireFromString("500.00"),
		PurchasedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.RecordFloatCreditPurchase(ctx, purchaseEventID, purchase))
	require.NoError(t, repo.RecordFloatCreditPurchase(ctx, purchaseEventID, purchase))

	require.NoError(t, repo.RecordFloatDecrease(ctx, uuid.New(), events.FloatDecreasedByTransaction{
		FloatID: floatID, EstateID: estateID, MerchantID: merchantID,
		TransactionID: uuid.New(),
		Amount:        decimal.RequireFromString("10.00"),
		DecreasedAt:   time.Now().UTC(),
	}))

	row, err := repo.GetFloat(ctx, merchantID, operatorID)
	require.NoError(t, err)
	assert.True(t, row.TotalCredit.Equal(decimal.RequireFromString("500.00")))
	assert.True(t, row.AvailableBalance.Equal(decimal.RequireFromString("490.00")))
}
