package commands

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estatepay/estatepay-backend/internal/domain/aggregates"
	"github.com/estatepay/estatepay-backend/internal/domain/aggregates/repository"
	"github.com/estatepay/estatepay-backend/internal/domain/events"
	"github.com/estatepay/estatepay-backend/internal/eventstore"
	"github.com/estatepay/estatepay-backend/internal/settlement"
	"github.com/estatepay/estatepay-backend/pkg/enums"
	"github.com/estatepay/estatepay-backend/pkg/errors"
	"github.com/estatepay/estatepay-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "commands-test", Level: zerolog.ErrorLevel})
}

// fixture wires every command service onto one in-memory event store
// and provisions an estate with a merchant ready to transact.
type fixture struct {
	store    *eventstore.MemoryStore
	registry *events.Registry

	estates      *EstateService
	merchants    *MerchantService
	contracts    *ContractService
	floats       *FloatService
	transactions *TransactionService
	settlements  *SettlementService

	estateID   uuid.UUID
	operatorID uuid.UUID
	merchantID uuid.UUID
	contractID uuid.UUID
	device     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store := eventstore.NewMemoryStore()
	registry := events.NewRegistry()
	logg := testLogger()

	f := &fixture{
		store:        store,
		registry:     registry,
		estates:      NewEstateService(store, registry, logg),
		contracts:    NewContractService(store, registry, logg),
		floats:       NewFloatService(store, registry, logg),
		transactions: NewTransactionService(store, registry, logg),
		settlements:  NewSettlementService(store, registry, logg),
		device:       "term-7",
	}

	var err error
	f.estateID, err = f.estates.CreateEstate(ctx, CreateEstateParams{Name: "Northgate", Reference: "NG-01"})
	require.NoError(t, err)
	f.operatorID, err = f.estates.CreateOperator(ctx, CreateOperatorParams{Name: "AirTime Co"})
	require.NoError(t, err)
	require.NoError(t, f.estates.AddOperatorToEstate(ctx, f.estateID, f.operatorID))

	merchants := NewMerchantService(store, registry, nil, logg)
	f.merchants = merchants
	f.merchantID, err = merchants.CreateMerchant(ctx, f.estateID, "Kiosk 12")
	require.NoError(t, err)
	require.NoError(t, merchants.AssignOperator(ctx, AssignOperatorParams{
		MerchantID: f.merchantID,
		OperatorID: f.operatorID,
	}))
	_, err = merchants.AddDevice(ctx, f.merchantID, f.device)
	require.NoError(t, err)

	f.contractID, err = f.contracts.CreateContract(ctx, f.estateID, f.operatorID, "airtime")
	require.NoError(t, err)

	return f
}

func (f *fixture) addFixedProduct(t *testing.T, value, feePercent string) (uuid.UUID, uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	productValue := decimal.RequireFromString(value)
	productID, err := f.contracts.AddProduct(ctx, AddProductParams{
		ContractID:  f.contractID,
		Name:        "R" + value + " Airtime",
		DisplayText: "Airtime",
		Value:       &productValue,
	})
	require.NoError(t, err)

	feeID, err := f.contracts.AddProductFee(ctx, AddProductFeeParams{
		ContractID:      f.contractID,
		ProductID:       productID,
		Description:     "merchant commission",
		CalculationType: enums.CalculationPercentage,
		FeeType:         enums.FeeTypeMerchant,
		Value:           decimal.RequireFromString(feePercent),
	})
	require.NoError(t, err)
	return productID, feeID
}

func (f *fixture) topUpFloat(t *testing.T, amount string) {
	t.Helper()
	ctx := context.Background()
	_, err := f.floats.CreateFloat(ctx, f.merchantID, f.operatorID)
	require.NoError(t, err)
	require.NoError(t, f.floats.PurchaseCredit(ctx, f.merchantID, f.operatorID, "topup-1", decimal.RequireFromString(amount)))
}

func TestProcessLogonKnownDevice(t *testing.T) {
	f := newFixture(t)

	outcome, err := f.transactions.ProcessLogon(context.Background(), LogonParams{
		EstateID:          f.estateID,
		MerchantID:        f.merchantID,
		DeviceIdentifier:  f.device,
		TransactionNumber: 1,
	})
	require.NoError(t, err)
	assert.True(t, outcome.Authorised)
	assert.Equal(t, enums.ResponseCodeSuccess, outcome.ResponseCode)
}

func TestProcessLogonUnknownDeviceDeclines(t *testing.T) {
	f := newFixture(t)

	outcome, err := f.transactions.ProcessLogon(context.Background(), LogonParams{
		EstateID:          f.estateID,
		MerchantID:        f.merchantID,
		DeviceIdentifier:  "never-registered",
		TransactionNumber: 2,
	})
	require.NoError(t, err)
	assert.False(t, outcome.Authorised)
	assert.Equal(t, enums.ResponseCodeUnknownDevice, outcome.ResponseCode)
}

func TestProcessSaleAuthorisesAndAccruesFee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	productID, feeID := f.addFixedProduct(t, "10.00", "2.5")
	f.topUpFloat(t, "500.00")

	outcome, err := f.transactions.ProcessSale(ctx, SaleParams{
		EstateID:          f.estateID,
		MerchantID:        f.merchantID,
		DeviceIdentifier:  f.device,
		TransactionNumber: 3,
		ContractID:        f.contractID,
		ProductID:         productID,
	})
	require.NoError(t, err)
	assert.True(t, outcome.Authorised)
	assert.Equal(t, enums.ResponseCodeSuccess, outcome.ResponseCode)
	assert.True(t, outcome.Amount.Equal(decimal.RequireFromString("10.00")))

	// The transaction stream carries the pending fee: 2.5% of 10.00.
	txnRepo := repository.New(f.store, f.registry, aggregates.NewTransaction)
	txn, err := txnRepo.GetLatestVersion(ctx, outcome.TransactionID)
	require.NoError(t, err)
	require.True(t, txn.IsCompleted())
	feeValue, ok := txn.FeeValue(feeID)
	require.True(t, ok)
	assert.True(t, feeValue.Equal(decimal.RequireFromString("0.25")))

	// The fee is registered on the day's settlement stream.
	settlementID := settlement.DeriveAggregateID(time.Now().UTC(), f.merchantID, f.estateID)
	setRepo := repository.New(f.store, f.registry, aggregates.NewSettlement)
	run, err := setRepo.GetLatestVersion(ctx, settlementID)
	require.NoError(t, err)
	require.True(t, run.IsCreated())
	assert.Equal(t, 1, run.PendingFeeCount())

	// The float drained by the sale amount.
	floatRepo := repository.New(f.store, f.registry, aggregates.NewFloat)
	flt, err := floatRepo.GetLatestVersion(ctx, deriveFloatID(f.merchantID, f.operatorID))
	require.NoError(t, err)
	assert.True(t, flt.Balance.Equal(decimal.RequireFromString("490.00")))
}

func TestProcessSaleInsufficientFloatDeclines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	productID, _ := f.addFixedProduct(t, "10.00", "2.5")
	f.topUpFloat(t, "5.00")

	outcome, err := f.transactions.ProcessSale(ctx, SaleParams{
		EstateID:          f.estateID,
		MerchantID:        f.merchantID,
		DeviceIdentifier:  f.device,
		TransactionNumber: 4,
		ContractID:        f.contractID,
		ProductID:         productID,
	})
	require.NoError(t, err)
	assert.False(t, outcome.Authorised)
	assert.Equal(t, enums.ResponseCodeNoFloat, outcome.ResponseCode)

	// Declined sales complete but accrue no fees and leave the float
	// untouched.
	txnRepo := repository.New(f.store, f.registry, aggregates.NewTransaction)
	txn, err := txnRepo.GetLatestVersion(ctx, outcome.TransactionID)
	require.NoError(t, err)
	assert.True(t, txn.IsCompleted())
	assert.Empty(t, txn.PendingFees())

	floatRepo := repository.New(f.store, f.registry, aggregates.NewFloat)
	flt, err := floatRepo.GetLatestVersion(ctx, deriveFloatID(f.merchantID, f.operatorID))
	require.NoError(t, err)
	assert.True(t, flt.Balance.Equal(decimal.RequireFromString("5.00")))
}

func TestProcessSaleVariableProductRequiresAmount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	productID, err := f.contracts.AddProduct(ctx, AddProductParams{
		ContractID:  f.contractID,
		Name:        "Open Amount",
		DisplayText: "Airtime",
	})
	require.NoError(t, err)
	f.topUpFloat(t, "100.00")

	outcome, err := f.transactions.ProcessSale(ctx, SaleParams{
		EstateID:          f.estateID,
		MerchantID:        f.merchantID,
		DeviceIdentifier:  f.device,
		TransactionNumber: 5,
		ContractID:        f.contractID,
		ProductID:         productID,
	})
	require.NoError(t, err)
	assert.False(t, outcome.Authorised)
	assert.Equal(t, enums.ResponseCodeInvalidAmount, outcome.ResponseCode)

	supplied := decimal.RequireFromString("30.00")
	outcome, err = f.transactions.ProcessSale(ctx, SaleParams{
		EstateID:          f.estateID,
		MerchantID:        f.merchantID,
		DeviceIdentifier:  f.device,
		TransactionNumber: 6,
		ContractID:        f.contractID,
		ProductID:         productID,
		Amount:            &supplied,
	})
	require.NoError(t, err)
	assert.True(t, outcome.Authorised)
	assert.True(t, outcome.Amount.Equal(supplied))
}

func TestProcessSettlementSettlesAccruedFees(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	productID, feeID := f.addFixedProduct(t, "10.00", "2.5")
	f.topUpFloat(t, "500.00")

	first, err := f.transactions.ProcessSale(ctx, SaleParams{
		EstateID: f.estateID, MerchantID: f.merchantID, DeviceIdentifier: f.device,
		TransactionNumber: 7, ContractID: f.contractID, ProductID: productID,
	})
	require.NoError(t, err)
	second, err := f.transactions.ProcessSale(ctx, SaleParams{
		EstateID: f.estateID, MerchantID: f.merchantID, DeviceIdentifier: f.device,
		TransactionNumber: 8, ContractID: f.contractID, ProductID: productID,
	})
	require.NoError(t, err)

	outcome, err := f.settlements.ProcessSettlement(ctx, time.Now().UTC(), f.merchantID, f.estateID)
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.FeesSettled)
	assert.True(t, outcome.TotalSettled.Equal(decimal.RequireFromString("0.50")))

	// Both transactions now read their fee as settled.
	txnRepo := repository.New(f.store, f.registry, aggregates.NewTransaction)
	for _, transactionID := range []uuid.UUID{first.TransactionID, second.TransactionID} {
		txn, err := txnRepo.GetLatestVersion(ctx, transactionID)
		require.NoError(t, err)
		assert.Empty(t, txn.PendingFees(), "fee %s should be settled", feeID)
	}

	// Settling an already-completed day is a state conflict.
	_, err = f.settlements.ProcessSettlement(ctx, time.Now().UTC(), f.merchantID, f.estateID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeStateConflict))
}

func TestGetPendingSettlementReplaysLiveState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	productID, _ := f.addFixedProduct(t, "10.00", "2.5")
	f.topUpFloat(t, "500.00")

	_, err := f.transactions.ProcessSale(ctx, SaleParams{
		EstateID: f.estateID, MerchantID: f.merchantID, DeviceIdentifier: f.device,
		TransactionNumber: 9, ContractID: f.contractID, ProductID: productID,
	})
	require.NoError(t, err)
	_, err = f.transactions.ProcessSale(ctx, SaleParams{
		EstateID: f.estateID, MerchantID: f.merchantID, DeviceIdentifier: f.device,
		TransactionNumber: 10, ContractID: f.contractID, ProductID: productID,
	})
	require.NoError(t, err)

	// The in-flight settlement is visible immediately, straight off the
	// stream, with no projection in between.
	pending, err := f.settlements.GetPendingSettlement(ctx, time.Now().UTC(), f.merchantID, f.estateID)
	require.NoError(t, err)
	assert.Equal(t, f.estateID, pending.EstateID)
	assert.Equal(t, f.merchantID, pending.MerchantID)
	assert.Equal(t, 2, pending.PendingFeeCount)
	require.Len(t, pending.PendingFees, 2)
	assert.True(t, pending.PendingTotal.Equal(decimal.RequireFromString("0.50")))

	// Once processed it is no longer pending.
	_, err = f.settlements.ProcessSettlement(ctx, time.Now().UTC(), f.merchantID, f.estateID)
	require.NoError(t, err)
	_, err = f.settlements.GetPendingSettlement(ctx, time.Now().UTC(), f.merchantID, f.estateID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeStateConflict))
}

func TestGetPendingSettlementUnknownDayIsNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.settlements.GetPendingSettlement(context.Background(), time.Now().UTC(), f.merchantID, f.estateID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestProcessSettlementWithoutSalesIsNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.settlements.ProcessSettlement(context.Background(), time.Now().UTC(), f.merchantID, f.estateID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}
