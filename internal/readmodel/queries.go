package readmodel

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/estatepay/estatepay-backend/pkg/db/models"
	"github.com/estatepay/estatepay-backend/pkg/enums"
	"github.com/estatepay/estatepay-backend/pkg/errors"
)

// ContractView joins a contract with its product catalogue.
type ContractView struct {
	Contract models.Contract
	Products []ProductView
}

// ProductView joins a product with its fee schedule.
type ProductView struct {
	Product models.ContractProduct
	Fees    []models.ContractProductFee
}

// TransactionView joins a transaction with its calculated fees.
type TransactionView struct {
	Transaction models.Transaction
	Fees        []models.TransactionFee
}

// SettlementView joins a settlement with its registered fees.
type SettlementView struct {
	Settlement models.Settlement
	Fees       []models.SettlementFee
}

func (r *Repository) GetEstates(ctx context.Context) ([]models.Estate, error) {
	var rows []models.Estate
	err := r.client.DB().WithContext(ctx).Order("name").Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "list estates")
	}
	return rows, nil
}

func (r *Repository) GetMerchants(ctx context.Context, estateID uuid.UUID) ([]models.Merchant, error) {
	var rows []models.Merchant
	err := r.client.DB().WithContext(ctx).
		Where("estate_id = ?", estateID).
		Order("name").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "list merchants")
	}
	return rows, nil
}

func (r *Repository) GetMerchantDevices(ctx context.Context, merchantID uuid.UUID) ([]models.MerchantDevice, error) {
	var rows []models.MerchantDevice
	err := r.client.DB().WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "list merchant devices")
	}
	return rows, nil
}

// GetContract loads a contract with its full product catalogue and fee
// schedules.
func (r *Repository) GetContract(ctx context.Context, contractID uuid.UUID) (ContractView, error) {
	conn := r.client.DB().WithContext(ctx)

	var contract models.Contract
	if err := conn.Where("contract_id = ?", contractID).First(&contract).Error; err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return ContractView{}, errors.New(errors.CodeNotFound, fmt.Sprintf("contract %s not found", contractID))
		}
		return ContractView{}, errors.Wrap(errors.CodeDependency, err, "load contract")
	}

	var products []models.ContractProduct
	if err := conn.Where("contract_id = ?", contractID).Order("name").Find(&products).Error; err != nil {
		return ContractView{}, errors.Wrap(errors.CodeDependency, err, "load contract products")
	}

	view := ContractView{Contract: contract, Products: make([]ProductView, 0, len(products))}
	for _, product := range products {
		var fees []models.ContractProductFee
		if err := conn.Where("product_id = ?", product.ProductID).Find(&fees).Error; err != nil {
			return ContractView{}, errors.Wrap(errors.CodeDependency, err, "load product fees")
		}
		view.Products = append(view.Products, ProductView{Product: product, Fees: fees})
	}
	return view, nil
}

func (r *Repository) GetContracts(ctx context.Context, estateID uuid.UUID) ([]models.Contract, error) {
	var rows []models.Contract
	err := r.client.DB().WithContext(ctx).
		Where("estate_id = ?", estateID).
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "list contracts")
	}
	return rows, nil
}

func (r *Repository) GetTransaction(ctx context.Context, transactionID uuid.UUID) (TransactionView, error) {
	conn := r.client.DB().WithContext(ctx)

	var transaction models.Transaction
	if err := conn.Where("transaction_id = ?", transactionID).First(&transaction).Error; err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return TransactionView{}, errors.New(errors.CodeNotFound, fmt.Sprintf("transaction %s not found", transactionID))
		}
		return TransactionView{}, errors.Wrap(errors.CodeDependency, err, "load transaction")
	}

	var fees []models.TransactionFee
	if err := conn.Where("transaction_id = ?", transactionID).Find(&fees).Error; err != nil {
		return TransactionView{}, errors.Wrap(errors.CodeDependency, err, "load transaction fees")
	}
	return TransactionView{Transaction: transaction, Fees: fees}, nil
}

func (r *Repository) GetTransactions(ctx context.Context, estateID, merchantID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.Transaction
	err := r.client.DB().WithContext(ctx).
		Where("estate_id = ? AND merchant_id = ?", estateID, merchantID).
		Order("transaction_date DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "list transactions")
	}
	return rows, nil
}

func (r *Repository) GetSettlement(ctx context.Context, settlementID uuid.UUID) (SettlementView, error) {
	conn := r.client.DB().WithContext(ctx)

	var settlement models.Settlement
	if err := conn.Where("settlement_id = ?", settlementID).First(&settlement).Error; err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return SettlementView{}, errors.New(errors.CodeNotFound, fmt.Sprintf("settlement %s not found", settlementID))
		}
		return SettlementView{}, errors.Wrap(errors.CodeDependency, err, "load settlement")
	}

	var fees []models.SettlementFee
	if err := conn.Where("settlement_id = ?", settlementID).Find(&fees).Error; err != nil {
		return SettlementView{}, errors.Wrap(errors.CodeDependency, err, "load settlement fees")
	}
	return SettlementView{Settlement: settlement, Fees: fees}, nil
}

func (r *Repository) GetSettlements(ctx context.Context, estateID, merchantID uuid.UUID) ([]models.Settlement, error) {
	var rows []models.Settlement
	err := r.client.DB().WithContext(ctx).
		Where("estate_id = ? AND merchant_id = ?", estateID, merchantID).
		Order("settlement_date DESC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "list settlements")
	}
	return rows, nil
}

// SaleTotals returns the count and summed amount of authorised,
// completed sales for a merchant on the given calendar day. This is the
// host side of terminal reconciliation.
func (r *Repository) SaleTotals(ctx context.Context, estateID, merchantID uuid.UUID, day time.Time) (int, decimal.Decimal, error) {
	day = day.UTC()
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	var result struct {
		SaleCount int64
		SaleValue decimal.NullDecimal
	}
	err := r.client.DB().WithContext(ctx).
		Model(&models.Transaction{}).
		Select("COUNT(*) AS sale_count, SUM(amount) AS sale_value").
		Where("estate_id = ? AND merchant_id = ?", estateID, merchantID).
		Where("transaction_type = ? AND is_completed AND is_authorised", enums.TransactionSale).
		Where("completed_at >= ? AND completed_at < ?", from, to).
		Scan(&result).Error
	if err != nil {
		return 0, decimal.Zero, errors.Wrap(errors.CodeDependency, err, "sum sale totals")
	}
	value := decimal.Zero
	if result.SaleValue.Valid {
		value = result.SaleValue.Decimal
	}
	return int(result.SaleCount), value, nil
}

func (r *Repository) GetFloat(ctx context.Context, merchantID, operatorID uuid.UUID) (models.Float, error) {
	var row models.Float
	err := r.client.DB().WithContext(ctx).
		Where("merchant_id = ? AND operator_id = ?", merchantID, operatorID).
		First(&row).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return models.Float{}, errors.New(errors.CodeNotFound, "float not found")
		}
		return models.Float{}, errors.Wrap(errors.CodeDependency, err, "load float")
	}
	return row, nil
}
