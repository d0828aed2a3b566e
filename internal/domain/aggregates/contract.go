package aggregates

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/estatepay/estatepay-backend/internal/domain/events"
	"github.com/estatepay/estatepay-backend/pkg/enums"
	"github.com/estatepay/estatepay-backend/pkg/errors"
)

// ContractProductFee is one entry in a product's fee schedule.
type ContractProductFee struct {
	FeeID           uuid.UUID
	Description     string
	CalculationType enums.CalculationType
	FeeType         enums.FeeType
	Value           decimal.Decimal
}

// ContractProduct is a sellable item on a contract. Value is nil for
// variable-value products, whose amount comes from the terminal.
type ContractProduct struct {
	ProductID   uuid.UUID
	Name        string
	DisplayText string
	Value       *decimal.Decimal
	Fees        []ContractProductFee
}

// IsVariable reports whether the sale amount comes from the terminal.
func (p ContractProduct) IsVariable() bool { return p.Value == nil }

// Contract binds an operator's product catalogue, with fee schedules,
// to an estate.
type Contract struct {
	Base

	EstateID    uuid.UUID
	OperatorID  uuid.UUID
	Description string

	products map[uuid.UUID]*ContractProduct
}

func NewContract(id uuid.UUID) *Contract {
	c := &Contract{products: make(map[uuid.UUID]*ContractProduct)}
	c.setID(id)
	return c
}

func (c *Contract) AggregateType() enums.AggregateType { return enums.AggregateContract }

func (c *Contract) Apply(payload events.Payload) error {
	switch event := payload.(type) {
	case events.ContractCreated:
		c.setID(event.ContractID)
		c.EstateID = event.EstateID
		c.OperatorID = event.OperatorID
		c.Description = event.Description
		c.markCreated()
	case events.FixedValueProductAdded:
		value := event.Value
		c.products[event.ProductID] = &ContractProduct{
			ProductID:   event.ProductID,
			Name:        event.Name,
			DisplayText: event.DisplayText,
			Value:       &value,
		}
	case events.VariableValueProductAdded:
		c.products[event.ProductID] = &ContractProduct{
			ProductID:   event.ProductID,
			Name:        event.Name,
			DisplayText: event.DisplayText,
		}
	case events.TransactionFeeForProductAdded:
		product, ok := c.products[event.ProductID]
		if !ok {
			return errors.New(errors.CodeConfiguration, fmt.Sprintf("fee event for unknown product %s", event.ProductID))
		}
		product.Fees = append(product.Fees, ContractProductFee{
			FeeID:           event.FeeID,
			Description:     event.Description,
			CalculationType: event.CalculationType,
			FeeType:         event.FeeType,
			Value:           event.Value,
		})
	default:
		return errors.New(errors.CodeConfiguration, fmt.Sprintf("contract cannot apply %s", payload.EventType()))
	}
	c.advance()
	return nil
}

// Product returns the product with the given ID, if present.
func (c *Contract) Product(productID uuid.UUID) (ContractProduct, bool) {
	product, ok := c.products[productID]
	if !ok {
		return ContractProduct{}, false
	}
	return *product, true
}

func (c *Contract) Create(estateID, operatorID uuid.UUID, description string) error {
	if c.IsCreated() {
		return errors.New(errors.CodeStateConflict, "contract already created")
	}
	return raise(c, events.ContractCreated{
		ContractID:  c.AggregateID(),
		EstateID:    estateID,
		OperatorID:  operatorID,
		Description: description,
	})
}

func (c *Contract) AddFixedValueProduct(productID uuid.UUID, name, displayText string, value decimal.Decimal) error {
	if err := c.ensureProductAddable(productID); err != nil {
		return err
	}
	if !value.IsPositive() {
		return errors.New(errors.CodeValidation, "product value must be positive")
	}
	return raise(c, events.FixedValueProductAdded{
		ContractID:  c.AggregateID(),
		EstateID:    c.EstateID,
		ProductID:   productID,
		Name:        name,
		DisplayText: displayText,
		Value:       value,
	})
}

func (c *Contract) AddVariableValueProduct(productID uuid.UUID, name, displayText string) error {
	if err := c.ensureProductAddable(productID); err != nil {
		return err
	}
	return raise(c, events.VariableValueProductAdded{
		ContractID:  c.AggregateID(),
		EstateID:    c.EstateID,
		ProductID:   productID,
		Name:        name,
		DisplayText: displayText,
	})
}

// AddTransactionFeeForProduct appends one fee schedule entry to an
// existing product.
func (c *Contract) AddTransactionFeeForProduct(productID, feeID uuid.UUID, description string, calculationType enums.CalculationType, feeType enums.FeeType, value decimal.Decimal) error {
	if !c.IsCreated() {
		return errors.New(errors.CodeStateConflict, "contract not created")
	}
	product, ok := c.products[productID]
	if !ok {
		return errors.New(errors.CodeNotFound, fmt.Sprintf("product %s not on contract", productID))
	}
	for _, fee := range product.Fees {
		if fee.FeeID == feeID {
			return errors.New(errors.CodeConflict, fmt.Sprintf("fee %s already on product", feeID))
		}
	}
	if !calculationType.IsValid() {
		return errors.New(errors.CodeValidation, fmt.Sprintf("invalid calculation type %q", calculationType))
	}
	if !feeType.IsValid() {
		return errors.New(errors.CodeValidation, fmt.Sprintf("invalid fee type %q", feeType))
	}
	return raise(c, events.TransactionFeeForProductAdded{
		ContractID:      c.AggregateID(),
		EstateID:        c.EstateID,
		ProductID:       productID,
		FeeID:           feeID,
		Description:     description,
		CalculationType: calculationType,
		FeeType:         feeType,
		Value:           value,
	})
}

func (c *Contract) ensureProductAddable(productID uuid.UUID) error {
	if !c.IsCreated() {
		return errors.New(errors.CodeStateConflict, "contract not created")
	}
	if _, exists := c.products[productID]; exists {
		return errors.New(errors.CodeConflict, fmt.Sprintf("product %s already on contract", productID))
	}
	return nil
}
