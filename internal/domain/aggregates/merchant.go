package aggregates

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/estatepay/estatepay-backend/internal/domain/events"
	"github.com/estatepay/estatepay-backend/pkg/enums"
	"github.com/estatepay/estatepay-backend/pkg/errors"
)

// Merchant is a trading outlet under an estate. Balance-moving events
// originate here (deposits, withdrawals); the running balance itself
// lives in the merchant balance projection, not on the aggregate.
type Merchant struct {
	Base

	EstateID uuid.UUID
	Name     string

	operators map[uuid.UUID]struct{}
	devices   map[string]uuid.UUID
}

func NewMerchant(id uuid.UUID) *Merchant {
	m := &Merchant{
		operators: make(map[uuid.UUID]struct{}),
		devices:   make(map[string]uuid.UUID),
	}
	m.setID(id)
	return m
}

func (m *Merchant) AggregateType() enums.AggregateType { return enums.AggregateMerchant }

func (m *Merchant) Apply(payload events.Payload) error {
	switch event := payload.(type) {
	case events.MerchantCreated:
		m.setID(event.MerchantID)
		m.EstateID = event.EstateID
		m.Name = event.Name
		m.markCreated()
	case events.OperatorAssignedToMerchant:
		m.operators[event.OperatorID] = struct{}{}
	case events.DeviceAddedToMerchant:
		m.devices[event.DeviceIdentifier] = event.DeviceID
	case events.ManualDepositMade:
		// balance folding happens in the projection
	case events.WithdrawalMade:
		// balance folding happens in the projection
	default:
		return errors.New(errors.CodeConfiguration, fmt.Sprintf("merchant cannot apply %s", payload.EventType()))
	}
	m.advance()
	return nil
}

// HasOperator reports whether the operator is assigned to this merchant.
func (m *Merchant) HasOperator(operatorID uuid.UUID) bool {
	_, ok := m.operators[operatorID]
	return ok
}

// HasDevice reports whether a terminal with the identifier is registered.
func (m *Merchant) HasDevice(deviceIdentifier string) bool {
	_, ok := m.devices[deviceIdentifier]
	return ok
}

func (m *Merchant) Create(estateID uuid.UUID, name string) error {
	if m.IsCreated() {
		return errors.New(errors.CodeStateConflict, "merchant already created")
	}
	if name == "" {
		return errors.New(errors.CodeValidation, "merchant name is required")
	}
	return raise(m, events.MerchantCreated{EstateID: estateID, MerchantID: m.AggregateID(), Name: name})
}

func (m *Merchant) AssignOperator(operatorID uuid.UUID, merchantNumber, terminalNumber string) error {
	if !m.IsCreated() {
		return errors.New(errors.CodeStateConflict, "merchant not created")
	}
	if m.HasOperator(operatorID) {
		return errors.New(errors.CodeConflict, fmt.Sprintf("operator %s already assigned", operatorID))
	}
	return raise(m, events.OperatorAssignedToMerchant{
		EstateID:       m.EstateID,
		MerchantID:     m.AggregateID(),
		OperatorID:     operatorID,
		MerchantNumber: merchantNumber,
		TerminalNumber: terminalNumber,
	})
}

func (m *Merchant) AddDevice(deviceID uuid.UUID, deviceIdentifier string) error {
	if !m.IsCreated() {
		return errors.New(errors.CodeStateConflict, "merchant not created")
	}
	if deviceIdentifier == "" {
		return errors.New(errors.CodeValidation, "device identifier is required")
	}
	if m.HasDevice(deviceIdentifier) {
		return errors.New(errors.CodeConflict, fmt.Sprintf("device %q already registered", deviceIdentifier))
	}
	return raise(m, events.DeviceAddedToMerchant{
		EstateID:         m.EstateID,
		MerchantID:       m.AggregateID(),
		DeviceID:         deviceID,
		DeviceIdentifier: deviceIdentifier,
	})
}

// MakeManualDeposit credits the merchant's prepaid balance.
func (m *Merchant) MakeManualDeposit(depositID uuid.UUID, reference string, amount decimal.Decimal, depositedAt time.Time) error {
	if !m.IsCreated() {
		return errors.New(errors.CodeStateConflict, "merchant not created")
	}
	if !amount.IsPositive() {
		return errors.New(errors.CodeValidation, "deposit amount must be positive")
	}
	return raise(m, events.ManualDepositMade{
		EstateID:    m.EstateID,
		MerchantID:  m.AggregateID(),
		DepositID:   depositID,
		Reference:   reference,
		Amount:      amount,
		DepositedAt: depositedAt,
	})
}

// MakeWithdrawal debits the merchant's prepaid balance. The available
// balance check happens against the projection before the command is
// issued; the aggregate only enforces shape.
func (m *Merchant) MakeWithdrawal(withdrawalID uuid.UUID, reference string, amount decimal.Decimal, withdrawnAt time.Time) error {
	if !m.IsCreated() {
		return errors.New(errors.CodeStateConflict, "merchant not created")
	}
	if !amount.IsPositive() {
		return errors.New(errors.CodeValidation, "withdrawal amount must be positive")
	}
	return raise(m, events.WithdrawalMade{
		EstateID:     m.EstateID,
		MerchantID:   m.AggregateID(),
		WithdrawalID: withdrawalID,
		Reference:    reference,
		Amount:       amount,
		WithdrawnAt:  withdrawnAt,
	})
}
