package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/estatepay/estatepay-backend/pkg/enums"
)

// MerchantCreated marks the creation of a merchant under an estate.
type MerchantCreated struct {
	EstateID   uuid.UUID `json:"estateId"`
	MerchantID uuid.UUID `json:"merchantId"`
	Name       string    `json:"name"`
}

func (MerchantCreated) EventType() enums.EventType { return enums.EventMerchantCreated }

// OperatorAssignedToMerchant assigns an estate operator to a merchant,
// optionally carrying operator-specific merchant/terminal numbers.
type OperatorAssignedToMerchant struct {
	EstateID       uuid.UUID `json:"estateId"`
	MerchantID     uuid.UUID `json:"merchantId"`
	OperatorID     uuid.UUID `json:"operatorId"`
	MerchantNumber string    `json:"merchantNumber,omitempty"`
	TerminalNumber string    `json:"terminalNumber,omitempty"`
}

func (OperatorAssignedToMerchant) EventType() enums.EventType { return enums.EventOperatorAssigned }

// DeviceAddedToMerchant registers a terminal device.
type DeviceAddedToMerchant struct {
	EstateID         uuid.UUID `json:"estateId"`
	MerchantID       uuid.UUID `json:"merchantId"`
	DeviceID         uuid.UUID `json:"deviceId"`
	DeviceIdentifier string    `json:"deviceIdentifier"`
}

func (DeviceAddedToMerchant) EventType() enums.EventType { return enums.EventDeviceAddedToMerchant }

// ManualDepositMade credits the merchant's prepaid balance.
type ManualDepositMade struct {
	EstateID    uuid.UUID       `json:"estateId"`
	MerchantID  uuid.UUID       `json:"merchantId"`
	DepositID   uuid.UUID       `json:"depositId"`
	Reference   string          `json:"reference"`
	Amount      decimal.Decimal `json:"amount"`
	DepositedAt time.Time       `json:"depositedAt"`
}

func (ManualDepositMade) EventType() enums.EventType { return enums.EventManualDepositMade }

// WithdrawalMade debits the merchant's prepaid balance.
type WithdrawalMade struct {
	EstateID     uuid.UUID       `json:"estateId"`
	MerchantID   uuid.UUID       `json:"merchantId"`
	WithdrawalID uuid.UUID       `json:"withdrawalId"`
	Reference    string          `json:"reference"`
	Amount       decimal.Decimal `json:"amount"`
	WithdrawnAt  time.Time       `json:"withdrawnAt"`
}

func (WithdrawalMade) EventType() enums.EventType { return enums.EventWithdrawalMade }
