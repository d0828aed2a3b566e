package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/estatepay/estatepay-backend/pkg/enums"
)

// ReconciliationHasStarted opens a reconciliation stream for a terminal
// batch close.
type ReconciliationHasStarted struct {
	ReconciliationID uuid.UUID `json:"reconciliationId"`
	EstateID         uuid.UUID `json:"estateId"`
	MerchantID       uuid.UUID `json:"merchantId"`
	DeviceIdentifier string    `json:"deviceIdentifier"`
	StartedAt        time.Time `json:"startedAt"`
}

func (ReconciliationHasStarted) EventType() enums.EventType { return enums.EventReconciliationStarted }

// OverallTotalsRecorded captures the totals the terminal reports for
// the batch being closed.
type OverallTotalsRecorded struct {
	ReconciliationID uuid.UUID       `json:"reconciliationId"`
	EstateID         uuid.UUID       `json:"estateId"`
	MerchantID       uuid.UUID       `json:"merchantId"`
	SaleCount        int             `json:"saleCount"`
	SaleValue        decimal.Decimal `json:"saleValue"`
}

func (OverallTotalsRecorded) EventType() enums.EventType { return enums.EventOverallTotalsRecorded }

// ReconciliationHasBeenLocallyAuthorised records that the reported
// totals matched the host's view of the batch.
type ReconciliationHasBeenLocallyAuthorised struct {
	ReconciliationID uuid.UUID `json:"reconciliationId"`
	EstateID         uuid.UUID `json:"estateId"`
	MerchantID       uuid.UUID `json:"merchantId"`
	ResponseCode     string    `json:"responseCode"`
}

func (ReconciliationHasBeenLocallyAuthorised) EventType() enums.EventType {
	return enums.EventReconciliationAuthed
}

// ReconciliationHasBeenLocallyDeclined records a totals mismatch.
type ReconciliationHasBeenLocallyDeclined struct {
	ReconciliationID uuid.UUID `json:"reconciliationId"`
	EstateID         uuid.UUID `json:"estateId"`
	MerchantID       uuid.UUID `json:"merchantId"`
	ResponseCode     string    `json:"responseCode"`
	DeclineReason    string    `json:"declineReason,omitempty"`
}

func (ReconciliationHasBeenLocallyDeclined) EventType() enums.EventType {
	return enums.EventReconciliationDeclined
}

// ReconciliationHasCompleted closes the reconciliation stream.
type ReconciliationHasCompleted struct {
	ReconciliationID uuid.UUID `json:"reconciliationId"`
	EstateID         uuid.UUID `json:"estateId"`
	MerchantID       uuid.UUID `json:"merchantId"`
	ResponseCode     string    `json:"responseCode"`
	CompletedAt      time.Time `json:"completedAt"`
}

func (ReconciliationHasCompleted) EventType() enums.EventType { return enums.EventReconciliationDone }
