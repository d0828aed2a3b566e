package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/estatepay/estatepay-backend/pkg/db/models"
	"github.com/estatepay/estatepay-backend/pkg/enums"
	"github.com/estatepay/estatepay-backend/pkg/errors"
)

func TestRegistryDecodesEveryKnownType(t *testing.T) {
	reg := NewRegistry()
	for _, eventType := range []enums.EventType{
		enums.EventEstateCreated,
		enums.EventMerchantCreated,
		enums.EventTransactionStarted,
		enums.EventTransactionCompleted,
		enums.EventSettlementCreated,
		enums.EventFeeSettled,
		enums.EventVoucherGenerated,
		enums.EventFloatCreditPurchased,
		enums.EventReconciliationDone,
	} {
		if _, err := reg.DecodePayload(eventType, json.RawMessage(`{}`)); err != nil {
			t.Fatalf("decode %s: %v", eventType, err)
		}
	}
}

func TestRegistryDecodeRoundTrip(t *testing.T) {
	reg := NewRegistry()
	payload := TransactionHasBeenCompleted{
		TransactionID:     uuid.New(),
		EstateID:          uuid.New(),
		MerchantID:        uuid.New(),
		TransactionType:   enums.TransactionSale,
		TransactionAmount: decimal.RequireFromString("10.00"),
		ResponseCode:      enums.ResponseCodeSuccess,
		IsAuthorised:      true,
		CompletedAt:       time.Now().UTC().Truncate(time.Second),
	}
	raw, err := Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	record := models.EventRecord{
		Sequence:      42,
		StreamID:      payload.TransactionID,
		AggregateType: enums.AggregateTransaction,
		Version:       4,
		EventID:       uuid.New(),
		EventType:     payload.EventType(),
		Payload:       raw,
		Timestamp:     payload.CompletedAt,
	}

	envelope, err := reg.Decode(record)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	decoded, ok := envelope.Payload.(TransactionHasBeenCompleted)
	if !ok {
		t.Fatalf("unexpected payload type %T", envelope.Payload)
	}
	if !decoded.TransactionAmount.Equal(payload.TransactionAmount) {
		t.Fatalf("amount mismatch: got %s", decoded.TransactionAmount)
	}
	if decoded.TransactionID != payload.TransactionID {
		t.Fatalf("transaction id mismatch")
	}
	if envelope.Version != 4 || envelope.Sequence != 42 {
		t.Fatalf("envelope metadata mismatch: %+v", envelope)
	}
}

func TestRegistryUnknownTypeIsConfigurationError(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.DecodePayload(enums.EventType("never_registered"), json.RawMessage(`{}`))
	if !errors.Is(err, errors.CodeConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestRegistryMalformedPayloadIsValidationError(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.DecodePayload(enums.EventEstateCreated, json.RawMessage(`{"estateId": 12`))
	if !errors.Is(err, errors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
