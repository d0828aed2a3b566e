package voucher

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estatepay/estatepay-backend/internal/domain/events"
	"github.com/estatepay/estatepay-backend/pkg/enums"
)

func envelopeFor(payload events.Payload) events.Envelope {
	return events.Envelope{
		EventID:   uuid.New(),
		EventType: payload.EventType(),
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

func TestProjectorFoldsFullLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	projector := NewProjector(repo)

	voucherID := uuid.New()
	estateID := uuid.New()
	merchantID := uuid.New()
	transactionID := uuid.New()
	generatedAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	issuedAt := generatedAt.Add(time.Hour)
	redeemedAt := generatedAt.Add(48 * time.Hour)

	require.NoError(t, projector.Handle(ctx, envelopeFor(events.VoucherGenerated{
		VoucherID:   voucherID,
		EstateID:    estateID,
		MerchantID:  merchantID,
		VoucherCode: "VCH-0042",
		Value:       decimal.RequireFromString("150.00"),
		GeneratedAt: generatedAt,
	})))
	require.NoError(t, projector.Handle(ctx, envelopeFor(events.VoucherIssued{
		VoucherID:     voucherID,
		EstateID:      estateID,
		MerchantID:    merchantID,
		TransactionID: transactionID,
		IssuedAt:      issuedAt,
	})))
	require.NoError(t, projector.Handle(ctx, envelopeFor(events.VoucherFullyRedeemed{
		VoucherID:  voucherID,
		EstateID:   estateID,
		MerchantID: merchantID,
		RedeemedAt: redeemedAt,
	})))

	projection, found, err := repo.Load(ctx, voucherID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, estateID, projection.EstateID)
	assert.Equal(t, merchantID, projection.MerchantID)
	assert.Equal(t, transactionID, projection.TransactionID)
	assert.Equal(t, "VCH-0042", projection.VoucherCode)
	assert.True(t, projection.Value.Equal(decimal.RequireFromString("150.00")))
	assert.True(t, projection.IsGenerated)
	assert.True(t, projection.IsIssued)
	assert.True(t, projection.IsRedeemed)
	require.NotNil(t, projection.GeneratedAt)
	require.NotNil(t, projection.IssuedAt)
	require.NotNil(t, projection.RedeemedAt)
	assert.Equal(t, generatedAt, *projection.GeneratedAt)
	assert.Equal(t, issuedAt, *projection.IssuedAt)
	assert.Equal(t, redeemedAt, *projection.RedeemedAt)
}

func TestProjectorRedeliveryIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	projector := NewProjector(repo)

	voucherID := uuid.New()
	issued := events.VoucherIssued{
		VoucherID:     voucherID,
		EstateID:      uuid.New(),
		MerchantID:    uuid.New(),
		TransactionID: uuid.New(),
		IssuedAt:      time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC),
	}

	require.NoError(t, projector.Handle(ctx, envelopeFor(events.VoucherGenerated{
		VoucherID:   voucherID,
		EstateID:    issued.EstateID,
		MerchantID:  issued.MerchantID,
		VoucherCode: "VCH-0100",
		Value:       decimal.RequireFromString("25.00"),
		GeneratedAt: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	})))
	require.NoError(t, projector.Handle(ctx, envelopeFor(issued)))
	require.NoError(t, projector.Handle(ctx, envelopeFor(issued)))

	projection, found, err := repo.Load(ctx, voucherID)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, projection.IsIssued)
	assert.False(t, projection.IsRedeemed)
	assert.Equal(t, issued.IssuedAt, *projection.IssuedAt)
}

func TestProjectorRejectsForeignEvents(t *testing.T) {
	projector := NewProjector(NewMemoryRepository())
	err := projector.Handle(context.Background(), envelopeFor(events.EstateCreated{
		EstateID: uuid.New(),
		Name:     "Northgate",
	}))
	assert.Error(t, err)
	assert.NotContains(t, enumsToStrings(projector.EventTypes()), string(enums.EventEstateCreated))
}

func enumsToStrings(types []enums.EventType) []string {
	out := make([]string, 0, len(types))
	for _, eventType := range types {
		out = append(out, string(eventType))
	}
	return out
}
