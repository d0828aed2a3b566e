package eventstore

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estatepay/estatepay-backend/pkg/config"
	"github.com/estatepay/estatepay-backend/pkg/db"
	"github.com/estatepay/estatepay-backend/pkg/db/models"
	"github.com/estatepay/estatepay-backend/pkg/enums"
	"github.com/estatepay/estatepay-backend/pkg/errors"
)

func newGormStore(t *testing.T) *GormStore {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	client, err := db.New(context.Background(), config.DBConfig{Driver: "sqlite", DSN: dsn}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.DB().AutoMigrate(
		&models.EventRecord{},
		&models.SubscriptionCheckpoint{},
		&models.ParkedEvent{},
	))

	return NewGormStore(client)
}

func appendEvent(eventType enums.EventType) AppendEvent {
	return AppendEvent{
		EventID:   uuid.New(),
		EventType: eventType,
		Payload:   json.RawMessage(`{}`),
		Timestamp: time.Now().UTC(),
	}
}

func TestGormStoreAppendAndReadBack(t *testing.T) {
	store := newGormStore(t)
	ctx := context.Background()
	streamID := uuid.New()

	batch := []AppendEvent{
		appendEvent(enums.EventEstateCreated),
		appendEvent(enums.EventMerchantCreated),
	}
	require.NoError(t, store.AppendToStream(ctx, streamID, enums.AggregateEstate, 0, batch))

	records, err := store.ReadStreamForward(ctx, streamID, 0, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(1), records[0].Version)
	assert.Equal(t, int64(2), records[1].Version)
	assert.Equal(t, batch[0].EventID, records[0].EventID)
	assert.Equal(t, enums.AggregateEstate, records[1].AggregateType)

	// Reading past the tail yields nothing.
	tail, err := store.ReadStreamForward(ctx, streamID, 2, 0)
	require.NoError(t, err)
	assert.Empty(t, tail)
}

func TestGormStoreConcurrentAppendConflicts(t *testing.T) {
	store := newGormStore(t)
	ctx := context.Background()
	streamID := uuid.New()

	first := []AppendEvent{appendEvent(enums.EventEstateCreated)}
	require.NoError(t, store.AppendToStream(ctx, streamID, enums.AggregateEstate, 0, first))

	// A second writer that loaded version 0 loses on the unique index.
	stale := []AppendEvent{appendEvent(enums.EventEstateCreated)}
	err := store.AppendToStream(ctx, streamID, enums.AggregateEstate, 0, stale)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeConcurrency))

	// The stream still holds exactly the winner's event.
	records, readErr := store.ReadStreamForward(ctx, streamID, 0, 0)
	require.NoError(t, readErr)
	require.Len(t, records, 1)
	assert.Equal(t, first[0].EventID, records[0].EventID)
}

func TestGormStoreCategoryAndGlobalReads(t *testing.T) {
	store := newGormStore(t)
	ctx := context.Background()

	estateStream := uuid.New()
	merchantStream := uuid.New()
	require.NoError(t, store.AppendToStream(ctx, estateStream, enums.AggregateEstate, 0,
		[]AppendEvent{appendEvent(enums.EventEstateCreated)}))
	require.NoError(t, store.AppendToStream(ctx, merchantStream, enums.AggregateMerchant, 0,
		[]AppendEvent{appendEvent(enums.EventMerchantCreated)}))

	estates, err := store.ReadCategoryForward(ctx, enums.AggregateEstate, 0, 10)
	require.NoError(t, err)
	require.Len(t, estates, 1)
	assert.Equal(t, estateStream, estates[0].StreamID)

	all, err := store.ReadAllForward(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Less(t, all[0].Sequence, all[1].Sequence)

	rest, err := store.ReadAllForward(ctx, all[0].Sequence, 10)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, all[1].Sequence, rest[0].Sequence)
}

func TestGormStoreCheckpointsNeverMoveBackwards(t *testing.T) {
	store := newGormStore(t)
	ctx := context.Background()

	pos, err := store.GetCheckpoint(ctx, "read-model", enums.AggregateEstate)
	require.NoError(t, err)
	assert.Zero(t, pos)

	require.NoError(t, store.SaveCheckpoint(ctx, "read-model", enums.AggregateEstate, 7))
	require.NoError(t, store.SaveCheckpoint(ctx, "read-model", enums.AggregateEstate, 3))

	pos, err = store.GetCheckpoint(ctx, "read-model", enums.AggregateEstate)
	require.NoError(t, err)
	assert.Equal(t, int64(7), pos)

	// Groups and categories are independent cursors.
	other, err := store.GetCheckpoint(ctx, "read-model", enums.AggregateMerchant)
	require.NoError(t, err)
	assert.Zero(t, other)
}

func TestGormStoreParkEventIsIdempotent(t *testing.T) {
	store := newGormStore(t)
	ctx := context.Background()

	parked := models.ParkedEvent{
		GroupName:     "merchant-balance",
		EventID:       uuid.New(),
		StreamID:      uuid.New(),
		AggregateType: enums.AggregateTransaction,
		EventType:     enums.EventMerchantCreated,
		Payload:       json.RawMessage(`{}`),
		ParkReason:    enums.ParkReasonMaxRetries,
		AttemptCount:  3,
	}
	require.NoError(t, store.ParkEvent(ctx, parked))
	require.NoError(t, store.ParkEvent(ctx, parked))

	var count int64
	require.NoError(t, store.client.DB().WithContext(ctx).Model(&models.ParkedEvent{}).
		Where("group_name = ? AND event_id = ?", parked.GroupName, parked.EventID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
