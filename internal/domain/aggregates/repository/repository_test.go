package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estatepay/estatepay-backend/internal/domain/aggregates"
	"github.com/estatepay/estatepay-backend/internal/domain/events"
	"github.com/estatepay/estatepay-backend/internal/eventstore"
	"github.com/estatepay/estatepay-backend/pkg/enums"
	"github.com/estatepay/estatepay-backend/pkg/errors"
)

func newSettlementRepo(store eventstore.Store, opts ...Option) *Repository[*aggregates.Settlement] {
	return New(store, events.NewRegistry(), aggregates.NewSettlement, opts...)
}

func seedSettlement(t *testing.T, store eventstore.Store, feeCount int) uuid.UUID {
	t.Helper()
	repo := newSettlementRepo(store)
	settlementID := uuid.New()

	settlement, err := repo.GetLatestVersion(context.Background(), settlementID)
	require.NoError(t, err)
	require.NoError(t, settlement.Create(uuid.New(), uuid.New(), time.Now()))
	for i := 0; i < feeCount; i++ {
		require.NoError(t, settlement.AddMerchantFeePendingSettlement(uuid.New(), uuid.New(), decimal.New(int64(i+1), 0)))
	}
	require.NoError(t, repo.SaveChanges(context.Background(), settlement))
	return settlementID
}

func TestNotCreatedSentinel(t *testing.T) {
	repo := newSettlementRepo(eventstore.NewMemoryStore())

	settlement, err := repo.GetLatestVersion(context.Background(), uuid.New())
	require.NoError(t, err, "empty stream is not a repository error")
	assert.False(t, settlement.IsCreated())
	assert.Equal(t, int64(0), settlement.Version())
}

func TestReplayDeterministicAcrossPageSizes(t *testing.T) {
	store := eventstore.NewMemoryStore()
	settlementID := seedSettlement(t, store, 7)

	baseline, err := newSettlementRepo(store).GetLatestVersion(context.Background(), settlementID)
	require.NoError(t, err)

	for _, pageSize := range []int{1, 2, 3, 100} {
		chunked, err := newSettlementRepo(store, WithPageSize(pageSize)).GetLatestVersion(context.Background(), settlementID)
		require.NoError(t, err, "page size %d", pageSize)
		assert.Equal(t, baseline.Version(), chunked.Version(), "page size %d", pageSize)
		assert.Equal(t, baseline.PendingFeeCount(), chunked.PendingFeeCount(), "page size %d", pageSize)
		assert.True(t, baseline.SettledTotal().Equal(chunked.SettledTotal()), "page size %d", pageSize)
	}
}

func TestOptimisticConcurrencyOneWinner(t *testing.T) {
	store := eventstore.NewMemoryStore()
	settlementID := seedSettlement(t, store, 1)
	repo := newSettlementRepo(store)

	first, err := repo.GetLatestVersion(context.Background(), settlementID)
	require.NoError(t, err)
	second, err := repo.GetLatestVersion(context.Background(), settlementID)
	require.NoError(t, err)

	require.NoError(t, first.AddMerchantFeePendingSettlement(uuid.New(), uuid.New(), decimal.New(5, 0)))
	require.NoError(t, second.AddMerchantFeePendingSettlement(uuid.New(), uuid.New(), decimal.New(9, 0)))

	require.NoError(t, repo.SaveChanges(context.Background(), first))
	err = repo.SaveChanges(context.Background(), second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeConcurrency), "loser gets a concurrency error: %v", err)

	// Reload-and-retry is the caller's job and must now succeed.
	reloaded, err := repo.GetLatestVersion(context.Background(), settlementID)
	require.NoError(t, err)
	require.NoError(t, reloaded.AddMerchantFeePendingSettlement(uuid.New(), uuid.New(), decimal.New(9, 0)))
	require.NoError(t, repo.SaveChanges(context.Background(), reloaded))
}

func TestSaveClearsPendingEvents(t *testing.T) {
	store := eventstore.NewMemoryStore()
	repo := newSettlementRepo(store)

	settlement, err := repo.GetLatestVersion(context.Background(), uuid.New())
	require.NoError(t, err)
	require.NoError(t, settlement.Create(uuid.New(), uuid.New(), time.Now()))
	require.NoError(t, repo.SaveChanges(context.Background(), settlement))

	assert.Empty(t, settlement.PendingEvents())
	require.NoError(t, repo.SaveChanges(context.Background(), settlement), "second save with nothing pending is a no-op")
}

// unserializablePayload defeats json.Marshal; channels have no JSON
// representation.
type unserializablePayload struct {
	Ch chan int `json:"ch"`
}

func (unserializablePayload) EventType() enums.EventType { return enums.EventEstateCreated }

type stuckAggregate struct {
	aggregates.Base
}

func (a *stuckAggregate) AggregateType() enums.AggregateType { return enums.AggregateEstate }

func (a *stuckAggregate) Apply(events.Payload) error { return nil }

func (a *stuckAggregate) PendingEvents() []events.Payload {
	return []events.Payload{unserializablePayload{}}
}

func TestSaveSerializationFailureIsConfigurationError(t *testing.T) {
	store := eventstore.NewMemoryStore()
	repo := New(store, events.NewRegistry(), func(uuid.UUID) *stuckAggregate { return &stuckAggregate{} })

	err := repo.SaveChanges(context.Background(), &stuckAggregate{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeConfiguration), "a payload the codec cannot serialize is a code bug: %v", err)
}

func TestSavedStreamRoundTrips(t *testing.T) {
	store := eventstore.NewMemoryStore()
	repo := newSettlementRepo(store)
	settlementID := uuid.New()

	settlement, err := repo.GetLatestVersion(context.Background(), settlementID)
	require.NoError(t, err)
	require.NoError(t, settlement.Create(uuid.New(), uuid.New(), time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, settlement.AddMerchantFeePendingSettlement(uuid.New(), uuid.New(), decimal.RequireFromString("3.75")))
	require.NoError(t, settlement.ProcessSettlement(time.Now()))
	require.NoError(t, repo.SaveChanges(context.Background(), settlement))

	reloaded, err := repo.GetLatestVersion(context.Background(), settlementID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsCreated())
	assert.True(t, reloaded.IsCompleted())
	assert.True(t, reloaded.SettledTotal().Equal(decimal.RequireFromString("3.75")))
	assert.Equal(t, settlement.Version(), reloaded.Version())
}
