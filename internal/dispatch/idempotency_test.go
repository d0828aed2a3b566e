package dispatch

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estatepay/estatepay-backend/internal/domain/events"
	"github.com/estatepay/estatepay-backend/pkg/enums"
	"github.com/estatepay/estatepay-backend/pkg/errors"
)

type fakeIdempotencyStore struct {
	mtx    sync.Mutex
	keys   map[string]string
	broken bool
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{keys: make(map[string]string)}
}

func (s *fakeIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.keys[key], nil
}

func (s *fakeIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.broken {
		return false, fmt.Errorf("connection refused")
	}
	if _, exists := s.keys[key]; exists {
		return false, nil
	}
	s.keys[key] = fmt.Sprint(value)
	return true, nil
}

func (s *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("ep:idempotency:%s:%s", scope, id)
}

func (s *fakeIdempotencyStore) Del(_ context.Context, keys ...string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	for _, key := range keys {
		delete(s.keys, key)
	}
	return nil
}

func saleEnvelope() events.Envelope {
	return events.Envelope{
		StreamID:  uuid.New(),
		EventID:   uuid.New(),
		EventType: enums.EventTransactionCompleted,
		Version:   1,
		Payload:   events.TransactionHasBeenCompleted{TransactionID: uuid.New()},
	}
}

func TestIdempotentHandlerSkipsDuplicateDelivery(t *testing.T) {
	inner := &recordingHandler{name: "balance"}
	guard := WrapIdempotent(inner, newFakeIdempotencyStore(), "projections", time.Hour)
	envelope := saleEnvelope()

	require.NoError(t, guard.Handle(context.Background(), envelope))
	require.NoError(t, guard.Handle(context.Background(), envelope))
	assert.Len(t, inner.seen, 1, "redelivery must not reach the handler twice")

	require.NoError(t, guard.Handle(context.Background(), saleEnvelope()))
	assert.Len(t, inner.seen, 2, "distinct events pass through")
}

func TestIdempotentHandlerReleasesKeyOnFailure(t *testing.T) {
	calls := 0
	inner := &recordingHandler{
		name: "balance",
		fail: func(events.Envelope) error {
			calls++
			if calls == 1 {
				return errors.New(errors.CodeDependency, "db down")
			}
			return nil
		},
	}
	guard := WrapIdempotent(inner, newFakeIdempotencyStore(), "projections", time.Hour)
	envelope := saleEnvelope()

	require.Error(t, guard.Handle(context.Background(), envelope))
	require.NoError(t, guard.Handle(context.Background(), envelope), "retry after failure proceeds")
	assert.Len(t, inner.seen, 1)
}

func TestIdempotentHandlerDegradesWithoutGuard(t *testing.T) {
	inner := &recordingHandler{name: "balance"}
	store := newFakeIdempotencyStore()
	store.broken = true
	guard := WrapIdempotent(inner, store, "projections", time.Hour)

	require.NoError(t, guard.Handle(context.Background(), saleEnvelope()), "guard outage falls back to the handler")
	assert.Len(t, inner.seen, 1)
}
