package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estatepay/estatepay-backend/internal/domain/events"
	"github.com/estatepay/estatepay-backend/internal/eventstore"
	"github.com/estatepay/estatepay-backend/pkg/config"
	"github.com/estatepay/estatepay-backend/pkg/enums"
	"github.com/estatepay/estatepay-backend/pkg/errors"
	"github.com/estatepay/estatepay-backend/pkg/logger"
)

type recordingHandler struct {
	name string
	mtx  sync.Mutex
	seen []events.Envelope
	fail func(events.Envelope) error
}

func (h *recordingHandler) Name() string { return h.name }

func (h *recordingHandler) Handle(_ context.Context, envelope events.Envelope) error {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	if h.fail != nil {
		if err := h.fail(envelope); err != nil {
			return err
		}
	}
	h.seen = append(h.seen, envelope)
	return nil
}

func (h *recordingHandler) versions(streamID uuid.UUID) []int64 {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	var out []int64
	for _, envelope := range h.seen {
		if envelope.StreamID == streamID {
			out = append(out, envelope.Version)
		}
	}
	return out
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "dispatch-test", Level: zerolog.ErrorLevel})
}

func testConfig() config.DispatcherConfig {
	return config.DispatcherConfig{
		BatchSize:          100,
		PollInterval:       time.Millisecond,
		MaxRetries:         3,
		RetryBaseDelay:     time.Millisecond,
		MainConcurrency:    4,
		OrderedConcurrency: 2,
	}
}

func appendEstateEvents(t *testing.T, store eventstore.Store, streamID uuid.UUID, count int) {
	t.Helper()
	batch := make([]eventstore.AppendEvent, 0, count)
	for i := 0; i < count; i++ {
		var payload events.Payload
		if i == 0 {
			payload = events.EstateCreated{EstateID: streamID, Name: "estate"}
		} else {
			payload = events.OperatorAddedToEstate{EstateID: streamID, OperatorID: uuid.New(), Name: "op"}
		}
		raw, err := events.Marshal(payload)
		require.NoError(t, err)
		batch = append(batch, eventstore.AppendEvent{
			EventID:   uuid.New(),
			EventType: payload.EventType(),
			Payload:   raw,
			Timestamp: time.Now().UTC(),
		})
	}
	require.NoError(t, store.AppendToStream(context.Background(), streamID, enums.AggregateEstate, 0, batch))
}

func newTestDispatcher(t *testing.T, store eventstore.Store, sub Subscription) *Dispatcher {
	t.Helper()
	dispatcher, err := NewDispatcher(DispatcherParams{
		Config:        testConfig(),
		Logger:        testLogger(),
		Store:         store,
		Decoder:       events.NewRegistry(),
		Subscriptions: []Subscription{sub},
	})
	require.NoError(t, err)
	return dispatcher
}

func TestMainPipelineDeliversWholeBatch(t *testing.T) {
	store := eventstore.NewMemoryStore()
	streamID := uuid.New()
	appendEstateEvents(t, store, streamID, 6)

	handler := &recordingHandler{name: "read-model"}
	registry := NewHandlerRegistry().
		On(handler, enums.EventEstateCreated, enums.EventOperatorAddedToEstate)
	sub := Subscription{
		GroupName:      "read-models",
		AggregateTypes: []enums.AggregateType{enums.AggregateEstate},
		Pipeline:       PipelineMain,
		Registry:       registry,
	}
	dispatcher := newTestDispatcher(t, store, sub)

	processed, err := dispatcher.processBatch(context.Background(), sub, enums.AggregateEstate)
	require.NoError(t, err)
	assert.True(t, processed)
	assert.Len(t, handler.seen, 6)

	checkpoint, err := store.GetCheckpoint(context.Background(), "read-models", enums.AggregateEstate)
	require.NoError(t, err)
	assert.Equal(t, int64(6), checkpoint)

	// Nothing new: the next poll is a no-op.
	processed, err = dispatcher.processBatch(context.Background(), sub, enums.AggregateEstate)
	require.NoError(t, err)
	assert.False(t, processed)
	assert.Len(t, handler.seen, 6)
}

func TestOrderedPipelineFoldsInVersionOrder(t *testing.T) {
	handler := &recordingHandler{name: "balance"}
	registry := NewHandlerRegistry().On(handler, enums.EventOperatorAddedToEstate)
	sub := Subscription{
		GroupName:      "projections",
		AggregateTypes: []enums.AggregateType{enums.AggregateEstate},
		Pipeline:       PipelineOrdered,
		Registry:       registry,
	}
	dispatcher := newTestDispatcher(t, eventstore.NewMemoryStore(), sub)

	streamA, streamB := uuid.New(), uuid.New()
	var envelopes []events.Envelope
	// Deliberately out of order across and within streams.
	for _, spec := range []struct {
		stream  uuid.UUID
		version int64
	}{
		{streamA, 3}, {streamB, 2}, {streamA, 1}, {streamB, 1}, {streamA, 2},
	} {
		envelopes = append(envelopes, events.Envelope{
			StreamID:      spec.stream,
			AggregateType: enums.AggregateEstate,
			EventID:       uuid.New(),
			EventType:     enums.EventOperatorAddedToEstate,
			Version:       spec.version,
			Payload:       events.OperatorAddedToEstate{EstateID: spec.stream, OperatorID: uuid.New()},
		})
	}

	require.NoError(t, dispatcher.dispatchOrdered(context.Background(), sub, envelopes))
	assert.Equal(t, []int64{1, 2, 3}, handler.versions(streamA))
	assert.Equal(t, []int64{1, 2}, handler.versions(streamB))
}

func TestRetryExhaustionParksAndAdvances(t *testing.T) {
	store := eventstore.NewMemoryStore()
	streamID := uuid.New()
	appendEstateEvents(t, store, streamID, 1)

	attempts := 0
	handler := &recordingHandler{
		name: "flaky",
		fail: func(events.Envelope) error {
			attempts++
			return errors.New(errors.CodeDependency, "downstream unavailable")
		},
	}
	sub := Subscription{
		GroupName:      "flaky-group",
		AggregateTypes: []enums.AggregateType{enums.AggregateEstate},
		Pipeline:       PipelineMain,
		Registry:       NewHandlerRegistry().On(handler, enums.EventEstateCreated),
	}
	dispatcher := newTestDispatcher(t, store, sub)

	processed, err := dispatcher.processBatch(context.Background(), sub, enums.AggregateEstate)
	require.NoError(t, err, "exhausted retries park, they do not fail the batch")
	assert.True(t, processed)
	assert.Equal(t, 3, attempts)

	parked := store.ParkedEvents()
	require.Len(t, parked, 1)
	assert.Equal(t, enums.ParkReasonMaxRetries, parked[0].ParkReason)
	assert.Equal(t, "flaky-group", parked[0].GroupName)

	checkpoint, err := store.GetCheckpoint(context.Background(), "flaky-group", enums.AggregateEstate)
	require.NoError(t, err)
	assert.Equal(t, int64(1), checkpoint, "a parked event never blocks the pipeline")
}

func TestNonRetryableParksImmediately(t *testing.T) {
	store := eventstore.NewMemoryStore()
	appendEstateEvents(t, store, uuid.New(), 1)

	attempts := 0
	handler := &recordingHandler{
		name: "strict",
		fail: func(events.Envelope) error {
			attempts++
			return errors.New(errors.CodeValidation, "malformed payload")
		},
	}
	sub := Subscription{
		GroupName:      "strict-group",
		AggregateTypes: []enums.AggregateType{enums.AggregateEstate},
		Pipeline:       PipelineMain,
		Registry:       NewHandlerRegistry().On(handler, enums.EventEstateCreated),
	}
	dispatcher := newTestDispatcher(t, store, sub)

	_, err := dispatcher.processBatch(context.Background(), sub, enums.AggregateEstate)
	require.NoError(t, err)
	assert.Equal(t, 1, attempts, "non-retryable failures are not retried")

	parked := store.ParkedEvents()
	require.Len(t, parked, 1)
	assert.Equal(t, enums.ParkReasonNonRetryable, parked[0].ParkReason)
}

func TestEventsWithoutHandlersAreAcknowledged(t *testing.T) {
	store := eventstore.NewMemoryStore()
	appendEstateEvents(t, store, uuid.New(), 2)

	sub := Subscription{
		GroupName:      "sparse",
		AggregateTypes: []enums.AggregateType{enums.AggregateEstate},
		Pipeline:       PipelineMain,
		Registry:       NewHandlerRegistry(),
	}
	dispatcher := newTestDispatcher(t, store, sub)

	processed, err := dispatcher.processBatch(context.Background(), sub, enums.AggregateEstate)
	require.NoError(t, err)
	assert.True(t, processed)

	checkpoint, err := store.GetCheckpoint(context.Background(), "sparse", enums.AggregateEstate)
	require.NoError(t, err)
	assert.Equal(t, int64(2), checkpoint)
}

func TestNewDispatcherRejectsBadWiring(t *testing.T) {
	store := eventstore.NewMemoryStore()
	valid := Subscription{
		GroupName:      "group",
		AggregateTypes: []enums.AggregateType{enums.AggregateEstate},
		Pipeline:       PipelineMain,
		Registry:       NewHandlerRegistry(),
	}

	_, err := NewDispatcher(DispatcherParams{Logger: testLogger(), Store: store, Decoder: events.NewRegistry()})
	assert.Error(t, err, "no subscriptions")

	bad := valid
	bad.Pipeline = Pipeline("fifo")
	_, err = NewDispatcher(DispatcherParams{Logger: testLogger(), Store: store, Decoder: events.NewRegistry(), Subscriptions: []Subscription{bad}})
	assert.Error(t, err, "unknown pipeline")

	_, err = NewDispatcher(DispatcherParams{Logger: testLogger(), Store: store, Decoder: events.NewRegistry(), Subscriptions: []Subscription{valid, valid}})
	assert.Error(t, err, "duplicate group")
}
