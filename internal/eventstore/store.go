package eventstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/estatepay/estatepay-backend/pkg/db/models"
	"github.com/estatepay/estatepay-backend/pkg/enums"
)

// AppendEvent is one not-yet-persisted event. Version and Sequence are
// assigned by the store at append time.
type AppendEvent struct {
	EventID   uuid.UUID
	EventType enums.EventType
	Payload   json.RawMessage
	Timestamp time.Time
}

// Store is the append-only event log. Streams are addressed by
// aggregate ID; appends are atomic per batch and guarded by an
// expected-version check.
type Store interface {
	// AppendToStream persists the batch with versions
	// expectedVersion+1..expectedVersion+len(events), all or nothing.
	// A concurrent writer that got there first surfaces as a
	// CONCURRENCY_CONFLICT error.
	AppendToStream(ctx context.Context, streamID uuid.UUID, aggregateType enums.AggregateType, expectedVersion int64, batch []AppendEvent) error

	// ReadStreamForward returns up to limit records for one stream,
	// version order, starting after fromVersion. limit <= 0 means no cap.
	ReadStreamForward(ctx context.Context, streamID uuid.UUID, fromVersion int64, limit int) ([]models.EventRecord, error)

	// ReadCategoryForward returns up to limit records across every
	// stream of one aggregate type, global sequence order, starting
	// after the given sequence.
	ReadCategoryForward(ctx context.Context, aggregateType enums.AggregateType, afterSequence int64, limit int) ([]models.EventRecord, error)

	// ReadAllForward returns up to limit records across all streams in
	// global sequence order, starting after the given sequence.
	ReadAllForward(ctx context.Context, afterSequence int64, limit int) ([]models.EventRecord, error)

	// GetCheckpoint returns the last acknowledged sequence for a
	// consumer group and category, zero when the group has never
	// checkpointed.
	GetCheckpoint(ctx context.Context, groupName string, aggregateType enums.AggregateType) (int64, error)

	// SaveCheckpoint advances the group's position. Positions never
	// move backwards.
	SaveCheckpoint(ctx context.Context, groupName string, aggregateType enums.AggregateType, position int64) error

	// ParkEvent records an event whose handlers exhausted their retry
	// budget. Parking the same event twice for one group is a no-op.
	ParkEvent(ctx context.Context, parked models.ParkedEvent) error
}
