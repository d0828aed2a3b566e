package aggregates

import (
	"github.com/google/uuid"

	"github.com/estatepay/estatepay-backend/internal/domain/events"
	"github.com/estatepay/estatepay-backend/pkg/enums"
)

// Aggregate is the contract the repository replays and saves against.
// Implementations are stateless between requests: loaded fresh from the
// stream for every command and discarded after the save.
type Aggregate interface {
	AggregateID() uuid.UUID
	AggregateType() enums.AggregateType
	// Version is the position of the last applied event, pending
	// events included. Zero means nothing has been applied.
	Version() int64
	// IsCreated turns true once the stream's creation event has been
	// folded. Loading an empty stream yields a valid aggregate with
	// IsCreated false; callers decide whether that is an error.
	IsCreated() bool
	// Apply folds one event into state and advances the version. It is
	// used both for replaying history and for new events raised by
	// command methods.
	Apply(payload events.Payload) error
	PendingEvents() []events.Payload
	ClearPending()

	enqueue(payload events.Payload)
}

// raise folds a freshly emitted event into the aggregate and queues it
// for persistence. A command method that emits several events sees the
// effect of each before emitting the next.
func raise(a Aggregate, payload events.Payload) error {
	if err := a.Apply(payload); err != nil {
		return err
	}
	a.enqueue(payload)
	return nil
}

// Base carries the stream bookkeeping every aggregate shares. Command
// methods validate first and raise events only once the whole command
// is known to succeed, so a failed command never leaves folded-but-
// unvalidated state behind.
type Base struct {
	id      uuid.UUID
	version int64
	created bool
	pending []events.Payload
}

func (b *Base) AggregateID() uuid.UUID { return b.id }

func (b *Base) Version() int64 { return b.version }

func (b *Base) IsCreated() bool { return b.created }

func (b *Base) PendingEvents() []events.Payload { return b.pending }

func (b *Base) ClearPending() { b.pending = nil }

func (b *Base) setID(id uuid.UUID) { b.id = id }

func (b *Base) markCreated() { b.created = true }

func (b *Base) advance() { b.version++ }

func (b *Base) enqueue(payload events.Payload) { b.pending = append(b.pending, payload) }
