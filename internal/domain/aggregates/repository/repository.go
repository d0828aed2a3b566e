package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/estatepay/estatepay-backend/internal/domain/aggregates"
	"github.com/estatepay/estatepay-backend/internal/domain/events"
	"github.com/estatepay/estatepay-backend/internal/eventstore"
	"github.com/estatepay/estatepay-backend/pkg/errors"
)

const defaultPageSize = 200

// Option adjusts repository behaviour.
type Option func(*settings)

type settings struct {
	pageSize int
}

// WithPageSize sets the replay read chunk size.
func WithPageSize(size int) Option {
	return func(s *settings) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

// Repository loads and saves one aggregate type against the event
// store. Loading folds the stream page by page; saving appends the
// pending events with the version the aggregate was loaded at, so a
// concurrent writer surfaces as a concurrency error rather than a lost
// update.
type Repository[T aggregates.Aggregate] struct {
	store    eventstore.Store
	registry *events.Registry
	factory  func(id uuid.UUID) T
	pageSize int
}

// New builds a repository for one aggregate type. The factory returns
// an empty instance positioned on the given stream.
func New[T aggregates.Aggregate](store eventstore.Store, registry *events.Registry, factory func(id uuid.UUID) T, opts ...Option) *Repository[T] {
	cfg := settings{pageSize: defaultPageSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Repository[T]{
		store:    store,
		registry: registry,
		factory:  factory,
		pageSize: cfg.pageSize,
	}
}

// GetLatestVersion replays the stream into a fresh aggregate. A stream
// with zero events yields a valid aggregate with IsCreated false, not
// an error; callers decide whether an absent aggregate is NotFound.
func (r *Repository[T]) GetLatestVersion(ctx context.Context, aggregateID uuid.UUID) (T, error) {
	aggregate := r.factory(aggregateID)
	fromVersion := int64(0)
	for {
		records, err := r.store.ReadStreamForward(ctx, aggregateID, fromVersion, r.pageSize)
		if err != nil {
			var zero T
			return zero, err
		}
		for _, record := range records {
			envelope, err := r.registry.Decode(record)
			if err != nil {
				var zero T
				return zero, err
			}
			if err := aggregate.Apply(envelope.Payload); err != nil {
				var zero T
				return zero, err
			}
			fromVersion = record.Version
		}
		if len(records) < r.pageSize {
			return aggregate, nil
		}
	}
}

// SaveChanges appends the aggregate's pending events as one atomic
// batch. The expected version is the version the aggregate was loaded
// at; on success the pending list is cleared so a repeated save is a
// no-op. A concurrency error means the caller must reload and rerun
// the whole command, this repository never retries.
func (r *Repository[T]) SaveChanges(ctx context.Context, aggregate T) error {
	pending := aggregate.PendingEvents()
	if len(pending) == 0 {
		return nil
	}
	loadedVersion := aggregate.Version() - int64(len(pending))

	now := time.Now().UTC()
	batch := make([]eventstore.AppendEvent, 0, len(pending))
	for _, payload := range pending {
		raw, err := events.Marshal(payload)
		if err != nil {
			return errors.Wrap(errors.CodeConfiguration, err, "serialize pending event")
		}
		batch = append(batch, eventstore.AppendEvent{
			EventID:   uuid.New(),
			EventType: payload.EventType(),
			Payload:   raw,
			Timestamp: now,
		})
	}

	if err := r.store.AppendToStream(ctx, aggregate.AggregateID(), aggregate.AggregateType(), loadedVersion, batch); err != nil {
		return err
	}
	aggregate.ClearPending()
	return nil
}
