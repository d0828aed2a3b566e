package eventstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/estatepay/estatepay-backend/pkg/db/models"
	"github.com/estatepay/estatepay-backend/pkg/enums"
	"github.com/estatepay/estatepay-backend/pkg/errors"
)

type checkpointKey struct {
	groupName     string
	aggregateType enums.AggregateType
}

type parkedKey struct {
	groupName string
	eventID   uuid.UUID
}

// MemoryStore is an in-process Store with the same concurrency and
// ordering semantics as the relational one. Used by tests and local
// tooling; not durable.
type MemoryStore struct {
	mtx         sync.RWMutex
	records     []models.EventRecord
	versions    map[uuid.UUID]int64
	eventIDs    map[uuid.UUID]struct{}
	checkpoints map[checkpointKey]int64
	parked      map[parkedKey]models.ParkedEvent
	sequence    int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		versions:    make(map[uuid.UUID]int64),
		eventIDs:    make(map[uuid.UUID]struct{}),
		checkpoints: make(map[checkpointKey]int64),
		parked:      make(map[parkedKey]models.ParkedEvent),
	}
}

func (s *MemoryStore) AppendToStream(_ context.Context, streamID uuid.UUID, aggregateType enums.AggregateType, expectedVersion int64, batch []AppendEvent) error {
	if len(batch) == 0 {
		return nil
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.versions[streamID] != expectedVersion {
		return errors.New(errors.CodeConcurrency, fmt.Sprintf("stream at version %d, expected %d", s.versions[streamID], expectedVersion))
	}
	for _, event := range batch {
		if _, seen := s.eventIDs[event.EventID]; seen {
			return errors.New(errors.CodeConflict, fmt.Sprintf("event %s already persisted", event.EventID))
		}
	}
	for i, event := range batch {
		s.sequence++
		s.records = append(s.records, models.EventRecord{
			Sequence:      s.sequence,
			StreamID:      streamID,
			AggregateType: aggregateType,
			Version:       expectedVersion + int64(i) + 1,
			EventID:       event.EventID,
			EventType:     event.EventType,
			Payload:       event.Payload,
			Timestamp:     event.Timestamp,
		})
		s.eventIDs[event.EventID] = struct{}{}
	}
	s.versions[streamID] = expectedVersion + int64(len(batch))
	return nil
}

func (s *MemoryStore) ReadStreamForward(_ context.Context, streamID uuid.UUID, fromVersion int64, limit int) ([]models.EventRecord, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	var out []models.EventRecord
	for _, record := range s.records {
		if record.StreamID == streamID && record.Version > fromVersion {
			out = append(out, record)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *MemoryStore) ReadCategoryForward(_ context.Context, aggregateType enums.AggregateType, afterSequence int64, limit int) ([]models.EventRecord, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	var out []models.EventRecord
	for _, record := range s.records {
		if record.AggregateType == aggregateType && record.Sequence > afterSequence {
			out = append(out, record)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *MemoryStore) ReadAllForward(_ context.Context, afterSequence int64, limit int) ([]models.EventRecord, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	var out []models.EventRecord
	for _, record := range s.records {
		if record.Sequence > afterSequence {
			out = append(out, record)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *MemoryStore) GetCheckpoint(_ context.Context, groupName string, aggregateType enums.AggregateType) (int64, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.checkpoints[checkpointKey{groupName: groupName, aggregateType: aggregateType}], nil
}

func (s *MemoryStore) SaveCheckpoint(_ context.Context, groupName string, aggregateType enums.AggregateType, position int64) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	key := checkpointKey{groupName: groupName, aggregateType: aggregateType}
	if position > s.checkpoints[key] {
		s.checkpoints[key] = position
	}
	return nil
}

func (s *MemoryStore) ParkEvent(_ context.Context, parked models.ParkedEvent) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	key := parkedKey{groupName: parked.GroupName, eventID: parked.EventID}
	if _, exists := s.parked[key]; exists {
		return nil
	}
	if parked.ID == uuid.Nil {
		parked.ID = uuid.New()
	}
	s.parked[key] = parked
	return nil
}

// ParkedEvents returns a copy of everything parked so far.
func (s *MemoryStore) ParkedEvents() []models.ParkedEvent {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	out := make([]models.ParkedEvent, 0, len(s.parked))
	for _, parked := range s.parked {
		out = append(out, parked)
	}
	return out
}
