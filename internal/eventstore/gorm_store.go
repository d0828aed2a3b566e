package eventstore

import (
	"context"
	stdErrors "errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/estatepay/estatepay-backend/pkg/db"
	"github.com/estatepay/estatepay-backend/pkg/db/models"
	"github.com/estatepay/estatepay-backend/pkg/enums"
	"github.com/estatepay/estatepay-backend/pkg/errors"
)

// GormStore persists streams in the event_records table. The unique
// (stream_id, version) index is the optimistic concurrency check: a
// losing concurrent append violates it and maps to a concurrency error.
type GormStore struct {
	client *db.Client
}

func NewGormStore(client *db.Client) *GormStore {
	return &GormStore{client: client}
}

func (s *GormStore) AppendToStream(ctx context.Context, streamID uuid.UUID, aggregateType enums.AggregateType, expectedVersion int64, batch []AppendEvent) error {
	if len(batch) == 0 {
		return nil
	}
	records := make([]models.EventRecord, 0, len(batch))
	for i, event := range batch {
		records = append(records, models.EventRecord{
			StreamID:      streamID,
			AggregateType: aggregateType,
			Version:       expectedVersion + int64(i) + 1,
			EventID:       event.EventID,
			EventType:     event.EventType,
			Payload:       event.Payload,
			Timestamp:     event.Timestamp,
		})
	}
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&records).Error
	})
	if err != nil {
		if db.IsUniqueViolation(err, "ux_event_records_stream_version") {
			return errors.Wrap(errors.CodeConcurrency, err, "stream modified since load")
		}
		if db.IsUniqueViolation(err, "ux_event_records_event_id") {
			return errors.Wrap(errors.CodeConflict, err, "event id already persisted")
		}
		return errors.Wrap(errors.CodeDependency, err, "append to stream")
	}
	return nil
}

func (s *GormStore) ReadStreamForward(ctx context.Context, streamID uuid.UUID, fromVersion int64, limit int) ([]models.EventRecord, error) {
	var records []models.EventRecord
	query := s.client.DB().WithContext(ctx).
		Where("stream_id = ? AND version > ?", streamID, fromVersion).
		Order("version ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "read stream forward")
	}
	return records, nil
}

func (s *GormStore) ReadCategoryForward(ctx context.Context, aggregateType enums.AggregateType, afterSequence int64, limit int) ([]models.EventRecord, error) {
	var records []models.EventRecord
	query := s.client.DB().WithContext(ctx).
		Where("aggregate_type = ? AND sequence > ?", aggregateType, afterSequence).
		Order("sequence ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "read category forward")
	}
	return records, nil
}

func (s *GormStore) ReadAllForward(ctx context.Context, afterSequence int64, limit int) ([]models.EventRecord, error) {
	var records []models.EventRecord
	query := s.client.DB().WithContext(ctx).
		Where("sequence > ?", afterSequence).
		Order("sequence ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "read all forward")
	}
	return records, nil
}

func (s *GormStore) GetCheckpoint(ctx context.Context, groupName string, aggregateType enums.AggregateType) (int64, error) {
	var checkpoint models.SubscriptionCheckpoint
	err := s.client.DB().WithContext(ctx).
		Where("group_name = ? AND aggregate_type = ?", groupName, aggregateType).
		First(&checkpoint).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, errors.Wrap(errors.CodeDependency, err, "load checkpoint")
	}
	return checkpoint.Position, nil
}

// SaveCheckpoint upserts the group's position. The dispatcher is the
// single writer per group, so the monotonicity read is not racy.
func (s *GormStore) SaveCheckpoint(ctx context.Context, groupName string, aggregateType enums.AggregateType, position int64) error {
	current, err := s.GetCheckpoint(ctx, groupName, aggregateType)
	if err != nil {
		return err
	}
	if position <= current {
		return nil
	}
	checkpoint := models.SubscriptionCheckpoint{
		GroupName:     groupName,
		AggregateType: aggregateType,
		Position:      position,
	}
	err = s.client.DB().WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "group_name"}, {Name: "aggregate_type"}},
			DoUpdates: clause.Assignments(map[string]any{"position": position}),
		}).
		Create(&checkpoint).Error
	if err != nil {
		return errors.Wrap(errors.CodeDependency, err, "save checkpoint")
	}
	return nil
}

func (s *GormStore) ParkEvent(ctx context.Context, parked models.ParkedEvent) error {
	if parked.ID == uuid.Nil {
		parked.ID = uuid.New()
	}
	err := s.client.DB().WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&parked).Error
	if err != nil {
		return errors.Wrap(errors.CodeDependency, err, "park event")
	}
	return nil
}
