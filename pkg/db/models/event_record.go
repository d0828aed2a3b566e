package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/estatepay/estatepay-backend/pkg/enums"
)

// EventRecord is one immutable entry in a per-aggregate event stream.
// Version is the 1-based position within the stream; the unique
// (stream_id, version) index is what turns a losing concurrent append
// into a constraint violation. Sequence is the global commit order the
// dispatcher and relay tail by.
type EventRecord struct {
	Sequence      int64               `gorm:"column:sequence;primaryKey;autoIncrement"`
	StreamID      uuid.UUID           `gorm:"column:stream_id;type:uuid;not null;uniqueIndex:ux_event_records_stream_version,priority:1"`
	AggregateType enums.AggregateType `gorm:"column:aggregate_type;type:text;not null;index"`
	Version       int64               `gorm:"column:version;not null;uniqueIndex:ux_event_records_stream_version,priority:2"`
	EventID       uuid.UUID           `gorm:"column:event_id;type:uuid;not null;uniqueIndex:ux_event_records_event_id"`
	EventType     enums.EventType     `gorm:"column:event_type;type:text;not null"`
	Payload       json.RawMessage     `gorm:"column:payload;type:jsonb;not null"`
	Timestamp     time.Time           `gorm:"column:event_timestamp;not null"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
}

// SubscriptionCheckpoint stores the last acknowledged global sequence per
// consumer group and stream category. Position only moves forward after
// every handler for the batch has completed.
type SubscriptionCheckpoint struct {
	GroupName     string              `gorm:"column:group_name;type:text;primaryKey"`
	AggregateType enums.AggregateType `gorm:"column:aggregate_type;type:text;primaryKey"`
	Position      int64               `gorm:"column:position;not null;default:0"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// ParkedEvent captures events whose handlers exhausted their retry
// budget. Parked events are never dropped; remediation replays them.
type ParkedEvent struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	GroupName     string              `gorm:"column:group_name;type:text;not null;uniqueIndex:ux_parked_events_group_event,priority:1"`
	EventID       uuid.UUID           `gorm:"column:event_id;type:uuid;not null;uniqueIndex:ux_parked_events_group_event,priority:2"`
	StreamID      uuid.UUID           `gorm:"column:stream_id;type:uuid;not null"`
	AggregateType enums.AggregateType `gorm:"column:aggregate_type;type:text;not null"`
	EventType     enums.EventType     `gorm:"column:event_type;type:text;not null"`
	Payload       json.RawMessage     `gorm:"column:payload;type:jsonb;not null"`
	ParkReason    enums.ParkReason    `gorm:"column:park_reason;type:text;not null"`
	LastError     *string             `gorm:"column:last_error"`
	AttemptCount  int                 `gorm:"column:attempt_count;not null;default:0"`
	ParkedAt      time.Time           `gorm:"column:parked_at;autoCreateTime"`
}

// RelayCheckpoint is the single-row cursor the Pub/Sub relay publishes from.
type RelayCheckpoint struct {
	Name      string    `gorm:"column:name;type:text;primaryKey"`
	Position  int64     `gorm:"column:position;not null;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
