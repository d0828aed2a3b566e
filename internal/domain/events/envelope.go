package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/estatepay/estatepay-backend/pkg/enums"
)

// Payload is the event-specific body of a domain event. Implementations
// are plain serializable structs; the discriminator ties them back to
// their registry entry.
type Payload interface {
	EventType() enums.EventType
}

// Envelope pairs a decoded payload with its stream metadata. Events are
// immutable once created; identity is the EventID, ordering within a
// stream is the Version.
type Envelope struct {
	StreamID      uuid.UUID
	AggregateType enums.AggregateType
	EventID       uuid.UUID
	EventType     enums.EventType
	Version       int64
	Sequence      int64
	Timestamp     time.Time
	Payload       Payload
}

// Marshal serializes the payload body for persistence.
func Marshal(payload Payload) (json.RawMessage, error) {
	return json.Marshal(payload)
}
