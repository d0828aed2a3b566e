package dispatch

import (
	"context"

	"github.com/estatepay/estatepay-backend/internal/domain/events"
	"github.com/estatepay/estatepay-backend/pkg/enums"
)

// Handler consumes one committed event. Delivery is at least once, so
// every handler must treat a duplicate event as success, typically via
// a business-key uniqueness check on the event ID.
type Handler interface {
	Name() string
	Handle(ctx context.Context, envelope events.Envelope) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc struct {
	HandlerName string
	Fn          func(ctx context.Context, envelope events.Envelope) error
}

func (h HandlerFunc) Name() string { return h.HandlerName }

func (h HandlerFunc) Handle(ctx context.Context, envelope events.Envelope) error {
	return h.Fn(ctx, envelope)
}

// HandlerRegistry maps event types to the handlers subscribed to them.
// Built once at startup and read-only afterwards; each pipeline carries
// its own registry.
type HandlerRegistry struct {
	handlers map[enums.EventType][]Handler
}

// NewHandlerRegistry builds an empty registry.
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: make(map[enums.EventType][]Handler)}
}

// On subscribes a handler to one or more event types. Returns the
// registry for chaining during wiring.
func (r *HandlerRegistry) On(handler Handler, eventTypes ...enums.EventType) *HandlerRegistry {
	if handler == nil {
		return r
	}
	for _, eventType := range eventTypes {
		r.handlers[eventType] = append(r.handlers[eventType], handler)
	}
	return r
}

// HandlersFor returns the handlers subscribed to an event type, in
// registration order. Zero handlers is valid: the event is simply
// acknowledged.
func (r *HandlerRegistry) HandlersFor(eventType enums.EventType) []Handler {
	return r.handlers[eventType]
}

// EventTypes lists every type with at least one handler.
func (r *HandlerRegistry) EventTypes() []enums.EventType {
	types := make([]enums.EventType, 0, len(r.handlers))
	for eventType := range r.handlers {
		types = append(types, eventType)
	}
	return types
}
