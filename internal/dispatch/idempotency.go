package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/estatepay/estatepay-backend/internal/domain/events"
	"github.com/estatepay/estatepay-backend/pkg/redis"
)

// IdempotentHandler wraps a handler with a Redis first-delivery guard.
// The underlying handlers are already idempotent through business-key
// uniqueness; the guard just short-circuits the common redelivery case
// before it reaches the database. A guard store outage degrades to
// calling the handler, never to dropping the event.
type IdempotentHandler struct {
	inner Handler
	store redis.IdempotencyStore
	group string
	ttl   time.Duration
}

// WrapIdempotent decorates a handler with the redelivery guard. The
// guard key is scoped per group and handler, so two handlers in one
// group each see the event once.
func WrapIdempotent(inner Handler, store redis.IdempotencyStore, group string, ttl time.Duration) *IdempotentHandler {
	return &IdempotentHandler{inner: inner, store: store, group: group, ttl: ttl}
}

func (h *IdempotentHandler) Name() string { return h.inner.Name() }

func (h *IdempotentHandler) Handle(ctx context.Context, envelope events.Envelope) error {
	if h.store == nil {
		return h.inner.Handle(ctx, envelope)
	}

	key := h.store.IdempotencyKey(
		fmt.Sprintf("dispatch:%s:%s", h.group, h.inner.Name()),
		envelope.EventID.String(),
	)
	first, err := h.store.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), h.ttl)
	if err != nil {
		// Guard unavailable; at-least-once still holds via the handler.
		return h.inner.Handle(ctx, envelope)
	}
	if !first {
		return nil
	}

	if err := h.inner.Handle(ctx, envelope); err != nil {
		// Free the key so the retry is not mistaken for a duplicate.
		_ = h.store.Del(ctx, key)
		return err
	}
	return nil
}
