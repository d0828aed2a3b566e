// Package commands hosts the write-side command handlers. Each handler
// loads the aggregates a command touches, invokes their command
// methods, and persists the pending events. Business rule failures come
// back as typed errors; terminal-facing handlers additionally fold the
// decision into a response-coded outcome.
package commands

import (
	"context"
	"time"

	"github.com/estatepay/estatepay-backend/pkg/errors"
)

const conflictRetries = 3

// swapped in tests
var timeNowUTC = func() time.Time {
	return time.Now().UTC()
}

// withConflictRetry reruns fn while it fails with a concurrency error,
// up to a small bound. fn must reload its aggregates on every attempt.
func withConflictRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		err = fn(ctx)
		if err == nil || !errors.Is(err, errors.CodeConcurrency) {
			return err
		}
	}
	return err
}
