package dispatch

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/estatepay/estatepay-backend/internal/domain/events"
	"github.com/estatepay/estatepay-backend/internal/eventstore"
	"github.com/estatepay/estatepay-backend/pkg/config"
	"github.com/estatepay/estatepay-backend/pkg/db/models"
	"github.com/estatepay/estatepay-backend/pkg/enums"
	"github.com/estatepay/estatepay-backend/pkg/errors"
	"github.com/estatepay/estatepay-backend/pkg/logger"
	"github.com/estatepay/estatepay-backend/pkg/metrics"
)

const (
	defaultBatchSize   = 100
	defaultPollMs      = 500
	defaultMaxRetries  = 5
	defaultRetryDelay  = 200 * time.Millisecond
	maxLoopBackoff     = 10 * time.Second
	jitterWindow       = 250 * time.Millisecond
	defaultConcurrency = 4
)

// DispatcherParams wire the subscription worker.
type DispatcherParams struct {
	Config        config.DispatcherConfig
	Logger        *logger.Logger
	Store         eventstore.Store
	Decoder       *events.Registry
	Metrics       *metrics.DispatcherMetrics
	Subscriptions []Subscription
}

// Dispatcher tails the event store per subscription group, decodes each
// committed record and routes it to the handlers registered for its
// type. Delivery is at least once: the checkpoint only advances after
// the whole batch has been handled or parked, so a crash replays the
// tail and idempotent handlers absorb the duplicates.
type Dispatcher struct {
	cfg           config.DispatcherConfig
	logg          *logger.Logger
	store         eventstore.Store
	decoder       *events.Registry
	metrics       *metrics.DispatcherMetrics
	subscriptions []Subscription
}

// NewDispatcher validates the wiring and builds a dispatcher.
func NewDispatcher(params DispatcherParams) (*Dispatcher, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("event store is required")
	}
	if params.Decoder == nil {
		return nil, fmt.Errorf("event decoder is required")
	}
	if len(params.Subscriptions) == 0 {
		return nil, fmt.Errorf("at least one subscription is required")
	}
	seen := map[string]struct{}{}
	for _, subscription := range params.Subscriptions {
		if err := subscription.validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[subscription.GroupName]; dup {
			return nil, fmt.Errorf("duplicate subscription group %q", subscription.GroupName)
		}
		seen[subscription.GroupName] = struct{}{}
	}

	cfg := params.Config
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollMs * time.Millisecond
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = defaultRetryDelay
	}
	if cfg.MainConcurrency <= 0 {
		cfg.MainConcurrency = defaultConcurrency
	}
	if cfg.OrderedConcurrency <= 0 {
		cfg.OrderedConcurrency = defaultConcurrency
	}

	return &Dispatcher{
		cfg:           cfg,
		logg:          params.Logger,
		store:         params.Store,
		decoder:       params.Decoder,
		metrics:       params.Metrics,
		subscriptions: params.Subscriptions,
	}, nil
}

// Run polls every subscription until the context is canceled. Each
// (group, category) pair gets its own loop so one slow category never
// starves the rest.
func (d *Dispatcher) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	errs := make(chan error, len(d.subscriptions)*4)

	for _, subscription := range d.subscriptions {
		for _, aggregateType := range subscription.AggregateTypes {
			wg.Add(1)
			go func(sub Subscription, category enums.AggregateType) {
				defer wg.Done()
				if err := d.pollLoop(ctx, sub, category); err != nil && !stdCanceled(err) {
					errs <- err
				}
			}(subscription, aggregateType)
		}
	}

	wg.Wait()
	close(errs)

	var combined error
	for err := range errs {
		combined = multierr.Append(combined, err)
	}
	if combined != nil {
		return combined
	}
	return ctx.Err()
}

func stdCanceled(err error) bool {
	return err == context.Canceled || err == context.DeadlineExceeded
}

func (d *Dispatcher) pollLoop(ctx context.Context, sub Subscription, category enums.AggregateType) error {
	interval := d.cfg.PollInterval
	backoff := interval

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		processed, err := d.processBatch(ctx, sub, category)
		if err != nil {
			loopCtx := d.logg.WithFields(ctx, map[string]any{
				"group":          sub.GroupName,
				"aggregate_type": category,
			})
			d.logg.Error(loopCtx, "dispatch batch failed", err)
			backoff = nextBackoff(backoff, interval, maxLoopBackoff)
			if err := sleepCtx(ctx, withJitter(backoff)); err != nil {
				return err
			}
			continue
		}

		backoff = interval
		if processed {
			continue
		}
		if err := sleepCtx(ctx, withJitter(interval)); err != nil {
			return err
		}
	}
}

// processBatch reads one batch past the group's checkpoint, dispatches
// it and advances the checkpoint. Returns whether anything was read.
func (d *Dispatcher) processBatch(ctx context.Context, sub Subscription, category enums.AggregateType) (bool, error) {
	checkpoint, err := d.store.GetCheckpoint(ctx, sub.GroupName, category)
	if err != nil {
		return false, err
	}
	records, err := d.store.ReadCategoryForward(ctx, category, checkpoint, d.cfg.BatchSize)
	if err != nil {
		return false, err
	}
	if len(records) == 0 {
		return false, nil
	}

	envelopes := make([]events.Envelope, 0, len(records))
	for _, record := range records {
		envelope, err := d.decoder.Decode(record)
		if err != nil {
			// Undecodable events can never succeed; park and move on.
			if parkErr := d.park(ctx, sub, record, enums.ParkReasonNonRetryable, 0, err); parkErr != nil {
				return false, parkErr
			}
			continue
		}
		envelopes = append(envelopes, envelope)
	}

	switch sub.Pipeline {
	case PipelineOrdered:
		err = d.dispatchOrdered(ctx, sub, envelopes)
	default:
		err = d.dispatchMain(ctx, sub, envelopes)
	}
	if err != nil {
		return true, err
	}

	last := records[len(records)-1]
	if err := d.store.SaveCheckpoint(ctx, sub.GroupName, category, last.Sequence); err != nil {
		return true, err
	}
	d.metrics.SetCheckpointLag(sub.GroupName, time.Since(last.Timestamp).Seconds())
	return true, nil
}

// dispatchMain processes the batch with bounded parallelism and no
// ordering guarantee.
func (d *Dispatcher) dispatchMain(ctx context.Context, sub Subscription, envelopes []events.Envelope) error {
	sem := make(chan struct{}, d.cfg.MainConcurrency)
	var wg sync.WaitGroup
	var mtx sync.Mutex
	var combined error

	for _, envelope := range envelopes {
		wg.Add(1)
		sem <- struct{}{}
		go func(envelope events.Envelope) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := d.deliver(ctx, sub, envelope); err != nil {
				mtx.Lock()
				combined = multierr.Append(combined, err)
				mtx.Unlock()
			}
		}(envelope)
	}
	wg.Wait()
	return combined
}

// dispatchOrdered folds events of one stream strictly in version order;
// distinct streams still run in parallel.
func (d *Dispatcher) dispatchOrdered(ctx context.Context, sub Subscription, envelopes []events.Envelope) error {
	partitions := make(map[uuid.UUID][]events.Envelope)
	for _, envelope := range envelopes {
		partitions[envelope.StreamID] = append(partitions[envelope.StreamID], envelope)
	}
	for _, partition := range partitions {
		sort.Slice(partition, func(i, j int) bool { return partition[i].Version < partition[j].Version })
	}

	sem := make(chan struct{}, d.cfg.OrderedConcurrency)
	var wg sync.WaitGroup
	var mtx sync.Mutex
	var combined error

	for _, partition := range partitions {
		wg.Add(1)
		sem <- struct{}{}
		go func(partition []events.Envelope) {
			defer wg.Done()
			defer func() { <-sem }()
			for _, envelope := range partition {
				if err := d.deliver(ctx, sub, envelope); err != nil {
					mtx.Lock()
					combined = multierr.Append(combined, err)
					mtx.Unlock()
					// The rest of this stream depends on this event;
					// stop the partition and let redelivery resume it.
					return
				}
			}
		}(partition)
	}
	wg.Wait()
	return combined
}

// deliver runs every registered handler for the event, retrying
// retryable failures with exponential backoff. Exhausted or
// non-retryable failures park the event; parking counts as handled so
// the pipeline never blocks indefinitely. The returned error is
// infrastructure-only (parking itself failed) and aborts the batch
// before the checkpoint advances.
func (d *Dispatcher) deliver(ctx context.Context, sub Subscription, envelope events.Envelope) error {
	handlers := sub.Registry.HandlersFor(envelope.EventType)
	if len(handlers) == 0 {
		return nil
	}

	eventCtx := d.logg.WithFields(ctx, map[string]any{
		"group":      sub.GroupName,
		"event_id":   envelope.EventID.String(),
		"event_type": envelope.EventType,
		"stream_id":  envelope.StreamID.String(),
		"version":    envelope.Version,
	})

	for _, handler := range handlers {
		attempts, err := d.handleWithRetry(ctx, sub, handler, envelope)
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			// Shutdown, not a handler failure; redelivery picks it up.
			return ctx.Err()
		}

		reason := enums.ParkReasonMaxRetries
		if !errors.CodeOf(err).Retryable() {
			reason = enums.ParkReasonNonRetryable
		}
		handlerCtx := d.logg.WithField(eventCtx, "handler", handler.Name())
		d.logg.Error(handlerCtx, "handler failed, parking event", err)

		record := recordFromEnvelope(envelope)
		if parkErr := d.park(ctx, sub, record, reason, attempts, err); parkErr != nil {
			return parkErr
		}
		d.metrics.IncParked(string(sub.Pipeline), string(envelope.EventType))
		// Remaining handlers still get the event; one bad handler must
		// not stall its peers.
	}

	d.metrics.IncProcessed(string(sub.Pipeline), string(envelope.EventType))
	return nil
}

func (d *Dispatcher) handleWithRetry(ctx context.Context, sub Subscription, handler Handler, envelope events.Envelope) (int, error) {
	delay := d.cfg.RetryBaseDelay
	var lastErr error

	for attempt := 1; attempt <= d.cfg.MaxRetries; attempt++ {
		started := time.Now()
		err := handler.Handle(ctx, envelope)
		d.metrics.ObserveHandleDuration(string(sub.Pipeline), string(envelope.EventType), time.Since(started))
		if err == nil {
			return attempt, nil
		}
		lastErr = err

		if !errors.CodeOf(err).Retryable() {
			return attempt, err
		}
		if attempt == d.cfg.MaxRetries {
			break
		}
		d.metrics.IncRetried(string(sub.Pipeline), string(envelope.EventType))
		if err := sleepCtx(ctx, withJitter(delay)); err != nil {
			return attempt, lastErr
		}
		delay = nextBackoff(delay, d.cfg.RetryBaseDelay, maxLoopBackoff)
	}
	return d.cfg.MaxRetries, lastErr
}

func (d *Dispatcher) park(ctx context.Context, sub Subscription, record models.EventRecord, reason enums.ParkReason, attempts int, cause error) error {
	var lastError *string
	if cause != nil {
		msg := cause.Error()
		lastError = &msg
	}
	return d.store.ParkEvent(ctx, models.ParkedEvent{
		GroupName:     sub.GroupName,
		EventID:       record.EventID,
		StreamID:      record.StreamID,
		AggregateType: record.AggregateType,
		EventType:     record.EventType,
		Payload:       record.Payload,
		ParkReason:    reason,
		LastError:     lastError,
		AttemptCount:  attempts,
	})
}

func recordFromEnvelope(envelope events.Envelope) models.EventRecord {
	payload, err := events.Marshal(envelope.Payload)
	if err != nil {
		payload = nil
	}
	return models.EventRecord{
		Sequence:      envelope.Sequence,
		StreamID:      envelope.StreamID,
		AggregateType: envelope.AggregateType,
		Version:       envelope.Version,
		EventID:       envelope.EventID,
		EventType:     envelope.EventType,
		Payload:       payload,
		Timestamp:     envelope.Timestamp,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, max time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	jitter := time.Duration(rand.Int63n(int64(jitterWindow)))
	return d + jitter
}
