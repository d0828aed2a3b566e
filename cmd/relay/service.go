package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/estatepay/estatepay-backend/internal/eventstore"
	"github.com/estatepay/estatepay-backend/pkg/config"
	"github.com/estatepay/estatepay-backend/pkg/db/models"
	"github.com/estatepay/estatepay-backend/pkg/logger"
	"github.com/estatepay/estatepay-backend/pkg/redis"
)

const (
	checkpointName        = "pubsub-relay"
	defaultBatchSize      = 50
	defaultPollInterval   = 500 * time.Millisecond
	defaultPublishTimeout = 15 * time.Second
	maxBackoff            = 10 * time.Second
	jitterWindow          = 250 * time.Millisecond
	lockRetryInterval     = 5 * time.Second
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type pubSubClient interface {
	Ping(context.Context) error
	DomainPublisher() *gcppubsub.Publisher
}

type ServiceParams struct {
	Config *config.Config
	Logger *logger.Logger
	DB     dbClient
	Store  eventstore.Store
	PubSub pubSubClient
	Lock   *redis.Lock
}

// Service tails the committed event log past a durable cursor and
// republishes each record onto the domain events topic. A Redis lock
// keeps it single-instance so the topic sees commit order. Delivery is
// at least once; subscribers dedupe on the event_id attribute.
type Service struct {
	cfg          *config.Config
	logg         *logger.Logger
	db           dbClient
	store        eventstore.Store
	pubsub       pubSubClient
	lock         *redis.Lock
	batchSize    int
	pollInterval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Store == nil {
		return nil, errors.New("event store is required")
	}
	if params.PubSub == nil {
		return nil, errors.New("pubsub client is required")
	}
	if params.Lock == nil {
		return nil, errors.New("relay lock is required")
	}

	batch := params.Config.Relay.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	interval := params.Config.Relay.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	return &Service{
		cfg:          params.Config,
		logg:         params.Logger,
		db:           params.DB,
		store:        params.Store,
		pubsub:       params.PubSub,
		lock:         params.Lock,
		batchSize:    batch,
		pollInterval: interval,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	if err := pingDependency(ctx, s.logg, "database", s.db.Ping); err != nil {
		return err
	}
	if err := pingDependency(ctx, s.logg, "pubsub", s.pubsub.Ping); err != nil {
		return err
	}
	return nil
}

func pingDependency(ctx context.Context, logg *logger.Logger, name string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
		return fmt.Errorf("%s ping failed: %w", name, err)
	}
	return nil
}

func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	if err := s.acquireLock(ctx); err != nil {
		return err
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.lock.Release(releaseCtx); err != nil {
			s.logg.Error(releaseCtx, "failed to release relay lock", err)
		}
	}()

	backoff := s.pollInterval
	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "relay context canceled")
			return ctx.Err()
		default:
		}

		published, err := s.processBatch(ctx)
		if err != nil {
			s.logg.Error(ctx, "relay batch error", err)
			backoff = nextBackoff(backoff, s.pollInterval, maxBackoff)
			if err := sleepCtx(ctx, withJitter(backoff)); err != nil {
				return err
			}
			continue
		}

		backoff = s.pollInterval
		if published {
			continue
		}
		if err := sleepCtx(ctx, withJitter(s.pollInterval)); err != nil {
			return err
		}
	}
}

// acquireLock blocks until this instance owns the relay lock. The TTL
// bounds how long a crashed instance stalls its successor.
func (s *Service) acquireLock(ctx context.Context) error {
	for {
		acquired, err := s.lock.Acquire(ctx)
		if err != nil {
			return fmt.Errorf("acquire relay lock: %w", err)
		}
		if acquired {
			s.logg.Info(ctx, "relay lock acquired")
			return nil
		}
		s.logg.Info(ctx, "relay lock held elsewhere, waiting")
		if err := sleepCtx(ctx, lockRetryInterval); err != nil {
			return err
		}
	}
}

func (s *Service) processBatch(ctx context.Context) (bool, error) {
	position, err := s.loadCheckpoint(ctx)
	if err != nil {
		return false, err
	}

	records, err := s.store.ReadAllForward(ctx, position, s.batchSize)
	if err != nil {
		return false, fmt.Errorf("read event log after %d: %w", position, err)
	}
	if len(records) == 0 {
		return false, nil
	}

	publisher := s.pubsub.DomainPublisher()
	if publisher == nil {
		return false, errors.New("domain publisher not configured")
	}

	for _, record := range records {
		if err := s.publish(ctx, publisher, record); err != nil {
			// The cursor stays put; the whole tail is retried and
			// subscribers drop the duplicates.
			return false, fmt.Errorf("publish sequence %d: %w", record.Sequence, err)
		}
		position = record.Sequence
	}

	if err := s.saveCheckpoint(ctx, position); err != nil {
		return false, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"published": len(records),
		"position":  position,
	})
	s.logg.Info(ctx, "relay batch published")
	return true, nil
}

func (s *Service) publish(ctx context.Context, publisher *gcppubsub.Publisher, record models.EventRecord) error {
	msg := &gcppubsub.Message{
		Data: record.Payload,
		Attributes: map[string]string{
			"event_id":       record.EventID.String(),
			"event_type":     string(record.EventType),
			"aggregate_type": string(record.AggregateType),
			"stream_id":      record.StreamID.String(),
			"version":        fmt.Sprintf("%d", record.Version),
			"occurred_at":    record.Timestamp.Format(time.RFC3339Nano),
		},
	}

	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()
	result := publisher.Publish(publishCtx, msg)
	if result == nil {
		return errors.New("publisher returned nil result")
	}
	_, err := result.Get(publishCtx)
	return err
}

func (s *Service) loadCheckpoint(ctx context.Context) (int64, error) {
	var position int64
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		var checkpoint models.RelayCheckpoint
		err := tx.Where("name = ?", checkpointName).First(&checkpoint).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		position = checkpoint.Position
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("load relay checkpoint: %w", err)
	}
	return position, nil
}

func (s *Service) saveCheckpoint(ctx context.Context, position int64) error {
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		checkpoint := models.RelayCheckpoint{Name: checkpointName, Position: position}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.Assignments(map[string]any{"position": position}),
		}).Create(&checkpoint).Error
	})
	if err != nil {
		return fmt.Errorf("save relay checkpoint: %w", err)
	}
	return nil
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
	return d + time.Duration(jitterSource.Int63n(int64(jitterWindow)))
}
