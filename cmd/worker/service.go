package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/estatepay/estatepay-backend/internal/dispatch"
	"github.com/estatepay/estatepay-backend/internal/domain/events"
	"github.com/estatepay/estatepay-backend/internal/eventstore"
	"github.com/estatepay/estatepay-backend/internal/projections/merchantbalance"
	"github.com/estatepay/estatepay-backend/internal/projections/voucher"
	"github.com/estatepay/estatepay-backend/internal/readmodel"
	"github.com/estatepay/estatepay-backend/pkg/config"
	"github.com/estatepay/estatepay-backend/pkg/db"
	"github.com/estatepay/estatepay-backend/pkg/enums"
	"github.com/estatepay/estatepay-backend/pkg/logger"
	"github.com/estatepay/estatepay-backend/pkg/metrics"
	"github.com/estatepay/estatepay-backend/pkg/redis"
)

type ServiceParams struct {
	Config *config.Config
	Logger *logger.Logger
	DB     *db.Client
	Redis  *redis.Client
}

// Service runs the subscription dispatcher that feeds every projection
// and read model from the event log, plus the metrics endpoint.
type Service struct {
	cfg        *config.Config
	logg       *logger.Logger
	db         *db.Client
	redis      *redis.Client
	dispatcher *dispatch.Dispatcher
	registry   *prometheus.Registry
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
	if params.Redis == nil {
		return nil, errors.New("redis client is required")
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	dispatcherMetrics := metrics.NewDispatcherMetrics(promRegistry)

	store := eventstore.NewGormStore(params.DB)
	decoder := events.NewRegistry()

	// Ordered pipelines throughout: the read model assumes the create
	// event of a stream lands before its updates, and the balance
	// projection is a running fold.
	readModelHandler := readmodel.NewHandler(readmodel.NewRepository(params.DB))
	readModelRegistry := dispatch.NewHandlerRegistry().
		On(readModelHandler, readModelHandler.EventTypes()...)

	balanceProjector := merchantbalance.NewProjector(merchantbalance.NewRepository(params.DB), params.Logger)
	balanceHandler := dispatch.WrapIdempotent(
		balanceProjector,
		params.Redis,
		balanceProjector.Name(),
		params.Config.Eventing.HandlerIdempotencyTTL,
	)
	balanceRegistry := dispatch.NewHandlerRegistry().
		On(balanceHandler, balanceProjector.EventTypes()...)

	voucherProjector := voucher.NewProjector(voucher.NewRepository(params.DB))
	voucherRegistry := dispatch.NewHandlerRegistry().
		On(voucherProjector, voucherProjector.EventTypes()...)

	dispatcher, err := dispatch.NewDispatcher(dispatch.DispatcherParams{
		Config:  params.Config.Dispatcher,
		Logger:  params.Logger,
		Store:   store,
		Decoder: decoder,
		Metrics: dispatcherMetrics,
		Subscriptions: []dispatch.Subscription{
			{
				GroupName: "read-model",
				AggregateTypes: []enums.AggregateType{
					enums.AggregateEstate,
					enums.AggregateOperator,
					enums.AggregateMerchant,
					enums.AggregateContract,
					enums.AggregateFloat,
					enums.AggregateTransaction,
					enums.AggregateSettlement,
				},
				Pipeline: dispatch.PipelineOrdered,
				Registry: readModelRegistry,
			},
			{
				GroupName: "merchant-balance",
				AggregateTypes: []enums.AggregateType{
					enums.AggregateMerchant,
					enums.AggregateTransaction,
				},
				Pipeline: dispatch.PipelineOrdered,
				Registry: balanceRegistry,
			},
			{
				GroupName:      "voucher-state",
				AggregateTypes: []enums.AggregateType{enums.AggregateVoucher},
				Pipeline:       dispatch.PipelineOrdered,
				Registry:       voucherRegistry,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("building dispatcher: %w", err)
	}

	return &Service{
		cfg:        params.Config,
		logg:       params.Logger,
		db:         params.DB,
		redis:      params.Redis,
		dispatcher: dispatcher,
		registry:   promRegistry,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	if err := pingDependency(ctx, s.logg, "database", s.db.Ping); err != nil {
		return err
	}
	if err := pingDependency(ctx, s.logg, "redis", s.redis.Ping); err != nil {
		return err
	}
	s.logg.Info(ctx, "all worker dependencies are ready")
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

	metricsServer := &http.Server{
		Addr:    ":" + s.cfg.Dispatcher.MetricsPort,
		Handler: promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}),
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- s.dispatcher.Run(ctx)
	}()
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "worker context canceled")
			return ctx.Err()
		case err := <-errCh:
			if err != nil && !errors.Is(err, context.Canceled) {
				s.logg.Error(ctx, "worker stopped unexpectedly", err)
				return err
			}
			return nil
		}
	}
}
