package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/estatepay/estatepay-backend/internal/eventstore"
	"github.com/estatepay/estatepay-backend/pkg/config"
	"github.com/estatepay/estatepay-backend/pkg/db"
	"github.com/estatepay/estatepay-backend/pkg/logger"
	"github.com/estatepay/estatepay-backend/pkg/pubsub"
	"github.com/estatepay/estatepay-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "relay"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "relay",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	lock, err := redis.NewLock(redisClient, redisClient.LockKey("pubsub-relay"), cfg.Relay.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to build relay lock", err)
		os.Exit(1)
	}

	service, err := NewService(ServiceParams{
		Config: cfg,
		Logger: logg,
		DB:     dbClient,
		Store:  eventstore.NewGormStore(dbClient),
		PubSub: pubsubClient,
		Lock:   lock,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build relay service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logg.Info(logg.WithField(ctx, "env", cfg.App.Env), "starting relay")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "relay exited with error", err)
		os.Exit(1)
	}
	logg.Info(context.Background(), "relay shut down cleanly")
}
