package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/estatepay/estatepay-backend/api/controllers"
	"github.com/estatepay/estatepay-backend/api/routes"
	"github.com/estatepay/estatepay-backend/internal/commands"
	"github.com/estatepay/estatepay-backend/internal/domain/events"
	"github.com/estatepay/estatepay-backend/internal/eventstore"
	"github.com/estatepay/estatepay-backend/internal/projections/merchantbalance"
	"github.com/estatepay/estatepay-backend/internal/projections/voucher"
	"github.com/estatepay/estatepay-backend/internal/readmodel"
	"github.com/estatepay/estatepay-backend/pkg/config"
	"github.com/estatepay/estatepay-backend/pkg/db"
	"github.com/estatepay/estatepay-backend/pkg/env"
	"github.com/estatepay/estatepay-backend/pkg/logger"
	"github.com/estatepay/estatepay-backend/pkg/migrate"
	"github.com/estatepay/estatepay-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

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

	store := eventstore.NewGormStore(dbClient)
	registry := events.NewRegistry()
	views := readmodel.NewRepository(dbClient)
	balances := merchantbalance.NewRepository(dbClient)
	vouchers := voucher.NewRepository(dbClient)

	svcs := routes.Services{
		Estates:         commands.NewEstateService(store, registry, logg),
		Merchants:       commands.NewMerchantService(store, registry, balances, logg),
		Contracts:       commands.NewContractService(store, registry, logg),
		Floats:          commands.NewFloatService(store, registry, logg),
		Transactions:    commands.NewTransactionService(store, registry, logg),
		Settlements:     commands.NewSettlementService(store, registry, logg),
		Reconciliations: commands.NewReconciliationService(store, registry, views, logg),
		Vouchers:        commands.NewVoucherService(store, registry, logg),
	}
	reads := routes.ReadModels{
		Views:    views,
		Balances: balances,
		Vouchers: vouchers,
	}
	healthDeps := map[string]controllers.Pinger{
		"database": dbClient,
		"redis":    redisClient,
	}

	addr := ":" + env.Get("PORT", cfg.App.Port)
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, healthDeps, svcs, reads),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
