package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/homestead-backend/api/routes"
	"github.com/angelmondragon/homestead-backend/internal/budget"
	"github.com/angelmondragon/homestead-backend/internal/corrections"
	"github.com/angelmondragon/homestead-backend/internal/entities"
	"github.com/angelmondragon/homestead-backend/internal/purchases"
	"github.com/angelmondragon/homestead-backend/internal/receipts"
	"github.com/angelmondragon/homestead-backend/internal/trips"
	"github.com/angelmondragon/homestead-backend/pkg/config"
	"github.com/angelmondragon/homestead-backend/pkg/db"
	"github.com/angelmondragon/homestead-backend/pkg/env"
	"github.com/angelmondragon/homestead-backend/pkg/logger"
	"github.com/angelmondragon/homestead-backend/pkg/metrics"
	"github.com/angelmondragon/homestead-backend/pkg/migrate"
	"github.com/angelmondragon/homestead-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(ctx, "redis not configured; idempotency and scan throttling disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	receiptMetrics := metrics.NewReceiptMetrics(registry)

	services, err := buildServices(ctx, cfg, logg, dbClient, receiptMetrics)
	if err != nil {
		logg.Error(ctx, "failed to wire services", err)
		os.Exit(1)
	}

	addr := ":" + env.Port(cfg.App.Port)
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Infra{
			DB:       dbClient,
			Redis:    redisClient,
			Gatherer: registry,
		}, services),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	exitCode := 0
	select {
	case err := <-serverErr:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			exitCode = 1
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutting down api server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	closeErr := server.Shutdown(shutdownCtx)
	closeErr = multierr.Append(closeErr, dbClient.Close())
	if redisClient != nil {
		closeErr = multierr.Append(closeErr, redisClient.Close())
	}
	if closeErr != nil {
		logg.Error(ctx, "error during shutdown", closeErr)
		exitCode = 1
	}
	os.Exit(exitCode)
}

func buildServices(ctx context.Context, cfg *config.Config, logg *logger.Logger, dbClient *db.Client, receiptMetrics *metrics.ReceiptMetrics) (routes.Services, error) {
	gdb := dbClient.DB()

	resolver, err := entities.NewResolver(entities.NewRepository(gdb))
	if err != nil {
		return routes.Services{}, err
	}
	learner, err := corrections.NewLearner(corrections.NewRepository(gdb), logg, receiptMetrics)
	if err != nil {
		return routes.Services{}, err
	}
	tripsRepo := trips.NewRepository(gdb)

	purchaseSvc, err := purchases.NewService(purchases.Deps{
		Tx:         dbClient,
		Repo:       purchases.NewRepository(gdb),
		Entities:   resolver,
		Trips:      tripsRepo,
		Learner:    learner,
		Logger:     logg,
		Metrics:    receiptMetrics,
		LearnEdits: cfg.Receipts.LearnEdits,
	})
	if err != nil {
		return routes.Services{}, err
	}

	budgetSvc, err := budget.NewService(budget.NewRepository(gdb), tripsRepo)
	if err != nil {
		return routes.Services{}, err
	}

	services := routes.Services{
		Purchases: purchaseSvc,
		Budget:    budgetSvc,
		Stores:    resolver,
	}

	if cfg.Gemini.APIKey == "" {
		logg.Warn(ctx, "gemini api key not configured; receipt scanning disabled")
		return services, nil
	}
	parser, err := receipts.NewGeminiParser(ctx, cfg.Gemini)
	if err != nil {
		return routes.Services{}, err
	}
	receiptSvc, err := receipts.NewService(receipts.ServiceParams{
		Parser:        parser,
		Learner:       learner,
		Logger:        logg,
		Metrics:       receiptMetrics,
		MaxImageBytes: cfg.Receipts.MaxImageBytes(),
	})
	if err != nil {
		return routes.Services{}, err
	}
	services.Receipts = receiptSvc
	return services, nil
}
