package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cafemuji/cafemuji-backend/internal/orders"
	"github.com/cafemuji/cafemuji-backend/internal/sweeper"
	"github.com/cafemuji/cafemuji-backend/pkg/config"
	"github.com/cafemuji/cafemuji-backend/pkg/db"
	"github.com/cafemuji/cafemuji-backend/pkg/logger"
	"github.com/cafemuji/cafemuji-backend/pkg/metrics"
	"github.com/cafemuji/cafemuji-backend/pkg/migrate"
	"github.com/cafemuji/cafemuji-backend/pkg/redis"
)

// sweeper runs the board maintenance loop on its own, for deployments that
// set CAFEMUJI_SWEEPER_EMBEDDED=false on the API.
func main() {
	logg := logger.New(logger.Options{ServiceName: "sweeper"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "sweeper",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRun(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	loc, err := cfg.Board.Location()
	if err != nil {
		logg.Error(ctx, "invalid board timezone", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	policies := orders.DefaultPolicies(cfg.Board.IceHoldThreshold)
	repo := orders.NewRepository(dbClient.DB())
	ordersService, err := orders.NewService(repo, dbClient, orders.Options{
		Policies:     policies,
		CompletedTTL: cfg.Board.CompletedTTL,
		Location:     loc,
		Metrics:      metrics.NewOrderMetrics(registry),
		Logger:       logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create orders service", err)
		os.Exit(1)
	}

	service, err := sweeper.NewBoardSweeper(sweeper.BoardParams{
		Config:   cfg.Sweeper,
		Logger:   logg,
		Store:    redisClient,
		Repo:     repo,
		Orders:   ordersService,
		Policies: policies,
		Metrics:  metrics.NewJobMetrics(registry),
	})
	if err != nil {
		logg.Error(ctx, "failed to create sweeper", err)
		os.Exit(1)
	}

	metricsServer := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "metrics listener stopped", err)
		}
	}()
	defer metricsServer.Close()

	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Sweeper.Interval.String(),
	})
	logg.Info(ctx, "starting board sweeper")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "board sweeper stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "board sweeper shutting down gracefully")
}
