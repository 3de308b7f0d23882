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

	"github.com/cafemuji/cafemuji-backend/api/routes"
	"github.com/cafemuji/cafemuji-backend/internal/auth"
	"github.com/cafemuji/cafemuji-backend/internal/cart"
	"github.com/cafemuji/cafemuji-backend/internal/orders"
	"github.com/cafemuji/cafemuji-backend/internal/sweeper"
	"github.com/cafemuji/cafemuji-backend/pkg/auth/session"
	"github.com/cafemuji/cafemuji-backend/pkg/config"
	"github.com/cafemuji/cafemuji-backend/pkg/db"
	"github.com/cafemuji/cafemuji-backend/pkg/logger"
	"github.com/cafemuji/cafemuji-backend/pkg/metrics"
	"github.com/cafemuji/cafemuji-backend/pkg/migrate"
	"github.com/cafemuji/cafemuji-backend/pkg/redis"
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
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api stopped with error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRun(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	orderMetrics := metrics.NewOrderMetrics(registry)

	loc, err := cfg.Board.Location()
	if err != nil {
		return err
	}
	policies := orders.DefaultPolicies(cfg.Board.IceHoldThreshold)
	orderRepo := orders.NewRepository(dbClient.DB())
	ordersService, err := orders.NewService(orderRepo, dbClient, orders.Options{
		Policies:        policies,
		CompletedTTL:    cfg.Board.CompletedTTL,
		RecentThreshold: cfg.Board.RecentThreshold,
		PopularTop:      cfg.Board.StatisticsTopSize,
		Location:        loc,
		Metrics:         orderMetrics,
		Logger:          logg,
	})
	if err != nil {
		return err
	}

	cartStore, err := cart.NewStore(redisClient, cfg.Cart.TTL)
	if err != nil {
		return err
	}
	cartService, err := cart.NewService(cart.ServiceParams{
		Store:   cartStore,
		Orders:  ordersService,
		Metrics: orderMetrics,
		Logger:  logg,
	})
	if err != nil {
		return err
	}

	authService, err := auth.NewService(auth.ServiceParams{
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasscodeHash:   cfg.Staff.PasscodeHash,
	})
	if err != nil {
		return err
	}

	if cfg.Sweeper.Embedded {
		boardSweeper, err := sweeper.NewBoardSweeper(sweeper.BoardParams{
			Config:   cfg.Sweeper,
			Logger:   logg,
			Store:    redisClient,
			Repo:     orderRepo,
			Orders:   ordersService,
			Policies: policies,
			Metrics:  metrics.NewJobMetrics(registry),
		})
		if err != nil {
			return err
		}
		go func() {
			if err := boardSweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logg.Error(ctx, "board sweeper stopped", err)
			}
		}()
	}

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Dependencies{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Sessions:      sessionManager,
			Gatherer:      registry,
			AuthService:   authService,
			OrdersService: ordersService,
			CartService:   cartService,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"dialect": dbClient.Dialect(),
	})
	logg.Info(logCtx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		stop()
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
