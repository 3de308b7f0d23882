package controllers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/multierr"

	"github.com/cafemuji/cafemuji-backend/api/responses"
	"github.com/cafemuji/cafemuji-backend/internal/orders"
	"github.com/cafemuji/cafemuji-backend/pkg/config"
	pkgerrors "github.com/cafemuji/cafemuji-backend/pkg/errors"
	"github.com/cafemuji/cafemuji-backend/pkg/logger"
)

const (
	envHeader    = "X-Cafemuji-Env"
	readyTimeout = 2 * time.Second
)

// Pinger is anything the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StationSummarizer reports open work per station.
type StationSummarizer interface {
	Summaries(ctx context.Context) ([]orders.StationSummary, error)
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the database and redis. Every failing dependency is
// reported, not just the first.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP, redisP Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		checks := map[string]string{"database": "ok", "redis": "ok"}
		var errs error
		if err := ping(ctx, dbP); err != nil {
			checks["database"] = err.Error()
			errs = multierr.Append(errs, err)
		}
		if err := ping(ctx, redisP); err != nil {
			checks["redis"] = err.Error()
			errs = multierr.Append(errs, err)
		}

		if errs != nil {
			err := pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "dependencies unavailable").WithDetails(checks)
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}

func ping(ctx context.Context, p Pinger) error {
	if p == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "not configured")
	}
	return p.Ping(ctx)
}

// HealthOrders reports pending groups and items for every station.
func HealthOrders(svc StationSummarizer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		summaries, err := svc.Summaries(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ok", "stations": summaries})
	}
}
