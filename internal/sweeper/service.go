package sweeper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cafemuji/cafemuji-backend/pkg/logger"
)

const defaultInterval = time.Minute

type jobRecorder interface {
	Observe(job string, took time.Duration, err error)
	RowsAffected(job string, n int64)
}

// ServiceParams configure the sweeper loop.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  jobRecorder
	Interval time.Duration
}

// Service runs every registered job once per interval while it holds the lock.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	metrics  jobRecorder
	interval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{
		logg:     params.Logger,
		registry: registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: interval,
	}, nil
}

// Run sweeps immediately and then on every tick until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	ctx = s.logg.WithField(ctx, "component", "sweeper")
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Service) sweep(ctx context.Context) {
	if err := s.runCycle(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.logg.Error(ctx, "sweeper.cycle_failed", err)
	}
}

func (s *Service) runCycle(ctx context.Context) error {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return err
	}
	if !locked {
		s.logg.Debug(ctx, "sweeper.lock_busy")
		return nil
	}
	defer func() {
		if err := s.lock.Release(context.WithoutCancel(ctx)); err != nil {
			s.logg.Error(ctx, "sweeper.lock_release_failed", err)
		}
	}()

	for _, job := range s.registry.Jobs() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.runJob(ctx, job)
	}
	return nil
}

func (s *Service) runJob(ctx context.Context, job Job) {
	jobCtx := s.logg.WithField(ctx, "job", job.Name())
	start := time.Now()
	rows, err := job.Run(jobCtx)
	took := time.Since(start)
	if s.metrics != nil {
		s.metrics.Observe(job.Name(), took, err)
		s.metrics.RowsAffected(job.Name(), rows)
	}
	if err != nil {
		s.logg.Error(jobCtx, "sweeper.job_failed", err)
		return
	}
	if rows > 0 {
		jobCtx = s.logg.WithFields(jobCtx, map[string]any{
			"rows":        rows,
			"duration_ms": took.Milliseconds(),
		})
		s.logg.Info(jobCtx, "sweeper.job_completed")
	}
}
