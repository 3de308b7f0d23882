package sweeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cafemuji/cafemuji-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLock struct {
	held     bool
	busy     bool
	releases int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.busy || f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.held = false
	f.releases++
	return nil
}

type countingJob struct {
	name string
	rows int64
	err  error
	runs int
}

func (c *countingJob) Name() string { return c.name }

func (c *countingJob) Run(context.Context) (int64, error) {
	c.runs++
	return c.rows, c.err
}

type recordedRun struct {
	job  string
	err  error
	rows int64
}

type fakeRecorder struct {
	runs []recordedRun
}

func (f *fakeRecorder) Observe(job string, _ time.Duration, err error) {
	f.runs = append(f.runs, recordedRun{job: job, err: err})
}

func (f *fakeRecorder) RowsAffected(job string, n int64) {
	f.runs[len(f.runs)-1].rows = n
}

func newTestService(t *testing.T, lock Lock, rec jobRecorder, jobs ...Job) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "sweeper-test"}),
		Registry: NewRegistry(jobs...),
		Lock:     lock,
		Metrics:  rec,
	})
	require.NoError(t, err)
	return svc
}

func TestRunCycleRunsEveryJobEvenOnFailure(t *testing.T) {
	lock := &fakeLock{}
	rec := &fakeRecorder{}
	failing := &countingJob{name: "fail", err: errors.New("boom")}
	purge := &countingJob{name: "purge", rows: 4}
	svc := newTestService(t, lock, rec, failing, purge)

	require.NoError(t, svc.runCycle(context.Background()))

	assert.Equal(t, 1, failing.runs)
	assert.Equal(t, 1, purge.runs)
	assert.Equal(t, 1, lock.releases)
	assert.False(t, lock.held)
	require.Len(t, rec.runs, 2)
	assert.Error(t, rec.runs[0].err)
	assert.Equal(t, int64(4), rec.runs[1].rows)
}

func TestRunCycleSkipsWhenLockBusy(t *testing.T) {
	lock := &fakeLock{busy: true}
	job := &countingJob{name: "purge"}
	svc := newTestService(t, lock, nil, job)

	require.NoError(t, svc.runCycle(context.Background()))
	assert.Zero(t, job.runs)
	assert.Zero(t, lock.releases)
}

func TestRunStopsOnCancel(t *testing.T) {
	job := &countingJob{name: "purge"}
	svc := newTestService(t, &fakeLock{}, nil, job)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := svc.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, job.runs)
}

func TestNewServiceRequiresLoggerAndLock(t *testing.T) {
	_, err := NewService(ServiceParams{Lock: &fakeLock{}})
	require.Error(t, err)
	_, err = NewService(ServiceParams{Logger: logger.New(logger.Options{ServiceName: "x"})})
	require.Error(t, err)
}

func TestRegistryCopiesJobs(t *testing.T) {
	a := &countingJob{name: "a"}
	registry := NewRegistry(a, nil)
	jobs := registry.Jobs()
	require.Len(t, jobs, 1)
	jobs[0] = nil
	assert.NotNil(t, registry.Jobs()[0])
}
