package sweeper

import (
	"fmt"

	"github.com/cafemuji/cafemuji-backend/internal/orders"
	"github.com/cafemuji/cafemuji-backend/pkg/config"
	"github.com/cafemuji/cafemuji-backend/pkg/logger"
)

const lockName = "board-sweeper"

type lockKeyStore interface {
	lockStore
	JobLockKey(job string) string
}

// BoardParams wires the board sweeper from the running services.
type BoardParams struct {
	Config   config.SweeperConfig
	Logger   *logger.Logger
	Store    lockKeyStore
	Repo     purger
	Orders   recomputer
	Policies orders.Policies
	Metrics  jobRecorder
}

// NewBoardSweeper registers the admission recompute and the completed item
// retention behind one redis lease.
func NewBoardSweeper(p BoardParams) (*Service, error) {
	if p.Store == nil {
		return nil, fmt.Errorf("redis store required for the board sweeper")
	}
	lock, err := NewRedisLock(p.Store, p.Store.JobLockKey(lockName), p.Config.LockTTL)
	if err != nil {
		return nil, err
	}
	admission, err := NewAdmissionJob(p.Orders, p.Policies)
	if err != nil {
		return nil, err
	}
	retention, err := NewRetentionJob(p.Repo, p.Config.Retention)
	if err != nil {
		return nil, err
	}
	return NewService(ServiceParams{
		Logger:   p.Logger,
		Registry: NewRegistry(admission, retention),
		Lock:     lock,
		Metrics:  p.Metrics,
		Interval: p.Config.Interval,
	})
}
