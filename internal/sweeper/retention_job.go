package sweeper

import (
	"context"
	"fmt"
	"time"
)

const (
	retentionJobName = "completed-retention"
	minRetention     = 24 * time.Hour
)

type purger interface {
	PurgeCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionJob hard-deletes fully completed groups whose last completion is
// older than the retention.
type RetentionJob struct {
	repo      purger
	retention time.Duration
	now       func() time.Time
}

// NewRetentionJob refuses retentions shorter than a day so the statistics
// day always sees its completed items.
func NewRetentionJob(repo purger, retention time.Duration) (*RetentionJob, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if retention < minRetention {
		return nil, fmt.Errorf("retention %s is shorter than %s", retention, minRetention)
	}
	return &RetentionJob{repo: repo, retention: retention, now: time.Now}, nil
}

func (j *RetentionJob) Name() string { return retentionJobName }

func (j *RetentionJob) Run(ctx context.Context) (int64, error) {
	cutoff := j.now().UTC().Add(-j.retention)
	n, err := j.repo.PurgeCompletedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge completed before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return n, nil
}
