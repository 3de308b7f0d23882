package sweeper

import (
	"context"
	"fmt"

	"github.com/cafemuji/cafemuji-backend/internal/orders"
	"github.com/cafemuji/cafemuji-backend/pkg/enums"
	"go.uber.org/multierr"
)

const admissionJobName = "admission-recompute"

type recomputer interface {
	RecomputeAdmissionControl(ctx context.Context, kind enums.ItemKind) (*orders.AdmissionResult, error)
}

// AdmissionJob re-runs admission control on every station that has it, so
// hold groups move even when no board is polling.
type AdmissionJob struct {
	orders recomputer
	kinds  []enums.ItemKind
}

func NewAdmissionJob(svc recomputer, policies orders.Policies) (*AdmissionJob, error) {
	if svc == nil {
		return nil, fmt.Errorf("orders service required")
	}
	return &AdmissionJob{orders: svc, kinds: policies.AdmissionKinds()}, nil
}

func (j *AdmissionJob) Name() string { return admissionJobName }

// Run recomputes each station independently; one failing station does not
// stop the others.
func (j *AdmissionJob) Run(ctx context.Context) (int64, error) {
	var (
		total int64
		errs  error
	)
	for _, kind := range j.kinds {
		res, err := j.orders.RecomputeAdmissionControl(ctx, kind)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", kind, err))
			continue
		}
		if res != nil {
			total += res.UpdatedItems
		}
	}
	return total, errs
}
