package orders

import (
	"fmt"

	"github.com/cafemuji/cafemuji-backend/pkg/enums"
	pkgerrors "github.com/cafemuji/cafemuji-backend/pkg/errors"
)

const DefaultHoldThreshold = 3

// KindPolicy is the per-station configuration of the shared lifecycle engine.
type KindPolicy struct {
	Kind enums.ItemKind
	// CompletionStatus is written onto items as they complete. Empty keeps
	// whatever status the item had.
	CompletionStatus enums.OrderStatus
	// AdmissionControl enables the hold recompute and auto-stop at submit.
	AdmissionControl bool
	// HoldThreshold is the largest count of waiting hold groups that still
	// lets them into production.
	HoldThreshold int
}

// Policies indexes station policies by kind.
type Policies map[enums.ItemKind]KindPolicy

// DefaultPolicies returns the cafe's station setup: only the ice case parks
// completed tickets on hold and runs admission control.
func DefaultPolicies(holdThreshold int) Policies {
	if holdThreshold < 0 {
		holdThreshold = DefaultHoldThreshold
	}
	return Policies{
		enums.ItemKindFood: {
			Kind: enums.ItemKindFood,
		},
		enums.ItemKindIce: {
			Kind:             enums.ItemKindIce,
			CompletionStatus: enums.OrderStatusHold,
			AdmissionControl: true,
			HoldThreshold:    holdThreshold,
		},
		enums.ItemKindShavedIce: {
			Kind: enums.ItemKindShavedIce,
		},
	}
}

// For returns the policy of kind or a validation error for unknown kinds.
func (p Policies) For(kind enums.ItemKind) (KindPolicy, error) {
	policy, ok := p[kind]
	if !ok {
		return KindPolicy{}, pkgerrors.Invalid("unknown item kind", pkgerrors.FieldViolation{
			Field:  "kind",
			Reason: fmt.Sprintf("%q is not an ordering station", kind),
		})
	}
	return policy, nil
}

func (p KindPolicy) statusOnCompletion() *enums.OrderStatus {
	if p.CompletionStatus == "" {
		return nil
	}
	status := p.CompletionStatus
	return &status
}

// AdmissionKinds lists the stations that run admission control, in display order.
func (p Policies) AdmissionKinds() []enums.ItemKind {
	var out []enums.ItemKind
	for _, kind := range enums.AllItemKinds() {
		if policy, ok := p[kind]; ok && policy.AdmissionControl {
			out = append(out, kind)
		}
	}
	return out
}
