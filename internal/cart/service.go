package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/cafemuji/cafemuji-backend/internal/orders"
	"github.com/cafemuji/cafemuji-backend/pkg/enums"
	pkgerrors "github.com/cafemuji/cafemuji-backend/pkg/errors"
	"github.com/cafemuji/cafemuji-backend/pkg/logger"
)

const (
	maxCartItems = 50
	submitLock   = 10 * time.Second
)

const (
	outcomeSubmitted = "submitted"
	outcomeEmpty     = "empty"
	outcomeRejected  = "rejected"
)

type submitter interface {
	SubmitOrderGroup(ctx context.Context, kind enums.ItemKind, input orders.SubmitInput) (*orders.SubmitResult, error)
}

type metricsRecorder interface {
	CartSubmitted(kind, outcome string)
}

// Service is the per-session staging cart. Carts are not shared between
// sessions and are never validated beyond required fields until submit.
type Service interface {
	List(ctx context.Context, sessionID string, kind enums.ItemKind) (*Cart, error)
	Add(ctx context.Context, sessionID string, kind enums.ItemKind, payload orders.Payload) (*Cart, error)
	RemoveAt(ctx context.Context, sessionID string, kind enums.ItemKind, index int) (*Cart, error)
	Clear(ctx context.Context, sessionID string, kind enums.ItemKind) error
	SetPendingClip(ctx context.Context, sessionID string, kind enums.ItemKind, input ClipInput) (*Cart, error)
	RemovePuddings(ctx context.Context, sessionID string, kind enums.ItemKind) (*Cart, error)
	Submit(ctx context.Context, sessionID string, kind enums.ItemKind, input SubmitInput) (*SubmitOutcome, error)
}

// ServiceParams bundles the dependencies of the cart service.
type ServiceParams struct {
	Store   Store
	Orders  submitter
	Metrics metricsRecorder
	Logger  *logger.Logger
	Clock   func() time.Time
}

type service struct {
	store   Store
	orders  submitter
	metrics metricsRecorder
	logg    *logger.Logger
	clock   func() time.Time
}

// NewService builds the staging cart service.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order submitter required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		store:   params.Store,
		orders:  params.Orders,
		metrics: params.Metrics,
		logg:    params.Logger,
		clock:   clock,
	}, nil
}

func checkScope(sessionID string, kind enums.ItemKind) error {
	if sessionID == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "session required")
	}
	if !kind.IsValid() {
		return pkgerrors.Invalid("unknown item kind", pkgerrors.FieldViolation{Field: "kind", Reason: "not an ordering station"})
	}
	return nil
}

func (s *service) load(ctx context.Context, sessionID string, kind enums.ItemKind) (*Cart, error) {
	if err := checkScope(sessionID, kind); err != nil {
		return nil, err
	}
	cart, err := s.store.Load(ctx, sessionID, kind)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

func (s *service) save(ctx context.Context, sessionID string, cart *Cart) error {
	cart.UpdatedAt = s.clock().UTC()
	if err := s.store.Save(ctx, sessionID, cart); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return nil
}

func (s *service) List(ctx context.Context, sessionID string, kind enums.ItemKind) (*Cart, error) {
	return s.load(ctx, sessionID, kind)
}

// Add appends a draft. Only field presence is checked here; a double scoop
// without its second flavor is accepted and rejected at submit.
func (s *service) Add(ctx context.Context, sessionID string, kind enums.ItemKind, payload orders.Payload) (*Cart, error) {
	cart, err := s.load(ctx, sessionID, kind)
	if err != nil {
		return nil, err
	}
	if missing := payload.MissingFields(kind); len(missing) > 0 {
		violations := make([]pkgerrors.FieldViolation, 0, len(missing))
		for _, field := range missing {
			violations = append(violations, pkgerrors.FieldViolation{Field: field, Reason: "required"})
		}
		return nil, pkgerrors.Invalid("cart item incomplete", violations...)
	}
	if len(cart.Items) >= maxCartItems {
		return nil, pkgerrors.Invalid("cart is full", pkgerrors.FieldViolation{Field: "items", Reason: "too many items"})
	}
	if kind == enums.ItemKindFood && payload.Quantity <= 0 {
		payload.Quantity = 1
	}

	cart.Items = append(cart.Items, Item{Payload: payload.Normalized(kind), AddedAt: s.clock().UTC()})
	if err := s.save(ctx, sessionID, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *service) RemoveAt(ctx context.Context, sessionID string, kind enums.ItemKind, index int) (*Cart, error) {
	cart, err := s.load(ctx, sessionID, kind)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(cart.Items) {
		return nil, pkgerrors.Invalid("invalid cart index", pkgerrors.FieldViolation{
			Field:  "index",
			Reason: fmt.Sprintf("out of range for a cart of %d items", len(cart.Items)),
		})
	}
	cart.Items = append(cart.Items[:index], cart.Items[index+1:]...)
	if err := s.save(ctx, sessionID, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// Clear drops the cart. Persisted order items are untouched.
func (s *service) Clear(ctx context.Context, sessionID string, kind enums.ItemKind) error {
	if err := checkScope(sessionID, kind); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, sessionID, kind); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (s *service) SetPendingClip(ctx context.Context, sessionID string, kind enums.ItemKind, input ClipInput) (*Cart, error) {
	var violations []pkgerrors.FieldViolation
	if !input.ClipColor.IsValid() {
		violations = append(violations, pkgerrors.FieldViolation{Field: "clip_color", Reason: "must be yellow or white"})
	}
	if input.ClipNumber < enums.MinClipNumber || input.ClipNumber > enums.MaxClipNumber {
		violations = append(violations, pkgerrors.FieldViolation{Field: "clip_number", Reason: "must be between 0 and 16"})
	}
	if len(violations) > 0 {
		return nil, pkgerrors.Invalid("invalid clip", violations...)
	}

	cart, err := s.load(ctx, sessionID, kind)
	if err != nil {
		return nil, err
	}
	number := input.ClipNumber
	cart.ClipColor = input.ClipColor
	cart.ClipNumber = &number
	cart.Note = input.Note
	if err := s.save(ctx, sessionID, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *service) RemovePuddings(ctx context.Context, sessionID string, kind enums.ItemKind) (*Cart, error) {
	cart, err := s.load(ctx, sessionID, kind)
	if err != nil {
		return nil, err
	}
	if cart.PuddingCount() == 0 {
		return cart, nil
	}
	kept := cart.Items[:0]
	for _, item := range cart.Items {
		if !item.IsPudding {
			kept = append(kept, item)
		}
	}
	cart.Items = kept
	if err := s.save(ctx, sessionID, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// Submit flushes the cart into a new order group. An empty cart is a no-op.
// A rejected submission leaves the cart exactly as it was and returns the
// reasons to the caller.
func (s *service) Submit(ctx context.Context, sessionID string, kind enums.ItemKind, input SubmitInput) (*SubmitOutcome, error) {
	if err := checkScope(sessionID, kind); err != nil {
		return nil, err
	}

	token, err := s.store.Lock(ctx, sessionID, kind, submitLock)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock cart")
	}
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "cart submit already in progress")
	}
	defer func() {
		if err := s.store.Unlock(context.WithoutCancel(ctx), sessionID, kind, token); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart.unlock_failed")
		}
	}()

	cart, err := s.load(ctx, sessionID, kind)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		s.record(kind, outcomeEmpty)
		return &SubmitOutcome{Submitted: false}, nil
	}

	req := orders.SubmitInput{
		Items:     cart.Payloads(),
		ClipColor: cart.ClipColor,
		Note:      cart.Note,
	}
	if cart.ClipNumber != nil {
		req.ClipNumber = *cart.ClipNumber
	}
	if input.ClipColor != nil {
		req.ClipColor = *input.ClipColor
	}
	if input.ClipNumber != nil {
		req.ClipNumber = *input.ClipNumber
	}
	if input.Note != nil {
		req.Note = *input.Note
	}
	if req.ClipColor == "" || (cart.ClipNumber == nil && input.ClipNumber == nil) {
		s.record(kind, outcomeRejected)
		return nil, pkgerrors.Invalid("clip required", pkgerrors.FieldViolation{Field: "clip", Reason: "set a clip color and number before submitting"})
	}

	result, err := s.orders.SubmitOrderGroup(ctx, kind, req)
	if err != nil {
		s.record(kind, outcomeRejected)
		return nil, err
	}

	if err := s.store.Delete(ctx, sessionID, kind); err != nil {
		// the group is already persisted
		if s.logg != nil {
			s.logg.Error(s.logg.WithGroupID(ctx, result.GroupID), "cart.clear_after_submit_failed", err)
		}
	}
	s.record(kind, outcomeSubmitted)
	return &SubmitOutcome{Submitted: true, Group: result}, nil
}

func (s *service) record(kind enums.ItemKind, outcome string) {
	if s.metrics != nil {
		s.metrics.CartSubmitted(kind.String(), outcome)
	}
}
