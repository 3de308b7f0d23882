package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cafemuji/cafemuji-backend/pkg/db"
	"github.com/cafemuji/cafemuji-backend/pkg/db/models"
	"github.com/cafemuji/cafemuji-backend/pkg/enums"
	pkgerrors "github.com/cafemuji/cafemuji-backend/pkg/errors"
	"github.com/cafemuji/cafemuji-backend/pkg/logger"
	"github.com/cafemuji/cafemuji-backend/pkg/metrics"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type metricsRecorder interface {
	GroupSubmitted(kind, status string)
	ItemCompleted(kind string, prep time.Duration)
	AdmissionRecomputed(kind, status string)
	SetActiveGroups(kind string, n int)
}

// Service is the order lifecycle engine shared by every station.
type Service interface {
	SubmitOrderGroup(ctx context.Context, kind enums.ItemKind, input SubmitInput) (*SubmitResult, error)
	CompleteItem(ctx context.Context, kind enums.ItemKind, itemID uuid.UUID) (*models.OrderItem, error)
	CompleteGroup(ctx context.Context, kind enums.ItemKind, groupID string) (int64, error)
	DeleteGroup(ctx context.Context, kind enums.ItemKind, groupID string) error
	SetGroupStatus(ctx context.Context, kind enums.ItemKind, groupID string, status enums.OrderStatus) error
	SetItemStatus(ctx context.Context, kind enums.ItemKind, itemID uuid.UUID, status enums.OrderStatus) (*models.OrderItem, error)
	RecomputeAdmissionControl(ctx context.Context, kind enums.ItemKind) (*AdmissionResult, error)
	ListActiveAndCompletedGroups(ctx context.Context, kind enums.ItemKind, now time.Time) (*Board, error)
	ActiveGroupCount(ctx context.Context, kind enums.ItemKind) (int, error)
	ActiveItemCount(ctx context.Context, kind enums.ItemKind) (int, error)
	Summaries(ctx context.Context) ([]StationSummary, error)
	GetItem(ctx context.Context, kind enums.ItemKind, itemID uuid.UUID) (*models.OrderItem, error)
	ListItems(ctx context.Context, filter ListFilter) ([]models.OrderItem, error)
	Statistics(ctx context.Context, kind enums.ItemKind, now time.Time) (*Statistics, error)
}

// Options tunes the service. Zero values fall back to the cafe defaults.
type Options struct {
	Policies        Policies
	CompletedTTL    time.Duration
	RecentThreshold time.Duration
	PopularTop      int
	Location        *time.Location
	Metrics         *metrics.OrderMetrics
	Logger          *logger.Logger
	Clock           func() time.Time
}

type service struct {
	repo       Repository
	tx         txRunner
	policies   Policies
	ttl        time.Duration
	recent     time.Duration
	popularTop int
	loc        *time.Location
	metrics    metricsRecorder
	logg       *logger.Logger
	clock      func() time.Time
}

// NewService builds the order service with the required dependencies.
func NewService(repo Repository, tx txRunner, opts Options) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	s := &service{
		repo:       repo,
		tx:         tx,
		policies:   opts.Policies,
		ttl:        opts.CompletedTTL,
		recent:     opts.RecentThreshold,
		popularTop: opts.PopularTop,
		loc:        opts.Location,
		metrics:    opts.Metrics,
		logg:       opts.Logger,
		clock:      opts.Clock,
	}
	if s.policies == nil {
		s.policies = DefaultPolicies(DefaultHoldThreshold)
	}
	if s.ttl <= 0 {
		s.ttl = DefaultCompletedTTL
	}
	if s.popularTop <= 0 {
		s.popularTop = 5
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	return s, nil
}

func (s *service) now() time.Time {
	return s.clock().UTC().Truncate(time.Microsecond)
}

func (s *service) info(ctx context.Context, fields map[string]any, msg string) {
	if s.logg == nil {
		return
	}
	s.logg.Info(s.logg.WithFields(ctx, fields), msg)
}

func notFoundOr(err error, resource, id, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.NotFound(resource, id)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}

func (s *service) SubmitOrderGroup(ctx context.Context, kind enums.ItemKind, input SubmitInput) (*SubmitResult, error) {
	policy, err := s.policies.For(kind)
	if err != nil {
		return nil, err
	}
	if err := validateSubmit(kind, input); err != nil {
		return nil, err
	}

	createdAt := s.now()
	groupID, label := newGroupID(input.ClipColor, input.ClipNumber, createdAt)
	result := &SubmitResult{
		GroupID:   groupID,
		Label:     label,
		Kind:      kind,
		CreatedAt: createdAt,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		stopped := false
		if policy.AdmissionControl {
			var err error
			stopped, err = repo.HasOpenItemWithStatus(ctx, kind, enums.OrderStatusStop)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check station stop")
			}
		}
		status, autoStopped := birthStatus(policy, stopped)

		items := make([]models.OrderItem, 0, len(input.Items))
		for i, payload := range input.Items {
			item := models.OrderItem{
				ID:            uuid.New(),
				Kind:          kind,
				GroupID:       groupID,
				GroupLabel:    label,
				Position:      i,
				ClipColor:     input.ClipColor,
				ClipNumber:    input.ClipNumber,
				Status:        status,
				IsAutoStopped: autoStopped,
				Note:          input.Note,
				CreatedAt:     createdAt,
			}
			payload.Normalized(kind).applyTo(&item)
			items = append(items, item)
			result.ItemIDs = append(result.ItemIDs, item.ID)
		}

		if err := repo.CreateItems(ctx, items); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order group already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order items")
		}
		result.Status = status
		result.IsAutoStopped = autoStopped
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.GroupSubmitted(kind.String(), result.Status.String())
	s.info(ctx, map[string]any{
		"kind":            kind,
		"group_id":        groupID,
		"items":           len(result.ItemIDs),
		"status":          result.Status,
		"is_auto_stopped": result.IsAutoStopped,
	}, "orders.group.submitted")
	return result, nil
}

func (s *service) CompleteItem(ctx context.Context, kind enums.ItemKind, itemID uuid.UUID) (*models.OrderItem, error) {
	policy, err := s.policies.For(kind)
	if err != nil {
		return nil, err
	}
	if itemID == uuid.Nil {
		return nil, pkgerrors.Invalid("item id required", pkgerrors.FieldViolation{Field: "item_id", Reason: "required"})
	}

	at := s.now()
	var (
		item    *models.OrderItem
		changed bool
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindItem(ctx, kind, itemID)
		if err != nil {
			return notFoundOr(err, "order item", itemID.String(), "load order item")
		}
		if current.IsCompleted {
			item = current
			return nil
		}
		n, err := repo.CompleteItem(ctx, kind, itemID, at, policy.statusOnCompletion())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete order item")
		}
		changed = n > 0
		item, err = repo.FindItem(ctx, kind, itemID)
		if err != nil {
			return notFoundOr(err, "order item", itemID.String(), "reload order item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.metrics.ItemCompleted(kind.String(), at.Sub(item.CreatedAt))
	}
	return item, nil
}

func (s *service) CompleteGroup(ctx context.Context, kind enums.ItemKind, groupID string) (int64, error) {
	policy, err := s.policies.For(kind)
	if err != nil {
		return 0, err
	}
	if groupID == "" {
		return 0, pkgerrors.Invalid("group id required", pkgerrors.FieldViolation{Field: "group_id", Reason: "required"})
	}

	at := s.now()
	var (
		updated int64
		opened  []models.OrderItem
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		items, err := repo.ListGroupItems(ctx, kind, groupID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order group")
		}
		if len(items) == 0 {
			return pkgerrors.NotFound("order group", groupID)
		}
		for _, item := range items {
			if !item.IsCompleted {
				opened = append(opened, item)
			}
		}
		if len(opened) == 0 {
			return nil
		}
		updated, err = repo.CompleteGroup(ctx, kind, groupID, at, policy.statusOnCompletion())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete order group")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if updated > 0 {
		for _, item := range opened {
			s.metrics.ItemCompleted(kind.String(), at.Sub(item.CreatedAt))
		}
		s.info(ctx, map[string]any{"kind": kind, "group_id": groupID, "updated": updated}, "orders.group.completed")
	}
	return updated, nil
}

func (s *service) DeleteGroup(ctx context.Context, kind enums.ItemKind, groupID string) error {
	if _, err := s.policies.For(kind); err != nil {
		return err
	}
	if groupID == "" {
		return pkgerrors.Invalid("group id required", pkgerrors.FieldViolation{Field: "group_id", Reason: "required"})
	}

	n, err := s.repo.DeleteGroup(ctx, kind, groupID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order group")
	}
	if n == 0 {
		return pkgerrors.NotFound("order group", groupID)
	}
	s.info(ctx, map[string]any{"kind": kind, "group_id": groupID, "deleted": n}, "orders.group.deleted")
	return nil
}

// SetGroupStatus is the staff override. It is authoritative: the auto-stop
// flag is cleared and the admission recompute never reverts ok or stop.
func (s *service) SetGroupStatus(ctx context.Context, kind enums.ItemKind, groupID string, status enums.OrderStatus) error {
	if _, err := s.policies.For(kind); err != nil {
		return err
	}
	if groupID == "" {
		return pkgerrors.Invalid("group id required", pkgerrors.FieldViolation{Field: "group_id", Reason: "required"})
	}
	if !status.IsManual() {
		return pkgerrors.Invalid("invalid group status", pkgerrors.FieldViolation{Field: "status", Reason: "must be ok or stop"})
	}

	var updated int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		items, err := repo.ListGroupItems(ctx, kind, groupID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order group")
		}
		if len(items) == 0 {
			return pkgerrors.NotFound("order group", groupID)
		}
		updated, err = repo.SetGroupStatus(ctx, kind, groupID, status)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update group status")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.info(ctx, map[string]any{"kind": kind, "group_id": groupID, "status": status, "updated": updated}, "orders.group.status_set")
	return nil
}

// SetItemStatus backs the per-item REST update. hold is allowed here so staff
// can park a single open item for admission control.
func (s *service) SetItemStatus(ctx context.Context, kind enums.ItemKind, itemID uuid.UUID, status enums.OrderStatus) (*models.OrderItem, error) {
	if _, err := s.policies.For(kind); err != nil {
		return nil, err
	}
	if !status.IsValid() {
		return nil, pkgerrors.Invalid("invalid status", pkgerrors.FieldViolation{Field: "status", Reason: "must be ok, stop or hold"})
	}

	var item *models.OrderItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindItem(ctx, kind, itemID)
		if err != nil {
			return notFoundOr(err, "order item", itemID.String(), "load order item")
		}
		if current.IsCompleted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "completed items keep their final status").
				WithDetails(map[string]string{"status": current.Status.String()})
		}
		if _, err := repo.SetItemStatus(ctx, kind, itemID, status, status.IsManual()); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update item status")
		}
		item, err = repo.FindItem(ctx, kind, itemID)
		if err != nil {
			return notFoundOr(err, "order item", itemID.String(), "reload order item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// RecomputeAdmissionControl moves waiting hold groups into production (ok)
// while at most HoldThreshold of them wait, otherwise stops them all. Only
// open items in hold are written, so running it repeatedly is harmless.
func (s *service) RecomputeAdmissionControl(ctx context.Context, kind enums.ItemKind) (*AdmissionResult, error) {
	policy, err := s.policies.For(kind)
	if err != nil {
		return nil, err
	}
	result := &AdmissionResult{Kind: kind, Enabled: policy.AdmissionControl}
	if !policy.AdmissionControl {
		return result, nil
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		groupIDs, err := repo.OpenGroupIDsWithStatus(ctx, kind, enums.OrderStatusHold)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load hold groups")
		}
		result.HoldGroups = len(groupIDs)
		if len(groupIDs) == 0 {
			return nil
		}
		result.Status = AdmissionStatus(len(groupIDs), policy.HoldThreshold)
		result.UpdatedItems, err = repo.MoveOpenGroupsStatus(ctx, kind, groupIDs, enums.OrderStatusHold, result.Status)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply admission status")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.UpdatedItems > 0 {
		s.metrics.AdmissionRecomputed(kind.String(), result.Status.String())
	}
	return result, nil
}

func (s *service) ListActiveAndCompletedGroups(ctx context.Context, kind enums.ItemKind, now time.Time) (*Board, error) {
	policy, err := s.policies.For(kind)
	if err != nil {
		return nil, err
	}

	board := &Board{Kind: kind, GeneratedAt: now}
	if policy.AdmissionControl {
		board.Admission, err = s.RecomputeAdmissionControl(ctx, kind)
		if err != nil {
			return nil, err
		}
	}

	items, err := s.repo.ListBoardItems(ctx, kind, now.UTC().Add(-s.ttl))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load board items")
	}

	active, completed := Partition(GroupItems(items), now, s.ttl)
	board.Active = make([]GroupView, 0, len(active))
	board.Completed = make([]GroupView, 0, len(completed))

	var latest time.Time
	for _, item := range items {
		if item.CreatedAt.After(latest) {
			latest = item.CreatedAt
		}
	}
	for _, group := range active {
		board.Active = append(board.Active, newGroupView(group, now, s.recent))
		board.ActiveItemCount += group.ActiveUnits()
		for _, item := range group.Items {
			if item.IsPudding && !item.IsCompleted {
				board.PuddingCount++
			}
		}
	}
	for _, group := range completed {
		board.Completed = append(board.Completed, newGroupView(group, now, s.recent))
	}
	board.ActiveGroupCount = len(active)
	var latestMillis int64
	if !latest.IsZero() {
		latestMillis = latest.UnixMilli()
	}
	board.RefreshKey = fmt.Sprintf("%d-%d", board.ActiveItemCount, latestMillis)

	s.metrics.SetActiveGroups(kind.String(), board.ActiveGroupCount)
	return board, nil
}

func (s *service) openTotals(ctx context.Context, kind enums.ItemKind) (OpenTotals, error) {
	if _, err := s.policies.For(kind); err != nil {
		return OpenTotals{}, err
	}
	totals, err := s.repo.OpenTotals(ctx, kind)
	if err != nil {
		return OpenTotals{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count open items")
	}
	return totals, nil
}

func (s *service) ActiveGroupCount(ctx context.Context, kind enums.ItemKind) (int, error) {
	totals, err := s.openTotals(ctx, kind)
	if err != nil {
		return 0, err
	}
	return int(totals.Groups), nil
}

// ActiveItemCount sums open units; a food line of quantity 3 counts 3.
func (s *service) ActiveItemCount(ctx context.Context, kind enums.ItemKind) (int, error) {
	totals, err := s.openTotals(ctx, kind)
	if err != nil {
		return 0, err
	}
	return int(totals.Units), nil
}

func (s *service) Summaries(ctx context.Context) ([]StationSummary, error) {
	out := make([]StationSummary, 0, len(s.policies))
	for _, kind := range enums.AllItemKinds() {
		if _, ok := s.policies[kind]; !ok {
			continue
		}
		totals, err := s.openTotals(ctx, kind)
		if err != nil {
			return nil, err
		}
		out = append(out, StationSummary{
			Kind:         kind,
			ActiveGroups: int(totals.Groups),
			ActiveItems:  int(totals.Units),
		})
	}
	return out, nil
}

func (s *service) GetItem(ctx context.Context, kind enums.ItemKind, itemID uuid.UUID) (*models.OrderItem, error) {
	if _, err := s.policies.For(kind); err != nil {
		return nil, err
	}
	item, err := s.repo.FindItem(ctx, kind, itemID)
	if err != nil {
		return nil, notFoundOr(err, "order item", itemID.String(), "load order item")
	}
	return item, nil
}

func (s *service) ListItems(ctx context.Context, filter ListFilter) ([]models.OrderItem, error) {
	if _, err := s.policies.For(filter.Kind); err != nil {
		return nil, err
	}
	items, err := s.repo.ListItems(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order items")
	}
	return items, nil
}
