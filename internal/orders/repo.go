package orders

import (
	"context"
	"time"

	"github.com/cafemuji/cafemuji-backend/pkg/db/models"
	"github.com/cafemuji/cafemuji-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxListLimit = 500

type repository struct {
	db *gorm.DB
}

// NewRepository builds an order item repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) items(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.OrderItem{})
}

func (r *repository) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) FindItem(ctx context.Context, kind enums.ItemKind, id uuid.UUID) (*models.OrderItem, error) {
	var item models.OrderItem
	err := r.db.WithContext(ctx).
		Where("kind = ? AND id = ?", kind, id).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) ListItems(ctx context.Context, filter ListFilter) ([]models.OrderItem, error) {
	query := r.db.WithContext(ctx).Where("kind = ?", filter.Kind)
	if filter.GroupID != "" {
		query = query.Where("group_id = ?", filter.GroupID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.IsCompleted != nil {
		query = query.Where("is_completed = ?", *filter.IsCompleted)
	}
	if filter.Menu != "" {
		query = query.Where("menu = ?", filter.Menu)
	}
	if filter.Size != nil {
		query = query.Where("size = ?", *filter.Size)
	}
	if filter.Flavor != "" {
		switch filter.Kind {
		case enums.ItemKindIce:
			query = query.Where("(flavor1 = ? OR flavor2 = ?)", filter.Flavor, filter.Flavor)
		default:
			query = query.Where("flavor = ?", filter.Flavor)
		}
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	limit := filter.Limit
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}

	var items []models.OrderItem
	err := query.
		Order("created_at ASC").
		Order("line_no ASC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) ListGroupItems(ctx context.Context, kind enums.ItemKind, groupID string) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.db.WithContext(ctx).
		Where("kind = ? AND group_id = ?", kind, groupID).
		Order("line_no ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ListBoardItems loads every item of groups that are still open or that
// had an item complete at or after completedSince.
func (r *repository) ListBoardItems(ctx context.Context, kind enums.ItemKind, completedSince time.Time) ([]models.OrderItem, error) {
	visible := r.items(ctx).
		Select("group_id").
		Where("kind = ? AND (is_completed = ? OR completed_at >= ?)", kind, false, completedSince)

	var items []models.OrderItem
	err := r.db.WithContext(ctx).
		Where("kind = ? AND group_id IN (?)", kind, visible).
		Order("created_at ASC").
		Order("line_no ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func completionUpdates(at time.Time, status *enums.OrderStatus) map[string]any {
	updates := map[string]any{
		"is_completed": true,
		"completed_at": at,
	}
	if status != nil {
		updates["status"] = *status
	}
	return updates
}

// CompleteItem only touches an incomplete row so completed_at is written once.
func (r *repository) CompleteItem(ctx context.Context, kind enums.ItemKind, id uuid.UUID, at time.Time, status *enums.OrderStatus) (int64, error) {
	res := r.items(ctx).
		Where("kind = ? AND id = ? AND is_completed = ?", kind, id, false).
		Updates(completionUpdates(at, status))
	return res.RowsAffected, res.Error
}

// CompleteGroup completes every open item of the group in one statement.
func (r *repository) CompleteGroup(ctx context.Context, kind enums.ItemKind, groupID string, at time.Time, status *enums.OrderStatus) (int64, error) {
	res := r.items(ctx).
		Where("kind = ? AND group_id = ? AND is_completed = ?", kind, groupID, false).
		Updates(completionUpdates(at, status))
	return res.RowsAffected, res.Error
}

// SetGroupStatus is the manual override: open items take status and lose
// the auto-stop flag. Completed items keep their final status.
func (r *repository) SetGroupStatus(ctx context.Context, kind enums.ItemKind, groupID string, status enums.OrderStatus) (int64, error) {
	res := r.items(ctx).
		Where("kind = ? AND group_id = ? AND is_completed = ?", kind, groupID, false).
		Updates(map[string]any{
			"status":          status,
			"is_auto_stopped": false,
		})
	return res.RowsAffected, res.Error
}

func (r *repository) SetItemStatus(ctx context.Context, kind enums.ItemKind, id uuid.UUID, status enums.OrderStatus, resetAutoStop bool) (int64, error) {
	updates := map[string]any{"status": status}
	if resetAutoStop {
		updates["is_auto_stopped"] = false
	}
	res := r.items(ctx).
		Where("kind = ? AND id = ? AND is_completed = ?", kind, id, false).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *repository) DeleteGroup(ctx context.Context, kind enums.ItemKind, groupID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("kind = ? AND group_id = ?", kind, groupID).
		Delete(&models.OrderItem{})
	return res.RowsAffected, res.Error
}

func (r *repository) HasOpenItemWithStatus(ctx context.Context, kind enums.ItemKind, status enums.OrderStatus) (bool, error) {
	var count int64
	err := r.items(ctx).
		Where("kind = ? AND is_completed = ? AND status = ?", kind, false, status).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) OpenGroupIDsWithStatus(ctx context.Context, kind enums.ItemKind, status enums.OrderStatus) ([]string, error) {
	var ids []string
	err := r.items(ctx).
		Distinct().
		Where("kind = ? AND is_completed = ? AND status = ?", kind, false, status).
		Order("group_id ASC").
		Pluck("group_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// MoveOpenGroupsStatus rewrites open items of the given groups that still
// carry status from. Items in any other status are left alone.
func (r *repository) MoveOpenGroupsStatus(ctx context.Context, kind enums.ItemKind, groupIDs []string, from, to enums.OrderStatus) (int64, error) {
	if len(groupIDs) == 0 {
		return 0, nil
	}
	res := r.items(ctx).
		Where("kind = ? AND group_id IN ? AND is_completed = ? AND status = ?", kind, groupIDs, false, from).
		Update("status", to)
	return res.RowsAffected, res.Error
}

// PurgeCompletedBefore hard-deletes whole groups whose members are all
// completed and whose last completion is before cutoff. A group with any open
// member is kept intact.
func (r *repository) PurgeCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	expired := r.db.Model(&models.OrderItem{}).
		Select("group_id").
		Group("group_id").
		Having("SUM(CASE WHEN is_completed THEN 0 ELSE 1 END) = 0 AND MAX(completed_at) < ?", cutoff)
	res := r.db.WithContext(ctx).
		Where("group_id IN (?)", expired).
		Delete(&models.OrderItem{})
	return res.RowsAffected, res.Error
}

// OpenTotals counts open groups and open units of kind. Food units are
// quantities.
func (r *repository) OpenTotals(ctx context.Context, kind enums.ItemKind) (OpenTotals, error) {
	var totals OpenTotals
	err := r.items(ctx).
		Select(
			"COUNT(DISTINCT group_id) AS open_groups, "+
				"COALESCE(SUM(CASE WHEN kind = ? AND quantity > 0 THEN quantity ELSE 1 END), 0) AS open_units",
			enums.ItemKindFood,
		).
		Where("kind = ? AND is_completed = ?", kind, false).
		Scan(&totals).Error
	return totals, err
}
