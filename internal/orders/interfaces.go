package orders

import (
	"context"
	"time"

	"github.com/cafemuji/cafemuji-backend/pkg/db/models"
	"github.com/cafemuji/cafemuji-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for the order_items table.
// Every bulk write touches one group (or one station) in a single statement.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateItems(ctx context.Context, items []models.OrderItem) error
	FindItem(ctx context.Context, kind enums.ItemKind, id uuid.UUID) (*models.OrderItem, error)
	ListItems(ctx context.Context, filter ListFilter) ([]models.OrderItem, error)
	ListGroupItems(ctx context.Context, kind enums.ItemKind, groupID string) ([]models.OrderItem, error)
	ListBoardItems(ctx context.Context, kind enums.ItemKind, completedSince time.Time) ([]models.OrderItem, error)
	CompleteItem(ctx context.Context, kind enums.ItemKind, id uuid.UUID, at time.Time, status *enums.OrderStatus) (int64, error)
	CompleteGroup(ctx context.Context, kind enums.ItemKind, groupID string, at time.Time, status *enums.OrderStatus) (int64, error)
	SetGroupStatus(ctx context.Context, kind enums.ItemKind, groupID string, status enums.OrderStatus) (int64, error)
	SetItemStatus(ctx context.Context, kind enums.ItemKind, id uuid.UUID, status enums.OrderStatus, resetAutoStop bool) (int64, error)
	DeleteGroup(ctx context.Context, kind enums.ItemKind, groupID string) (int64, error)
	HasOpenItemWithStatus(ctx context.Context, kind enums.ItemKind, status enums.OrderStatus) (bool, error)
	OpenGroupIDsWithStatus(ctx context.Context, kind enums.ItemKind, status enums.OrderStatus) ([]string, error)
	MoveOpenGroupsStatus(ctx context.Context, kind enums.ItemKind, groupIDs []string, from, to enums.OrderStatus) (int64, error)
	PurgeCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	OpenTotals(ctx context.Context, kind enums.ItemKind) (OpenTotals, error)
}

// ListFilter narrows item listings. Zero values do not filter.
type ListFilter struct {
	Kind        enums.ItemKind
	GroupID     string
	Status      *enums.OrderStatus
	IsCompleted *bool
	Menu        string
	Size        *enums.IceSize
	// Flavor matches flavor1 or flavor2 for ice and flavor for shaved ice.
	Flavor      string
	CreatedFrom *time.Time
	Limit       int
}

// OpenTotals aggregates the open work of one station.
type OpenTotals struct {
	Groups int64 `gorm:"column:open_groups"`
	Units  int64 `gorm:"column:open_units"`
}
