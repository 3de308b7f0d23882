package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/cafemuji/cafemuji-backend/pkg/enums"
)

// OrderItem is one line of a ticket. Items submitted together share GroupID.
// Only Status, IsAutoStopped, IsCompleted and CompletedAt change after insert.
type OrderItem struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Kind          enums.ItemKind    `gorm:"column:kind;not null"`
	GroupID       string            `gorm:"column:group_id;not null"`
	GroupLabel    string            `gorm:"column:group_label;not null"`
	Position      int               `gorm:"column:line_no;not null;default:0"`
	ClipColor     enums.ClipColor   `gorm:"column:clip_color;not null"`
	ClipNumber    int               `gorm:"column:clip_number;not null"`
	Status        enums.OrderStatus `gorm:"column:status;not null;default:'ok'"`
	IsAutoStopped bool              `gorm:"column:is_auto_stopped;not null;default:false"`
	IsCompleted   bool              `gorm:"column:is_completed;not null;default:false"`
	Note          string            `gorm:"column:note;not null;default:''"`
	CreatedAt     time.Time         `gorm:"column:created_at;not null"`
	CompletedAt   *time.Time        `gorm:"column:completed_at"`

	// food
	Menu     *string `gorm:"column:menu"`
	Quantity int     `gorm:"column:quantity;not null;default:1"`
	EatIn    *bool   `gorm:"column:eat_in"`

	// ice
	Size      *enums.IceSize      `gorm:"column:size"`
	Container *enums.IceContainer `gorm:"column:container"`
	Flavor1   *enums.IceFlavor    `gorm:"column:flavor1"`
	Flavor2   *enums.IceFlavor    `gorm:"column:flavor2"`
	IsPudding bool                `gorm:"column:is_pudding;not null;default:false"`

	// shavedice
	Flavor *enums.ShavedIceFlavor `gorm:"column:flavor"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// Units is the item's weight in active totals: food counts its quantity.
func (o OrderItem) Units() int {
	if o.Kind == enums.ItemKindFood && o.Quantity > 0 {
		return o.Quantity
	}
	return 1
}
