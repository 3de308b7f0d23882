package orders

import (
	"time"

	"github.com/cafemuji/cafemuji-backend/pkg/db/models"
	"github.com/cafemuji/cafemuji-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SubmitInput is one ticket: the items plus the clip they hang on.
type SubmitInput struct {
	Items      []Payload
	ClipColor  enums.ClipColor
	ClipNumber int
	Note       string
}

// SubmitResult describes a persisted group.
type SubmitResult struct {
	GroupID       string            `json:"group_id"`
	Label         string            `json:"label"`
	Kind          enums.ItemKind    `json:"kind"`
	Status        enums.OrderStatus `json:"status"`
	IsAutoStopped bool              `json:"is_auto_stopped"`
	ItemIDs       []uuid.UUID       `json:"item_ids"`
	CreatedAt     time.Time         `json:"created_at"`
}

// Board is the display state of one station.
type Board struct {
	Kind             enums.ItemKind   `json:"kind"`
	GeneratedAt      time.Time        `json:"generated_at"`
	Active           []GroupView      `json:"active"`
	Completed        []GroupView      `json:"completed"`
	ActiveGroupCount int              `json:"active_group_count"`
	ActiveItemCount  int              `json:"active_item_count"`
	PuddingCount     int              `json:"pudding_count"`
	RefreshKey       string           `json:"refresh_key"`
	Admission        *AdmissionResult `json:"admission,omitempty"`
}

type GroupView struct {
	GroupID        string            `json:"group_id"`
	Label          string            `json:"label"`
	ClipColor      enums.ClipColor   `json:"clip_color"`
	ClipNumber     int               `json:"clip_number"`
	Status         enums.OrderStatus `json:"status"`
	IsAutoStopped  bool              `json:"is_auto_stopped"`
	IsComplete     bool              `json:"is_complete"`
	IsRecent       bool              `json:"is_recent"`
	Note           string            `json:"note,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	CompletedAt    *time.Time        `json:"completed_at,omitempty"`
	ElapsedSeconds int               `json:"elapsed_seconds"`
	ElapsedMinutes int               `json:"elapsed_minutes"`
	PuddingCount   int               `json:"pudding_count"`
	Items          []ItemView        `json:"items"`
}

type ItemView struct {
	ID uuid.UUID `json:"id"`
	Payload
	Status         enums.OrderStatus `json:"status"`
	IsAutoStopped  bool              `json:"is_auto_stopped"`
	IsCompleted    bool              `json:"is_completed"`
	CreatedAt      time.Time         `json:"created_at"`
	CompletedAt    *time.Time        `json:"completed_at,omitempty"`
	ElapsedSeconds int               `json:"elapsed_seconds"`
	ElapsedMinutes int               `json:"elapsed_minutes"`
}

// StationSummary is the open work of one station.
type StationSummary struct {
	Kind         enums.ItemKind `json:"kind"`
	ActiveGroups int            `json:"active_groups"`
	ActiveItems  int            `json:"active_items"`
}

// Statistics summarizes one station's day.
type Statistics struct {
	Kind           enums.ItemKind  `json:"kind"`
	Day            string          `json:"day"`
	TotalToday     int             `json:"total_today"`
	CompletedToday int             `json:"completed_today"`
	Pending        int             `json:"pending"`
	CompletionRate decimal.Decimal `json:"completion_rate"`
	AvgPrepSeconds decimal.Decimal `json:"avg_prep_seconds"`
	Popular        []PopularEntry  `json:"popular"`
}

type PopularEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func elapsed(now, since time.Time) (seconds, minutes int) {
	d := now.Sub(since)
	if d < 0 {
		d = 0
	}
	return int(d / time.Second), int(d / time.Minute)
}

// NewItemView renders an item with its elapsed time at now.
func NewItemView(item models.OrderItem, now time.Time) ItemView {
	seconds, minutes := elapsed(now, item.CreatedAt)
	return ItemView{
		ID:             item.ID,
		Payload:        PayloadOf(item),
		Status:         item.Status,
		IsAutoStopped:  item.IsAutoStopped,
		IsCompleted:    item.IsCompleted,
		CreatedAt:      item.CreatedAt,
		CompletedAt:    item.CompletedAt,
		ElapsedSeconds: seconds,
		ElapsedMinutes: minutes,
	}
}

func newGroupView(group Group, now time.Time, recent time.Duration) GroupView {
	created := group.CreatedAt()
	seconds, minutes := elapsed(now, created)
	view := GroupView{
		GroupID:        group.ID,
		Status:         group.Status(),
		IsAutoStopped:  group.IsAutoStopped(),
		IsComplete:     group.IsComplete(),
		IsRecent:       group.IsRecent(now, recent),
		CreatedAt:      created,
		ElapsedSeconds: seconds,
		ElapsedMinutes: minutes,
		PuddingCount:   group.PuddingCount(),
		Items:          make([]ItemView, 0, len(group.Items)),
	}
	if view.IsComplete {
		view.CompletedAt = group.LatestCompletion()
	}
	if len(group.Items) > 0 {
		first := group.Items[0]
		view.Label = first.GroupLabel
		view.ClipColor = first.ClipColor
		view.ClipNumber = first.ClipNumber
		view.Note = first.Note
	}
	for _, item := range group.Items {
		view.Items = append(view.Items, NewItemView(item, now))
	}
	return view
}
