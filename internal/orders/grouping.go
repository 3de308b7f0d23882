package orders

import (
	"sort"
	"time"

	"github.com/cafemuji/cafemuji-backend/pkg/db/models"
	"github.com/cafemuji/cafemuji-backend/pkg/enums"
)

// Group is every item sharing one group id: one ticket on one clip.
type Group struct {
	ID    string
	Items []models.OrderItem
}

// GroupItems buckets items by group id. Groups come out in order of their
// first item and items keep creation order inside a group. The same
// aggregation serves every station kind.
func GroupItems(items []models.OrderItem) []Group {
	sorted := make([]models.OrderItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return sorted[i].Position < sorted[j].Position
	})

	index := make(map[string]int)
	groups := make([]Group, 0)
	for _, item := range sorted {
		i, ok := index[item.GroupID]
		if !ok {
			i = len(groups)
			index[item.GroupID] = i
			groups = append(groups, Group{ID: item.GroupID})
		}
		groups[i].Items = append(groups[i].Items, item)
	}
	return groups
}

// IsComplete reports whether every member item is complete. An empty group
// is never complete.
func (g Group) IsComplete() bool {
	if len(g.Items) == 0 {
		return false
	}
	for _, item := range g.Items {
		if !item.IsCompleted {
			return false
		}
	}
	return true
}

// LatestCompletion is the newest CompletedAt among members, nil when no
// member is complete.
func (g Group) LatestCompletion() *time.Time {
	var latest *time.Time
	for _, item := range g.Items {
		if item.CompletedAt == nil {
			continue
		}
		if latest == nil || item.CompletedAt.After(*latest) {
			at := *item.CompletedAt
			latest = &at
		}
	}
	return latest
}

// CreatedAt is the submit time of the group.
func (g Group) CreatedAt() time.Time {
	if len(g.Items) == 0 {
		return time.Time{}
	}
	return g.Items[0].CreatedAt
}

// Status summarizes member statuses. Incomplete items decide: any stop makes
// the group stop, then any hold; a complete group reports its first item.
func (g Group) Status() enums.OrderStatus {
	if len(g.Items) == 0 {
		return ""
	}
	var sawHold, sawOpen bool
	for _, item := range g.Items {
		if item.IsCompleted {
			continue
		}
		sawOpen = true
		switch item.Status {
		case enums.OrderStatusStop:
			return enums.OrderStatusStop
		case enums.OrderStatusHold:
			sawHold = true
		}
	}
	if sawHold {
		return enums.OrderStatusHold
	}
	if sawOpen {
		return enums.OrderStatusOK
	}
	return g.Items[0].Status
}

// IsAutoStopped reports whether any incomplete member was born stopped.
func (g Group) IsAutoStopped() bool {
	for _, item := range g.Items {
		if !item.IsCompleted && item.IsAutoStopped {
			return true
		}
	}
	return false
}

// ActiveUnits sums the units of incomplete members.
func (g Group) ActiveUnits() int {
	total := 0
	for _, item := range g.Items {
		if !item.IsCompleted {
			total += item.Units()
		}
	}
	return total
}

func (g Group) PuddingCount() int {
	n := 0
	for _, item := range g.Items {
		if item.IsPudding {
			n++
		}
	}
	return n
}

// IsRecent reports whether an incomplete group has an item younger than
// threshold, used to highlight tickets that just arrived.
func (g Group) IsRecent(now time.Time, threshold time.Duration) bool {
	if threshold <= 0 || g.IsComplete() {
		return false
	}
	for _, item := range g.Items {
		if now.Sub(item.CreatedAt) < threshold {
			return true
		}
	}
	return false
}
