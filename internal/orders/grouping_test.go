package orders

import (
	"math/rand"
	"testing"
	"time"

	"github.com/cafemuji/cafemuji-backend/pkg/db/models"
	"github.com/cafemuji/cafemuji-backend/pkg/enums"
	"github.com/google/uuid"
)

var baseTime = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func item(groupID string, line int, created time.Time) models.OrderItem {
	return models.OrderItem{
		ID:        uuid.New(),
		Kind:      enums.ItemKindIce,
		GroupID:   groupID,
		Position:  line,
		Status:    enums.OrderStatusOK,
		CreatedAt: created,
	}
}

func completed(it models.OrderItem, at time.Time) models.OrderItem {
	it.IsCompleted = true
	it.CompletedAt = &at
	return it
}

func TestGroupItemsOrdersGroupsAndItems(t *testing.T) {
	items := []models.OrderItem{
		item("b", 1, baseTime.Add(time.Second)),
		item("a", 1, baseTime),
		item("b", 0, baseTime.Add(time.Second)),
		item("a", 0, baseTime),
		item("c", 0, baseTime.Add(2*time.Second)),
	}

	groups := GroupItems(items)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	wantIDs := []string{"a", "b", "c"}
	for i, want := range wantIDs {
		if groups[i].ID != want {
			t.Fatalf("group %d: expected %s, got %s", i, want, groups[i].ID)
		}
	}
	for _, group := range groups {
		for i, it := range group.Items {
			if it.Position != i {
				t.Fatalf("group %s: item %d has line %d", group.ID, i, it.Position)
			}
		}
	}
}

func TestGroupItemsEmpty(t *testing.T) {
	if groups := GroupItems(nil); len(groups) != 0 {
		t.Fatalf("expected no groups, got %d", len(groups))
	}
}

func TestIsCompleteMatchesEveryMember(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 200; round++ {
		n := rng.Intn(6) + 1
		group := Group{ID: "g"}
		all := true
		for i := 0; i < n; i++ {
			it := item("g", i, baseTime)
			if rng.Intn(2) == 0 {
				it = completed(it, baseTime.Add(time.Duration(i)*time.Second))
			} else {
				all = false
			}
			group.Items = append(group.Items, it)
		}
		if group.IsComplete() != all {
			t.Fatalf("round %d: IsComplete=%v, every member complete=%v", round, group.IsComplete(), all)
		}
	}
}

func TestEmptyGroupIsNotComplete(t *testing.T) {
	if (Group{ID: "empty"}).IsComplete() {
		t.Fatal("empty group reported complete")
	}
}

func TestLatestCompletion(t *testing.T) {
	group := Group{ID: "g", Items: []models.OrderItem{
		completed(item("g", 0, baseTime), baseTime.Add(5*time.Second)),
		completed(item("g", 1, baseTime), baseTime.Add(9*time.Second)),
		item("g", 2, baseTime),
	}}
	latest := group.LatestCompletion()
	if latest == nil || !latest.Equal(baseTime.Add(9*time.Second)) {
		t.Fatalf("unexpected latest completion %v", latest)
	}

	open := Group{ID: "o", Items: []models.OrderItem{item("o", 0, baseTime)}}
	if open.LatestCompletion() != nil {
		t.Fatal("expected nil latest completion for open group")
	}
}

func TestGroupStatusPrefersStopThenHold(t *testing.T) {
	stop := item("g", 0, baseTime)
	stop.Status = enums.OrderStatusStop
	hold := item("g", 1, baseTime)
	hold.Status = enums.OrderStatusHold
	ok := item("g", 2, baseTime)

	if got := (Group{Items: []models.OrderItem{ok, hold, stop}}).Status(); got != enums.OrderStatusStop {
		t.Fatalf("expected stop, got %s", got)
	}
	if got := (Group{Items: []models.OrderItem{ok, hold}}).Status(); got != enums.OrderStatusHold {
		t.Fatalf("expected hold, got %s", got)
	}
	if got := (Group{Items: []models.OrderItem{ok}}).Status(); got != enums.OrderStatusOK {
		t.Fatalf("expected ok, got %s", got)
	}

	done := completed(hold, baseTime)
	if got := (Group{Items: []models.OrderItem{done}}).Status(); got != enums.OrderStatusHold {
		t.Fatalf("expected complete group to report hold, got %s", got)
	}
}

func TestActiveUnitsCountsFoodQuantity(t *testing.T) {
	a := item("g", 0, baseTime)
	a.Kind = enums.ItemKindFood
	a.Quantity = 3
	b := item("g", 1, baseTime)
	b.Kind = enums.ItemKindFood
	b.Quantity = 2
	b = completed(b, baseTime)

	if got := (Group{Items: []models.OrderItem{a, b}}).ActiveUnits(); got != 3 {
		t.Fatalf("expected 3 active units, got %d", got)
	}
}

func TestIsRecent(t *testing.T) {
	group := Group{Items: []models.OrderItem{item("g", 0, baseTime)}}
	if !group.IsRecent(baseTime.Add(2*time.Second), 3*time.Second) {
		t.Fatal("expected group to be recent")
	}
	if group.IsRecent(baseTime.Add(3*time.Second), 3*time.Second) {
		t.Fatal("expected group to no longer be recent")
	}
	if group.IsRecent(baseTime, 0) {
		t.Fatal("zero threshold disables the highlight")
	}
}

func TestNewGroupIDKeepsClipReadable(t *testing.T) {
	id, label := newGroupID(enums.ClipColorYellow, 3, baseTime)
	if label != "yellow-3" {
		t.Fatalf("unexpected label %q", label)
	}
	other, _ := newGroupID(enums.ClipColorYellow, 3, baseTime)
	if id == other {
		t.Fatal("expected distinct ids for the same clip and millisecond")
	}
	prefix := "yellow-3-1785585600000-"
	if len(id) <= len(prefix) || id[:len(prefix)] != prefix {
		t.Fatalf("unexpected id %q", id)
	}
}
