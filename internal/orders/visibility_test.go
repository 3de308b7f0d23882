package orders

import (
	"testing"
	"time"

	"github.com/cafemuji/cafemuji-backend/pkg/db/models"
)

func TestPartitionBoundary(t *testing.T) {
	now := baseTime.Add(time.Hour)
	open := Group{ID: "open", Items: []models.OrderItem{item("open", 0, baseTime)}}
	fresh := Group{ID: "fresh", Items: []models.OrderItem{
		completed(item("fresh", 0, baseTime), now.Add(-29*time.Second)),
	}}
	edge := Group{ID: "edge", Items: []models.OrderItem{
		completed(item("edge", 0, baseTime), now.Add(-30*time.Second)),
	}}
	stale := Group{ID: "stale", Items: []models.OrderItem{
		completed(item("stale", 0, baseTime), now.Add(-31*time.Second)),
	}}

	active, done := Partition([]Group{open, fresh, edge, stale}, now, DefaultCompletedTTL)
	if len(active) != 1 || active[0].ID != "open" {
		t.Fatalf("unexpected active bucket %+v", active)
	}
	if len(done) != 2 || done[0].ID != "fresh" || done[1].ID != "edge" {
		t.Fatalf("unexpected completed bucket %+v", done)
	}
}

func TestPartitionUsesLatestCompletion(t *testing.T) {
	now := baseTime.Add(time.Hour)
	group := Group{ID: "g", Items: []models.OrderItem{
		completed(item("g", 0, baseTime), now.Add(-5*time.Minute)),
		completed(item("g", 1, baseTime), now.Add(-10*time.Second)),
	}}
	_, done := Partition([]Group{group}, now, DefaultCompletedTTL)
	if len(done) != 1 {
		t.Fatalf("expected group visible through its newest completion, got %d", len(done))
	}
}

func TestPartitionPartiallyCompleteIsActive(t *testing.T) {
	now := baseTime.Add(time.Hour)
	group := Group{ID: "g", Items: []models.OrderItem{
		completed(item("g", 0, baseTime), now.Add(-time.Hour)),
		item("g", 1, baseTime),
	}}
	active, done := Partition([]Group{group}, now, DefaultCompletedTTL)
	if len(active) != 1 || len(done) != 0 {
		t.Fatalf("expected active only, got active=%d completed=%d", len(active), len(done))
	}
}

func TestPartitionDoesNotMutateInput(t *testing.T) {
	now := baseTime.Add(time.Hour)
	groups := []Group{
		{ID: "g", Items: []models.OrderItem{completed(item("g", 0, baseTime), now.Add(-time.Hour))}},
	}
	Partition(groups, now, DefaultCompletedTTL)
	Partition(groups, now, DefaultCompletedTTL)
	if len(groups) != 1 || !groups[0].IsComplete() {
		t.Fatal("partition changed its input")
	}
}
