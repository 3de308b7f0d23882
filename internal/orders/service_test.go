package orders

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/cafemuji/cafemuji-backend/pkg/db"
	"github.com/cafemuji/cafemuji-backend/pkg/enums"
	pkgerrors "github.com/cafemuji/cafemuji-backend/pkg/errors"
	"github.com/cafemuji/cafemuji-backend/pkg/migrate"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fixture struct {
	svc   Service
	repo  Repository
	clock *testClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Discard,
	})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, migrate.Up(context.Background(), sqlDB, db.DialectSQLite))

	clock := &testClock{now: baseTime}
	repo := NewRepository(conn)
	svc, err := NewService(repo, db.NewFromGorm(conn), Options{
		Clock:           clock.Now,
		RecentThreshold: 3 * time.Second,
		Location:        time.UTC,
	})
	require.NoError(t, err)
	return &fixture{svc: svc, repo: repo, clock: clock}
}

func scoop(flavor enums.IceFlavor) Payload {
	return Payload{Size: enums.IceSizeSingle, Container: enums.IceContainerCup, Flavor1: flavor}
}

func (f *fixture) submitIce(t *testing.T, clip int, payloads ...Payload) *SubmitResult {
	t.Helper()
	if len(payloads) == 0 {
		payloads = []Payload{scoop(enums.IceFlavorMango)}
	}
	res, err := f.svc.SubmitOrderGroup(context.Background(), enums.ItemKindIce, SubmitInput{
		Items:      payloads,
		ClipColor:  enums.ClipColorYellow,
		ClipNumber: clip,
	})
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	return res
}

func (f *fixture) hold(t *testing.T, res *SubmitResult) {
	t.Helper()
	for _, id := range res.ItemIDs {
		_, err := f.svc.SetItemStatus(context.Background(), enums.ItemKindIce, id, enums.OrderStatusHold)
		require.NoError(t, err)
	}
}

func (f *fixture) groupStatuses(t *testing.T, groupID string) []enums.OrderStatus {
	t.Helper()
	items, err := f.repo.ListGroupItems(context.Background(), enums.ItemKindIce, groupID)
	require.NoError(t, err)
	out := make([]enums.OrderStatus, 0, len(items))
	for _, it := range items {
		out = append(out, it.Status)
	}
	return out
}

func TestSubmitOrderGroupPersistsItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.SubmitOrderGroup(ctx, enums.ItemKindFood, SubmitInput{
		Items: []Payload{
			{Menu: "curry", Quantity: 2},
			{Menu: "toast", Quantity: 1},
		},
		ClipColor:  enums.ClipColorWhite,
		ClipNumber: 7,
		Note:       "no onion",
	})
	require.NoError(t, err)
	assert.Equal(t, "white-7", res.Label)
	assert.True(t, strings.HasPrefix(res.GroupID, "white-7-"))
	assert.Equal(t, enums.OrderStatusOK, res.Status)
	require.Len(t, res.ItemIDs, 2)

	items, err := f.repo.ListGroupItems(ctx, enums.ItemKindFood, res.GroupID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "curry", *items[0].Menu)
	assert.Equal(t, "toast", *items[1].Menu)
	assert.Equal(t, "no onion", items[0].Note)
	assert.True(t, items[0].CreatedAt.Equal(baseTime))
}

func TestSubmitOrderGroupRejectsInvalidPayload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SubmitOrderGroup(ctx, enums.ItemKindIce, SubmitInput{
		Items: []Payload{
			scoop(enums.IceFlavorMint),
			{Size: enums.IceSizeDouble, Container: enums.IceContainerCup, Flavor1: enums.IceFlavorMango},
		},
		ClipColor:  enums.ClipColorYellow,
		ClipNumber: 1,
	})
	require.Error(t, err)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	count, err := f.svc.ActiveGroupCount(ctx, enums.ItemKindIce)
	require.NoError(t, err)
	assert.Zero(t, count, "a rejected submit must not persist anything")

	_, err = f.svc.SubmitOrderGroup(ctx, enums.ItemKindIce, SubmitInput{ClipColor: enums.ClipColorYellow})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestRecomputeStopsWhenMoreThanThreeHoldGroups(t *testing.T) {
	f := newFixture(t)
	groups := make([]*SubmitResult, 0, 4)
	for i := 0; i < 4; i++ {
		res := f.submitIce(t, i)
		f.hold(t, res)
		groups = append(groups, res)
	}

	result, err := f.svc.RecomputeAdmissionControl(context.Background(), enums.ItemKindIce)
	require.NoError(t, err)
	assert.Equal(t, 4, result.HoldGroups)
	assert.Equal(t, enums.OrderStatusStop, result.Status)
	assert.EqualValues(t, 4, result.UpdatedItems)
	for _, g := range groups {
		assert.Equal(t, []enums.OrderStatus{enums.OrderStatusStop}, f.groupStatuses(t, g.GroupID))
	}
}

func TestRecomputeAdmitsThreeHoldGroups(t *testing.T) {
	f := newFixture(t)
	groups := make([]*SubmitResult, 0, 3)
	for i := 0; i < 3; i++ {
		res := f.submitIce(t, i)
		f.hold(t, res)
		groups = append(groups, res)
	}

	result, err := f.svc.RecomputeAdmissionControl(context.Background(), enums.ItemKindIce)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusOK, result.Status)
	for _, g := range groups {
		assert.Equal(t, []enums.OrderStatus{enums.OrderStatusOK}, f.groupStatuses(t, g.GroupID))
	}

	again, err := f.svc.RecomputeAdmissionControl(context.Background(), enums.ItemKindIce)
	require.NoError(t, err)
	assert.Zero(t, again.HoldGroups)
	assert.Zero(t, again.UpdatedItems)
}

func TestRecomputeLeavesManualStatusesAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	okGroup := f.submitIce(t, 10)
	stopGroup := f.submitIce(t, 11)
	require.NoError(t, f.svc.SetGroupStatus(ctx, enums.ItemKindIce, stopGroup.GroupID, enums.OrderStatusStop))

	// one hold group admits; the stopped group stays stopped
	lone := f.submitIce(t, 12)
	f.hold(t, lone)
	_, err := f.svc.RecomputeAdmissionControl(ctx, enums.ItemKindIce)
	require.NoError(t, err)
	assert.Equal(t, []enums.OrderStatus{enums.OrderStatusStop}, f.groupStatuses(t, stopGroup.GroupID))
	assert.Equal(t, []enums.OrderStatus{enums.OrderStatusOK}, f.groupStatuses(t, lone.GroupID))

	// overflow stops only the hold groups; the ok group keeps running
	for i := 0; i < 4; i++ {
		f.hold(t, f.submitIce(t, i))
	}
	_, err = f.svc.RecomputeAdmissionControl(ctx, enums.ItemKindIce)
	require.NoError(t, err)
	assert.Equal(t, []enums.OrderStatus{enums.OrderStatusOK}, f.groupStatuses(t, okGroup.GroupID))
	assert.Equal(t, []enums.OrderStatus{enums.OrderStatusOK}, f.groupStatuses(t, lone.GroupID))
}

func TestSubmitWhileStationStoppedIsAutoStopped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.submitIce(t, 1)
	require.NoError(t, f.svc.SetGroupStatus(ctx, enums.ItemKindIce, first.GroupID, enums.OrderStatusStop))

	second := f.submitIce(t, 2)
	assert.Equal(t, enums.OrderStatusStop, second.Status)
	assert.True(t, second.IsAutoStopped)

	items, err := f.repo.ListGroupItems(ctx, enums.ItemKindIce, second.GroupID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].IsAutoStopped)

	// a manual override is authoritative and clears the flag
	require.NoError(t, f.svc.SetGroupStatus(ctx, enums.ItemKindIce, second.GroupID, enums.OrderStatusOK))
	items, err = f.repo.ListGroupItems(ctx, enums.ItemKindIce, second.GroupID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusOK, items[0].Status)
	assert.False(t, items[0].IsAutoStopped)

	_, err = f.svc.RecomputeAdmissionControl(ctx, enums.ItemKindIce)
	require.NoError(t, err)
	assert.Equal(t, []enums.OrderStatus{enums.OrderStatusOK}, f.groupStatuses(t, second.GroupID))
}

func TestSubmitIgnoresStoppedGroupsOfOtherKinds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	food, err := f.svc.SubmitOrderGroup(ctx, enums.ItemKindFood, SubmitInput{
		Items:      []Payload{{Menu: "curry", Quantity: 1}},
		ClipColor:  enums.ClipColorWhite,
		ClipNumber: 2,
	})
	require.NoError(t, err)
	require.NoError(t, f.svc.SetGroupStatus(ctx, enums.ItemKindFood, food.GroupID, enums.OrderStatusStop))

	ice := f.submitIce(t, 2)
	assert.Equal(t, enums.OrderStatusOK, ice.Status)
	assert.False(t, ice.IsAutoStopped)
}

func TestSetGroupStatusRejectsHold(t *testing.T) {
	f := newFixture(t)
	res := f.submitIce(t, 1)
	err := f.svc.SetGroupStatus(context.Background(), enums.ItemKindIce, res.GroupID, enums.OrderStatusHold)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	err = f.svc.SetGroupStatus(context.Background(), enums.ItemKindIce, "missing", enums.OrderStatusOK)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestCompleteGroupMovesIceToHold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.submitIce(t, 3, scoop(enums.IceFlavorMango), scoop(enums.IceFlavorMint))
	require.True(t, strings.HasPrefix(res.GroupID, "yellow-3-"))

	updated, err := f.svc.CompleteGroup(ctx, enums.ItemKindIce, res.GroupID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, updated)

	items, err := f.repo.ListGroupItems(ctx, enums.ItemKindIce, res.GroupID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, it := range items {
		assert.True(t, it.IsCompleted)
		assert.Equal(t, enums.OrderStatusHold, it.Status)
		require.NotNil(t, it.CompletedAt)
	}
	assert.True(t, items[0].CompletedAt.Equal(*items[1].CompletedAt))
	first := *items[0].CompletedAt

	f.clock.Advance(10 * time.Second)
	updated, err = f.svc.CompleteGroup(ctx, enums.ItemKindIce, res.GroupID)
	require.NoError(t, err)
	assert.Zero(t, updated)

	items, err = f.repo.ListGroupItems(ctx, enums.ItemKindIce, res.GroupID)
	require.NoError(t, err)
	for _, it := range items {
		assert.True(t, it.CompletedAt.Equal(first), "completed_at must not move on a repeat completion")
	}

	// completed hold items never count toward admission control
	result, err := f.svc.RecomputeAdmissionControl(ctx, enums.ItemKindIce)
	require.NoError(t, err)
	assert.Zero(t, result.HoldGroups)
}

func TestCompleteGroupKeepsFoodStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.svc.SubmitOrderGroup(ctx, enums.ItemKindFood, SubmitInput{
		Items:      []Payload{{Menu: "curry", Quantity: 1}},
		ClipColor:  enums.ClipColorWhite,
		ClipNumber: 4,
	})
	require.NoError(t, err)

	_, err = f.svc.CompleteGroup(ctx, enums.ItemKindFood, res.GroupID)
	require.NoError(t, err)
	items, err := f.repo.ListGroupItems(ctx, enums.ItemKindFood, res.GroupID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusOK, items[0].Status)
	assert.True(t, items[0].IsCompleted)
}

func TestCompleteItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.submitIce(t, 5, scoop(enums.IceFlavorMango), scoop(enums.IceFlavorMint))

	it, err := f.svc.CompleteItem(ctx, enums.ItemKindIce, res.ItemIDs[0])
	require.NoError(t, err)
	assert.True(t, it.IsCompleted)
	assert.Equal(t, enums.OrderStatusHold, it.Status)

	count, err := f.svc.ActiveGroupCount(ctx, enums.ItemKindIce)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "group stays active until every item completes")

	again, err := f.svc.CompleteItem(ctx, enums.ItemKindIce, res.ItemIDs[0])
	require.NoError(t, err)
	assert.True(t, again.CompletedAt.Equal(*it.CompletedAt))

	_, err = f.svc.CompleteItem(ctx, enums.ItemKindIce, uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	// an ice item id is not visible from the food station
	_, err = f.svc.CompleteItem(ctx, enums.ItemKindFood, res.ItemIDs[1])
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestMissingGroupsAreNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CompleteGroup(ctx, enums.ItemKindIce, "yellow-1-0-missing")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	err = f.svc.DeleteGroup(ctx, enums.ItemKindIce, "yellow-1-0-missing")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDeleteGroupRemovesEveryItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.submitIce(t, 6, scoop(enums.IceFlavorMango), scoop(enums.IceFlavorMint))

	require.NoError(t, f.svc.DeleteGroup(ctx, enums.ItemKindIce, res.GroupID))
	items, err := f.repo.ListGroupItems(ctx, enums.ItemKindIce, res.GroupID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSetItemStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.submitIce(t, 8)

	it, err := f.svc.SetItemStatus(ctx, enums.ItemKindIce, res.ItemIDs[0], enums.OrderStatusHold)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusHold, it.Status)

	_, err = f.svc.SetItemStatus(ctx, enums.ItemKindIce, res.ItemIDs[0], enums.OrderStatus("paused"))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.CompleteItem(ctx, enums.ItemKindIce, res.ItemIDs[0])
	require.NoError(t, err)
	_, err = f.svc.SetItemStatus(ctx, enums.ItemKindIce, res.ItemIDs[0], enums.OrderStatusOK)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestBoardVisibilityWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	done := f.submitIce(t, 1)
	open := f.submitIce(t, 2)
	_, err := f.svc.CompleteGroup(ctx, enums.ItemKindIce, done.GroupID)
	require.NoError(t, err)
	completedAt := f.clock.Now()

	board, err := f.svc.ListActiveAndCompletedGroups(ctx, enums.ItemKindIce, completedAt.Add(29*time.Second))
	require.NoError(t, err)
	require.Len(t, board.Active, 1)
	assert.Equal(t, open.GroupID, board.Active[0].GroupID)
	require.Len(t, board.Completed, 1)
	assert.Equal(t, done.GroupID, board.Completed[0].GroupID)
	assert.Equal(t, "yellow-1", board.Completed[0].Label)
	require.NotNil(t, board.Admission)
	assert.True(t, board.Admission.Enabled)

	board, err = f.svc.ListActiveAndCompletedGroups(ctx, enums.ItemKindIce, completedAt.Add(31*time.Second))
	require.NoError(t, err)
	assert.Len(t, board.Active, 1)
	assert.Empty(t, board.Completed)
}

func TestBoardRunsAdmissionRecompute(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		f.hold(t, f.submitIce(t, i))
	}

	board, err := f.svc.ListActiveAndCompletedGroups(ctx, enums.ItemKindIce, f.clock.Now())
	require.NoError(t, err)
	require.Len(t, board.Active, 4)
	for _, g := range board.Active {
		assert.Equal(t, enums.OrderStatusStop, g.Status)
	}
	assert.Equal(t, enums.OrderStatusStop, board.Admission.Status)
}

func TestBoardCountsAndRefreshKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SubmitOrderGroup(ctx, enums.ItemKindFood, SubmitInput{
		Items:      []Payload{{Menu: "curry", Quantity: 2}, {Menu: "toast", Quantity: 3}},
		ClipColor:  enums.ClipColorWhite,
		ClipNumber: 1,
	})
	require.NoError(t, err)

	board, err := f.svc.ListActiveAndCompletedGroups(ctx, enums.ItemKindFood, baseTime.Add(time.Second))
	require.NoError(t, err)
	assert.Nil(t, board.Admission)
	assert.Equal(t, 1, board.ActiveGroupCount)
	assert.Equal(t, 5, board.ActiveItemCount)
	assert.Equal(t, fmt.Sprintf("5-%d", baseTime.UnixMilli()), board.RefreshKey)
	require.Len(t, board.Active, 1)
	assert.True(t, board.Active[0].IsRecent)
	assert.Equal(t, 1, board.Active[0].ElapsedSeconds)

	items, err := f.svc.ActiveItemCount(ctx, enums.ItemKindFood)
	require.NoError(t, err)
	assert.Equal(t, 5, items)

	summaries, err := f.svc.Summaries(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 3)
	assert.Equal(t, StationSummary{Kind: enums.ItemKindFood, ActiveGroups: 1, ActiveItems: 5}, summaries[0])
	assert.Equal(t, StationSummary{Kind: enums.ItemKindIce}, summaries[1])
}

func TestListItemsFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.submitIce(t, 1, scoop(enums.IceFlavorMango))
	f.submitIce(t, 2, Payload{
		Size: enums.IceSizeDouble, Container: enums.IceContainerCone,
		Flavor1: enums.IceFlavorMint, Flavor2: enums.IceFlavorMango,
	})
	_, err := f.svc.CompleteGroup(ctx, enums.ItemKindIce, first.GroupID)
	require.NoError(t, err)

	mango, err := f.svc.ListItems(ctx, ListFilter{Kind: enums.ItemKindIce, Flavor: "mango"})
	require.NoError(t, err)
	assert.Len(t, mango, 2)

	open := false
	pending, err := f.svc.ListItems(ctx, ListFilter{Kind: enums.ItemKindIce, IsCompleted: &open})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, enums.IceSizeDouble, *pending[0].Size)

	_, err = f.svc.ListItems(ctx, ListFilter{Kind: "drinks"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestStatistics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.submitIce(t, 1, scoop(enums.IceFlavorMango), scoop(enums.IceFlavorMango))
	f.submitIce(t, 2, scoop(enums.IceFlavorMint), Payload{IsPudding: true})

	f.clock.Advance(58 * time.Second)
	_, err := f.svc.CompleteGroup(ctx, enums.ItemKindIce, first.GroupID)
	require.NoError(t, err)

	stats, err := f.svc.Statistics(ctx, enums.ItemKindIce, f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, "2026-08-01", stats.Day)
	assert.Equal(t, 4, stats.TotalToday)
	assert.Equal(t, 2, stats.CompletedToday)
	assert.Equal(t, 2, stats.Pending)
	assert.Equal(t, "50", stats.CompletionRate.String())
	assert.Equal(t, "60", stats.AvgPrepSeconds.String())
	require.NotEmpty(t, stats.Popular)
	assert.Equal(t, PopularEntry{Name: "mango", Count: 2}, stats.Popular[0])
}
