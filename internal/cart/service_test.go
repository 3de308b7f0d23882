package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cafemuji/cafemuji-backend/internal/orders"
	"github.com/cafemuji/cafemuji-backend/pkg/enums"
	pkgerrors "github.com/cafemuji/cafemuji-backend/pkg/errors"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRedis struct {
	data map[string]string
	ttl  map[string]time.Duration
}

func newMemoryRedis() *memoryRedis {
	return &memoryRedis{data: map[string]string{}, ttl: map[string]time.Duration{}}
}

func (m *memoryRedis) Get(_ context.Context, key string) (string, error) {
	v, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return v, nil
}

func (m *memoryRedis) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.data[key] = value.(string)
	m.ttl[key] = ttl
	return nil
}

func (m *memoryRedis) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = value.(string)
	m.ttl[key] = ttl
	return true, nil
}

func (m *memoryRedis) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memoryRedis) DelIfValue(_ context.Context, key, value string) (bool, error) {
	if v, ok := m.data[key]; !ok || v != value {
		return false, nil
	}
	delete(m.data, key)
	return true, nil
}

func (m *memoryRedis) CartKey(sessionID, kind string) string {
	return "cart:" + sessionID + ":" + kind
}

func (m *memoryRedis) CartLockKey(sessionID, kind string) string {
	return "lock:" + sessionID + ":" + kind
}

type stubSubmitter struct {
	calls []orders.SubmitInput
	err   error
}

func (s *stubSubmitter) SubmitOrderGroup(_ context.Context, kind enums.ItemKind, input orders.SubmitInput) (*orders.SubmitResult, error) {
	s.calls = append(s.calls, input)
	if s.err != nil {
		return nil, s.err
	}
	return &orders.SubmitResult{GroupID: "yellow-3-1-x", Label: "yellow-3", Kind: kind, Status: enums.OrderStatusOK}, nil
}

type stubMetrics struct {
	outcomes []string
}

func (m *stubMetrics) CartSubmitted(_, outcome string) {
	m.outcomes = append(m.outcomes, outcome)
}

type harness struct {
	svc     Service
	redis   *memoryRedis
	orders  *stubSubmitter
	metrics *stubMetrics
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	redis := newMemoryRedis()
	st, err := NewStore(redis, time.Hour)
	require.NoError(t, err)
	sub := &stubSubmitter{}
	metrics := &stubMetrics{}
	svc, err := NewService(ServiceParams{
		Store:   st,
		Orders:  sub,
		Metrics: metrics,
		Clock:   func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return &harness{svc: svc, redis: redis, orders: sub, metrics: metrics}
}

var mango = orders.Payload{Size: enums.IceSizeSingle, Container: enums.IceContainerCup, Flavor1: enums.IceFlavorMango}

func TestAddThenRemoveLeavesEmptyCart(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Add(ctx, "s1", enums.ItemKindIce, mango)
	require.NoError(t, err)
	_, err = h.svc.RemoveAt(ctx, "s1", enums.ItemKindIce, 0)
	require.NoError(t, err)

	cart, err := h.svc.List(ctx, "s1", enums.ItemKindIce)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCartsAreScopedBySessionAndKind(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Add(ctx, "s1", enums.ItemKindIce, mango)
	require.NoError(t, err)

	other, err := h.svc.List(ctx, "s2", enums.ItemKindIce)
	require.NoError(t, err)
	assert.Empty(t, other.Items)

	food, err := h.svc.List(ctx, "s1", enums.ItemKindFood)
	require.NoError(t, err)
	assert.Empty(t, food.Items)

	_, err = h.svc.List(ctx, "", enums.ItemKindIce)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestAddChecksOnlyRequiredFields(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Add(ctx, "s1", enums.ItemKindIce, orders.Payload{Size: enums.IceSizeSingle})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	// a double without flavor2 is accepted until submit
	double := orders.Payload{Size: enums.IceSizeDouble, Container: enums.IceContainerCone, Flavor1: enums.IceFlavorMint}
	cart, err := h.svc.Add(ctx, "s1", enums.ItemKindIce, double)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, time.Hour, h.redis.ttl["cart:s1:ice"])
}

func TestRemoveAtOutOfRange(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.svc.Add(ctx, "s1", enums.ItemKindIce, mango)
	require.NoError(t, err)

	for _, index := range []int{-1, 1} {
		_, err := h.svc.RemoveAt(ctx, "s1", enums.ItemKindIce, index)
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "index %d", index)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		violations, ok := typed.Details().([]pkgerrors.FieldViolation)
		require.True(t, ok)
		require.Len(t, violations, 1)
		assert.Equal(t, "index", violations[0].Field)
	}

	cart, err := h.svc.List(ctx, "s1", enums.ItemKindIce)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
}

func TestRemovePuddings(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.svc.Add(ctx, "s1", enums.ItemKindIce, orders.Payload{IsPudding: true})
	require.NoError(t, err)
	_, err = h.svc.Add(ctx, "s1", enums.ItemKindIce, mango)
	require.NoError(t, err)
	_, err = h.svc.Add(ctx, "s1", enums.ItemKindIce, orders.Payload{IsPudding: true})
	require.NoError(t, err)

	cart, err := h.svc.RemovePuddings(ctx, "s1", enums.ItemKindIce)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, enums.IceFlavorMango, cart.Items[0].Flavor1)
}

func TestClearDropsCart(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.svc.Add(ctx, "s1", enums.ItemKindIce, mango)
	require.NoError(t, err)
	require.NoError(t, h.svc.Clear(ctx, "s1", enums.ItemKindIce))

	cart, err := h.svc.List(ctx, "s1", enums.ItemKindIce)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Empty(t, h.orders.calls)
}

func TestSubmitEmptyCartIsNoop(t *testing.T) {
	h := newHarness(t)
	out, err := h.svc.Submit(context.Background(), "s1", enums.ItemKindIce, SubmitInput{})
	require.NoError(t, err)
	assert.False(t, out.Submitted)
	assert.Empty(t, h.orders.calls)
	assert.Equal(t, []string{outcomeEmpty}, h.metrics.outcomes)
}

func TestSubmitUsesPendingClipAndClearsCart(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.svc.Add(ctx, "s1", enums.ItemKindIce, mango)
	require.NoError(t, err)
	_, err = h.svc.SetPendingClip(ctx, "s1", enums.ItemKindIce, ClipInput{ClipColor: enums.ClipColorYellow, ClipNumber: 3, Note: "cone please"})
	require.NoError(t, err)

	out, err := h.svc.Submit(ctx, "s1", enums.ItemKindIce, SubmitInput{})
	require.NoError(t, err)
	assert.True(t, out.Submitted)
	assert.Equal(t, "yellow-3", out.Group.Label)
	require.Len(t, h.orders.calls, 1)
	assert.Equal(t, enums.ClipColorYellow, h.orders.calls[0].ClipColor)
	assert.Equal(t, 3, h.orders.calls[0].ClipNumber)
	assert.Equal(t, "cone please", h.orders.calls[0].Note)

	cart, err := h.svc.List(ctx, "s1", enums.ItemKindIce)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	_, locked := h.redis.data["lock:s1:ice"]
	assert.False(t, locked, "submit must release its lock")
}

func TestSubmitRejectedLeavesCartUnchanged(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.svc.Add(ctx, "s1", enums.ItemKindIce, mango)
	require.NoError(t, err)
	h.orders.err = pkgerrors.Invalid("order group rejected", pkgerrors.FieldViolation{Field: "flavor2", Reason: "required for double size"})

	color := enums.ClipColorWhite
	number := 0
	_, err = h.svc.Submit(ctx, "s1", enums.ItemKindIce, SubmitInput{ClipColor: &color, ClipNumber: &number})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	cart, err := h.svc.List(ctx, "s1", enums.ItemKindIce)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
	assert.Equal(t, []string{outcomeRejected}, h.metrics.outcomes)
}

func TestSubmitWithoutClipIsRejected(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.svc.Add(ctx, "s1", enums.ItemKindIce, mango)
	require.NoError(t, err)

	_, err = h.svc.Submit(ctx, "s1", enums.ItemKindIce, SubmitInput{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Empty(t, h.orders.calls)
}

func TestSubmitWhileLocked(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.redis.data["lock:s1:ice"] = "1"

	_, err := h.svc.Submit(ctx, "s1", enums.ItemKindIce, SubmitInput{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestStoreUnlockKeepsLockTakenOverByAnotherSubmit(t *testing.T) {
	redis := newMemoryRedis()
	st, err := NewStore(redis, time.Hour)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := st.Lock(ctx, "s1", enums.ItemKindIce, 10*time.Second)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	busy, err := st.Lock(ctx, "s1", enums.ItemKindIce, 10*time.Second)
	require.NoError(t, err)
	assert.Empty(t, busy)

	// first lock expires and a second submit takes over
	delete(redis.data, "lock:s1:ice")
	second, err := st.Lock(ctx, "s1", enums.ItemKindIce, 10*time.Second)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	require.NoError(t, st.Unlock(ctx, "s1", enums.ItemKindIce, first))
	assert.Equal(t, second, redis.data["lock:s1:ice"])

	require.NoError(t, st.Unlock(ctx, "s1", enums.ItemKindIce, second))
	_, held := redis.data["lock:s1:ice"]
	assert.False(t, held)
}

func TestSetPendingClipValidates(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.SetPendingClip(context.Background(), "s1", enums.ItemKindIce, ClipInput{ClipColor: "red", ClipNumber: 17})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestStoreDecodeFailure(t *testing.T) {
	redis := newMemoryRedis()
	redis.data["cart:s1:ice"] = "{not json"
	st, err := NewStore(redis, time.Hour)
	require.NoError(t, err)

	_, err = st.Load(context.Background(), "s1", enums.ItemKindIce)
	require.Error(t, err)
	assert.False(t, errors.Is(err, redislib.Nil))
}
