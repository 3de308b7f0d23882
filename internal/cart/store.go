package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cafemuji/cafemuji-backend/pkg/enums"
	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

type redisStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	DelIfValue(ctx context.Context, key, value string) (bool, error)
	CartKey(sessionID, kind string) string
	CartLockKey(sessionID, kind string) string
}

// Store persists carts as one JSON document per session and station.
type Store interface {
	Load(ctx context.Context, sessionID string, kind enums.ItemKind) (*Cart, error)
	Save(ctx context.Context, sessionID string, cart *Cart) error
	Delete(ctx context.Context, sessionID string, kind enums.ItemKind) error
	// Lock returns the owner token, or "" when another submit holds the lock.
	Lock(ctx context.Context, sessionID string, kind enums.ItemKind, ttl time.Duration) (string, error)
	Unlock(ctx context.Context, sessionID string, kind enums.ItemKind, token string) error
}

type store struct {
	redis redisStore
	ttl   time.Duration
}

// NewStore builds a redis-backed cart store. Idle carts expire after ttl.
func NewStore(redis redisStore, ttl time.Duration) (Store, error) {
	if redis == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cart ttl must be positive")
	}
	return &store{redis: redis, ttl: ttl}, nil
}

func (s *store) Load(ctx context.Context, sessionID string, kind enums.ItemKind) (*Cart, error) {
	raw, err := s.redis.Get(ctx, s.redis.CartKey(sessionID, kind.String()))
	if errors.Is(err, redislib.Nil) {
		return newCart(kind), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	var cart Cart
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	cart.Kind = kind
	if cart.Items == nil {
		cart.Items = []Item{}
	}
	return &cart, nil
}

func (s *store) Save(ctx context.Context, sessionID string, cart *Cart) error {
	payload, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	return s.redis.Set(ctx, s.redis.CartKey(sessionID, cart.Kind.String()), string(payload), s.ttl)
}

func (s *store) Delete(ctx context.Context, sessionID string, kind enums.ItemKind) error {
	return s.redis.Del(ctx, s.redis.CartKey(sessionID, kind.String()))
}

func (s *store) Lock(ctx context.Context, sessionID string, kind enums.ItemKind, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	ok, err := s.redis.SetNX(ctx, s.redis.CartLockKey(sessionID, kind.String()), token, ttl)
	if err != nil || !ok {
		return "", err
	}
	return token, nil
}

// Unlock releases the lock only while token still owns it; an expired lock
// taken over by another submit is left alone.
func (s *store) Unlock(ctx context.Context, sessionID string, kind enums.ItemKind, token string) error {
	_, err := s.redis.DelIfValue(ctx, s.redis.CartLockKey(sessionID, kind.String()), token)
	return err
}
