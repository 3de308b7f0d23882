// Package session keeps terminal sessions in redis. A session is keyed by the
// access id carried as the JWT jti and remembers the terminal and a digest of
// its current refresh token.
package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/cafemuji/cafemuji-backend/pkg/config"
	"github.com/cafemuji/cafemuji-backend/pkg/enums"
	redisclient "github.com/cafemuji/cafemuji-backend/pkg/redis"
)

const refreshTokenBytes = 32

var ErrInvalidRefreshToken = errors.New("invalid refresh token")

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	DelIfValue(ctx context.Context, key, value string) (bool, error)
	AccessSessionKey(accessID string) string
}

// AccessSessionChecker exposes the read-only surface needed by middleware.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// Terminal is what a session remembers about the signed-in terminal.
type Terminal struct {
	TerminalID string          `json:"terminal_id"`
	Role       enums.StaffRole `json:"role"`
}

type record struct {
	Terminal
	RefreshDigest string    `json:"refresh_digest"`
	IssuedAt      time.Time `json:"issued_at"`
}

type Manager struct {
	store sessionStore
	ttl   time.Duration
	now   func() time.Time
}

// NewManager requires the refresh lifetime to outlast the access token.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	ttl := cfg.RefreshTokenTTL()
	accessTTL := time.Duration(cfg.ExpirationMinutes) * time.Minute
	if ttl <= 0 || ttl <= accessTTL {
		return nil, fmt.Errorf("refresh token ttl %s must be positive and exceed access token ttl %s", ttl, accessTTL)
	}
	return &Manager{store: client, ttl: ttl, now: time.Now}, nil
}

// Generate opens a session for the terminal under accessID and returns its
// refresh token. Only a digest of the token is stored.
func (m *Manager) Generate(ctx context.Context, accessID string, terminal Terminal) (string, error) {
	if strings.TrimSpace(accessID) == "" {
		return "", errors.New("access id is required")
	}
	if strings.TrimSpace(terminal.TerminalID) == "" {
		return "", errors.New("terminal id is required")
	}
	return m.open(ctx, accessID, terminal)
}

// Rotate trades the refresh token of oldAccessID for a new session of the
// same terminal. The old session is claimed with a compare-and-delete, so of
// two concurrent refreshes with the same token only one succeeds.
func (m *Manager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, Terminal, error) {
	if strings.TrimSpace(oldAccessID) == "" || strings.TrimSpace(provided) == "" {
		return "", "", Terminal{}, ErrInvalidRefreshToken
	}
	key := m.store.AccessSessionKey(oldAccessID)
	raw, err := m.store.Get(ctx, key)
	if errors.Is(err, redislib.Nil) {
		return "", "", Terminal{}, ErrInvalidRefreshToken
	}
	if err != nil {
		return "", "", Terminal{}, err
	}
	var current record
	if err := json.Unmarshal([]byte(raw), &current); err != nil {
		return "", "", Terminal{}, ErrInvalidRefreshToken
	}
	if subtle.ConstantTimeCompare([]byte(current.RefreshDigest), []byte(refreshDigest(provided))) != 1 {
		return "", "", Terminal{}, ErrInvalidRefreshToken
	}

	claimed, err := m.store.DelIfValue(ctx, key, raw)
	if err != nil {
		return "", "", Terminal{}, err
	}
	if !claimed {
		return "", "", Terminal{}, ErrInvalidRefreshToken
	}

	newAccessID := NewAccessID()
	token, err := m.open(ctx, newAccessID, current.Terminal)
	if err != nil {
		return "", "", Terminal{}, err
	}
	return newAccessID, token, current.Terminal, nil
}

// Revoke deletes the session tied to the access identifier.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return errors.New("access id is required")
	}
	return m.store.Del(ctx, m.store.AccessSessionKey(accessID))
}

// HasSession reports whether the access id still has an open session.
func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	if strings.TrimSpace(accessID) == "" {
		return false, errors.New("access id is required")
	}
	_, err := m.store.Get(ctx, m.store.AccessSessionKey(accessID))
	switch {
	case errors.Is(err, redislib.Nil):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

// NewAccessID produces the identifier used as JWT jti, redis key and cart scope.
func NewAccessID() string {
	return uuid.NewString()
}

func (m *Manager) open(ctx context.Context, accessID string, terminal Terminal) (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	payload, err := json.Marshal(record{
		Terminal:      terminal,
		RefreshDigest: refreshDigest(token),
		IssuedAt:      m.now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}
	if err := m.store.Set(ctx, m.store.AccessSessionKey(accessID), string(payload), m.ttl); err != nil {
		return "", err
	}
	return token, nil
}

func refreshDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
