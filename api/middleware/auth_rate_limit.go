package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cafemuji/cafemuji-backend/api/responses"
	"github.com/cafemuji/cafemuji-backend/pkg/config"
	pkgerrors "github.com/cafemuji/cafemuji-backend/pkg/errors"
	"github.com/cafemuji/cafemuji-backend/pkg/logger"
)

// rateLimiterStore counts hits in fixed windows; the redis client satisfies it.
type rateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// AuthRateLimitPolicy throttles one auth surface by client address and by
// the terminal named in the request body.
type AuthRateLimitPolicy struct {
	name          string
	window        time.Duration
	ipLimit       int
	terminalLimit int
}

func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, terminalLimit int) AuthRateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	return AuthRateLimitPolicy{name: name, window: window, ipLimit: ipLimit, terminalLimit: terminalLimit}
}

// LoginRateLimitPolicy builds the login policy from configuration.
func LoginRateLimitPolicy(cfg config.AuthRateLimitConfig) AuthRateLimitPolicy {
	return NewAuthRateLimitPolicy("login", cfg.LoginWindow, cfg.LoginIPLimit, cfg.LoginTerminalLimit)
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.terminalLimit > 0)
}

// bucket is one counter a request is charged against.
type bucket struct {
	dimension string
	subject   string
	limit     int
}

func (p AuthRateLimitPolicy) scope(b bucket) string {
	return p.name + ":" + b.dimension + ":" + b.subject
}

// AuthRateLimit charges each request against its address bucket first and
// its terminal bucket second, answering 429 with Retry-After once either is
// over its limit.
func AuthRateLimit(policy AuthRateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			buckets, err := policy.buckets(r)
			if err != nil {
				responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			for _, b := range buckets {
				allowed, count, err := store.FixedWindowAllow(ctx, policy.scope(b), int64(b.limit), policy.window)
				if err != nil {
					responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if !allowed {
					policy.reject(ctx, logg, w, b, count)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// buckets rewinds the body after peeking at the terminal id.
func (p AuthRateLimitPolicy) buckets(r *http.Request) ([]bucket, error) {
	out := make([]bucket, 0, 2)
	if p.ipLimit > 0 {
		if ip := clientIP(r); ip != "" {
			out = append(out, bucket{dimension: "ip", subject: ip, limit: p.ipLimit})
		}
	}
	if p.terminalLimit <= 0 || r.Body == nil {
		return out, nil
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	if terminal := terminalFromBody(body); terminal != "" {
		out = append(out, bucket{dimension: "terminal", subject: digest(terminal), limit: p.terminalLimit})
	}
	return out, nil
}

func (p AuthRateLimitPolicy) reject(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, b bucket, count int64) {
	retryAfter := int(p.window.Round(time.Second).Seconds())
	if logg != nil {
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"policy":    p.name,
			"dimension": b.dimension,
			"subject":   b.subject,
			"attempts":  count,
			"limit":     b.limit,
		}), "auth.rate_limit.blocked")
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later"))
}

// clientIP prefers the first proxy hop, then X-Real-IP, then the socket peer.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func terminalFromBody(payload []byte) string {
	var body struct {
		TerminalID string `json:"terminal_id"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(body.TerminalID))
}

// digest keeps raw terminal ids out of redis keys and logs.
func digest(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:8])
}
