package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/cafemuji/cafemuji-backend/api/responses"
	pkgerrors "github.com/cafemuji/cafemuji-backend/pkg/errors"
	"github.com/cafemuji/cafemuji-backend/pkg/logger"
)

const (
	idempotencyHeader       = "Idempotency-Key"
	idempotencyReplayHeader = "Idempotency-Replayed"
	defaultIdempotencyTTL   = 10 * time.Minute
	pendingReservationTTL   = 30 * time.Second
)

const (
	recordPending = "pending"
	recordDone    = "done"
)

// IdempotencyStore is the slice of the redis client the middleware needs.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	DelIfValue(ctx context.Context, key, value string) (bool, error)
	IdempotencyKey(scope, id string) string
}

// submitRoutes are the POSTs that create groups. Completions and status
// changes converge on their own and are not guarded.
var submitRoutes = [][]string{
	{"api", "v1", "*", "groups"},
	{"api", "v1", "*", "cart", "submit"},
	{"api", "v1", "mobile", "food", "orders"},
}

type idempotencyRecord struct {
	State       string `json:"state"`
	RequestHash string `json:"request_hash"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        string `json:"body,omitempty"`
}

type idempotencyGuard struct {
	store IdempotencyStore
	ttl   time.Duration
	logg  *logger.Logger
}

// Idempotency makes submits safe to retry. The first request carrying an
// Idempotency-Key reserves it while the handler runs; a retry with the same
// body replays the stored response and one with a different body, or one
// arriving while the first is still running, is refused with 409.
// Requests without the header pass through.
func Idempotency(store IdempotencyStore, ttl time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	g := &idempotencyGuard{store: store, ttl: ttl, logg: logg}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if store == nil || clientKey == "" || !isSubmitRoute(r.Method, routePattern(r)) {
				next.ServeHTTP(w, r)
				return
			}
			g.serve(w, r, next, clientKey)
		})
	}
}

func (g *idempotencyGuard) serve(w http.ResponseWriter, r *http.Request, next http.Handler, clientKey string) {
	ctx := r.Context()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		responses.WriteError(ctx, g.logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	key := g.store.IdempotencyKey(requestScope(r), clientKey)
	hash := hashBody(body)

	existing, err := g.lookup(ctx, key)
	if err != nil {
		responses.WriteError(ctx, g.logg, w, err)
		return
	}
	if existing != nil {
		g.answerExisting(w, r, existing, hash, clientKey)
		return
	}

	pending, err := json.Marshal(idempotencyRecord{State: recordPending, RequestHash: hash})
	if err != nil {
		responses.WriteError(ctx, g.logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode idempotency reservation"))
		return
	}
	reserved, err := g.store.SetNX(ctx, key, string(pending), pendingReservationTTL)
	if err != nil {
		responses.WriteError(ctx, g.logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve idempotency key"))
		return
	}
	if !reserved {
		responses.WriteError(ctx, g.logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "a request with this idempotency key is in progress"))
		return
	}

	capture := &responseCapture{ResponseWriter: w}
	next.ServeHTTP(capture, r)

	// the reservation must outlive a cancelled client
	storeCtx := context.WithoutCancel(ctx)
	status := capture.statusCode()
	if status >= http.StatusInternalServerError {
		if _, err := g.store.DelIfValue(storeCtx, key, string(pending)); err != nil {
			g.logError(storeCtx, "idempotency.release_failed", err)
		}
		return
	}

	done, err := json.Marshal(idempotencyRecord{
		State:       recordDone,
		RequestHash: hash,
		Status:      status,
		ContentType: capture.Header().Get("Content-Type"),
		Body:        base64.StdEncoding.EncodeToString(capture.body.Bytes()),
	})
	if err != nil {
		g.logError(storeCtx, "idempotency.encode_failed", err)
		return
	}
	if err := g.store.Set(storeCtx, key, string(done), g.ttl); err != nil {
		g.logError(storeCtx, "idempotency.persist_failed", err)
	}
}

func (g *idempotencyGuard) lookup(ctx context.Context, key string) (*idempotencyRecord, error) {
	raw, err := g.store.Get(ctx, key)
	if errors.Is(err, redis.Nil) || (err == nil && raw == "") {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency key")
	}
	var rec idempotencyRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record")
	}
	return &rec, nil
}

func (g *idempotencyGuard) answerExisting(w http.ResponseWriter, r *http.Request, rec *idempotencyRecord, hash, clientKey string) {
	ctx := r.Context()
	switch {
	case rec.RequestHash != hash:
		responses.WriteError(ctx, g.logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with a different request body"))
	case rec.State != recordDone:
		responses.WriteError(ctx, g.logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "a request with this idempotency key is in progress"))
	default:
		if g.logg != nil {
			g.logg.Info(g.logg.WithField(ctx, "idempotency_key", clientKey), "idempotency.replayed")
		}
		replay(w, rec)
	}
}

func (g *idempotencyGuard) logError(ctx context.Context, msg string, err error) {
	if g.logg != nil {
		g.logg.Error(ctx, msg, err)
	}
}

// requestScope keeps keys from colliding across terminals and endpoints.
func requestScope(r *http.Request) string {
	return strings.Join([]string{SessionIDFromContext(r.Context()), r.Method, r.URL.Path}, "|")
}

func replay(w http.ResponseWriter, rec *idempotencyRecord) {
	if rec.ContentType != "" {
		w.Header().Set("Content-Type", rec.ContentType)
	}
	w.Header().Set(idempotencyReplayHeader, "true")
	w.WriteHeader(rec.Status)
	if body, err := base64.StdEncoding.DecodeString(rec.Body); err == nil {
		_, _ = w.Write(body)
	}
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" && !strings.HasSuffix(pattern, "/*") {
			return pattern
		}
	}
	return r.URL.Path
}

// isSubmitRoute matches method and path against submitRoutes. A "*" segment
// matches any single segment, chi placeholders such as {kind} included.
func isSubmitRoute(method, pattern string) bool {
	if method != http.MethodPost || pattern == "" {
		return false
	}
	parts := strings.Split(strings.Trim(pattern, "/"), "/")
	for _, route := range submitRoutes {
		if segmentsMatch(route, parts) {
			return true
		}
	}
	return false
}

func segmentsMatch(route, parts []string) bool {
	if len(route) != len(parts) {
		return false
	}
	for i, seg := range route {
		if seg != "*" && parts[i] != seg {
			return false
		}
	}
	return true
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *responseCapture) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *responseCapture) statusCode() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}
