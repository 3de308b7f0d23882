package middleware

import "context"

type contextKey int

const (
	principalKey contextKey = iota
	requestIDKey
)

// Principal is the terminal session a request was authenticated as.
type Principal struct {
	SessionID  string
	TerminalID string
	Role       string
}

// WithSession injects the authenticated terminal into the context.
func WithSession(ctx context.Context, sessionID, terminalID, role string) context.Context {
	return withPrincipal(ctx, Principal{SessionID: sessionID, TerminalID: terminalID, Role: role})
}

func withPrincipal(ctx context.Context, p Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext reports false for unauthenticated requests.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// SessionIDFromContext returns the access id of the authenticated session.
func SessionIDFromContext(ctx context.Context) string {
	p, _ := PrincipalFromContext(ctx)
	return p.SessionID
}

func TerminalIDFromContext(ctx context.Context) string {
	p, _ := PrincipalFromContext(ctx)
	return p.TerminalID
}

func RoleFromContext(ctx context.Context) string {
	p, _ := PrincipalFromContext(ctx)
	return p.Role
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}
