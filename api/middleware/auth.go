package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/cafemuji/cafemuji-backend/api/responses"
	pkgAuth "github.com/cafemuji/cafemuji-backend/pkg/auth"
	"github.com/cafemuji/cafemuji-backend/pkg/auth/session"
	"github.com/cafemuji/cafemuji-backend/pkg/config"
	pkgerrors "github.com/cafemuji/cafemuji-backend/pkg/errors"
	"github.com/cafemuji/cafemuji-backend/pkg/logger"
)

const bearerScheme = "Bearer"

// Auth admits requests carrying a valid access token whose redis session is
// still live, and records the terminal on the context and its log fields.
func Auth(cfg config.JWTConfig, sessions session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := authenticate(r.Context(), r, cfg, sessions)
			if err != nil {
				if pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
					w.Header().Set("WWW-Authenticate", bearerScheme)
				}
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := withPrincipal(r.Context(), principal)
			if logg != nil {
				ctx = logg.WithTerminalID(ctx, principal.TerminalID)
				ctx = logg.WithSessionID(ctx, principal.SessionID)
				ctx = logg.WithField(ctx, "staff_role", principal.Role)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(ctx context.Context, r *http.Request, cfg config.JWTConfig, sessions session.AccessSessionChecker) (Principal, error) {
	token, err := BearerToken(r)
	if err != nil {
		return Principal{}, err
	}
	claims, err := pkgAuth.ParseAccessToken(cfg, token)
	if err != nil {
		return Principal{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if sessions != nil {
		live, err := sessions.HasSession(ctx, claims.ID)
		if err != nil {
			return Principal{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session")
		}
		if !live {
			return Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired or logged out")
		}
	}
	return Principal{
		SessionID:  claims.ID,
		TerminalID: claims.TerminalID,
		Role:       string(claims.Role),
	}, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func BearerToken(r *http.Request) (string, error) {
	scheme, token, found := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing bearer credentials")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing bearer credentials")
	}
	return token, nil
}
