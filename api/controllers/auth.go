package controllers

import (
	"context"
	"net/http"

	"github.com/cafemuji/cafemuji-backend/api/middleware"
	"github.com/cafemuji/cafemuji-backend/api/responses"
	"github.com/cafemuji/cafemuji-backend/api/validators"
	"github.com/cafemuji/cafemuji-backend/internal/auth"
	pkgerrors "github.com/cafemuji/cafemuji-backend/pkg/errors"
	"github.com/cafemuji/cafemuji-backend/pkg/logger"
)

var errAuthUnavailable = pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")

// AuthLogin signs a staff terminal in with the shared passcode.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg)
	}
	return tokenExchange(logg, svc.Login)
}

// AuthRefresh trades a refresh token for a new token pair.
func AuthRefresh(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg)
	}
	return tokenExchange(logg, svc.Refresh)
}

// AuthLogout closes the session behind the presented access token.
func AuthLogout(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := middleware.PrincipalFromContext(r.Context())
		if !ok || principal.SessionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session"))
			return
		}
		if err := svc.Logout(r.Context(), principal.SessionID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if logg != nil {
			logg.Info(r.Context(), "auth.logged_out")
		}
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}

// tokenExchange decodes and validates a Req body and writes exchange's result.
func tokenExchange[Req any](logg *logger.Logger, exchange func(context.Context, Req) (*auth.TokenResponse, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req Req
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tokens, err := exchange(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tokens)
	}
}

func unavailable(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w, errAuthUnavailable)
	}
}
