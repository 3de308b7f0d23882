package auth

import (
	"errors"
	"strings"

	"github.com/cafemuji/cafemuji-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	TerminalID string
	Role       enums.StaffRole
	JTI        string
}

// AccessTokenClaims represents the typed JWT issued to staff terminals. The
// registered ID doubles as the session id that scopes staging carts.
type AccessTokenClaims struct {
	TerminalID string          `json:"terminal_id"`
	Role       enums.StaffRole `json:"role"`
	jwt.RegisteredClaims
}

var (
	errMissingTerminal = errors.New("token has no terminal id")
	errMissingSession  = errors.New("token has no session id")
	errUnknownRole     = errors.New("token carries an unknown staff role")
)

// Validate is run by the jwt parser after the registered claims pass.
func (c AccessTokenClaims) Validate() error {
	if strings.TrimSpace(c.TerminalID) == "" || c.Subject != c.TerminalID {
		return errMissingTerminal
	}
	if strings.TrimSpace(c.ID) == "" {
		return errMissingSession
	}
	if !c.Role.IsValid() {
		return errUnknownRole
	}
	return nil
}
