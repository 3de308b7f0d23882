package auth

import (
	"time"

	"github.com/cafemuji/cafemuji-backend/pkg/enums"
)

// LoginRequest is the keypad sign-in of a staff terminal.
type LoginRequest struct {
	Passcode   string          `json:"passcode" validate:"required,min=4,max=32"`
	TerminalID string          `json:"terminal_id" validate:"required,max=64"`
	Role       enums.StaffRole `json:"role" validate:"required,oneof=register kitchen"`
}

// RefreshRequest trades a refresh token for a new token pair.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	ExpiresAt    time.Time       `json:"expires_at"`
	TerminalID   string          `json:"terminal_id"`
	Role         enums.StaffRole `json:"role"`
}
