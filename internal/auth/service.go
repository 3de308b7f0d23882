package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pkgAuth "github.com/cafemuji/cafemuji-backend/pkg/auth"
	"github.com/cafemuji/cafemuji-backend/pkg/auth/session"
	"github.com/cafemuji/cafemuji-backend/pkg/config"
	pkgerrors "github.com/cafemuji/cafemuji-backend/pkg/errors"
	"github.com/cafemuji/cafemuji-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (*TokenResponse, error)
	Logout(ctx context.Context, accessID string) error
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string, terminal session.Terminal) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, session.Terminal, error)
	Revoke(ctx context.Context, accessID string) error
}

type service struct {
	session      sessionManager
	jwtCfg       config.JWTConfig
	passcodeHash string
	now          func() time.Time
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
	PasscodeHash   string
	Clock          func() time.Time
}

// NewService constructs the terminal sign-in service.
func NewService(params ServiceParams) (Service, error) {
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if strings.TrimSpace(params.PasscodeHash) == "" {
		return nil, fmt.Errorf("staff passcode hash is required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		session:      params.SessionManager,
		jwtCfg:       params.JWTConfig,
		passcodeHash: params.PasscodeHash,
		now:          clock,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	terminalID := strings.TrimSpace(req.TerminalID)
	if terminalID == "" || req.Passcode == "" || !req.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	valid, err := security.VerifyPasscode(req.Passcode, s.passcodeHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify passcode")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	terminal := session.Terminal{TerminalID: terminalID, Role: req.Role}
	accessID := session.NewAccessID()
	refreshToken, err := s.session.Generate(ctx, accessID, terminal)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store session")
	}
	return s.issue(accessID, refreshToken, terminal)
}

func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*TokenResponse, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, req.AccessToken)
	if err != nil || claims.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}

	accessID, refreshToken, terminal, err := s.session.Rotate(ctx, claims.ID, req.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}
	return s.issue(accessID, refreshToken, terminal)
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "session required")
	}
	if err := s.session.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) issue(accessID, refreshToken string, terminal session.Terminal) (*TokenResponse, error) {
	now := s.now().UTC()
	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		TerminalID: terminal.TerminalID,
		Role:       terminal.Role,
		JTI:        accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    now.Add(time.Duration(s.jwtCfg.ExpirationMinutes) * time.Minute),
		TerminalID:   terminal.TerminalID,
		Role:         terminal.Role,
	}, nil
}
