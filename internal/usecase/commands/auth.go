package commands

//go:generate mockgen -source=auth.go -destination=../../../tests/mock/commands/auth.go -package=commandsmock

import (
	"context"
	"log/slog"

	"storefront/internal/domain/user"
	reqdto "storefront/internal/handler/dto/request"
	"storefront/internal/pkg/errs"
	"storefront/internal/pkg/jwt"
	"storefront/internal/usecase/session"
	"storefront/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrAuthenticationFailed = errs.New("authentication failed")
	ErrTokenGeneration      = errs.New("token generation failed")
	ErrTokenValidation      = errs.New("token validation failed")
	ErrCredentialStorage    = errs.New("credential storage failed")
)

type LoginResult struct {
	UserID    string
	SessionID uuid.UUID
	TokenPair *TokenPair
	Profile   *user.Profile
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type AuthCommands interface {
	Login(ctx context.Context, req reqdto.LoginRequest) (*LoginResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, sessionID uuid.UUID) error
}

type authCommandsImpl struct {
	accounts    shared.AccountGateway
	credentials shared.CredentialStore
	sessions    *session.Registry
	jwtService  *jwt.Service
}

func NewAuthCommands(
	accounts shared.AccountGateway,
	credentials shared.CredentialStore,
	sessions *session.Registry,
	jwtService *jwt.Service,
) AuthCommands {
	return &authCommandsImpl{
		accounts:    accounts,
		credentials: credentials,
		sessions:    sessions,
		jwtService:  jwtService,
	}
}

// Login forwards the credentials to the store, keeps the store tokens
// server-side and opens a cart session. The returned tokens are this
// service's own.
func (a *authCommandsImpl) Login(ctx context.Context, req reqdto.LoginRequest) (*LoginResult, error) {
	credentials, err := req.ToDomain()
	if err != nil {
		return nil, errs.Validation(errs.Mark(err, ErrAuthenticationFailed))
	}

	storeTokens, profile, err := a.accounts.Login(ctx, credentials)
	if err != nil {
		return nil, errs.Wrap(err, "store login")
	}
	if storeTokens.IsZero() || profile == nil || profile.ID() == "" {
		return nil, errs.Transient(errs.Mark(errs.New("store login returned no credential"), ErrAuthenticationFailed))
	}

	sessionID := uuid.New()
	if err := a.credentials.Put(ctx, sessionID, storeTokens, a.jwtService.RefreshTokenDuration()); err != nil {
		return nil, errs.Transient(errs.Mark(err, ErrCredentialStorage))
	}

	pair, err := a.issue(profile.ID(), sessionID)
	if err != nil {
		return nil, err
	}

	if _, err := a.sessions.Open(shared.WithBearer(ctx, storeTokens.Access), sessionID, profile.ID()); err != nil {
		// the cart heals on the next refresh
		slog.Warn("cart not loaded at login", "user_id", profile.ID(), "error", err.Error())
	}

	return &LoginResult{
		UserID:    profile.ID(),
		SessionID: sessionID,
		TokenPair: pair,
		Profile:   profile,
	}, nil
}

func (a *authCommandsImpl) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := a.jwtService.ValidateToken(refreshToken)
	if err != nil {
		return nil, errs.AuthRequired(errs.Mark(err, ErrTokenValidation))
	}
	if claims.TokenType != jwt.TokenTypeRefresh {
		return nil, errs.AuthRequired(ErrTokenValidation)
	}

	stored, err := a.credentials.Get(ctx, claims.SessionID)
	if err != nil {
		if errs.Is(err, shared.ErrCredentialNotFound) {
			return nil, errs.AuthRequired(err)
		}
		return nil, errs.Transient(errs.Mark(err, ErrCredentialStorage))
	}

	renewed, err := a.accounts.RefreshToken(ctx, stored.Refresh)
	if err != nil {
		if errs.KindOf(err) == errs.KindAuthRequired {
			a.forget(ctx, claims.SessionID)
		}
		return nil, errs.Wrap(err, "store token refresh")
	}
	if renewed.Refresh == "" {
		renewed.Refresh = stored.Refresh
	}
	if err := a.credentials.Put(ctx, claims.SessionID, renewed, a.jwtService.RefreshTokenDuration()); err != nil {
		return nil, errs.Transient(errs.Mark(err, ErrCredentialStorage))
	}

	return a.issue(claims.UserID, claims.SessionID)
}

// Logout ends the cart session and drops the stored credential. Telling
// the store is best effort.
func (a *authCommandsImpl) Logout(ctx context.Context, sessionID uuid.UUID) error {
	a.sessions.Close(sessionID)

	stored, err := a.credentials.Get(ctx, sessionID)
	switch {
	case err == nil:
		if err := a.accounts.Logout(shared.WithBearer(ctx, stored.Access), stored.Refresh); err != nil {
			slog.Warn("store logout failed", "session_id", sessionID, "error", err.Error())
		}
	case !errs.Is(err, shared.ErrCredentialNotFound):
		slog.Warn("credential lookup failed during logout", "session_id", sessionID, "error", err.Error())
	}

	if err := a.credentials.Delete(ctx, sessionID); err != nil {
		return errs.Transient(errs.Mark(err, ErrCredentialStorage))
	}
	return nil
}

func (a *authCommandsImpl) issue(userID string, sessionID uuid.UUID) (*TokenPair, error) {
	accessToken, err := a.jwtService.GenerateAccessToken(userID, sessionID)
	if err != nil {
		return nil, errs.Mark(err, ErrTokenGeneration)
	}
	refreshToken, err := a.jwtService.GenerateRefreshToken(userID, sessionID)
	if err != nil {
		return nil, errs.Mark(err, ErrTokenGeneration)
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (a *authCommandsImpl) forget(ctx context.Context, sessionID uuid.UUID) {
	a.sessions.Close(sessionID)
	if err := a.credentials.Delete(ctx, sessionID); err != nil {
		slog.Warn("failed to drop expired credential", "session_id", sessionID, "error", err.Error())
	}
}
