package usecase

//go:generate mockgen -source=token_validator.go -destination=../../tests/mock/usecase/token_validator.go -package=usecasemock

import (
	"context"

	"storefront/internal/pkg/errs"
	"storefront/internal/pkg/jwt"
	"storefront/internal/usecase/session"
	"storefront/internal/usecase/shared"

	"github.com/google/uuid"
)

var ErrWrongTokenType = errs.New("refresh token used as access token")

// Principal is an authenticated request: who it is, the store credential to
// act with, and the live cart session.
type Principal struct {
	UserID    string
	SessionID uuid.UUID
	Bearer    string
	Session   *session.Session
}

// TokenValidator provides token validation for middleware
type TokenValidator interface {
	Authenticate(ctx context.Context, tokenString string) (*Principal, error)
}

type tokenValidatorImpl struct {
	jwtService  *jwt.Service
	credentials shared.CredentialStore
	sessions    *session.Registry
}

func NewTokenValidator(jwtService *jwt.Service, credentials shared.CredentialStore, sessions *session.Registry) TokenValidator {
	return &tokenValidatorImpl{
		jwtService:  jwtService,
		credentials: credentials,
		sessions:    sessions,
	}
}

func (t *tokenValidatorImpl) Authenticate(ctx context.Context, tokenString string) (*Principal, error) {
	claims, err := t.jwtService.ValidateToken(tokenString)
	if err != nil {
		return nil, errs.AuthRequired(err)
	}
	if claims.TokenType != jwt.TokenTypeAccess {
		return nil, errs.AuthRequired(ErrWrongTokenType)
	}

	stored, err := t.credentials.Get(ctx, claims.SessionID)
	if err != nil {
		if errs.Is(err, shared.ErrCredentialNotFound) {
			t.sessions.Close(claims.SessionID)
			return nil, errs.AuthRequired(err)
		}
		return nil, errs.Transient(errs.Wrap(err, "load store credential"))
	}

	sess, err := t.sessions.Ensure(shared.WithBearer(ctx, stored.Access), claims.SessionID, claims.UserID)
	if err != nil {
		return nil, err
	}

	return &Principal{
		UserID:    claims.UserID,
		SessionID: claims.SessionID,
		Bearer:    stored.Access,
		Session:   sess,
	}, nil
}
