package shared

//go:generate mockgen -source=credentials.go -destination=../../../tests/mock/shared/credentials.go -package=sharedmock

import (
	"context"
	"time"

	"storefront/internal/domain/auth"
	"storefront/internal/pkg/errs"

	"github.com/google/uuid"
)

var ErrCredentialNotFound = errs.New("store credential not found")

// CredentialStore keeps the store tokens of each session out of the
// browser. Get returns ErrCredentialNotFound for unknown or expired
// sessions.
type CredentialStore interface {
	Put(ctx context.Context, sessionID uuid.UUID, tokens auth.TokenPair, ttl time.Duration) error
	Get(ctx context.Context, sessionID uuid.UUID) (auth.TokenPair, error)
	Delete(ctx context.Context, sessionID uuid.UUID) error
}
