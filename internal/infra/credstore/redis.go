package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"storefront/internal/domain/auth"
	"storefront/internal/pkg/errs"
	"storefront/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "storefront:credential:"

type sealedTokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// RedisStore keeps each session's store credential sealed in Redis, expiring
// with the session's refresh token.
type RedisStore struct {
	client *redis.Client
	sealer *Sealer
}

func NewRedisStore(client *redis.Client, sealer *Sealer) *RedisStore {
	return &RedisStore{client: client, sealer: sealer}
}

func (s *RedisStore) Put(ctx context.Context, sessionID uuid.UUID, tokens auth.TokenPair, ttl time.Duration) error {
	raw, err := json.Marshal(sealedTokens{Access: tokens.Access, Refresh: tokens.Refresh})
	if err != nil {
		return errs.Wrap(err, "marshal credential")
	}
	sealed, err := s.sealer.Seal(raw)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, credentialKey(sessionID), sealed, ttl).Err(); err != nil {
		return errs.Wrap(err, "redis set failed")
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, sessionID uuid.UUID) (auth.TokenPair, error) {
	sealed, err := s.client.Get(ctx, credentialKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return auth.TokenPair{}, shared.ErrCredentialNotFound
	}
	if err != nil {
		return auth.TokenPair{}, errs.Wrap(err, "redis get failed")
	}

	raw, err := s.sealer.Open(sealed)
	if err != nil {
		// A value sealed under a rotated key is as good as absent.
		slog.Warn("discarding unreadable credential", "session_id", sessionID.String())
		_ = s.client.Del(ctx, credentialKey(sessionID)).Err()
		return auth.TokenPair{}, errs.Mark(err, shared.ErrCredentialNotFound)
	}

	var tokens sealedTokens
	if err := json.Unmarshal(raw, &tokens); err != nil {
		return auth.TokenPair{}, errs.Mark(errs.Wrap(err, "unmarshal credential"), shared.ErrCredentialNotFound)
	}
	return auth.TokenPair{Access: tokens.Access, Refresh: tokens.Refresh}, nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.client.Del(ctx, credentialKey(sessionID)).Err(); err != nil {
		return errs.Wrap(err, "redis delete failed")
	}
	return nil
}

func credentialKey(sessionID uuid.UUID) string {
	return keyPrefix + sessionID.String()
}
