package repository

import (
	"context"
	"time"

	"storefront/internal/infra"
	"storefront/internal/pkg/errs"
	"storefront/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	// An expired record is taken over as if it did not exist.
	tryInsertCheckoutRequest = `
INSERT INTO checkout_requests (key, user_id, endpoint, status, request_hash, expires_at)
VALUES ($1, $2, $3, 'processing', $4, $5)
ON CONFLICT (key, user_id) DO UPDATE
   SET endpoint = EXCLUDED.endpoint,
       status = 'processing',
       request_hash = EXCLUDED.request_hash,
       response = NULL,
       expires_at = EXCLUDED.expires_at,
       updated_at = now()
 WHERE checkout_requests.expires_at < now()
RETURNING key`

	getCheckoutRequest = `
SELECT key, user_id, endpoint, status, request_hash, response, expires_at
  FROM checkout_requests
 WHERE key = $1 AND user_id = $2`

	completeCheckoutRequest = `
UPDATE checkout_requests
   SET status = 'completed', response = $3, updated_at = now()
 WHERE key = $1 AND user_id = $2 AND status IN ('processing', 'unknown')`

	markUnknownCheckoutRequest = `
UPDATE checkout_requests
   SET status = 'unknown', response = $3, updated_at = now()
 WHERE key = $1 AND user_id = $2 AND status = 'processing'`

	releaseCheckoutRequest = `
DELETE FROM checkout_requests
 WHERE key = $1 AND user_id = $2 AND status = 'processing'`

	deleteExpiredCheckoutRequests = `
DELETE FROM checkout_requests WHERE expires_at < $1`
)

type IdempotencyRepository struct {
	db shared.DBTX
}

func NewIdempotencyRepository(db shared.DBTX) *IdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

func (r *IdempotencyRepository) TryInsert(ctx context.Context, key uuid.UUID, userID, endpoint, requestHash string, expiresAt time.Time) (bool, error) {
	var got uuid.UUID
	err := r.db.QueryRow(ctx, tryInsertCheckoutRequest, key, userID, endpoint, requestHash, expiresAt).Scan(&got)
	if errs.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, infra.WrapRepoErr("failed to try insert idempotency key", err)
	}
	return true, nil
}

func (r *IdempotencyRepository) Get(ctx context.Context, key uuid.UUID, userID string) (*shared.IdempotencyRecord, error) {
	var rec shared.IdempotencyRecord
	err := r.db.QueryRow(ctx, getCheckoutRequest, key, userID).Scan(
		&rec.Key,
		&rec.UserID,
		&rec.Endpoint,
		&rec.Status,
		&rec.RequestHash,
		&rec.Response,
		&rec.ExpiresAt,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to get idempotency key", err)
	}
	return &rec, nil
}

func (r *IdempotencyRepository) MarkCompleted(ctx context.Context, key uuid.UUID, userID string, response []byte) error {
	tag, err := r.db.Exec(ctx, completeCheckoutRequest, key, userID, response)
	if err != nil {
		return infra.WrapRepoErr("failed to update idempotency key status", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("failed to update idempotency key status", pgx.ErrNoRows)
	}
	return nil
}

func (r *IdempotencyRepository) MarkUnknown(ctx context.Context, key uuid.UUID, userID string, pending []byte) error {
	tag, err := r.db.Exec(ctx, markUnknownCheckoutRequest, key, userID, pending)
	if err != nil {
		return infra.WrapRepoErr("failed to park idempotency key", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("failed to park idempotency key", pgx.ErrNoRows)
	}
	return nil
}

func (r *IdempotencyRepository) Release(ctx context.Context, key uuid.UUID, userID string) error {
	if _, err := r.db.Exec(ctx, releaseCheckoutRequest, key, userID); err != nil {
		return infra.WrapRepoErr("failed to release idempotency key", err)
	}
	return nil
}

func (r *IdempotencyRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, deleteExpiredCheckoutRequests, now)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to delete expired idempotency keys", err)
	}
	return tag.RowsAffected(), nil
}
