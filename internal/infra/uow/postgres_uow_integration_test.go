//go:build integration

package uow_test

import (
	"context"
	"testing"
	"time"

	"storefront/internal/infra/uow"
	"storefront/internal/usecase/shared"
	"storefront/tests/common/dbtest"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
)

type UoWIntegrationSuite struct {
	suite.Suite
	uow  shared.UnitOfWork
	ctx  context.Context
	pool *pgxpool.Pool
}

func TestUoWIntegrationSuite(t *testing.T) {
	suite.Run(t, new(UoWIntegrationSuite))
}

func (s *UoWIntegrationSuite) SetupSuite() {
	pool, _ := dbtest.NewDatabase(s.T())
	s.pool = pool
	s.uow = uow.NewPostgresUoW(pool)
	s.ctx = context.Background()
}

func (s *UoWIntegrationSuite) tryInsert(key uuid.UUID, hash string, expires time.Time) bool {
	var inserted bool
	err := s.uow.Within(s.ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		inserted, err = tx.Idempotency().TryInsert(ctx, key, "42", "POST /api/checkout", hash, expires)
		return err
	})
	s.Require().NoError(err)
	return inserted
}

func (s *UoWIntegrationSuite) TestIdempotencyLifecycle() {
	key := uuid.New()
	expires := time.Now().Add(time.Hour)

	s.True(s.tryInsert(key, "hash-a", expires))
	s.False(s.tryInsert(key, "hash-b", expires), "a live key must not be taken twice")

	err := s.uow.Within(s.ctx, func(ctx context.Context, tx shared.Tx) error {
		rec, err := tx.Idempotency().Get(ctx, key, "42")
		s.Require().NoError(err)
		s.Equal(shared.IdempotencyStatusProcessing, rec.Status)
		s.Equal("hash-a", rec.RequestHash)
		s.Nil(rec.Response)

		return tx.Idempotency().MarkCompleted(ctx, key, "42", []byte(`{"order":{"OrderID":"501"}}`))
	})
	s.Require().NoError(err)
	s.Equal(shared.IdempotencyStatusCompleted, dbtest.CheckoutRequestStatus(s.T(), s.pool, key, "42"))

	// the same key from another user is independent
	err = s.uow.Within(s.ctx, func(ctx context.Context, tx shared.Tx) error {
		inserted, err := tx.Idempotency().TryInsert(ctx, key, "77", "POST /api/checkout", "hash-a", expires)
		s.True(inserted)
		return err
	})
	s.Require().NoError(err)
}

func (s *UoWIntegrationSuite) TestReleasedKeyCanBeRetried() {
	key := uuid.New()
	expires := time.Now().Add(time.Hour)
	s.True(s.tryInsert(key, "hash", expires))

	err := s.uow.Within(s.ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Idempotency().Release(ctx, key, "42")
	})
	s.Require().NoError(err)
	s.True(s.tryInsert(key, "hash", expires))
}

func (s *UoWIntegrationSuite) TestParkedKeyIsNeitherReleasedNorRetaken() {
	key := uuid.New()
	expires := time.Now().Add(time.Hour)
	s.True(s.tryInsert(key, "hash", expires))

	err := s.uow.Within(s.ctx, func(ctx context.Context, tx shared.Tx) error {
		if err := tx.Idempotency().MarkUnknown(ctx, key, "42", []byte(`{"sent_at":"2026-10-17T10:00:00Z"}`)); err != nil {
			return err
		}
		return tx.Idempotency().Release(ctx, key, "42")
	})
	s.Require().NoError(err)
	s.Equal(shared.IdempotencyStatusUnknown, dbtest.CheckoutRequestStatus(s.T(), s.pool, key, "42"))
	s.False(s.tryInsert(key, "hash", expires))

	err = s.uow.Within(s.ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Idempotency().MarkCompleted(ctx, key, "42", []byte(`{"order":{"OrderID":"501"}}`))
	})
	s.Require().NoError(err)
	s.Equal(shared.IdempotencyStatusCompleted, dbtest.CheckoutRequestStatus(s.T(), s.pool, key, "42"))
}

func (s *UoWIntegrationSuite) TestExpiredKeyIsTakenOver() {
	key := uuid.New()
	s.True(s.tryInsert(key, "old", time.Now().Add(-time.Minute)))
	s.True(s.tryInsert(key, "new", time.Now().Add(time.Hour)))

	var removed int64
	err := s.uow.Within(s.ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		removed, err = tx.Idempotency().DeleteExpired(ctx, time.Now())
		return err
	})
	s.Require().NoError(err)
	s.Zero(removed)
}

func (s *UoWIntegrationSuite) TestRollbackOnError() {
	key := uuid.New()
	err := s.uow.Within(s.ctx, func(ctx context.Context, tx shared.Tx) error {
		if _, err := tx.Idempotency().TryInsert(ctx, key, "42", "POST /api/checkout", "h", time.Now().Add(time.Hour)); err != nil {
			return err
		}
		return context.Canceled
	})
	s.ErrorIs(err, context.Canceled)
	s.True(s.tryInsert(key, "h", time.Now().Add(time.Hour)), "rolled back insert must not survive")
}

func (s *UoWIntegrationSuite) TestOutboxClaims() {
	now := time.Now()
	err := s.uow.Within(s.ctx, func(ctx context.Context, tx shared.Tx) error {
		for _, runAt := range []time.Time{now.Add(-time.Minute), now.Add(-time.Second), now.Add(time.Hour)} {
			if err := tx.Notifications().CreateJob(ctx, "order_placed", "order.placed", []byte(`{"order_id":"501"}`), runAt); err != nil {
				return err
			}
		}
		return nil
	})
	s.Require().NoError(err)

	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- s.uow.Within(s.ctx, func(ctx context.Context, tx shared.Tx) error {
			jobs, err := tx.Notifications().ClaimDue(ctx, now, 1)
			if err != nil {
				return err
			}
			s.Len(jobs, 1)
			close(held)
			<-release
			return tx.Notifications().MarkSent(ctx, jobs[0].ID)
		})
	}()
	<-held

	// the locked job is skipped, the future one is not due
	err = s.uow.Within(s.ctx, func(ctx context.Context, tx shared.Tx) error {
		jobs, err := tx.Notifications().ClaimDue(ctx, now, 10)
		if err != nil {
			return err
		}
		s.Require().Len(jobs, 1)
		return tx.Notifications().Reschedule(ctx, jobs[0].ID, now.Add(time.Hour), "broker down")
	})
	s.Require().NoError(err)

	close(release)
	s.Require().NoError(<-done)
	s.Equal(1, dbtest.CountNotificationJobs(s.T(), s.pool, "sent"))
	s.Equal(2, dbtest.CountNotificationJobs(s.T(), s.pool, "queued"))
}
