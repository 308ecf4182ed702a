package notify

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"storefront/internal/pkg/clock"
	"storefront/internal/pkg/config"
	"storefront/internal/usecase/shared"
)

const (
	maxBackoff    = 10 * time.Minute
	purgeInterval = time.Hour
)

type Publisher interface {
	Publish(ctx context.Context, topic, id string, body []byte) error
}

// Relay moves committed outbox jobs to the broker. A job that keeps failing
// is retried with exponential backoff and parked as failed after
// MaxAttempts tries.
type Relay struct {
	uow       shared.UnitOfWork
	publisher Publisher
	clock     clock.Clock
	cfg       config.AMQPConfig
}

func NewRelay(uow shared.UnitOfWork, publisher Publisher, clk clock.Clock, cfg config.AMQPConfig) *Relay {
	return &Relay{uow: uow, publisher: publisher, clock: clk, cfg: cfg}
}

// Run polls until ctx is done. Expired idempotency records are purged on
// the same loop.
func (r *Relay) Run(ctx context.Context) {
	poll := time.NewTicker(r.cfg.PollInterval)
	defer poll.Stop()
	purge := time.NewTicker(purgeInterval)
	defer purge.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-poll.C:
			if _, err := r.RelayOnce(ctx); err != nil && ctx.Err() == nil {
				slog.Warn("outbox relay pass failed", "error", err.Error())
			}
		case <-purge.C:
			if _, err := r.PurgeExpired(ctx); err != nil && ctx.Err() == nil {
				slog.Warn("idempotency purge failed", "error", err.Error())
			}
		}
	}
}

// RelayOnce publishes one batch of due jobs and reports how many were sent.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	sent := 0
	err := r.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		sent = 0
		now := r.clock.Now()
		jobs, err := tx.Notifications().ClaimDue(ctx, now, r.cfg.BatchSize)
		if err != nil {
			return err
		}

		for _, job := range jobs {
			pubErr := r.publisher.Publish(ctx, job.Topic, strconv.FormatInt(job.ID, 10), job.Payload)
			if pubErr == nil {
				if err := tx.Notifications().MarkSent(ctx, job.ID); err != nil {
					return err
				}
				sent++
				continue
			}

			attempts := job.Attempts + 1
			if attempts >= r.cfg.MaxAttempts {
				slog.Error("giving up on notification",
					"job_id", job.ID,
					"kind", job.Kind,
					"attempts", attempts,
					"error", pubErr.Error())
				if err := tx.Notifications().MarkFailed(ctx, job.ID, pubErr.Error()); err != nil {
					return err
				}
				continue
			}

			next := now.Add(r.backoff(attempts))
			slog.Warn("notification publish failed",
				"job_id", job.ID,
				"attempts", attempts,
				"retry_at", next,
				"error", pubErr.Error())
			if err := tx.Notifications().Reschedule(ctx, job.ID, next, pubErr.Error()); err != nil {
				return err
			}
		}
		return nil
	})
	return sent, err
}

func (r *Relay) PurgeExpired(ctx context.Context) (int64, error) {
	var removed int64
	err := r.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		removed, err = tx.Idempotency().DeleteExpired(ctx, r.clock.Now())
		return err
	})
	if removed > 0 {
		slog.Info("purged expired checkout requests", "count", removed)
	}
	return removed, err
}

func (r *Relay) backoff(attempts int) time.Duration {
	d := r.cfg.PollInterval
	for i := 1; i < attempts && d < maxBackoff; i++ {
		d *= 2
	}
	return min(d, maxBackoff)
}
