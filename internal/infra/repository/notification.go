package repository

import (
	"context"
	"time"

	"storefront/internal/infra"
	"storefront/internal/usecase/shared"
)

const (
	notificationStatusQueued = "queued"
	notificationStatusSent   = "sent"
	notificationStatusFailed = "failed"
)

const (
	createNotificationJob = `
INSERT INTO notification_jobs (kind, topic, payload, status, run_at)
VALUES ($1, $2, $3, $4, $5)`

	claimDueNotificationJobs = `
SELECT id, kind, topic, payload, attempts, run_at
  FROM notification_jobs
 WHERE status = $1 AND run_at <= $2
 ORDER BY run_at, id
 LIMIT $3
 FOR UPDATE SKIP LOCKED`

	setNotificationJobStatus = `
UPDATE notification_jobs
   SET status = $2, last_error = $3, updated_at = now()
 WHERE id = $1`

	rescheduleNotificationJob = `
UPDATE notification_jobs
   SET attempts = attempts + 1, run_at = $2, last_error = $3, updated_at = now()
 WHERE id = $1`
)

type NotificationRepository struct {
	db shared.DBTX
}

func NewNotificationRepository(db shared.DBTX) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) CreateJob(ctx context.Context, kind, topic string, payload []byte, runAt time.Time) error {
	if _, err := r.db.Exec(ctx, createNotificationJob, kind, topic, payload, notificationStatusQueued, runAt); err != nil {
		return infra.WrapRepoErr("failed to create notification job", err)
	}
	return nil
}

func (r *NotificationRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]shared.NotificationJob, error) {
	rows, err := r.db.Query(ctx, claimDueNotificationJobs, notificationStatusQueued, now, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to claim notification jobs", err)
	}
	defer rows.Close()

	var jobs []shared.NotificationJob
	for rows.Next() {
		var j shared.NotificationJob
		if err := rows.Scan(&j.ID, &j.Kind, &j.Topic, &j.Payload, &j.Attempts, &j.RunAt); err != nil {
			return nil, infra.WrapRepoErr("failed to scan notification job", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read notification jobs", err)
	}
	return jobs, nil
}

func (r *NotificationRepository) MarkSent(ctx context.Context, id int64) error {
	return r.setStatus(ctx, id, notificationStatusSent, nil)
}

func (r *NotificationRepository) MarkFailed(ctx context.Context, id int64, lastErr string) error {
	return r.setStatus(ctx, id, notificationStatusFailed, &lastErr)
}

func (r *NotificationRepository) Reschedule(ctx context.Context, id int64, runAt time.Time, lastErr string) error {
	if _, err := r.db.Exec(ctx, rescheduleNotificationJob, id, runAt, lastErr); err != nil {
		return infra.WrapRepoErr("failed to reschedule notification job", err)
	}
	return nil
}

func (r *NotificationRepository) setStatus(ctx context.Context, id int64, status string, lastErr *string) error {
	if _, err := r.db.Exec(ctx, setNotificationJobStatus, id, status, lastErr); err != nil {
		return infra.WrapRepoErr("failed to update notification job status", err)
	}
	return nil
}
