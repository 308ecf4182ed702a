//go:build integration || e2e

package dbtest

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// ResetDB empties every table the service owns.
func ResetDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		"TRUNCATE checkout_requests, notification_jobs RESTART IDENTITY")
	require.NoError(t, err)
}

func CountNotificationJobs(t *testing.T, db DBLike, status string) int {
	t.Helper()
	var n int
	err := db.QueryRow(context.Background(),
		"SELECT count(*) FROM notification_jobs WHERE status = $1", status).Scan(&n)
	require.NoError(t, err)
	return n
}

func CheckoutRequestStatus(t *testing.T, db DBLike, key uuid.UUID, userID string) string {
	t.Helper()
	var status string
	err := db.QueryRow(context.Background(),
		"SELECT status FROM checkout_requests WHERE key = $1 AND user_id = $2", key, userID).Scan(&status)
	require.NoError(t, err)
	return status
}
