package shared

//go:generate mockgen -source=uow.go -destination=../../../tests/mock/shared/uow.go -package=sharedmock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool, pgx.Tx and *pgx.Conn.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type UnitOfWork interface {
	// Within: Full transaction for write operations with retry logic
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// WithDB: Single query operations using implicit transactions
	WithDB(ctx context.Context, fn func(ctx context.Context, db DBTX) error) error
}

type Tx interface {
	Idempotency() IdempotencyRepository
	Notifications() NotificationRepository
	DB() DBTX
}

const (
	IdempotencyStatusProcessing = "processing"
	// the order request was sent but its outcome was never learned
	IdempotencyStatusUnknown    = "unknown"
	IdempotencyStatusCompleted  = "completed"
)

type IdempotencyRecord struct {
	Key         uuid.UUID
	UserID      string
	Endpoint    string
	Status      string
	RequestHash string
	Response    []byte
	ExpiresAt   time.Time
}

type IdempotencyRepository interface {
	// TryInsert reports whether a new processing record was created.
	TryInsert(ctx context.Context, key uuid.UUID, userID, endpoint, requestHash string, expiresAt time.Time) (bool, error)
	Get(ctx context.Context, key uuid.UUID, userID string) (*IdempotencyRecord, error)
	MarkCompleted(ctx context.Context, key uuid.UUID, userID string, response []byte) error
	// MarkUnknown parks a processing record; pending describes the order
	// that may have been placed.
	MarkUnknown(ctx context.Context, key uuid.UUID, userID string, pending []byte) error
	Release(ctx context.Context, key uuid.UUID, userID string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type NotificationJob struct {
	ID       int64
	Kind     string
	Topic    string
	Payload  []byte
	Attempts int
	RunAt    time.Time
}

// NotificationRepository is the outbox of events published after commit.
// ClaimDue locks the claimed jobs until the surrounding transaction ends.
type NotificationRepository interface {
	CreateJob(ctx context.Context, kind, topic string, payload []byte, runAt time.Time) error
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]NotificationJob, error)
	MarkSent(ctx context.Context, id int64) error
	Reschedule(ctx context.Context, id int64, runAt time.Time, lastErr string) error
	MarkFailed(ctx context.Context, id int64, lastErr string) error
}
