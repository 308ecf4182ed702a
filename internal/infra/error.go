package infra

import (
	"log/slog"

	"storefront/internal/pkg/errs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type RepositoryErrorKind string

type RepositoryError struct {
	Kind RepositoryErrorKind
	msg  string
	err  error // wrapped low-level error
}

func (e RepositoryError) Error() string {
	if e.err != nil {
		return string(e.Kind) + ": " + e.msg + ": " + e.err.Error()
	}
	return string(e.Kind) + ": " + e.msg
}

func (e RepositoryError) Unwrap() error {
	return e.err
}

// WrapRepoErr classifies a driver error. Database outages are also marked
// transient so callers can answer "try again".
func WrapRepoErr(msg string, err error) error {
	kind := classify(err)
	if kind == KindDBFailure {
		slog.Error("Repository error: "+msg, "kind", string(kind), "error", errText(err))
	}

	var wrapped error = RepositoryError{Kind: kind, msg: msg, err: errs.Wrap(err, msg)}
	if kind == KindDBFailure {
		wrapped = errs.Transient(wrapped)
	}
	return wrapped
}

func IsKind(err error, kind RepositoryErrorKind) bool {
	var e RepositoryError
	if errs.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// Infrastructure-specific error kinds
const (
	KindNotFound     RepositoryErrorKind = "NOT_FOUND"
	KindDBFailure    RepositoryErrorKind = "DB_FAILURE"
	KindDuplicateKey RepositoryErrorKind = "DUPLICATE_KEY"
)

const pgErrCodeUniqueViolation = "23505"

func classify(err error) RepositoryErrorKind {
	if errs.Is(err, pgx.ErrNoRows) {
		return KindNotFound
	}
	var pgErr *pgconn.PgError
	if errs.As(err, &pgErr) && pgErr.Code == pgErrCodeUniqueViolation {
		return KindDuplicateKey
	}
	return KindDBFailure
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
