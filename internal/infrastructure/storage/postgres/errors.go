package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"stockyard/internal/core/apperror"
)

// PostgreSQL error codes the storage layer translates into app errors.
const (
	pgCodeUniqueViolation     = "23505"
	pgCodeForeignKeyViolation = "23503"
	pgCodeLockNotAvailable    = "55P03"
	pgCodeDeadlockDetected    = "40P01"
	pgCodeSerializationFail   = "40001"
	pgCodeQueryCanceled       = "57014"
)

// PgError extracts the pgconn error from an error chain.
func PgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// IsUniqueViolation reports whether err is a unique constraint violation.
// With a non-empty constraint it matches only that constraint.
func IsUniqueViolation(err error, constraint string) bool {
	pgErr, ok := PgError(err)
	if !ok || pgErr.Code != pgCodeUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// MapError translates low-level postgres failures into app errors so
// services and handlers never see driver error codes. Unique violations
// need entity context, so callers handle 23505 themselves; everything
// else maps uniformly.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) {
		return err
	}

	pgErr, ok := PgError(err)
	if !ok {
		return err
	}

	switch pgErr.Code {
	case pgCodeLockNotAvailable, pgCodeQueryCanceled:
		return apperror.NewLockTimeout(err)
	case pgCodeDeadlockDetected:
		return apperror.NewDeadlockDetected(err)
	case pgCodeSerializationFail:
		return apperror.NewConflict("transaction conflict, retry the operation").WithCause(err)
	case pgCodeForeignKeyViolation:
		return apperror.NewConflict("referenced record does not exist or is in use").WithCause(err)
	}

	return err
}
