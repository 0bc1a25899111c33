package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"batteryshop/internal/core/apperror"
)

// SQLSTATE codes the service reacts to.
const (
	sqlStateUniqueViolation      = "23505"
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
)

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == sqlStateUniqueViolation
}

// IsRetryable reports whether the transaction lost a race and can be resubmitted.
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case sqlStateUniqueViolation, sqlStateSerializationFailure, sqlStateDeadlockDetected:
		return true
	}
	return false
}

// TranslateError maps driver errors onto apperror kinds.
// Constraint races become CONFLICT with the generic retry message; AppErrors pass through;
// everything else is returned unchanged for the caller to treat as internal.
func TranslateError(err error) error {
	if err == nil || apperror.IsAppError(err) {
		return err
	}
	if IsRetryable(err) {
		appErr := apperror.NewRetryConflict(err)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName != "" {
			appErr.WithDetail("constraint", pgErr.ConstraintName)
		}
		return appErr
	}
	return err
}

// IsNoRows reports whether err is pgx.ErrNoRows.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
