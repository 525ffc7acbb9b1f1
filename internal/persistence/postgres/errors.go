package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/example/hotel-reservations/internal/persistence"
)

// SQLSTATE codes the repositories translate into persistence sentinels.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeNotNullViolation    = "23502"
	codeExclusionViolation  = "23P01"
	codeSerialization       = "40001"
	codeDeadlock            = "40P01"
	codeAdminShutdown       = "57P01"
	codeCannotConnect       = "08006"
)

// mapError wraps driver errors with the matching persistence sentinel,
// keeping the driver message for diagnostics.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if isNoRows(err) {
		return persistence.ErrNotFound
	}
	if sentinel := classify(err); sentinel != nil {
		return fmt.Errorf("%w: %v", sentinel, err)
	}
	return err
}

func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return persistence.ErrDuplicate
		case codeForeignKeyViolation:
			return persistence.ErrForeignKeyViolation
		case codeCheckViolation, codeNotNullViolation:
			return persistence.ErrConstraintViolation
		case codeExclusionViolation:
			return persistence.ErrOverlap
		case codeSerialization, codeDeadlock, codeAdminShutdown, codeCannotConnect:
			return persistence.ErrUnavailable
		}
		return nil
	}

	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return persistence.ErrUnavailable
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return persistence.ErrUnavailable
	}
	return nil
}
