package postgres

import (
	"errors"
	"net"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/pgsentry/internal/kernelerrors"
)

// ClassifyError maps a raw error from a query execution into the kernel's
// error taxonomy (spec.md §4.7/§7): permission failures steer the caller
// toward UNSAFE mode, schema errors are distinguished from other query
// failures, and everything else falls back to a generic QueryError.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlstateInsufficientPrivilege:
			return kernelerrors.NewPermissionDenied(pgErr.Message)
		case sqlstateUndefinedTable, sqlstateUndefinedColumn, sqlstateUndefinedSchema, sqlstateUndefinedFunction:
			return kernelerrors.NewQueryError(kernelerrors.QueryErrorSchema, pgErr.Message)
		default:
			return kernelerrors.NewQueryError(kernelerrors.QueryErrorOther, pgErr.Message)
		}
	}

	return kernelerrors.NewQueryError(kernelerrors.QueryErrorOther, err.Error())
}

// IsRetryable reports whether err represents a transient network-level
// failure worth retrying (connection refused/reset, DNS hiccups, a
// SQLSTATE connection-exception class) rather than a deterministic error
// (permission denied, syntax error) that would fail identically on retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if len(pgErr.Code) >= 2 {
			return networkErrorClasses[pgErr.Code[:2]]
		}
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET)
}
