package dErrors

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"clinica/pkg/platform/sentinel"
)

// Postgres error classes relevant to classification. See the SQLSTATE
// reference; only the prefixes/codes below influence the outcome.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
	pgCheckViolation      = "23514"
	pgInsufficientPrivilege = "42501"
	pgConnectionClassPrefix = "08"
	pgQueryCanceled         = "57014"
)

// Classify maps a low-level storage failure or business error into the closed
// code set with a user-safe message. Already-coded errors pass through
// unchanged: the pipeline raises those deliberately and their messages are
// user-facing. Everything else is inferred, first match wins, and the
// fallback wraps the original so no caller ever sees raw driver text alone.
func Classify(err error, action string) error {
	if err == nil {
		return nil
	}

	// 1. Business errors raised by the pipeline are already user-facing.
	if IsCoded(err) {
		return err
	}

	// Store sentinels carry the same facts the database constraints do; the
	// in-memory stores surface them this way.
	switch {
	case errors.Is(err, sentinel.ErrConflict):
		return Wrap(err, CodeConflict, "a record with this data already exists")
	case errors.Is(err, sentinel.ErrNotFound):
		return Wrap(err, CodeNotFound, "the record you are trying to modify no longer exists")
	case errors.Is(err, sentinel.ErrInvalidState):
		return Wrap(err, CodeInvalidState, "the record is not in a state that allows this change")
	case errors.Is(err, sentinel.ErrUnavailable):
		return Wrap(err, CodeUnavailable, "storage is not configured")
	}

	// 2-4. Postgres constraint and row-state failures.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgUniqueViolation:
			return Wrap(err, CodeConflict, "a record with this data already exists")
		case pgErr.Code == pgForeignKeyViolation:
			return Wrap(err, CodeReferentialIntegrity, "a related record does not exist")
		case pgErr.Code == pgNotNullViolation, pgErr.Code == pgCheckViolation:
			return Wrap(err, CodeValidation, "required fields are missing or invalid")
		case pgErr.Code == pgInsufficientPrivilege:
			return Wrap(err, CodeForbidden, "not authorized for this action")
		case pgErr.Code == pgQueryCanceled:
			return Wrap(err, CodeTimeout, "operation timed out")
		case strings.HasPrefix(pgErr.Code, pgConnectionClassPrefix):
			return Wrap(err, CodeConnectionFailure, "storage connection error")
		}
	}

	if errors.Is(err, sql.ErrNoRows) {
		return Wrap(err, CodeNotFound, "the record you are trying to modify no longer exists")
	}

	// 5. Connectivity and timeout signatures.
	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(err, CodeTimeout, "operation timed out")
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return Wrap(err, CodeTimeout, "operation timed out")
		}
		return Wrap(err, CodeConnectionFailure, "storage connection error")
	}
	if errors.Is(err, sql.ErrConnDone) {
		return Wrap(err, CodeConnectionFailure, "storage connection error")
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "broken pipe"),
		strings.Contains(msg, "bad connection"):
		return Wrap(err, CodeConnectionFailure, "storage connection error")
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "timed out"):
		return Wrap(err, CodeTimeout, "operation timed out")
	// 6. Generic validation-looking messages.
	case strings.Contains(msg, "invalid"), strings.Contains(msg, "required"),
		strings.Contains(msg, "missing"):
		return Wrap(err, CodeValidation, "required fields are missing or invalid")
	// 7. Permission-looking messages.
	case strings.Contains(msg, "permission"), strings.Contains(msg, "denied"),
		strings.Contains(msg, "not authorized"):
		return Wrap(err, CodeForbidden, "not authorized for this action")
	}

	// 8. Fallback keeps the action context so operators can trace the failure.
	return Wrap(err, CodeInternal, "error while "+action+": "+err.Error())
}
