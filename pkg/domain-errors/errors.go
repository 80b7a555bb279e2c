// Package dErrors provides coded domain errors for the clinic engine.
//
// Stores return sentinel errors (pkg/platform/sentinel); services translate
// them into coded errors here. Handlers map codes to HTTP statuses. The code
// set is closed: callers switch on codes, never on message text.
package dErrors

import (
	"errors"
	"fmt"
)

// Code identifies the kind of a domain error.
type Code string

const (
	// CodeValidation marks bad or missing input caught before any write.
	CodeValidation Code = "validation"
	// CodeNotFound marks a referenced entity that does not exist.
	CodeNotFound Code = "not_found"
	// CodeRoleMismatch marks an entity that exists but has the wrong role.
	CodeRoleMismatch Code = "role_mismatch"
	// CodeInactiveActor marks an actor that resolved but is not ACTIVE.
	CodeInactiveActor Code = "inactive_actor"
	// CodeConflict marks a uniqueness violation.
	CodeConflict Code = "conflict"
	// CodeReferentialIntegrity marks a foreign-key violation surfaced by storage.
	CodeReferentialIntegrity Code = "referential_integrity"
	// CodeConnectionFailure marks a storage connectivity failure.
	CodeConnectionFailure Code = "connection_failure"
	// CodeTimeout marks an aborted operation that exceeded its deadline.
	CodeTimeout Code = "timeout"
	// CodeForbidden marks an action the actor is not authorized to perform.
	CodeForbidden Code = "forbidden"
	// CodeUnavailable marks storage that is not configured or not reachable.
	CodeUnavailable Code = "unavailable"
	// CodeInvariantViolation marks a broken model invariant. Services convert
	// these to CodeValidation at the API boundary.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeInvalidState marks a state transition the lifecycle does not allow.
	CodeInvalidState Code = "invalid_state"
	// CodeInvalidInput marks malformed identifiers or payload fragments.
	CodeInvalidInput Code = "invalid_input"
	// CodeInternal is the fallback for unexpected failures.
	CodeInternal Code = "internal"
)

// Error is a coded domain error with a user-safe message.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a coded error with a user-safe message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted user-safe message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. The cause stays
// reachable through errors.Unwrap for logging but the Message is what callers
// may surface.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is a convenience alias for HasCode kept for call-site readability in
// tests: dErrors.Is(err, dErrors.CodeConflict).
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the code carried by err, or CodeInternal when err carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// IsCoded reports whether err carries any domain code.
func IsCoded(err error) bool {
	var de *Error
	return errors.As(err, &de)
}

// IsRejection reports whether err is a caller-correctable rejection (bad
// input, missing subject, wrong role, inactive actor, conflict) rather than
// an infrastructure failure. Metrics and logs use the distinction.
func IsRejection(err error) bool {
	switch CodeOf(err) {
	case CodeValidation, CodeNotFound, CodeRoleMismatch, CodeInactiveActor,
		CodeConflict, CodeInvalidState, CodeInvalidInput, CodeInvariantViolation:
		return true
	}
	return false
}

// Message returns the user-safe message of a coded error, or a generic
// sentence for uncoded errors so raw driver text never leaks out.
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}
