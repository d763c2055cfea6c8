package gameerr

import (
	"errors"
	"fmt"
)

// Kind classifies a command rejection. Every rejection carries exactly one
// kind plus a human-readable reason; no mutation is applied on rejection.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindAuthorization Kind = "authorization"
	KindConflict      Kind = "conflict"
	KindNotFound      Kind = "not_found"
	KindState         Kind = "state"
)

// Error is the error type surfaced to command callers.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// Validation rejects a malformed or incomplete command.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Authorization rejects a command from a user who may not perform it.
func Authorization(format string, args ...any) *Error {
	return &Error{Kind: KindAuthorization, Message: fmt.Sprintf(format, args...)}
}

// Conflict rejects a command that collides with existing state, including a
// persistence version conflict that survived the internal retry.
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// NotFound rejects a command addressed to a session that does not exist.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// State rejects an action that is invalid for the session's current status.
func State(format string, args ...any) *Error {
	return &Error{Kind: KindState, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind from an error chain. The second return is false
// for errors that did not originate from this taxonomy.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
