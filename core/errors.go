/*
errors.go - centralized error types for the core engine.

Grounded on the teacher's generic/errors.go: sentinel errors for
conditions callers branch on with errors.Is, and structured error types
that carry the context spec.md section 7 requires (ValidationError,
AuthError, NotFound, UpstreamError, ConflictError, IntegrityError). The
HTTP layer maps these to status codes; the CLI maps them to exit codes.
*/
package core

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateTransaction mirrors the teacher's ErrDuplicateIdempotencyKey:
	// expected on ingest retries, absorbed by the idempotency unique constraint.
	ErrDuplicateTransaction = errors.New("duplicate idempotency key")

	ErrCursorConflict  = errors.New("source cursor advanced by a concurrent run")
	ErrAnchorConflict  = errors.New("concurrent write to account anchor")
	ErrKeyEventConflict = errors.New("concurrent write to key spend event")
	ErrUnknownPack     = errors.New("unknown questionnaire pack")
	ErrUnknownQuery    = errors.New("unknown questionnaire query")
	ErrUnknownCategory = errors.New("unknown category")
	ErrAccountNotFound = errors.New("account not found")
	ErrInvalidHorizon  = errors.New("invalid horizon: end before start")
)

// ValidationError: malformed input, no state change. HTTP 400.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// AuthError: missing/invalid admin or CSRF token. HTTP 401/403.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string { return "auth: " + e.Reason }

// NotFoundError: unknown id. HTTP 404.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s not found: %s", e.Kind, e.ID) }

// UpstreamError: ingest transport/protocol failure. Retried with backoff
// inside the run; on final failure the audit row is marked status=failure,
// the cursor is left unchanged, and the caller sees 5xx / CLI exit 2.
type UpstreamError struct {
	Source    string
	Op        string
	Retryable bool
	Err       error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s %s failed: %v", e.Source, e.Op, e.Err)
}
func (e *UpstreamError) Unwrap() error { return e.Err }

// ConflictError: concurrent write to the same anchor or key event.
// Retried once by the caller, then surfaced.
type ConflictError struct {
	Resource string
	Err      error
}

func (e *ConflictError) Error() string { return fmt.Sprintf("conflict on %s: %v", e.Resource, e.Err) }
func (e *ConflictError) Unwrap() error { return e.Err }

// IntegrityError: store-level constraint violation that should be
// impossible under normal flow. Logged with redacted context, HTTP 500.
type IntegrityError struct {
	Context string
	Err     error
}

func (e *IntegrityError) Error() string { return fmt.Sprintf("integrity violation (%s): %v", e.Context, e.Err) }
func (e *IntegrityError) Unwrap() error { return e.Err }

// IsClientError mirrors the teacher's predicate helpers: errors the caller
// caused, not the system.
func IsClientError(err error) bool {
	var v *ValidationError
	if errors.As(err, &v) {
		return true
	}
	return errors.Is(err, ErrDuplicateTransaction) || errors.Is(err, ErrInvalidHorizon)
}

func IsNotFound(err error) bool {
	var n *NotFoundError
	return errors.As(err, &n) || errors.Is(err, ErrAccountNotFound)
}

func IsRetryable(err error) bool {
	var u *UpstreamError
	if errors.As(err, &u) {
		return u.Retryable
	}
	return errors.Is(err, ErrCursorConflict) || errors.Is(err, ErrAnchorConflict) || errors.Is(err, ErrKeyEventConflict)
}
