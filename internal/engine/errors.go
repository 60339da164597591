package engine

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// RuntimeError represents an error detected while a session evaluates its
// plan.
//
// Runtime errors include:
//   - Consequence failure: a weight, justification or indictment function
//     panicked or returned an invalid weight
//   - Accumulator drift: an incrementally maintained group result differs
//     from a recomputation from scratch
//   - Row quota exceeded: a pass produced more rows than allowed
//   - Unknown or duplicate facts passed to Insert, Update or Retract
//
// A RuntimeError raised during CalculateScore is fatal for the session.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Session identifies the affected session.
	Session string

	// Constraint identifies the constraint being evaluated, if any.
	Constraint string

	// Details contains additional context.
	Details map[string]string

	// Cause is the underlying error, if any.
	Cause error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeConsequenceFailed indicates a consequence function panicked.
	ErrCodeConsequenceFailed RuntimeErrorCode = "CONSEQUENCE_FAILED"

	// ErrCodeAccumulatorDrift indicates an incremental group result is wrong.
	ErrCodeAccumulatorDrift RuntimeErrorCode = "ACCUMULATOR_DRIFT"

	// ErrCodeRowQuotaExceeded indicates a pass exceeded the row quota.
	ErrCodeRowQuotaExceeded RuntimeErrorCode = "ROW_QUOTA_EXCEEDED"

	// ErrCodeUnknownFact indicates an update or retract of a fact never inserted.
	ErrCodeUnknownFact RuntimeErrorCode = "UNKNOWN_FACT"

	// ErrCodeDuplicateFact indicates a fact was inserted twice.
	ErrCodeDuplicateFact RuntimeErrorCode = "DUPLICATE_FACT"

	// ErrCodeInvalidFact indicates a nil or non-comparable fact.
	ErrCodeInvalidFact RuntimeErrorCode = "INVALID_FACT"

	// ErrCodeSessionClosed indicates a change to a closed session.
	ErrCodeSessionClosed RuntimeErrorCode = "SESSION_CLOSED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Session != "" && e.Constraint != "" {
		return fmt.Sprintf("%s: %s (session=%s, constraint=%s)", e.Code, msg, e.Session, e.Constraint)
	}
	if e.Session != "" {
		return fmt.Sprintf("%s: %s (session=%s)", e.Code, msg, e.Session)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap returns the cause.
func (e *RuntimeError) Unwrap() error {
	return e.Cause
}

// HasCode reports whether err is a RuntimeError with the given code.
// Uses errors.As to handle wrapped errors.
func HasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsQuotaError returns true if the error is a row quota error.
func IsQuotaError(err error) bool {
	return HasCode(err, ErrCodeRowQuotaExceeded)
}

// newConsequenceError wraps a recovered panic value.
func newConsequenceError(session, constraint string, recovered any) *RuntimeError {
	cause, ok := recovered.(error)
	if !ok {
		cause = errors.Newf("%v", recovered)
	}
	return &RuntimeError{
		Code:       ErrCodeConsequenceFailed,
		Message:    "consequence function failed",
		Session:    session,
		Constraint: constraint,
		Cause:      cause,
	}
}

// newDriftError reports a group whose incremental result differs from a
// fresh recomputation.
func newDriftError(session, constraint string, key, incremental, fresh any) *RuntimeError {
	return &RuntimeError{
		Code:       ErrCodeAccumulatorDrift,
		Message:    "incremental group result differs from recomputation",
		Session:    session,
		Constraint: constraint,
		Details: map[string]string{
			"group":       fmt.Sprintf("%v", key),
			"incremental": fmt.Sprintf("%v", incremental),
			"fresh":       fmt.Sprintf("%v", fresh),
		},
	}
}

func newFactError(code RuntimeErrorCode, session string, fact any, msg string) *RuntimeError {
	return &RuntimeError{
		Code:    code,
		Message: msg,
		Session: session,
		Details: map[string]string{"fact": fmt.Sprintf("%v", fact)},
	}
}
