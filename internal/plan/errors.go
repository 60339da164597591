package plan

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrorCode classifies configuration errors.
type ErrorCode string

const (
	// CodeIllegalJoinerOrder - an indexing joiner follows a filtering joiner
	CodeIllegalJoinerOrder ErrorCode = "E201"

	// CodeNoAccumulators - a group-by has neither a key nor a collector
	CodeNoAccumulators ErrorCode = "E202"

	// CodeDetachedVariable - a structural operation on a detached variable
	CodeDetachedVariable ErrorCode = "E203"

	// CodeInvalidArity - an operation would exceed the maximum arity of four
	CodeInvalidArity ErrorCode = "E204"

	// CodeDuplicateConstraint - two constraints share an id
	CodeDuplicateConstraint ErrorCode = "E205"

	// CodeNilFunction - a required function argument is nil
	CodeNilFunction ErrorCode = "E206"

	// CodeInvalidPlan - a built rule fails structural validation
	CodeInvalidPlan ErrorCode = "E207"

	// CodeInvalidName - a constraint name is empty after normalization
	CodeInvalidName ErrorCode = "E208"
)

// ConfigError reports a programming error in a constraint definition. It is
// raised while building the plan, before any fact is evaluated, and is never
// retried.
type ConfigError struct {
	Code       ErrorCode
	Constraint string
	Message    string
}

func (e *ConfigError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("%s: constraint %q: %s", e.Code, e.Constraint, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewConfigError creates a configuration error with a formatted message.
func NewConfigError(code ErrorCode, format string, args ...any) *ConfigError {
	return &ConfigError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithConstraint returns a copy of e naming the constraint it belongs to.
// An already named error is returned unchanged.
func (e *ConfigError) WithConstraint(id string) *ConfigError {
	if e.Constraint != "" {
		return e
	}
	c := *e
	c.Constraint = id
	return &c
}

// AsConfigError unwraps err to a *ConfigError.
func AsConfigError(err error) (*ConfigError, bool) {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// HasCode reports whether err is a configuration error with the given code.
func HasCode(err error, code ErrorCode) bool {
	ce, ok := AsConfigError(err)
	return ok && ce.Code == code
}
