package config

import "fmt"

// Configuration error codes (E300-E399)
const (
	ErrLoadFailed        = "E301" // file unreadable or not valid CUE
	ErrSchema            = "E302" // value does not satisfy the schema
	ErrUnknownConstraint = "E303" // constraints entry names no constraint
	ErrNothingEnabled    = "E304" // every constraint is disabled
)

// ValidationError is a configuration error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}
