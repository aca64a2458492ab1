// Package domainerrors defines the error taxonomy shared by services and the
// HTTP layer. Services return *Error values; transports translate the Code.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain failure. Values are stable and surface in API
// responses as the "error" field.
type Code string

const (
	CodeNotFound               Code = "not_found"
	CodeValidation             Code = "validation_error"
	CodeInvalidTransition      Code = "invalid_transition"
	CodeConcurrentModification Code = "concurrent_modification"
	CodeInvariantViolation     Code = "invariant_violation"
	CodeConflict               Code = "conflict"
	CodeBadRequest             Code = "bad_request"
	CodeUnauthorized           Code = "unauthorized"
	CodeForbidden              Code = "forbidden"
	CodeInternal               Code = "internal_error"
	CodeTimeout                Code = "timeout"
)

// Error is a coded domain error. Field is set for validation failures that
// can be attributed to a single input field.
type Error struct {
	Code    Code
	Message string
	Field   string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Validation creates a CodeValidation error naming the offending field.
func Validation(field, msg string) error {
	return &Error{Code: CodeValidation, Message: msg, Field: field}
}

// Wrap attaches a code and message to an underlying cause. A nil cause
// still yields a coded error so callers never lose the classification.
func Wrap(err error, code Code, msg string) error {
	return &Error{Code: code, Message: msg, Err: err}
}

// As extracts the outermost *Error from err's chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HasCode reports whether any *Error in err's chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// Is is an alias of HasCode kept for call-site readability in handlers.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the outermost code, or CodeInternal for uncoded errors.
func CodeOf(err error) Code {
	if de, ok := As(err); ok {
		return de.Code
	}
	return CodeInternal
}
