package kerr

import "fmt"

// Error is the structured error type for KnowledgeScout.
// It carries a stable code so transport layers can map errors to
// status codes without string matching.
type Error struct {
	// Code is the unique error code (e.g., "ERR_451_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Storage, Validation, Access, Internal).
	Category Category

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors by code, enabling errors.Is with sentinel-style targets.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates an Error with the given code and message.
// The category is derived from the code.
func New(code, message string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
	}
}

// Newf creates an Error with a formatted message.
func Newf(code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap creates an Error from an existing error, preserving it as the
// cause. A nil cause yields a plain coded error rather than a typed
// nil, which would turn into a non-nil error interface at call sites.
func Wrap(code string, message string, cause error) *Error {
	e := New(code, message)
	e.Cause = cause
	return e
}

// InvalidInput creates a validation error.
func InvalidInput(message string) *Error {
	return New(CodeInvalidInput, message)
}

// NotFound creates a not-found error.
func NotFound(message string) *Error {
	return New(CodeNotFound, message)
}

// AccessDenied creates a visibility-rule error.
func AccessDenied(message string) *Error {
	return New(CodeAccessDenied, message)
}

// AuthRequired creates an authentication-required error.
func AuthRequired(message string) *Error {
	return New(CodeAuthRequired, message)
}

// Storage wraps a database or file I/O failure.
func Storage(message string, cause error) *Error {
	return Wrap(CodeStorage, message, cause)
}

// GetCode extracts the error code, walking wrapped causes is not needed
// because Error is always the outermost type. Returns "" for foreign errors.
func GetCode(err error) string {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}

// HasCode reports whether err is an Error carrying the given code.
func HasCode(err error, code string) bool {
	return GetCode(err) == code
}
