// Package apperr defines the error taxonomy shared by services and handlers.
// Every user-facing failure carries a code that maps to exactly one HTTP
// status, so handlers never match on error strings.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error condition. Codes are string-based for
// debuggability and natural JSON serialization.
type Code string

const (
	// CodeValidation indicates malformed or missing input.
	CodeValidation Code = "VALIDATION"

	// CodeAuthentication indicates a missing or invalid credential.
	CodeAuthentication Code = "AUTHENTICATION"

	// CodeAuthorization indicates an authenticated caller lacks permission.
	CodeAuthorization Code = "AUTHORIZATION"

	// CodeNotFound indicates a referenced entity does not exist.
	CodeNotFound Code = "NOT_FOUND"

	// CodeConflict indicates a duplicate request violating a uniqueness
	// invariant, e.g. a repeated friend request or a changed swipe verdict.
	CodeConflict Code = "CONFLICT"

	// CodeState indicates the operation is invalid for the current
	// lifecycle state, e.g. starting an already-active session.
	CodeState Code = "STATE"

	// CodeUpstream indicates an external collaborator failed.
	CodeUpstream Code = "UPSTREAM"

	// CodeInternal indicates an unclassified server-side failure.
	CodeInternal Code = "INTERNAL"
)

// Error is a classified application error.
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

func (e *Error) Unwrap() error { return e.cause }

// New creates a classified error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a classified error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error while preserving it for errors.Is/As.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// Validation is shorthand for New(CodeValidation, ...).
func Validation(message string) *Error { return New(CodeValidation, message) }

// Authentication is shorthand for New(CodeAuthentication, ...).
func Authentication(message string) *Error { return New(CodeAuthentication, message) }

// Authorization is shorthand for New(CodeAuthorization, ...).
func Authorization(message string) *Error { return New(CodeAuthorization, message) }

// NotFound is shorthand for New(CodeNotFound, ...).
func NotFound(message string) *Error { return New(CodeNotFound, message) }

// Conflict is shorthand for New(CodeConflict, ...).
func Conflict(message string) *Error { return New(CodeConflict, message) }

// State is shorthand for New(CodeState, ...).
func State(message string) *Error { return New(CodeState, message) }

// Upstream classifies an external collaborator failure.
func Upstream(message string, cause error) *Error {
	return Wrap(CodeUpstream, message, cause)
}

// CodeOf extracts the code from err, or CodeInternal for unclassified errors.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// HTTPStatus maps an error to its HTTP status code.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeValidation, CodeState:
		return http.StatusBadRequest
	case CodeAuthentication:
		return http.StatusUnauthorized
	case CodeAuthorization:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the user-facing message for err. Unclassified errors are
// masked so internal detail never leaks to clients.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal server error"
}
