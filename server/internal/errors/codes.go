package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies a failure for callers; branch on it, never on Message.
type ErrorCode string

const (
	// ErrCodeInvalidArgument indicates missing or malformed input.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeUnauthorized indicates there is no authenticated owner.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeNotFound indicates the resource does not exist or is not the caller's.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeDataAccess indicates the store failed.
	ErrCodeDataAccess ErrorCode = "DATA_ACCESS"
	// ErrCodeAlreadyExists indicates a uniqueness conflict.
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
	// ErrCodeRateLimitExceeded indicates rate limit has been exceeded.
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
)

const (
	// UnauthorizedMessage is the only message an authorization failure carries.
	UnauthorizedMessage = "not authorized"
	// DataAccessMessage replaces the cause of a store failure in responses.
	DataAccessMessage = "internal server error"
)

// Error is a structured error with a code, a caller-safe message and an optional cause.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *Error {
	return &Error{Code: ErrCodeInvalidArgument, Message: msg}
}

// InvalidArgumentf creates an invalid argument error with a formatted message.
func InvalidArgumentf(format string, args ...any) *Error {
	return InvalidArgument(fmt.Sprintf(format, args...))
}

// Unauthorized creates an unauthorized error with the uniform message.
func Unauthorized() *Error {
	return &Error{Code: ErrCodeUnauthorized, Message: UnauthorizedMessage}
}

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: ErrCodeNotFound, Message: msg}
}

// DataAccess wraps a store failure.
func DataAccess(cause error) *Error {
	return &Error{Code: ErrCodeDataAccess, Message: DataAccessMessage, Cause: cause}
}

// AlreadyExists creates an already exists error.
func AlreadyExists(msg string) *Error {
	return &Error{Code: ErrCodeAlreadyExists, Message: msg}
}

// RateLimitExceeded creates a rate limit exceeded error.
func RateLimitExceeded(msg string) *Error {
	return &Error{Code: ErrCodeRateLimitExceeded, Message: msg}
}

// Wrap wraps an existing error with a code and message.
func Wrap(cause error, code ErrorCode, msg string) *Error {
	return &Error{Code: code, Message: msg, Cause: cause}
}

// IsCode checks if err, or any error it wraps, is an *Error of code.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf returns the code of err. Errors outside the taxonomy are DATA_ACCESS.
func CodeOf(err error) ErrorCode {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ErrCodeDataAccess
}

// HTTPStatus maps a code to its HTTP status.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidArgument:
		return http.StatusBadRequest
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeAlreadyExists:
		return http.StatusConflict
	case ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message that may be shown to the caller.
// Causes of store failures and unknown errors are never exposed.
func PublicMessage(err error) string {
	var e *Error
	if !stderrors.As(err, &e) || e.Code == ErrCodeDataAccess {
		return DataAccessMessage
	}
	return e.Message
}
