package errors

import (
	"net/http"

	"authbase/internal/errors"
)

// Kind classifies domain errors independently of the transport.
type Kind string

const (
	KindAlreadyExists Kind = "ALREADY_EXISTS"
	KindUnauthorized  Kind = "UNAUTHORIZED"
	KindNotFound      Kind = "NOT_FOUND"
	KindExpired       Kind = "EXPIRED"
	KindInvalidInput  Kind = "INVALID_INPUT"
	KindForbidden     Kind = "FORBIDDEN"
	KindConflict      Kind = "CONFLICT"
	KindInternal      Kind = "INTERNAL"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	Kind() Kind        // Transport-independent classification
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-facing error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	kind      Kind
	httpCode  int
	errorCode string
	message   string
	details   string
	base      *BaseError
}

// NewBaseError creates a new base error
func NewBaseError(kind Kind, httpCode int, errorCode, message string) *BaseError {
	return &BaseError{
		kind:      kind,
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.details != "" {
		return e.message + ": " + e.details
	}

	return e.message
}

// Is matches a copy produced by WithDetails against the predefined error it came from.
func (e *BaseError) Is(target error) bool {
	t, ok := target.(*BaseError)
	if !ok {
		return false
	}

	return e == t || (e.base != nil && e.base == t)
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// Kind returns the error classification
func (e *BaseError) Kind() Kind {
	return e.kind
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-facing error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails returns a copy carrying details; errors.Is still matches the original.
func (e *BaseError) WithDetails(details string) *BaseError {
	base := e
	if e.base != nil {
		base = e.base
	}

	return &BaseError{
		kind:      e.kind,
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
		base:      base,
	}
}

// Predefined error types
var (
	// Credential store
	ErrUserNotFound = NewBaseError(
		KindNotFound,
		http.StatusNotFound,
		"USER_NOT_FOUND",
		"User not found",
	)

	ErrUserAlreadyExists = NewBaseError(
		KindAlreadyExists,
		http.StatusConflict,
		"USER_ALREADY_EXISTS",
		"Email already registered",
	)

	// Login. Every credential failure carries the same message.
	ErrInvalidCredentials = NewBaseError(
		KindUnauthorized,
		http.StatusUnauthorized,
		"INVALID_CREDENTIALS",
		"Invalid credentials",
	)

	ErrEmailNotVerified = NewBaseError(
		KindUnauthorized,
		http.StatusUnauthorized,
		"EMAIL_NOT_VERIFIED",
		"Please verify your email before logging in",
	)

	ErrAccountDeactivated = NewBaseError(
		KindUnauthorized,
		http.StatusUnauthorized,
		"ACCOUNT_DEACTIVATED",
		"Account is deactivated",
	)

	ErrInvalidExternalToken = NewBaseError(
		KindUnauthorized,
		http.StatusUnauthorized,
		"INVALID_EXTERNAL_TOKEN",
		"Invalid Google token",
	)

	// Sessions
	ErrRefreshDenied = NewBaseError(
		KindUnauthorized,
		http.StatusUnauthorized,
		"REFRESH_DENIED",
		"Access denied",
	)

	ErrUnauthorized = NewBaseError(
		KindUnauthorized,
		http.StatusUnauthorized,
		"UNAUTHORIZED",
		"Unauthorized",
	)

	// Email verification
	ErrInvalidVerificationToken = NewBaseError(
		KindNotFound,
		http.StatusBadRequest,
		"INVALID_VERIFICATION_TOKEN",
		"Invalid verification token",
	)

	ErrVerificationTokenExpired = NewBaseError(
		KindExpired,
		http.StatusBadRequest,
		"VERIFICATION_TOKEN_EXPIRED",
		"Verification token expired",
	)

	ErrEmailAlreadyVerified = NewBaseError(
		KindInvalidInput,
		http.StatusBadRequest,
		"EMAIL_ALREADY_VERIFIED",
		"Email is already verified",
	)

	// General errors
	ErrValidationFailed = NewBaseError(
		KindInvalidInput,
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"Invalid input",
	)

	ErrForbidden = NewBaseError(
		KindForbidden,
		http.StatusForbidden,
		"FORBIDDEN",
		"Forbidden resource",
	)

	ErrConcurrentUpdate = NewBaseError(
		KindConflict,
		http.StatusConflict,
		"CONCURRENT_UPDATE",
		"The account was changed by another request, please retry",
	)

	ErrInternalError = NewBaseError(
		KindInternal,
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"Internal server error, please try again later",
	)
)

// DatabaseExecuteError represents a database execution error, implementing the AppError interface
type DatabaseExecuteError struct {
	err     error
	details string
}

// NewDatabaseExecuteError creates a database-related error
func NewDatabaseExecuteError(err error, details string) AppError {
	return &DatabaseExecuteError{
		err:     err,
		details: details,
	}
}

// Error implements the error interface
func (e *DatabaseExecuteError) Error() string {
	return errors.Wrap(e.err, "database execution failed: "+e.details).Error()
}

// Unwrap exposes the driver error.
func (e *DatabaseExecuteError) Unwrap() error {
	return e.err
}

// Kind returns the error classification
func (e *DatabaseExecuteError) Kind() Kind {
	return KindInternal
}

// HTTPCode returns the HTTP status code
func (e *DatabaseExecuteError) HTTPCode() int {
	return http.StatusInternalServerError
}

// ErrorCode returns the business error code
func (e *DatabaseExecuteError) ErrorCode() string {
	return "DATABASE_EXECUTE_FAILED"
}

// Message returns the user-facing error message
func (e *DatabaseExecuteError) Message() string {
	return "Internal server error, please try again later"
}

// Details returns detailed error information
func (e *DatabaseExecuteError) Details() string {
	return e.details
}

// KindOf returns the kind of the first AppError in err's chain, or KindInternal.
func KindOf(err error) Kind {
	if appErr, ok := errors.AsType[AppError](err); ok {
		return appErr.Kind()
	}

	return KindInternal
}
