package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// As delegates to the standard library so callers that import this package
// under the errors name keep access to error matching.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// AppError is a custom error type for application errors
type AppError struct {
	Code       string
	Message    string
	StatusCode int // Same rule as HTTP status codes
	Err        error
	Details    map[string]interface{}
}

// Error returns a string representation of the error
func (e AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is implements the errors.Is interface
func (e AppError) Is(target error) bool {
	if target, ok := target.(AppError); ok {
		return target.Code == e.Code
	}
	return false
}

// Unwrap returns the underlying error
func (e AppError) Unwrap() error {
	return e.Err
}

// WithDetails adds details to the error
func (e AppError) WithDetails(details map[string]interface{}) AppError {
	e.Details = details
	return e
}

// WithDetail adds a single detail to the error
func (e AppError) WithDetail(key string, value interface{}) AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewValidationError creates a new validation error
func NewValidationError(message string) AppError {
	return AppError{
		Code:       "VALIDATION_ERROR",
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) AppError {
	return AppError{
		Code:       "NOT_FOUND",
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewConflictError creates a new concurrent modification error.
// The caller may retry after re-reading the current version.
func NewConflictError(message string) AppError {
	return AppError{
		Code:       "CONCURRENT_MODIFICATION",
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewInvalidStateError creates a new business rule violation error
func NewInvalidStateError(message string) AppError {
	return AppError{
		Code:       "INVALID_STATE",
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
	}
}

// NewConfigurationError creates an error for a missing organization setting
func NewConfigurationError(message string) AppError {
	return AppError{
		Code:       "CONFIGURATION_ERROR",
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
	}
}

// NewExceedsLineAmountError creates an error for a match allocation that
// would exceed the statement line amount
func NewExceedsLineAmountError(message string) AppError {
	return AppError{
		Code:       "EXCEEDS_LINE_AMOUNT",
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// NewOverlapError creates an error for intersecting fiscal period date ranges
func NewOverlapError(message string) AppError {
	return AppError{
		Code:       "PERIOD_OVERLAP",
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// NewNoAccountsError creates an error for a period close with nothing to close
func NewNoAccountsError(message string) AppError {
	return AppError{
		Code:       "NO_ACCOUNTS_TO_CLOSE",
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
	}
}

// IsNotFound reports whether err is a not-found error
func IsNotFound(err error) bool {
	var appErr AppError
	return As(err, &appErr) && appErr.Code == "NOT_FOUND"
}

// IsConflict reports whether err is a concurrent modification error
func IsConflict(err error) bool {
	var appErr AppError
	return As(err, &appErr) && appErr.Code == "CONCURRENT_MODIFICATION"
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) AppError {
	return AppError{
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}
