package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"ranksum/domain/core"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context, keeping the code of the
// wrapped error or deriving one from the domain errors it wraps.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    GetCode(err),
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the code of the outermost AppError, the code of the domain
// error err wraps, or INTERNAL_ERROR.
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return domainCode(err)
}

// Predefined error codes
const (
	CodeConfigInvalid     = "CONFIG_INVALID"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeOrderingViolation = "ORDERING_VIOLATION"
	CodeEmptySample       = "EMPTY_SAMPLE"
	CodeExcessiveTies     = "EXCESSIVE_TIES"
	CodeInvalidAlpha      = "INVALID_ALPHA"
	CodeNotFound          = "NOT_FOUND"
	CodeInternalError     = "INTERNAL_ERROR"
)

func domainCode(err error) string {
	switch {
	case stderrors.Is(err, core.ErrOrderingViolation):
		return CodeOrderingViolation
	case stderrors.Is(err, core.ErrEmptySample):
		return CodeEmptySample
	case stderrors.Is(err, core.ErrExcessiveTies):
		return CodeExcessiveTies
	case stderrors.Is(err, core.ErrInvalidAlpha):
		return CodeInvalidAlpha
	case stderrors.Is(err, core.ErrInvalidGroup), stderrors.Is(err, core.ErrUnknownAltHyp),
		stderrors.Is(err, core.ErrTieOverflow):
		return CodeInvalidInput
	}
	return CodeInternalError
}

// FromDomain converts an error returned by the statistics packages into an
// AppError carrying the matching code.
func FromDomain(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Code:    domainCode(err),
		Message: err.Error(),
		Cause:   err,
	}
}

// HTTPStatus maps an error code to a response status
func HTTPStatus(code string) int {
	switch code {
	case CodeInvalidInput, CodeConfigInvalid:
		return http.StatusBadRequest
	case CodeOrderingViolation, CodeEmptySample, CodeExcessiveTies, CodeInvalidAlpha:
		return http.StatusUnprocessableEntity
	case CodeNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}
