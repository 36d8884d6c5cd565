package errorutil

import (
	"errors"
	"fmt"
	"net/http"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Cause returns the message of the wrapped error, or the domain message when nothing is wrapped.
func (e *DomainError) Cause() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// NewValidationError reports a rule violation. Handlers surface it as a
// server failure carrying the violation as the error cause.
func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusInternalServerError, details)
}

// NewBadRequest rejects a request before any rule is evaluated.
func NewBadRequest(message string, details map[string]any) error {
	return NewDomainError("BAD_REQUEST", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

// NewPersistenceError wraps a store failure; message is the client-facing summary.
func NewPersistenceError(message string, err error) error {
	return &DomainError{
		Code:       "PERSISTENCE_ERROR",
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// IsValidation reports whether err is a rule violation rather than a store
// or runtime failure.
func IsValidation(err error) bool {
	return IsCode(err, "VALIDATION_FAILED")
}

// IsCode reports whether err is a DomainError carrying code.
func IsCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// WithMessage replaces the client-facing message of server-side failures,
// leaving 4xx errors untouched. A failure without a wrapped cause keeps its
// own message as the cause.
func WithMessage(err error, message string) error {
	domainErr := ToDomainError(err)
	if domainErr == nil || domainErr.HTTPStatus < http.StatusInternalServerError {
		return err
	}
	cause := domainErr.Err
	if cause == nil {
		cause = domainErr
	}
	return &DomainError{
		Code:       domainErr.Code,
		Message:    message,
		HTTPStatus: domainErr.HTTPStatus,
		Details:    domainErr.Details,
		Err:        cause,
	}
}
