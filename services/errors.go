package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeUnauthorized  ErrorType = "unauthorized"
	ErrorTypeForbidden     ErrorType = "forbidden"
	ErrorTypeRateLimit     ErrorType = "rate_limit"
	ErrorTypeConfiguration ErrorType = "configuration"
	ErrorTypeInternal      ErrorType = "internal"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsNotFound reports whether err is a not-found domain error
func IsNotFound(err error) bool {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		return false
	}
	return domainErr.Type == ErrorTypeNotFound
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Domain error variables

var (
	// Authentication errors (expected, 401)
	ErrAuthenticationRequired = NewDomainError(ErrorTypeUnauthorized, "authentication required", nil)
	ErrInvalidToken           = NewDomainError(ErrorTypeUnauthorized, "invalid authentication token", nil)
	ErrTokenExpired           = NewDomainError(ErrorTypeUnauthorized, "authentication token expired", nil)

	// Validation errors (expected, 400)
	ErrValidationFailed = NewDomainError(ErrorTypeValidation, "validation failed", nil)

	// Configuration errors (unexpected, 500). An authenticated principal without
	// a tenant, or a sensitive handler without a user, is a wiring defect, not a
	// normal request failure.
	ErrTenantMissing = NewDomainError(ErrorTypeConfiguration, "no tenant resolved for authenticated principal", nil)
	ErrUserMissing   = NewDomainError(ErrorTypeConfiguration, "no user resolved for authenticated principal", nil)

	// Rate limit errors (expected, 429)
	ErrRateLimitExceeded = NewDomainError(ErrorTypeRateLimit, "rate limit exceeded", nil)

	// Lookup errors
	ErrUserNotFound   = NewDomainError(ErrorTypeNotFound, "user not found", nil)
	ErrClinicNotFound = NewDomainError(ErrorTypeNotFound, "clinic not found", nil)

	// Handler faults (unexpected, 500)
	ErrHandlerFault = NewDomainError(ErrorTypeInternal, "handler fault", nil)
)
