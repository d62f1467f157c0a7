package errors

import (
	"fmt"
	"net/http"
)

// AppError represents an application error with additional context
type AppError struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	StatusCode int         `json:"-"`
	Internal   error       `json:"-"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}
	return e.Message
}

// Unwrap returns the internal error for errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Internal
}

// Common error codes
const (
	ErrCodeInternal             = "INTERNAL_ERROR"
	ErrCodeInvalidRequest       = "INVALID_REQUEST"
	ErrCodeUnauthorized         = "UNAUTHORIZED"
	ErrCodeForbidden            = "FORBIDDEN"
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeConflict             = "CONFLICT"
	ErrCodeValidation           = "VALIDATION_ERROR"
	ErrCodeDatabase             = "DATABASE_ERROR"
	ErrCodeRateLimited          = "RATE_LIMITED"
	ErrCodeIntegrationNotFound  = "INTEGRATION_NOT_FOUND"
	ErrCodeToolNotFound         = "TOOL_NOT_FOUND"
	ErrCodeProposalNotFound     = "PROPOSAL_NOT_FOUND"
	ErrCodeJobNotFound          = "JOB_NOT_FOUND"
	ErrCodeInvalidProposalState = "INVALID_PROPOSAL_STATE"
	ErrCodeNoDriftToPropose     = "NO_DRIFT_TO_PROPOSE"
)

// New creates a new AppError
func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap wraps an error with an AppError
func Wrap(err error, code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Internal:   err,
	}
}

// WithDetails adds details to an AppError
func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// Common error constructors

// Internal creates an internal server error
func Internal(message string, err error) *AppError {
	return Wrap(err, ErrCodeInternal, message, http.StatusInternalServerError)
}

// InvalidRequest creates an invalid request error
func InvalidRequest(message string) *AppError {
	return New(ErrCodeInvalidRequest, message, http.StatusBadRequest)
}

// Unauthorized creates an unauthorized error
func Unauthorized(message string) *AppError {
	return New(ErrCodeUnauthorized, message, http.StatusUnauthorized)
}

// Forbidden creates a forbidden error
func Forbidden(message string) *AppError {
	return New(ErrCodeForbidden, message, http.StatusForbidden)
}

// NotFound creates a not found error with a resource-specific code
func NotFound(code, resource string) *AppError {
	return New(code, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// IntegrationNotFound creates an integration not found error
func IntegrationNotFound() *AppError {
	return NotFound(ErrCodeIntegrationNotFound, "Integration")
}

// ToolNotFound creates a tool not found error
func ToolNotFound() *AppError {
	return NotFound(ErrCodeToolNotFound, "Tool")
}

// ProposalNotFound creates a proposal not found error
func ProposalNotFound() *AppError {
	return NotFound(ErrCodeProposalNotFound, "Proposal")
}

// JobNotFound creates a job not found error
func JobNotFound() *AppError {
	return NotFound(ErrCodeJobNotFound, "Job")
}

// InvalidProposalState creates an invalid proposal state error
func InvalidProposalState(current string) *AppError {
	return New(ErrCodeInvalidProposalState,
		fmt.Sprintf("Proposal is %s and cannot accept this transition", current),
		http.StatusConflict)
}

// NoDriftToPropose indicates there are no unresolved drift records to bundle
func NoDriftToPropose() *AppError {
	return New(ErrCodeNoDriftToPropose,
		"No unresolved drift records for this integration",
		http.StatusConflict)
}

// Conflict creates a conflict error
func Conflict(message string) *AppError {
	return New(ErrCodeConflict, message, http.StatusConflict)
}

// ValidationError creates a validation error
func ValidationError(message string, details interface{}) *AppError {
	return New(ErrCodeValidation, message, http.StatusBadRequest).WithDetails(details)
}

// DatabaseError creates a database error
func DatabaseError(message string, err error) *AppError {
	return Wrap(err, ErrCodeDatabase, message, http.StatusInternalServerError)
}

// RateLimited creates a rate limited error
func RateLimited(message string) *AppError {
	return New(ErrCodeRateLimited, message, http.StatusTooManyRequests)
}
