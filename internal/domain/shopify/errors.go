// Package shopify provides domain types for the Shopify Admin API integration.
package shopify

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Standard domain errors.
var (
	ErrSessionExpired      = errors.New("session has expired")
	ErrRateLimited         = errors.New("API rate limit exceeded")
	ErrInvalidSignature    = errors.New("invalid request signature")
	ErrUnauthorized        = errors.New("unauthorized access")
	ErrResourceNotFound    = errors.New("resource not found")
	ErrInvalidRequest      = errors.New("invalid request parameters")
	ErrServiceUnavailable  = errors.New("Shopify service temporarily unavailable")
	ErrMutationNotAllowed  = errors.New("mutations are not allowed on a read-only session")
	ErrInvalidSessionToken = errors.New("invalid session token")
)

// ErrorCode represents Shopify Admin GraphQL error codes, as reported in
// errors[].extensions.code.
type ErrorCode string

const (
	// Authentication errors
	CodeAccessDenied    ErrorCode = "ACCESS_DENIED"
	CodeUnauthenticated ErrorCode = "UNAUTHENTICATED"
	CodeForbidden       ErrorCode = "FORBIDDEN"

	// Query cost limiting
	CodeThrottled       ErrorCode = "THROTTLED"
	CodeMaxCostExceeded ErrorCode = "MAX_COST_EXCEEDED"

	// Server errors
	CodeInternalError ErrorCode = "INTERNAL_SERVER_ERROR"
	CodeShopInactive  ErrorCode = "SHOP_INACTIVE"

	// Request errors
	CodeNotFound           ErrorCode = "NOT_FOUND"
	CodeBadUserInput       ErrorCode = "BAD_USER_INPUT"
	CodeGraphQLParseFailed ErrorCode = "GRAPHQL_PARSE_FAILED"

	// CodeHTTP marks transport-level failures that carry no GraphQL code.
	CodeHTTP ErrorCode = "HTTP_ERROR"
)

// String returns the string representation of the error code.
func (c ErrorCode) String() string {
	return string(c)
}

// IsRetryable returns true if the error code indicates a retryable error.
func (c ErrorCode) IsRetryable() bool {
	switch c {
	case CodeThrottled, CodeInternalError:
		return true
	default:
		return false
	}
}

// APIError represents a structured error from the Shopify Admin API.
type APIError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	RequestID  string    `json:"request_id,omitempty"`
	StatusCode int       `json:"-"`

	// RetryAfter is how long the shop's cost budget needs to refill, when known.
	RetryAfter time.Duration `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("shopify [%s]: %s (request_id: %s)", e.Code, e.Message, e.RequestID)
	}
	return fmt.Sprintf("shopify [%s]: %s", e.Code, e.Message)
}

// Is implements errors.Is for APIError.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrRateLimited:
		return e.Code == CodeThrottled || e.StatusCode == http.StatusTooManyRequests
	case ErrUnauthorized:
		return e.Category() == CategoryAuthentication ||
			e.StatusCode == http.StatusUnauthorized ||
			e.StatusCode == http.StatusForbidden
	case ErrResourceNotFound:
		return e.Code == CodeNotFound || e.StatusCode == http.StatusNotFound
	case ErrInvalidRequest:
		return e.Category() == CategoryValidation || e.StatusCode == http.StatusBadRequest
	case ErrServiceUnavailable:
		return e.Code == CodeInternalError || e.StatusCode >= 500
	case ErrSessionExpired:
		return e.Code == CodeUnauthenticated && strings.Contains(strings.ToLower(e.Message), "expired")
	default:
		return false
	}
}

// IsRetryable returns true if this error is safe to retry.
func (e *APIError) IsRetryable() bool {
	if e.Code.IsRetryable() {
		return true
	}
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// NewAPIError creates a new APIError with the given parameters.
func NewAPIError(code ErrorCode, message string, statusCode int) *APIError {
	return &APIError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// NewAPIErrorWithRequestID creates a new APIError with request ID.
func NewAPIErrorWithRequestID(code ErrorCode, message string, statusCode int, requestID string) *APIError {
	return &APIError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		RequestID:  requestID,
	}
}

// WithRetryAfter sets the refill hint and returns e.
func (e *APIError) WithRetryAfter(d time.Duration) *APIError {
	e.RetryAfter = d
	return e
}

// ErrorCategory classifies errors into categories.
type ErrorCategory string

const (
	CategoryAuthentication ErrorCategory = "authentication"
	CategoryRateLimit      ErrorCategory = "rate_limit"
	CategoryServer         ErrorCategory = "server"
	CategoryNotFound       ErrorCategory = "not_found"
	CategoryValidation     ErrorCategory = "validation"
	CategoryUnknown        ErrorCategory = "unknown"
)

// Category returns the category of this error.
func (e *APIError) Category() ErrorCategory {
	switch e.Code {
	case CodeAccessDenied, CodeUnauthenticated, CodeForbidden:
		return CategoryAuthentication
	case CodeThrottled, CodeMaxCostExceeded:
		return CategoryRateLimit
	case CodeInternalError, CodeShopInactive:
		return CategoryServer
	case CodeNotFound:
		return CategoryNotFound
	case CodeBadUserInput, CodeGraphQLParseFailed:
		return CategoryValidation
	}

	switch {
	case e.StatusCode == http.StatusUnauthorized, e.StatusCode == http.StatusForbidden:
		return CategoryAuthentication
	case e.StatusCode == http.StatusTooManyRequests:
		return CategoryRateLimit
	case e.StatusCode == http.StatusNotFound:
		return CategoryNotFound
	case e.StatusCode >= 500:
		return CategoryServer
	default:
		return CategoryUnknown
	}
}
