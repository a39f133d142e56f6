// Package errors defines the failure taxonomy shared by the extraction
// pipeline and its collaborators. Every member is recovered locally by the
// component that produced it; nothing here is expected to escape a cycle.
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/account-explorer/internal/types"
)

// Category classifies a failure by its origin
type Category string

const (
	// CategoryUpstream represents a non-2xx response from an external endpoint
	CategoryUpstream Category = "upstream_status"
	// CategoryUnreachable represents a transport-level failure (timeout, DNS, network)
	CategoryUnreachable Category = "unreachable"
	// CategoryParse represents malformed JSON or HTML from an external source
	CategoryParse Category = "parse_failure"
	// CategoryStorage represents a serialization or persistence-medium failure
	CategoryStorage Category = "storage_failure"
	// CategoryUserInput represents an invalid request to the collaborator API
	CategoryUserInput Category = "user_input"
	// CategoryInternal represents an unexpected internal failure
	CategoryInternal Category = "internal"
)

// CategorizedError carries a failure category, an API status code and the
// underlying cause.
type CategorizedError struct {
	Category   Category
	StatusCode int
	Code       string
	Message    string
	Cause      error
}

// Error implements the error interface
func (e *CategorizedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *CategorizedError) Unwrap() error {
	return e.Cause
}

// ToServiceError converts to a ServiceError for API responses
func (e *CategorizedError) ToServiceError() *types.ServiceError {
	return &types.ServiceError{Code: e.Code, Message: e.Message}
}

// NewUpstreamStatusError records a non-success HTTP status from an
// external endpoint.
func NewUpstreamStatusError(source string, status int) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryUpstream,
		StatusCode: http.StatusBadGateway,
		Code:       "UPSTREAM_STATUS",
		Message:    fmt.Sprintf("%s responded %d", source, status),
	}
}

// NewUnreachableError records a transport failure reaching an external
// endpoint.
func NewUnreachableError(source string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryUnreachable,
		StatusCode: http.StatusBadGateway,
		Code:       "UNREACHABLE",
		Message:    fmt.Sprintf("%s unreachable", source),
		Cause:      cause,
	}
}

// NewParseError records a malformed payload from an external source.
func NewParseError(what string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryParse,
		StatusCode: http.StatusBadGateway,
		Code:       "PARSE_FAILURE",
		Message:    fmt.Sprintf("malformed %s", what),
		Cause:      cause,
	}
}

// NewStorageError records a persistence failure.
func NewStorageError(operation string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryStorage,
		StatusCode: http.StatusInternalServerError,
		Code:       "STORAGE_FAILURE",
		Message:    fmt.Sprintf("storage error during %s", operation),
		Cause:      cause,
	}
}

// NewInvalidAccountError records a malformed account identifier on the API
// surface.
func NewInvalidAccountError(account string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryUserInput,
		StatusCode: http.StatusBadRequest,
		Code:       "INVALID_ACCOUNT",
		Message:    fmt.Sprintf("invalid account identifier: %s", account),
	}
}

// NewInternalError wraps an unexpected failure.
func NewInternalError(message string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryInternal,
		StatusCode: http.StatusInternalServerError,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		Cause:      cause,
	}
}

// Categorize coerces an arbitrary error into a CategorizedError.
func Categorize(err error) *CategorizedError {
	if err == nil {
		return nil
	}
	var catErr *CategorizedError
	if errors.As(err, &catErr) {
		return catErr
	}
	return NewInternalError("unexpected error", err)
}

// CategoryOf returns the category of an error, or CategoryInternal for
// uncategorized errors.
func CategoryOf(err error) Category {
	if catErr := Categorize(err); catErr != nil {
		return catErr.Category
	}
	return CategoryInternal
}

// GetHTTPStatusCode returns the HTTP status code to surface for an error
func GetHTTPStatusCode(err error) int {
	if catErr := Categorize(err); catErr != nil {
		return catErr.StatusCode
	}
	return http.StatusInternalServerError
}

// IsRetryable reports whether retrying the operation could help. Upstream
// and transport failures may clear on the next poll; parse and user-input
// failures will not.
func IsRetryable(err error) bool {
	switch CategoryOf(err) {
	case CategoryUpstream, CategoryUnreachable, CategoryStorage:
		return true
	default:
		return false
	}
}
