package errors

import (
	"fmt"
	"net/http"
)

// APIError represents a custom error type shared by the SDK and the dev server
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Details string `json:"details,omitempty"`
}

// Error returns the error message
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAPIError(code, message string, status int, details ...string) *APIError {
	err := &APIError{
		Code:    code,
		Message: message,
		Status:  status,
	}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

var (
	ErrInvalidInput     = NewAPIError("INVALID_INPUT", "Invalid request data", http.StatusBadRequest)
	ErrMissingContainer = NewAPIError("MISSING_CONTAINER", "Container ID is required", http.StatusBadRequest)
	ErrMissingAPIKey    = NewAPIError("MISSING_API_KEY", "API key is required", http.StatusBadRequest)
	ErrInvalidAPIKey    = NewAPIError("INVALID_API_KEY", "API key is invalid or inactive", http.StatusUnauthorized)
	ErrUnknownContainer = NewAPIError("UNKNOWN_CONTAINER", "No map instance for container", http.StatusNotFound)
	ErrSessionDestroyed = NewAPIError("SESSION_DESTROYED", "Map instance has been destroyed", http.StatusGone)
	ErrLookupFailed     = NewAPIError("LOOKUP_FAILED", "Place lookup failed", http.StatusBadGateway)
	ErrSearchFailed     = NewAPIError("SEARCH_FAILED", "Place search failed", http.StatusBadGateway)
	ErrUnauthorized     = NewAPIError("UNAUTHORIZED", "Authentication required", http.StatusUnauthorized)
	ErrNotFound         = NewAPIError("NOT_FOUND", "Resource not found", http.StatusNotFound)
	ErrInternal         = NewAPIError("INTERNAL_SERVER_ERROR", "Internal server error", http.StatusInternalServerError)
)

func Wrap(err error, code, message string, status int) *APIError {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr
	}
	return NewAPIError(code, message, status, err.Error())
}
