package api

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrInvalidConfig indicates invalid client configuration
	ErrInvalidConfig = errors.New("invalid moviehub configuration")
	// ErrNoCredential indicates no stored credential is available
	ErrNoCredential = errors.New("no credential available")
)

// TransportError indicates the request never produced a response
// (network failure, DNS, timeout). It is never retried by the client.
type TransportError struct {
	Err error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	return fmt.Sprintf("moviehub transport error: %v", e.Err)
}

// Unwrap returns the underlying transport failure
func (e *TransportError) Unwrap() error {
	return e.Err
}

// AuthExpiredError indicates a 401 that survived the refresh flow:
// either the refresh itself failed or the replayed request was rejected
// again. The session has already been torn down when this is returned.
type AuthExpiredError struct {
	StatusCode int
}

// Error implements the error interface
func (e *AuthExpiredError) Error() string {
	return fmt.Sprintf("moviehub session expired (status %d): please log in again", e.StatusCode)
}

// APIError represents a non-2xx response from the MovieHub API
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("moviehub API error: status %d: %s", e.StatusCode, e.Message)
}

// IsNotFound checks if the error indicates a not found response
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == 404
}

// IsUnauthorized checks if the error indicates an authentication failure
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// IsAuthExpired reports whether err is an AuthExpiredError.
func IsAuthExpired(err error) bool {
	var authErr *AuthExpiredError
	return errors.As(err, &authErr)
}
