package proctor

import (
	"errors"
	"fmt"
)

// Sentinel errors for request validation.
var (
	// ErrNoStudentID is returned when an upload has no student identifier.
	ErrNoStudentID = errors.New("proctor: student ID required")

	// ErrNoFrames is returned when an upload carries no images.
	ErrNoFrames = errors.New("proctor: at least one frame required")

	// ErrEmptyFrame is returned when one of the frames has no data.
	ErrEmptyFrame = errors.New("proctor: empty frame")
)

// APIError is returned when the backend answers with something other than
// a JSON object.
type APIError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Message is a short excerpt of the body or the decode failure.
	Message string

	// Endpoint is the path that was called.
	Endpoint string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("proctor [%s]: API error %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// IsServerError returns true if this is a server-side error (HTTP 5xx).
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// IsNotFound returns true if the endpoint was not found (HTTP 404).
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == 404
}

// TransportError wraps a failure to complete the HTTP exchange.
type TransportError struct {
	Endpoint string
	Err      error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("proctor [%s]: %v", e.Endpoint, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}
