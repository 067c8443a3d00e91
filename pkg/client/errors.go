package client

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")
)

// TransportError is a failure to get a complete response from the upstream:
// connection refused or reset, timeout, truncated body.
type TransportError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error for %s: %v", e.URL, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError reports a response whose status the caller cannot handle.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
	ErrorClass ErrorClass
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s error (status %d): %s: %s",
		e.ErrorClass, e.StatusCode, e.Status, e.URL)
}

// IsTransport reports whether err is or wraps a *TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// shouldRetry determines if an error should be retried based on its classification.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassClient:
		// 4xx answers are final; 404 in particular means "absent"
		return false
	case ErrorClassServer:
		return true
	case ErrorClassNetwork:
		return true
	default:
		return false
	}
}
