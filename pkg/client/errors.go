package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the client.
var (
	// ErrTooManyRetries is returned when the rate-limit retry budget is exhausted.
	ErrTooManyRetries = errors.New("too many retries")

	// ErrContextCancelled is returned when the context is cancelled during a backoff wait.
	ErrContextCancelled = errors.New("context cancelled")
)

// DecodeError is returned when a response body cannot be decoded into the
// expected type. It keeps the raw status, headers, and body so schema drift
// can be diagnosed from the error alone. Decode failures are never retried.
type DecodeError struct {
	StatusCode int
	Header     http.Header
	Body       string
	Err        error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response (status %d): %v: %s", e.StatusCode, e.Err, e.Body)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// rateLimited reports whether a response asked the client to slow down.
func rateLimited(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests
}
