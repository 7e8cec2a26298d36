package errors

import (
	"errors"
	"fmt"
)

// Type classifies failures across the pipeline
type Type string

const (
	// TypeNotFound marks a resource the server reports missing, e.g. a
	// media URL answering 404. Never retried.
	TypeNotFound Type = "not_found"
	// TypeStructural marks a page that does not look the way the scraper
	// expects: lightbox that never opens, missing navigation control,
	// media element without any source reference.
	TypeStructural Type = "structural"
	// TypeTimeout marks a bounded wait that ran out.
	TypeTimeout Type = "timeout"
	TypeAuth    Type = "auth"
	TypeNetwork Type = "network"
	TypeServer  Type = "server_error"
	TypeUnknown Type = "unknown"
)

// Error carries a failure type alongside the message
type Error struct {
	Type    Type
	Message string
	Code    int
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// New creates a typed error
func New(t Type, format string, args ...interface{}) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...)}
}

// Structural creates a structural page failure
func Structural(format string, args ...interface{}) *Error {
	return New(TypeStructural, format, args...)
}

// Timeout creates a timeout failure
func Timeout(format string, args ...interface{}) *Error {
	return New(TypeTimeout, format, args...)
}

// PostError associates a failure with the post it occurred on. The
// orchestrator catches these at the per-post boundary, logs the post
// identity and moves on to the next descriptor.
type PostError struct {
	MessageID string
	Href      string
	Err       error
}

func (e *PostError) Error() string {
	return fmt.Sprintf("post %s (%s): %v", e.MessageID, e.Href, e.Err)
}

func (e *PostError) Unwrap() error {
	return e.Err
}

// ForPost wraps err with the identity of the post it belongs to
func ForPost(messageID, href string, err error) *PostError {
	return &PostError{MessageID: messageID, Href: href, Err: err}
}

// TypeOf extracts the failure type from an error chain
func TypeOf(err error) Type {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return TypeUnknown
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType Type) bool {
	switch errorType {
	case TypeNetwork, TypeServer:
		return true
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429: // Too Many Requests
		return true
	case 500, 502, 503, 504: // Server errors
		return true
	case 401, 403, 404: // Client errors that won't change
		return false
	default:
		return statusCode >= 500 // Retry all 5xx errors
	}
}
