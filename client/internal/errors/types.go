// Package errors provides error classification for the calendar SDK.
// The category drives retry policy; the kind tells controllers what failed.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory determines how errors should be handled by retry logic.
type ErrorCategory int

const (
	// Recoverable errors may be retried with exponential backoff.
	// Examples: 500 Internal Server Error, connection resets.
	Recoverable ErrorCategory = iota

	// Irrecoverable errors fail immediately without retry.
	// Examples: 400 validation failures, 401 bad token.
	Irrecoverable
)

// String returns a human-readable representation of the error category.
func (c ErrorCategory) String() string {
	switch c {
	case Recoverable:
		return "Recoverable"
	case Irrecoverable:
		return "Irrecoverable"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// Kind names the failure class of a remote call.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindAuth
	KindNotFound
	KindServer
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindServer:
		return "server"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// ClassifiedError wraps an error with categorization metadata.
type ClassifiedError struct {
	Category   ErrorCategory
	Kind       Kind
	StatusCode int    // HTTP status code (0 for transport errors)
	Message    string // server-provided "msg", if any
	Body       string // raw response body for debugging
	Underlying error
}

// Error implements the error interface.
func (e *ClassifiedError) Error() string {
	if e.StatusCode > 0 {
		if e.Message != "" {
			return fmt.Sprintf("[%s] HTTP %d: %v: %s", e.Category, e.StatusCode, e.Underlying, e.Message)
		}
		return fmt.Sprintf("[%s] HTTP %d: %v", e.Category, e.StatusCode, e.Underlying)
	}
	return fmt.Sprintf("[%s] %v", e.Category, e.Underlying)
}

// Unwrap returns the underlying error for error chain compatibility.
func (e *ClassifiedError) Unwrap() error {
	return e.Underlying
}

// As extracts the first *ClassifiedError in err's chain.
func As(err error) (*ClassifiedError, bool) {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// IsIrrecoverable returns true if the error should not be retried.
func IsIrrecoverable(err error) bool {
	if ce, ok := As(err); ok {
		return ce.Category == Irrecoverable
	}
	return false
}

// IsKind reports whether err carries a classified error of kind k.
func IsKind(err error, k Kind) bool {
	if ce, ok := As(err); ok {
		return ce.Kind == k
	}
	return false
}

// ServerMessage returns the "msg" field the backend sent with a failure.
func ServerMessage(err error) string {
	if ce, ok := As(err); ok {
		return ce.Message
	}
	return ""
}
