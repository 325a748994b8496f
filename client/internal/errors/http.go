package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ClassifyHTTPError builds a ClassifiedError for a non-2xx response.
//   - 4xx client errors (except 408 and 429) are irrecoverable
//   - 5xx server errors are recoverable
func ClassifyHTTPError(statusCode int, body []byte, underlyingErr error) *ClassifiedError {
	return &ClassifiedError{
		Category:   getHTTPErrorCategory(statusCode),
		Kind:       kindFor(statusCode),
		StatusCode: statusCode,
		Message:    extractMessage(body),
		Body:       string(body),
		Underlying: underlyingErr,
	}
}

func getHTTPErrorCategory(statusCode int) ErrorCategory {
	switch {
	case statusCode >= 400 && statusCode < 500:
		switch statusCode {
		case http.StatusRequestTimeout, http.StatusTooManyRequests:
			return Recoverable
		default:
			return Irrecoverable
		}
	case statusCode >= 500 && statusCode < 600:
		return Recoverable
	default:
		// unexpected status, be conservative and retry
		return Recoverable
	}
}

func kindFor(statusCode int) Kind {
	switch {
	case statusCode == http.StatusBadRequest || statusCode == http.StatusUnprocessableEntity:
		return KindValidation
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return KindAuth
	case statusCode == http.StatusNotFound:
		return KindNotFound
	case statusCode >= 500:
		return KindServer
	default:
		return KindUnknown
	}
}

// extractMessage pulls "msg" out of a {ok:false, msg} body. Validation
// failures carry only "errors" and yield "".
func extractMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Msg
}

// NewHTTPError creates a classified error for HTTP failures.
func NewHTTPError(statusCode int, body []byte, operation string) *ClassifiedError {
	underlyingErr := fmt.Errorf("%s failed: HTTP %d", operation, statusCode)
	return ClassifyHTTPError(statusCode, body, underlyingErr)
}

// NewRejectedError covers 2xx responses whose body says ok:false.
func NewRejectedError(statusCode int, body []byte, operation string) *ClassifiedError {
	return &ClassifiedError{
		Category:   Irrecoverable,
		Kind:       KindValidation,
		StatusCode: statusCode,
		Message:    extractMessage(body),
		Body:       string(body),
		Underlying: fmt.Errorf("%s rejected by server", operation),
	}
}

// NewNetworkError creates a classified error for transport failures, which
// are always treated as transient.
func NewNetworkError(operation string, err error) *ClassifiedError {
	return &ClassifiedError{
		Category:   Recoverable,
		Kind:       KindNetwork,
		Underlying: fmt.Errorf("%s network error: %w", operation, err),
	}
}
