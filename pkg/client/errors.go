package client

import (
	"errors"
	"fmt"
)

// HTTPError represents a non-2xx response from the panel or a tracking endpoint.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsStatus returns true if err (or any wrapped error) is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}

// Outcome classifies a request error for logs and metric labels:
// "ok", "4xx", "5xx" or "network".
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.StatusCode >= 500 {
			return "5xx"
		}
		return "4xx"
	}
	return "network"
}
