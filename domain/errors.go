package domain

import (
	"fmt"
	"strings"
)

// ValidationError reports required fields left empty.
type ValidationError struct {
	Category string
	Missing  []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required %s fields: %s", e.Category, strings.Join(e.Missing, ", "))
}

// NetworkError means the request never completed: connectivity, DNS or
// the submit deadline.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "network error: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error { return e.Err }

// RemoteRejection means the endpoint answered with a non-2xx status.
type RemoteRejection struct {
	StatusCode int
	Body       string
}

func (e *RemoteRejection) Error() string {
	return fmt.Sprintf("remote rejected submission: %d: %s", e.StatusCode, e.Body)
}
