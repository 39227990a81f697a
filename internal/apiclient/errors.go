package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrUnauthenticated     = errors.New("session expired, please log in again")
	ErrNotFound            = errors.New("resource not found")
	ErrQuotaExceeded       = errors.New("subscription quota exceeded")
	ErrBrandPurposeMissing = errors.New("brand purpose has not been set up")
)

// APIError is a non-2xx answer from the backend. Its message is the
// backend's {"message": ...} when present.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
	Body    []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthenticated
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

// Temporary reports whether re-triggering the same call may succeed.
func (e *APIError) Temporary() bool {
	return e.Status >= 500 || e.Status == http.StatusTooManyRequests || e.Status == http.StatusRequestTimeout
}

// ValidationError carries the field-level problems found before dispatch.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
