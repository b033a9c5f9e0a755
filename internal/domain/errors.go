package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRange signals a range literal that failed to parse.
	// Upstream pattern validation normally prevents this from reaching a user.
	ErrMalformedRange = errors.New("malformed range literal")
	// ErrInvalidRange signals a range whose end precedes its start.
	ErrInvalidRange = errors.New("invalid range: end before start")
	// ErrGapTooSmall signals a time gap that would produce too many buckets.
	ErrGapTooSmall = errors.New("gap too small for requested range")
	// ErrDegenerateGeometry signals a zero-area box where a grid resolution must be derived.
	ErrDegenerateGeometry = errors.New("degenerate geometry")
	// ErrMissingGeoForDistanceSort signals a distance sort without a geo constraint.
	ErrMissingGeoForDistanceSort = errors.New("distance sort requires a geo constraint")
	// ErrExportConfiguration signals that the backend did not echo its field list.
	ErrExportConfiguration = errors.New("backend did not echo a field list; export misconfigured")
	// ErrBackendQuery signals a failure reported by the search backend.
	ErrBackendQuery = errors.New("backend query failed")
)

// BackendQueryError wraps ErrBackendQuery with the engine's own status and message.
// Status is the backend's HTTP-equivalent status code, or 0 when unknown.
type BackendQueryError struct {
	Status  int
	Code    string
	Message string
}

func (e *BackendQueryError) Error() string {
	if e.Message == "" {
		return ErrBackendQuery.Error()
	}
	return fmt.Sprintf("%s: %s", ErrBackendQuery.Error(), e.Message)
}

func (e *BackendQueryError) Unwrap() error { return ErrBackendQuery }

// NewBackendQueryError creates a backend failure preserving the engine's status/message.
func NewBackendQueryError(status int, code, message string) error {
	return &BackendQueryError{Status: status, Code: code, Message: message}
}
