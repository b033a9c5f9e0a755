package solr

import "errors"

// ErrUnavailable signals that the backend could not be reached at all.
var ErrUnavailable = errors.New("solr: backend unavailable")

// Op constants name backend operations for error context.
const (
	OpSelect = "select"
	OpPing   = "admin/ping"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
