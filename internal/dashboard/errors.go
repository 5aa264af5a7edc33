package dashboard

import (
	"errors"
	"fmt"
)

var (
	// ErrNotRegistered is returned when a data key has no registered provider.
	ErrNotRegistered = errors.New("data key not registered")

	// ErrFetchRejected is returned when the worker pool is full and a fetch
	// request is dropped rather than queued.
	ErrFetchRejected = errors.New("fetch rejected: worker pool exhausted")
)

// ValidationError describes a fetched value that failed validation and was
// discarded instead of cached.
type ValidationError struct {
	Key    string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %q: %s", e.Key, e.Reason)
}
