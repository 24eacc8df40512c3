package resilience

import (
	"errors"
	"fmt"
	"time"
)

// BreakerOpenError is returned when a call is rejected because the named
// resource is currently quarantined.
type BreakerOpenError struct {
	Name       string
	Failures   int
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *BreakerOpenError) Error() string {
	return fmt.Sprintf("circuit breaker %q is open (failures=%d, retry after %s)",
		e.Name, e.Failures, e.RetryAfter.Round(time.Millisecond))
}

// IsBreakerOpen reports whether err (or anything it wraps) is a breaker-open
// rejection.
func IsBreakerOpen(err error) bool {
	var boe *BreakerOpenError
	return errors.As(err, &boe)
}

// transientError marks an error as a transient fault eligible for retry.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return "transient: " + e.err.Error() }

func (e *transientError) Unwrap() error { return e.err }

// Transient wraps err to mark it as retryable (network faults, rate limits).
// A nil err returns nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err carries the transient marker.
func IsTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}
