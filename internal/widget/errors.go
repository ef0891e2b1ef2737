package widget

import (
	"errors"
	"fmt"
)

var (
	ErrCityNotSpecified = errors.New("city not specified")
	ErrSessionNotFound  = errors.New("session not found")
	ErrSuperseded       = errors.New("superseded by a newer search")
)

// ValidationError rejects input before any network call is made.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// LookupError covers upstream failures: transport errors, non-200 statuses and
// payloads missing expected fields.
type LookupError struct {
	City string
	Err  error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup failed for %q: %v", e.City, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }
