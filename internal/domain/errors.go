package domain

import (
	"errors"
	"strings"
)

var (
	// ErrUpstreamUnavailable marks a failed or malformed third-party fetch.
	// It degrades the affected fields and is never returned to callers.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrInsufficientSeriesData marks a series with too few points to
	// interpolate or bracket.
	ErrInsufficientSeriesData = errors.New("insufficient series data")
	// ErrValidation marks a record missing a mandatory field.
	ErrValidation = errors.New("validation failed")
	// ErrStorage marks a failure of the record store.
	ErrStorage = errors.New("storage failure")
)

// ValidationError lists the mandatory fields a record is missing or has
// malformed. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
