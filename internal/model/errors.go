package model

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks configuration rejected at construction.
	ErrInvalidInput = errors.New("invalid input")
	// ErrMissingData marks a requested range for which no weather samples exist.
	ErrMissingData = errors.New("missing data")
	// ErrCanceled is returned when the caller's context ends a run early.
	ErrCanceled = context.Canceled
)

// ValidationError names the offending field. It matches ErrInvalidInput.
type ValidationError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %g: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// MissingDataError reports the year that produced no samples.
// Year is 0 when the missing range is not a whole year.
type MissingDataError struct {
	Year int
}

func (e *MissingDataError) Error() string {
	if e.Year == 0 {
		return "no weather samples available"
	}
	return fmt.Sprintf("no weather samples for year %d", e.Year)
}

func (e *MissingDataError) Is(target error) bool { return target == ErrMissingData }
