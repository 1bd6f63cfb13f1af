package entities

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrExpectationNotMet is returned when a condition did not hold before its timeout
	ErrExpectationNotMet = errors.New("expectation not met")
	// ErrNavigation is returned when the page could not be loaded
	ErrNavigation = errors.New("navigation failed")
	// ErrElementNotFound is returned when an interaction target does not exist
	ErrElementNotFound = errors.New("element not found")
)

// ExpectationError describes an unmet expectation and the last observed state
type ExpectationError struct {
	Expectation string
	Actual      string
	Timeout     time.Duration
	Err         error
}

func (e *ExpectationError) Error() string {
	msg := fmt.Sprintf("expected %s", e.Expectation)
	if e.Timeout > 0 {
		msg += fmt.Sprintf(" within %s", e.Timeout)
	}
	if e.Actual != "" {
		msg += fmt.Sprintf(", last observed: %s", e.Actual)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(" (%v)", e.Err)
	}
	return msg
}

func (e *ExpectationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrExpectationNotMet, e.Err}
	}
	return []error{ErrExpectationNotMet}
}
