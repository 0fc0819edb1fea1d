package domain

import (
	"errors"
	"fmt"
)

// Failure categories. Every error returned by the services matches exactly
// one of these with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrNotAvailable      = errors.New("not available")
	ErrInvalidValidation = errors.New("invalid value")
	ErrUnknownState      = errors.New("unknown state")
	ErrConflict          = errors.New("conflict")
)

// Refinements of the categories above.
var (
	ErrForbidden       = fmt.Errorf("%w: access denied", ErrNotFound)
	ErrSelfBooking     = fmt.Errorf("%w: owner cannot book own item", ErrNotFound)
	ErrNoItems         = fmt.Errorf("%w: user has no items", ErrNotFound)
	ErrAlreadyDecided  = fmt.Errorf("%w: booking already decided", ErrNotAvailable)
	ErrInvalidInterval = fmt.Errorf("%w: end must be after start", ErrInvalidValidation)
	ErrInvalidDecision = fmt.Errorf("%w: approved must be true or false", ErrInvalidValidation)
	ErrNotEligible     = fmt.Errorf("%w: user has no finished booking of this item", ErrInvalidValidation)
)

// UnknownStateError carries the rejected view name.
type UnknownStateError struct {
	State string
}

func (e *UnknownStateError) Error() string {
	return "Unknown state: " + e.State
}

func (e *UnknownStateError) Unwrap() error {
	return ErrUnknownState
}

func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func NotAvailablef(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotAvailable, fmt.Sprintf(format, args...))
}

func Invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidValidation, fmt.Sprintf(format, args...))
}
