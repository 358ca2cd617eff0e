package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the domain layer.
var (
	ErrNotFound   = errors.New("domain: not found")
	ErrConflict   = errors.New("domain: conflict")
	ErrValidation = errors.New("domain: validation failed")
)

// BookingConflictError reports an overlapping active booking. It carries the
// colliding booking so callers can produce an actionable message.
type BookingConflictError struct {
	Existing *Booking
}

func (e *BookingConflictError) Error() string {
	if e.Existing == nil {
		return "domain: booking conflicts with an existing reservation"
	}
	return fmt.Sprintf(
		"domain: booking conflicts with reservation %s (%s - %s)",
		e.Existing.ID,
		e.Existing.StartAt.Format("2006-01-02 15:04"),
		e.Existing.EndAt.Format("15:04"),
	)
}

// Is makes the typed conflict error match errors.Is(err, ErrConflict).
func (e *BookingConflictError) Is(target error) bool {
	return target == ErrConflict
}
