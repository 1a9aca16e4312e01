package domain

import (
	"errors"
	"fmt"
)

// Booking rejections, in validation order.
var (
	ErrDateOutOfWindow       = errors.New("booking date is outside the advance booking window")
	ErrInvalidDuration       = errors.New("invalid booking duration")
	ErrOutsideOperatingHours = errors.New("booking is outside operating hours")
	ErrCapacityExceeded      = errors.New("guest count exceeds amenity capacity")
	ErrAmenityInactive       = errors.New("amenity is not accepting bookings")
	ErrSlotConflict          = errors.New("time slot already booked")
)

// Visitor pass outcomes.
var (
	ErrInvalidPassFormat = errors.New("invalid pass format")
	ErrPassNotFound      = errors.New("pass not found")
	ErrPassCancelled     = errors.New("pass has been cancelled")
	ErrPassExpired       = errors.New("pass has expired")
	ErrAlreadyCheckedIn  = errors.New("pass already checked in")
	ErrAlreadyTerminal   = errors.New("pass is already in a terminal state")
)

var (
	ErrAmenityNotFound   = errors.New("amenity not found")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidInput      = errors.New("invalid input")
)

// ConflictError names the existing booking a request collides with.
type ConflictError struct {
	Existing TimeSlot
	// BookingID is empty when the conflict was detected by the database constraint.
	BookingID string
}

func (e *ConflictError) Error() string {
	if e.Existing.Start == e.Existing.End {
		return ErrSlotConflict.Error()
	}
	return fmt.Sprintf("%s: overlaps %s", ErrSlotConflict, e.Existing)
}

func (e *ConflictError) Unwrap() error {
	return ErrSlotConflict
}

// TerminalPassError maps a terminal pass status to its check-in error.
func TerminalPassError(s PassStatus) error {
	switch s {
	case PassStatusUsed:
		return ErrAlreadyCheckedIn
	case PassStatusExpired:
		return ErrPassExpired
	case PassStatusCancelled:
		return ErrPassCancelled
	default:
		return nil
	}
}
