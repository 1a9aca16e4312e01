package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled, BookingStatusCompleted},
	BookingStatusConfirmed: {BookingStatusCancelled, BookingStatusCompleted},
}

// IsBlocking reports whether a booking in this status occupies the schedule.
func (s BookingStatus) IsBlocking() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

func (s BookingStatus) IsTerminal() bool {
	return len(bookingTransitions[s]) == 0
}

func (s BookingStatus) CanTransitionTo(to BookingStatus) bool {
	for _, next := range bookingTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// BlockingBookingStatuses lists the statuses that participate in conflict checks.
func BlockingBookingStatuses() []BookingStatus {
	return []BookingStatus{BookingStatusPending, BookingStatusConfirmed}
}

type Booking struct {
	ID          string
	AmenityID   string
	ResidentID  string
	UnitNumber  string
	Date        time.Time
	StartTime   TimeOfDay
	EndTime     TimeOfDay
	GuestCount  int
	Status      BookingStatus
	TotalPrice  decimal.Decimal
	CancelledAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (b *Booking) Slot() TimeSlot {
	return TimeSlot{Date: b.Date, Start: b.StartTime, End: b.EndTime}
}

func (b *Booking) Duration() time.Duration {
	return time.Duration(b.EndTime - b.StartTime)
}

// BookingRequest is a proposed reservation before validation.
type BookingRequest struct {
	AmenityID  string
	ResidentID string
	UnitNumber string
	Date       time.Time
	StartTime  TimeOfDay
	EndTime    TimeOfDay
	GuestCount int
}

var bookingStatuses = []BookingStatus{BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled, BookingStatusCompleted}

// Sources lists the statuses from which a booking may move to s.
func (s BookingStatus) Sources() []BookingStatus {
	var from []BookingStatus
	for _, candidate := range bookingStatuses {
		if candidate.CanTransitionTo(s) {
			from = append(from, candidate)
		}
	}
	return from
}
