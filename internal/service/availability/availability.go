// Package availability decides which amenity time slots are free and whether a
// proposed reservation may be accepted. It performs no I/O: callers fetch the
// amenity and its bookings, and re-run ValidateBookingRequest at commit time.
package availability

import (
	"fmt"
	"iter"
	"time"

	"github.com/Domenick1991/compoundaccess/internal/domain"
)

// ComputeAvailableSlots yields the free slots of the amenity on date in
// chronological order. The sequence is finite and may be ranged over again.
func ComputeAvailableSlots(amenity *domain.Amenity, existing []domain.Booking, date time.Time) iter.Seq[domain.TimeSlot] {
	date = domain.DateOf(date)
	return func(yield func(domain.TimeSlot) bool) {
		if amenity == nil || !amenity.IsActive {
			return
		}
		hours, open := amenity.OperatingHours.For(date)
		if !open {
			return
		}

		width := domain.TimeOfDay(amenity.SlotWidth())
		for start := hours.Open; start+width <= hours.Close; start += width {
			slot := domain.TimeSlot{Date: date, Start: start, End: start + width}
			if _, taken := FindConflict(amenity.ID, existing, slot); taken {
				continue
			}
			if !yield(slot) {
				return
			}
		}
	}
}

// FindConflict returns the first blocking booking of the amenity that overlaps slot.
// Bookings for other amenities or dates and non-blocking bookings are ignored.
func FindConflict(amenityID string, existing []domain.Booking, slot domain.TimeSlot) (*domain.Booking, bool) {
	for i := range existing {
		b := &existing[i]
		if !b.Status.IsBlocking() {
			continue
		}
		if amenityID != "" && b.AmenityID != "" && b.AmenityID != amenityID {
			continue
		}
		if slot.Overlaps(b.Slot()) {
			return b, true
		}
	}
	return nil, false
}

// InWindow reports whether slot may still be booked at now: its date lies in the
// amenity's advance booking window and, for today, it has not started yet.
func InWindow(amenity *domain.Amenity, slot domain.TimeSlot, now time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	return checkWindow(amenity, domain.DateOf(slot.Date), slot.Start, now, loc) == nil
}

func checkWindow(amenity *domain.Amenity, date time.Time, start domain.TimeOfDay, now time.Time, loc *time.Location) error {
	today := domain.DateOf(now.In(loc))
	last := today.AddDate(0, 0, amenity.AdvanceBookingDays)
	if date.Before(today) || date.After(last) {
		return fmt.Errorf("%w: %s is not between %s and %s", domain.ErrDateOutOfWindow,
			date.Format(domain.DateLayout), today.Format(domain.DateLayout), last.Format(domain.DateLayout))
	}
	if date.Equal(today) && start.On(date, loc).Before(now) {
		return fmt.Errorf("%w: start time %s has already passed", domain.ErrDateOutOfWindow, start)
	}
	return nil
}

// ValidateBookingRequest checks req against the amenity rules and the existing
// bookings. The first failing rule is returned, in this order: date window,
// duration, operating hours, capacity, amenity active, overlap.
// On success the returned booking is ready to persist; its ID is left empty.
func ValidateBookingRequest(amenity *domain.Amenity, existing []domain.Booking, req domain.BookingRequest, now time.Time, loc *time.Location) (*domain.Booking, error) {
	if amenity == nil {
		return nil, domain.ErrAmenityNotFound
	}
	if loc == nil {
		loc = time.UTC
	}

	date := domain.DateOf(req.Date)
	if err := checkWindow(amenity, date, req.StartTime, now, loc); err != nil {
		return nil, err
	}

	if req.StartTime < 0 || req.EndTime > domain.EndOfDay || req.StartTime >= req.EndTime {
		return nil, fmt.Errorf("%w: start %s must be before end %s", domain.ErrInvalidDuration, req.StartTime, req.EndTime)
	}
	duration := time.Duration(req.EndTime - req.StartTime)
	if amenity.MaxBookingHours > 0 && duration > amenity.MaxDuration() {
		return nil, fmt.Errorf("%w: %s exceeds the %dh maximum", domain.ErrInvalidDuration, duration, amenity.MaxBookingHours)
	}

	hours, open := amenity.OperatingHours.For(date)
	if !open {
		return nil, fmt.Errorf("%w: closed on %s", domain.ErrOutsideOperatingHours, date.Weekday())
	}
	if !hours.Contains(req.StartTime, req.EndTime) {
		return nil, fmt.Errorf("%w: open %s-%s", domain.ErrOutsideOperatingHours, hours.Open, hours.Close)
	}

	if req.GuestCount < 1 || req.GuestCount > amenity.Capacity {
		return nil, fmt.Errorf("%w: %d guests, capacity %d", domain.ErrCapacityExceeded, req.GuestCount, amenity.Capacity)
	}

	if !amenity.IsActive {
		return nil, domain.ErrAmenityInactive
	}

	slot := domain.TimeSlot{Date: date, Start: req.StartTime, End: req.EndTime}
	if conflict, found := FindConflict(amenity.ID, existing, slot); found {
		return nil, &domain.ConflictError{Existing: conflict.Slot(), BookingID: conflict.ID}
	}

	return &domain.Booking{
		AmenityID:  amenity.ID,
		ResidentID: req.ResidentID,
		UnitNumber: req.UnitNumber,
		Date:       date,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		GuestCount: req.GuestCount,
		Status:     amenity.InitialStatus(),
		TotalPrice: amenity.PriceFor(duration),
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}
