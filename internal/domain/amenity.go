package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ConfirmationPolicy string

const (
	// ConfirmManual keeps every new booking pending until an administrator confirms it.
	ConfirmManual ConfirmationPolicy = "manual"
	// ConfirmAutoFree confirms bookings on amenities without a price.
	ConfirmAutoFree ConfirmationPolicy = "auto_free"
	ConfirmAuto     ConfirmationPolicy = "auto"
)

type OpeningHours struct {
	Open  TimeOfDay `json:"open"`
	Close TimeOfDay `json:"close"`
}

func (h OpeningHours) Contains(start, end TimeOfDay) bool {
	return start >= h.Open && end <= h.Close
}

// WeeklyHours maps a weekday to its opening hours. A missing weekday is closed.
type WeeklyHours map[time.Weekday]OpeningHours

// MarshalJSON keys the hours by weekday name ("Saturday"), the form the API returns.
func (w WeeklyHours) MarshalJSON() ([]byte, error) {
	named := make(map[string]OpeningHours, len(w))
	for day, h := range w {
		named[day.String()] = h
	}
	return json.Marshal(named)
}

// UnmarshalJSON accepts weekday names in any case ("saturday") as well as
// time.Weekday numbers ("6", Sunday is "0").
func (w *WeeklyHours) UnmarshalJSON(b []byte) error {
	var raw map[string]OpeningHours
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	hours := make(WeeklyHours, len(raw))
	for key, h := range raw {
		day, err := parseWeekday(key)
		if err != nil {
			return err
		}
		hours[day] = h
	}
	*w = hours
	return nil
}

func parseWeekday(s string) (time.Weekday, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n < int(time.Sunday) || n > int(time.Saturday) {
			return 0, fmt.Errorf("invalid weekday %q", s)
		}
		return time.Weekday(n), nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(s, d.String()) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("invalid weekday %q", s)
}

func (w WeeklyHours) For(date time.Time) (OpeningHours, bool) {
	h, ok := w[date.Weekday()]
	if !ok || h.Open >= h.Close {
		return OpeningHours{}, false
	}
	return h, true
}

type Amenity struct {
	ID                 string
	Name               string
	CompoundName       string
	Capacity           int
	OperatingHours     WeeklyHours
	AdvanceBookingDays int
	MaxBookingHours    int
	SlotMinutes        int
	PricePerHour       decimal.NullDecimal
	ConfirmationPolicy ConfirmationPolicy
	IsActive           bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (a *Amenity) MaxDuration() time.Duration {
	return time.Duration(a.MaxBookingHours) * time.Hour
}

func (a *Amenity) SlotWidth() time.Duration {
	if a.SlotMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(a.SlotMinutes) * time.Minute
}

func (a *Amenity) IsFree() bool {
	return !a.PricePerHour.Valid || a.PricePerHour.Decimal.IsZero()
}

// InitialStatus is the status a newly accepted booking starts in.
func (a *Amenity) InitialStatus() BookingStatus {
	switch a.ConfirmationPolicy {
	case ConfirmAuto:
		return BookingStatusConfirmed
	case ConfirmAutoFree:
		if a.IsFree() {
			return BookingStatusConfirmed
		}
	}
	return BookingStatusPending
}

// PriceFor returns the price of a reservation of length d, zero for free amenities.
func (a *Amenity) PriceFor(d time.Duration) decimal.Decimal {
	if a.IsFree() {
		return decimal.Zero
	}
	hours := decimal.NewFromInt(int64(d / time.Second)).Div(decimal.NewFromInt(3600))
	return a.PricePerHour.Decimal.Mul(hours).Round(2)
}
