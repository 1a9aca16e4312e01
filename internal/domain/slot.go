package domain

import "time"

// TimeSlot is a half-open interval [Start, End) on a calendar date.
type TimeSlot struct {
	Date  time.Time
	Start TimeOfDay
	End   TimeOfDay
}

func (s TimeSlot) Overlaps(o TimeSlot) bool {
	return SameDate(s.Date, o.Date) && s.Start < o.End && o.Start < s.End
}

func (s TimeSlot) Duration() time.Duration {
	return time.Duration(s.End - s.Start)
}

func (s TimeSlot) String() string {
	return s.Date.Format(DateLayout) + " " + s.Start.String() + "-" + s.End.String()
}
