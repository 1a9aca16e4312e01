package domain

import "time"

type PassStatus string

const (
	PassStatusPending   PassStatus = "PENDING"
	PassStatusActive    PassStatus = "ACTIVE"
	PassStatusUsed      PassStatus = "USED"
	PassStatusExpired   PassStatus = "EXPIRED"
	PassStatusCancelled PassStatus = "CANCELLED"
)

var passTransitions = map[PassStatus][]PassStatus{
	PassStatusPending: {PassStatusActive, PassStatusUsed, PassStatusExpired, PassStatusCancelled},
	PassStatusActive:  {PassStatusUsed, PassStatusExpired, PassStatusCancelled},
}

func (s PassStatus) IsTerminal() bool {
	return len(passTransitions[s]) == 0
}

func (s PassStatus) CanTransitionTo(to PassStatus) bool {
	for _, next := range passTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// ScannableStatuses are the statuses a guard may check in.
func ScannableStatuses() []PassStatus {
	return []PassStatus{PassStatusPending, PassStatusActive}
}

type VisitorPass struct {
	ID                string
	ResidentID        string
	UnitNumber        string
	CompoundName      string
	VisitorName       string
	VisitorPhone      string
	VisitPurpose      string
	ExpectedArrival   time.Time
	ExpectedDeparture *time.Time
	QRPayload         string
	Status            PassStatus
	EntryTime         *time.Time
	CancelledAt       *time.Time
	ExpiredAt         *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ValidUntil is the instant after which an unused pass expires.
func (p *VisitorPass) ValidUntil(defaultValidity time.Duration) time.Time {
	if p.ExpectedDeparture != nil {
		return *p.ExpectedDeparture
	}
	return p.ExpectedArrival.Add(defaultValidity)
}

// PassTransition is a status change for the store to apply atomically:
// it must only succeed while the stored status is still From.
type PassTransition struct {
	PassID string
	From   PassStatus
	To     PassStatus
	At     time.Time
}

// Apply copies the transition onto p, stamping the matching timestamp field.
func (t PassTransition) Apply(p *VisitorPass) {
	at := t.At
	p.Status = t.To
	p.UpdatedAt = at
	switch t.To {
	case PassStatusUsed:
		p.EntryTime = &at
	case PassStatusCancelled:
		p.CancelledAt = &at
	case PassStatusExpired:
		p.ExpiredAt = &at
	}
}

type VisitorPassInput struct {
	ResidentID        string
	UnitNumber        string
	CompoundName      string
	VisitorName       string
	VisitorPhone      string
	VisitPurpose      string
	ExpectedArrival   time.Time
	ExpectedDeparture *time.Time
}

// CheckInResult carries what the guard UI shows and what notifications need.
type CheckInResult struct {
	Pass       VisitorPass
	Transition PassTransition
}

var passStatuses = []PassStatus{PassStatusPending, PassStatusActive, PassStatusUsed, PassStatusExpired, PassStatusCancelled}

// Sources lists the statuses from which a pass may move to s.
func (s PassStatus) Sources() []PassStatus {
	var from []PassStatus
	for _, candidate := range passStatuses {
		if candidate.CanTransitionTo(s) {
			from = append(from, candidate)
		}
	}
	return from
}
