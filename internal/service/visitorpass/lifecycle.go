// Package visitorpass implements the visitor pass state machine. Pending and
// active passes can be checked in, expired or cancelled; used, expired and
// cancelled are terminal. Functions return transitions which the caller
// persists with a compare-and-set on the previous status.
package visitorpass

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/compoundaccess/internal/domain"
	"github.com/google/uuid"
)

type Policy struct {
	// GracePeriod is how long before ExpectedArrival a pass becomes active.
	GracePeriod time.Duration
	// DefaultValidity applies when a pass has no ExpectedDeparture.
	DefaultValidity time.Duration
	// ActivateImmediately activates passes regardless of the arrival window.
	ActivateImmediately bool
}

func DefaultPolicy() Policy {
	return Policy{
		GracePeriod:     30 * time.Minute,
		DefaultValidity: 24 * time.Hour,
	}
}

// PassLookup resolves a pass by id from the authoritative store.
// It returns domain.ErrPassNotFound when no pass exists.
type PassLookup interface {
	GetByID(ctx context.Context, id string) (*domain.VisitorPass, error)
}

func Create(input domain.VisitorPassInput, now time.Time) (*domain.VisitorPass, error) {
	input.VisitorName = strings.TrimSpace(input.VisitorName)
	switch {
	case input.ResidentID == "":
		return nil, fmt.Errorf("%w: resident is required", domain.ErrInvalidInput)
	case input.UnitNumber == "":
		return nil, fmt.Errorf("%w: unit number is required", domain.ErrInvalidInput)
	case input.VisitorName == "":
		return nil, fmt.Errorf("%w: visitor name is required", domain.ErrInvalidInput)
	case input.ExpectedArrival.IsZero():
		return nil, fmt.Errorf("%w: expected arrival is required", domain.ErrInvalidInput)
	case input.ExpectedDeparture != nil && !input.ExpectedDeparture.After(input.ExpectedArrival):
		return nil, fmt.Errorf("%w: expected departure must be after arrival", domain.ErrInvalidInput)
	}

	pass := &domain.VisitorPass{
		ID:                uuid.NewString(),
		ResidentID:        input.ResidentID,
		UnitNumber:        input.UnitNumber,
		CompoundName:      input.CompoundName,
		VisitorName:       input.VisitorName,
		VisitorPhone:      input.VisitorPhone,
		VisitPurpose:      input.VisitPurpose,
		ExpectedArrival:   input.ExpectedArrival,
		ExpectedDeparture: input.ExpectedDeparture,
		Status:            domain.PassStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	payload, err := EncodePayload(pass)
	if err != nil {
		return nil, err
	}
	pass.QRPayload = payload
	return pass, nil
}

// Transition validates a move of pass to status to. Passes in a terminal
// state report domain.ErrAlreadyTerminal.
func Transition(pass *domain.VisitorPass, to domain.PassStatus, now time.Time) (domain.PassTransition, error) {
	if pass.Status.IsTerminal() {
		return domain.PassTransition{}, fmt.Errorf("%w: %s", domain.ErrAlreadyTerminal, pass.Status)
	}
	if !pass.Status.CanTransitionTo(to) {
		return domain.PassTransition{}, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, pass.Status, to)
	}
	return domain.PassTransition{PassID: pass.ID, From: pass.Status, To: to, At: now}, nil
}

// Activate moves a pending pass to active once the arrival window opens.
func Activate(pass *domain.VisitorPass, now time.Time, policy Policy) (domain.PassTransition, bool) {
	if pass.Status != domain.PassStatusPending {
		return domain.PassTransition{}, false
	}
	if !policy.ActivateImmediately && now.Before(pass.ExpectedArrival.Add(-policy.GracePeriod)) {
		return domain.PassTransition{}, false
	}
	tr, err := Transition(pass, domain.PassStatusActive, now)
	return tr, err == nil
}

// Expire moves an unused pass past its validity window to expired.
func Expire(pass *domain.VisitorPass, now time.Time, policy Policy) (domain.PassTransition, bool) {
	if pass.Status.IsTerminal() || !now.After(pass.ValidUntil(policy.DefaultValidity)) {
		return domain.PassTransition{}, false
	}
	tr, err := Transition(pass, domain.PassStatusExpired, now)
	return tr, err == nil
}

func Cancel(pass *domain.VisitorPass, now time.Time) (domain.PassTransition, error) {
	return Transition(pass, domain.PassStatusCancelled, now)
}

// CheckIn validates a scanned payload against the authoritative pass.
// The status embedded in the payload is ignored.
func CheckIn(ctx context.Context, lookup PassLookup, scanned string, now time.Time) (*domain.CheckInResult, error) {
	payload, err := ParsePayload(scanned)
	if err != nil {
		return nil, err
	}

	pass, err := lookup.GetByID(ctx, payload.ID)
	if err != nil {
		if errors.Is(err, domain.ErrPassNotFound) {
			return nil, domain.ErrPassNotFound
		}
		return nil, fmt.Errorf("lookup pass %s: %w", payload.ID, err)
	}
	if pass == nil {
		return nil, domain.ErrPassNotFound
	}
	if terminal := domain.TerminalPassError(pass.Status); terminal != nil {
		return nil, terminal
	}

	tr, err := Transition(pass, domain.PassStatusUsed, now)
	if err != nil {
		return nil, err
	}
	checkedIn := *pass
	tr.Apply(&checkedIn)
	return &domain.CheckInResult{Pass: checkedIn, Transition: tr}, nil
}
