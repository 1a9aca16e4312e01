package passes

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Domenick1991/compoundaccess/internal/domain"
	"github.com/Domenick1991/compoundaccess/internal/kafka"
	"github.com/Domenick1991/compoundaccess/internal/repository"
	"github.com/Domenick1991/compoundaccess/internal/service/visitorpass"
)

type PassUseCase interface {
	IssuePass(ctx context.Context, input IssuePassInput) (*domain.VisitorPass, error)
	GetPass(ctx context.Context, id string) (*domain.VisitorPass, error)
	CheckIn(ctx context.Context, scanned string) (*domain.CheckInResult, error)
	CancelPass(ctx context.Context, id string) (*domain.VisitorPass, error)
	ActivateDuePasses(ctx context.Context) ([]domain.VisitorPass, error)
	ExpireOverduePasses(ctx context.Context) ([]domain.VisitorPass, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type PassService struct {
	passes             repository.VisitorPassRepository
	producer           Producer
	eventsTopic        string
	notificationsTopic string
	policy             visitorpass.Policy
	now                func() time.Time
}

type IssuePassInput struct {
	ResidentID        string     `json:"resident_id"`
	UnitNumber        string     `json:"unit_number"`
	CompoundName      string     `json:"compound_name"`
	VisitorName       string     `json:"visitor_name"`
	VisitorPhone      string     `json:"visitor_phone"`
	VisitPurpose      string     `json:"visit_purpose"`
	ExpectedArrival   time.Time  `json:"expected_arrival"`
	ExpectedDeparture *time.Time `json:"expected_departure"`
}

type PassServiceOption func(*PassService)

func WithNotificationsTopic(topic string) PassServiceOption {
	return func(s *PassService) {
		s.notificationsTopic = topic
	}
}

func WithClock(now func() time.Time) PassServiceOption {
	return func(s *PassService) {
		s.now = now
	}
}

func NewPassService(passes repository.VisitorPassRepository, producer Producer, eventsTopic string, policy visitorpass.Policy, opts ...PassServiceOption) *PassService {
	service := &PassService{
		passes:      passes,
		producer:    producer,
		eventsTopic: eventsTopic,
		policy:      policy,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *PassService) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

// IssuePass creates a pass and activates it right away when the arrival
// window is already open.
func (s *PassService) IssuePass(ctx context.Context, input IssuePassInput) (*domain.VisitorPass, error) {
	now := s.clock()
	pass, err := visitorpass.Create(domain.VisitorPassInput{
		ResidentID:        input.ResidentID,
		UnitNumber:        input.UnitNumber,
		CompoundName:      input.CompoundName,
		VisitorName:       input.VisitorName,
		VisitorPhone:      input.VisitorPhone,
		VisitPurpose:      input.VisitPurpose,
		ExpectedArrival:   input.ExpectedArrival,
		ExpectedDeparture: input.ExpectedDeparture,
	}, now)
	if err != nil {
		return nil, err
	}

	if tr, ok := visitorpass.Activate(pass, now, s.policy); ok {
		tr.Apply(pass)
		if pass.QRPayload, err = visitorpass.EncodePayload(pass); err != nil {
			return nil, err
		}
	}

	if err := s.passes.Create(ctx, pass); err != nil {
		return nil, err
	}

	s.publish(ctx, kafka.EventPassIssued, pass)
	return pass, nil
}

func (s *PassService) GetPass(ctx context.Context, id string) (*domain.VisitorPass, error) {
	return s.passes.GetByID(ctx, id)
}

// CheckIn admits the visitor holding the scanned payload. Of two concurrent
// scans of one pass exactly one succeeds; the other gets
// domain.ErrAlreadyCheckedIn.
func (s *PassService) CheckIn(ctx context.Context, scanned string) (*domain.CheckInResult, error) {
	result, err := visitorpass.CheckIn(ctx, s.passes, scanned, s.clock())
	if err != nil {
		return nil, err
	}

	stored, err := s.passes.ApplyTransition(ctx, result.Transition)
	if err != nil {
		if errors.Is(err, repository.ErrStatusChanged) {
			return nil, s.lostRace(ctx, result.Transition.PassID, err)
		}
		return nil, err
	}
	result.Pass = *stored

	log.Printf("pass %s checked in for unit %s", stored.ID, stored.UnitNumber)
	s.publish(ctx, kafka.EventPassCheckedIn, stored)
	return result, nil
}

// CancelPass revokes a pass that has not reached a terminal state.
func (s *PassService) CancelPass(ctx context.Context, id string) (*domain.VisitorPass, error) {
	pass, err := s.passes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tr, err := visitorpass.Cancel(pass, s.clock())
	if err != nil {
		return nil, err
	}

	stored, err := s.passes.ApplyTransition(ctx, tr)
	if err != nil {
		if errors.Is(err, repository.ErrStatusChanged) {
			return nil, fmt.Errorf("%w: status changed during cancel", domain.ErrAlreadyTerminal)
		}
		return nil, err
	}

	s.publish(ctx, kafka.EventPassCancelled, stored)
	return stored, nil
}

// ActivateDuePasses moves pending passes whose arrival window has opened to active.
func (s *PassService) ActivateDuePasses(ctx context.Context) ([]domain.VisitorPass, error) {
	now := s.clock()
	due, err := s.passes.ListPendingArrivingBefore(ctx, now.Add(s.policy.GracePeriod))
	if err != nil {
		return nil, err
	}

	activated := make([]domain.VisitorPass, 0, len(due))
	for i := range due {
		tr, ok := visitorpass.Activate(&due[i], now, s.policy)
		if !ok {
			continue
		}
		if stored, ok := s.sweep(ctx, tr); ok {
			activated = append(activated, *stored)
			s.publish(ctx, kafka.EventPassActivated, stored)
		}
	}
	return activated, nil
}

// ExpireOverduePasses expires pending and active passes past their validity.
func (s *PassService) ExpireOverduePasses(ctx context.Context) ([]domain.VisitorPass, error) {
	now := s.clock()
	overdue, err := s.passes.ListOverdue(ctx, now, s.policy.DefaultValidity)
	if err != nil {
		return nil, err
	}

	expired := make([]domain.VisitorPass, 0, len(overdue))
	for i := range overdue {
		tr, ok := visitorpass.Expire(&overdue[i], now, s.policy)
		if !ok {
			continue
		}
		if stored, ok := s.sweep(ctx, tr); ok {
			expired = append(expired, *stored)
			s.publish(ctx, kafka.EventPassExpired, stored)
		}
	}
	return expired, nil
}

// sweep applies a background transition. A pass that changed in the
// meantime, e.g. was checked in, is skipped.
func (s *PassService) sweep(ctx context.Context, tr domain.PassTransition) (*domain.VisitorPass, bool) {
	stored, err := s.passes.ApplyTransition(ctx, tr)
	if err != nil {
		if !errors.Is(err, repository.ErrStatusChanged) {
			log.Printf("apply %s -> %s to pass %s: %v", tr.From, tr.To, tr.PassID, err)
		}
		return nil, false
	}
	return stored, true
}

// lostRace reports why a check-in lost its compare-and-set.
func (s *PassService) lostRace(ctx context.Context, id string, cause error) error {
	current, err := s.passes.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if terminal := domain.TerminalPassError(current.Status); terminal != nil {
		return terminal
	}
	return fmt.Errorf("check in pass %s: %w", id, cause)
}

func (s *PassService) publish(ctx context.Context, eventType string, pass *domain.VisitorPass) {
	if s.producer == nil || s.eventsTopic == "" {
		return
	}
	event := kafka.Event{
		Type:         eventType,
		ResidentID:   pass.ResidentID,
		UnitNumber:   pass.UnitNumber,
		CompoundName: pass.CompoundName,
		Status:       string(pass.Status),
		PassID:       pass.ID,
		VisitorName:  pass.VisitorName,
		OccurredAt:   s.clock(),
		EntryTime:    pass.EntryTime,
	}
	topics := []string{s.eventsTopic}
	if s.notificationsTopic != "" {
		topics = append(topics, s.notificationsTopic)
	}
	for _, topic := range topics {
		if err := s.producer.Publish(ctx, topic, event.Key(), event); err != nil {
			log.Printf("WARNING: failed to publish %s event for pass %s: %v", eventType, pass.ID, err)
			return
		}
	}
}

var _ PassUseCase = (*PassService)(nil)
