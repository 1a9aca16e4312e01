package booking

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Domenick1991/compoundaccess/internal/domain"
	"github.com/Domenick1991/compoundaccess/internal/kafka"
	"github.com/Domenick1991/compoundaccess/internal/repository"
	"github.com/Domenick1991/compoundaccess/internal/service/availability"
	"github.com/google/uuid"
)

const (
	defaultLockAttempts   = 5
	defaultLockRetryDelay = 20 * time.Millisecond
)

type BookingUseCase interface {
	ListAvailableSlots(ctx context.Context, amenityID string, date time.Time) ([]domain.TimeSlot, error)
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	GetBooking(ctx context.Context, id string) (*domain.Booking, error)
	ConfirmBooking(ctx context.Context, id string) (*domain.Booking, error)
	CancelBooking(ctx context.Context, id string) (*domain.Booking, error)
	CompletePastBookings(ctx context.Context) ([]domain.Booking, error)
}

// AmenitySource is satisfied by the amenity repository and the cached amenity service.
type AmenitySource interface {
	GetByID(ctx context.Context, id string) (*domain.Amenity, error)
}

// Cache serializes commits per amenity and date. AcquireScheduleLock returns
// an empty token when the lock is held elsewhere; only the holder's token
// releases it.
type Cache interface {
	AcquireScheduleLock(ctx context.Context, amenityID string, date time.Time, ttl time.Duration) (string, error)
	ReleaseScheduleLock(ctx context.Context, amenityID string, date time.Time, token string) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	bookings           repository.BookingRepository
	amenities          AmenitySource
	cache              Cache
	producer           Producer
	eventsTopic        string
	notificationsTopic string
	lockTTL            time.Duration
	lockAttempts       int
	lockRetryDelay     time.Duration
	loc                *time.Location
	now                func() time.Time
}

type CreateBookingInput struct {
	AmenityID  string           `json:"amenity_id"`
	ResidentID string           `json:"resident_id"`
	UnitNumber string           `json:"unit_number"`
	Date       string           `json:"date"`
	StartTime  domain.TimeOfDay `json:"start_time"`
	EndTime    domain.TimeOfDay `json:"end_time"`
	GuestCount int              `json:"guest_count"`
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

// WithLocation sets the compound time zone that booking dates and times are expressed in.
func WithLocation(loc *time.Location) BookingServiceOption {
	return func(s *BookingService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	amenities AmenitySource,
	cache Cache,
	producer Producer,
	eventsTopic string,
	lockTTL time.Duration,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:       bookings,
		amenities:      amenities,
		cache:          cache,
		producer:       producer,
		eventsTopic:    eventsTopic,
		lockTTL:        lockTTL,
		lockAttempts:   defaultLockAttempts,
		lockRetryDelay: defaultLockRetryDelay,
		loc:            time.UTC,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *BookingService) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

func (s *BookingService) location() *time.Location {
	if s.loc == nil {
		return time.UTC
	}
	return s.loc
}

func (s *BookingService) ListAvailableSlots(ctx context.Context, amenityID string, date time.Time) ([]domain.TimeSlot, error) {
	amenity, err := s.amenities.GetByID(ctx, amenityID)
	if err != nil {
		return nil, err
	}
	existing, err := s.bookings.ListBlocking(ctx, amenityID, date)
	if err != nil {
		return nil, err
	}

	now, loc := s.clock(), s.location()
	slots := []domain.TimeSlot{}
	for slot := range availability.ComputeAvailableSlots(amenity, existing, date) {
		if availability.InWindow(amenity, slot, now, loc) {
			slots = append(slots, slot)
		}
	}
	return slots, nil
}

func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	if input.AmenityID == "" || input.ResidentID == "" || input.UnitNumber == "" {
		return nil, fmt.Errorf("%w: amenity, resident and unit number are required", domain.ErrInvalidInput)
	}
	date, err := domain.ParseDate(input.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: date: %v", domain.ErrInvalidInput, err)
	}

	amenity, err := s.amenities.GetByID(ctx, input.AmenityID)
	if err != nil {
		return nil, err
	}
	existing, err := s.bookings.ListBlocking(ctx, input.AmenityID, date)
	if err != nil {
		return nil, err
	}

	req := domain.BookingRequest{
		AmenityID:  input.AmenityID,
		ResidentID: input.ResidentID,
		UnitNumber: input.UnitNumber,
		Date:       date,
		StartTime:  input.StartTime,
		EndTime:    input.EndTime,
		GuestCount: input.GuestCount,
	}
	booking, err := availability.ValidateBookingRequest(amenity, existing, req, s.clock(), s.location())
	if err != nil {
		return nil, err
	}

	if token := s.lockSchedule(ctx, amenity.ID, date); token != "" {
		defer func() {
			if err := s.cache.ReleaseScheduleLock(ctx, amenity.ID, date, token); err != nil {
				log.Printf("WARNING: release schedule lock for amenity %s on %s: %v", amenity.ID, input.Date, err)
			}
		}()
	}

	booking.ID = uuid.NewString()
	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, err
	}

	if err := s.publish(ctx, kafka.EventBookingCreated, booking, amenity.Name); err != nil {
		log.Printf("WARNING: failed to publish %s event for booking %s: %v", kafka.EventBookingCreated, booking.ID, err)
	}
	return booking, nil
}

// lockSchedule takes the amenity/date lock, waiting a few short rounds while it
// is held. It returns "" when the commit has to go ahead unlocked; the bookings
// table's exclusion constraint still rejects overlaps then.
func (s *BookingService) lockSchedule(ctx context.Context, amenityID string, date time.Time) string {
	if s.cache == nil {
		return ""
	}
	for attempt := 1; ; attempt++ {
		token, err := s.cache.AcquireScheduleLock(ctx, amenityID, date, s.lockTTL)
		if err != nil {
			log.Printf("WARNING: acquire schedule lock for amenity %s on %s: %v", amenityID, date.Format(domain.DateLayout), err)
			return ""
		}
		if token != "" {
			return token
		}
		if attempt >= s.lockAttempts {
			log.Printf("WARNING: schedule lock for amenity %s on %s still held, committing without it", amenityID, date.Format(domain.DateLayout))
			return ""
		}
		select {
		case <-ctx.Done():
			return ""
		case <-time.After(s.lockRetryDelay):
		}
	}
}

func (s *BookingService) GetBooking(ctx context.Context, id string) (*domain.Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

func (s *BookingService) ConfirmBooking(ctx context.Context, id string) (*domain.Booking, error) {
	updated, err := s.bookings.UpdateStatus(ctx, id, domain.BookingStatusConfirmed, s.clock())
	if err != nil {
		return nil, err
	}
	if err := s.publish(ctx, kafka.EventBookingConfirmed, updated, s.amenityName(ctx, updated.AmenityID)); err != nil {
		log.Printf("WARNING: failed to publish %s event for booking %s: %v", kafka.EventBookingConfirmed, updated.ID, err)
	}
	return updated, nil
}

// CancelBooking frees the booking's slot. Cancelling twice returns the
// cancelled booking unchanged.
func (s *BookingService) CancelBooking(ctx context.Context, id string) (*domain.Booking, error) {
	current, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == domain.BookingStatusCancelled {
		return current, nil
	}

	updated, err := s.bookings.UpdateStatus(ctx, id, domain.BookingStatusCancelled, s.clock())
	if err != nil {
		return nil, err
	}
	if err := s.publish(ctx, kafka.EventBookingCancelled, updated, s.amenityName(ctx, updated.AmenityID)); err != nil {
		log.Printf("WARNING: failed to publish %s event for booking %s: %v", kafka.EventBookingCancelled, updated.ID, err)
	}
	return updated, nil
}

// CompletePastBookings marks pending and confirmed bookings that have ended as completed.
func (s *BookingService) CompletePastBookings(ctx context.Context) ([]domain.Booking, error) {
	completed, err := s.bookings.CompleteEndedBefore(ctx, s.clock().In(s.location()))
	if err != nil {
		return nil, err
	}
	names := make(map[string]string)
	for i := range completed {
		b := &completed[i]
		name, ok := names[b.AmenityID]
		if !ok {
			name = s.amenityName(ctx, b.AmenityID)
			names[b.AmenityID] = name
		}
		if err := s.publish(ctx, kafka.EventBookingCompleted, b, name); err != nil {
			log.Printf("WARNING: failed to publish %s event for booking %s: %v", kafka.EventBookingCompleted, b.ID, err)
		}
	}
	return completed, nil
}

// amenityName is best effort: notifications fall back to a generic name.
func (s *BookingService) amenityName(ctx context.Context, amenityID string) string {
	amenity, err := s.amenities.GetByID(ctx, amenityID)
	if err != nil {
		log.Printf("WARNING: look up amenity %s for event: %v", amenityID, err)
		return ""
	}
	return amenity.Name
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking, amenityName string) error {
	if s.producer == nil || s.eventsTopic == "" {
		return nil
	}
	event := kafka.Event{
		Type:        eventType,
		ResidentID:  booking.ResidentID,
		UnitNumber:  booking.UnitNumber,
		Status:      string(booking.Status),
		BookingID:   booking.ID,
		AmenityID:   booking.AmenityID,
		AmenityName: amenityName,
		Slot:        booking.Slot().String(),
		OccurredAt:  s.clock(),
	}
	if err := s.producer.Publish(ctx, s.eventsTopic, event.Key(), event); err != nil {
		return err
	}
	if s.notificationsTopic != "" {
		return s.producer.Publish(ctx, s.notificationsTopic, event.Key(), event)
	}
	return nil
}

var _ BookingUseCase = (*BookingService)(nil)
