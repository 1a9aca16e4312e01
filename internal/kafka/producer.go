package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	EventBookingCreated   = "booking_created"
	EventBookingConfirmed = "booking_confirmed"
	EventBookingCancelled = "booking_cancelled"
	EventBookingCompleted = "booking_completed"

	EventPassIssued    = "pass_issued"
	EventPassActivated = "pass_activated"
	EventPassCheckedIn = "pass_checked_in"
	EventPassExpired   = "pass_expired"
	EventPassCancelled = "pass_cancelled"
)

// Event is the envelope published for booking and visitor pass changes.
// Only the fields relevant to Type are set.
type Event struct {
	Type         string     `json:"type"`
	ResidentID   string     `json:"resident_id"`
	UnitNumber   string     `json:"unit_number,omitempty"`
	CompoundName string     `json:"compound_name,omitempty"`
	Status       string     `json:"status"`
	BookingID    string     `json:"booking_id,omitempty"`
	AmenityID    string     `json:"amenity_id,omitempty"`
	AmenityName  string     `json:"amenity_name,omitempty"`
	Slot         string     `json:"slot,omitempty"`
	PassID       string     `json:"pass_id,omitempty"`
	VisitorName  string     `json:"visitor_name,omitempty"`
	OccurredAt   time.Time  `json:"occurred_at"`
	EntryTime    *time.Time `json:"entry_time,omitempty"`
}

// Key partitions events by booking or pass so their order is kept.
func (e Event) Key() string {
	if e.BookingID != "" {
		return e.BookingID
	}
	return e.PassID
}

type Producer struct {
	brokers []string
	writer  *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	return &Producer{
		brokers: brokers,
		writer:  writer,
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	log.Printf("published to kafka topic=%s key=%s", topic, key)
	return nil
}

func (p *Producer) PublishWithRetry(ctx context.Context, topic, key string, payload interface{}, maxRetries int) error {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		err := p.Publish(ctx, topic, key, payload)
		if err == nil {
			return nil
		}

		lastErr = err
		log.Printf("publish attempt %d failed: %v", i+1, err)

		if i < maxRetries-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(i+1) * 500 * time.Millisecond):
			}
		}
	}
	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}

// Retrying publishes through PublishWithRetry. Background jobs use it where
// latency does not matter but a dropped event would.
type Retrying struct {
	*Producer
	Attempts int
}

func (r Retrying) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	return r.PublishWithRetry(ctx, topic, key, payload, max(r.Attempts, 1))
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

// CheckConnection dials the first broker and lists its partitions.
func (p *Producer) CheckConnection(ctx context.Context) error {
	if len(p.brokers) == 0 {
		return fmt.Errorf("no kafka brokers configured")
	}
	conn, err := kafka.DialContext(ctx, "tcp", p.brokers[0])
	if err != nil {
		return fmt.Errorf("failed to connect to Kafka: %w", err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions()
	if err != nil {
		return fmt.Errorf("failed to read partitions: %w", err)
	}
	log.Printf("connected to kafka, %d partitions visible", len(partitions))
	return nil
}
