package notify

import (
	"context"
	"log"

	"github.com/Domenick1991/compoundaccess/internal/kafka"
	kafkaGo "github.com/segmentio/kafka-go"
)

// WorkerPool fans messages out to the notifiers on a fixed number of goroutines.
type WorkerPool struct {
	size      int
	jobs      chan Message
	notifiers []Notifier
}

func NewWorkerPool(size int, notifiers ...Notifier) *WorkerPool {
	if size < 1 {
		size = 1
	}
	return &WorkerPool{
		size:      size,
		jobs:      make(chan Message, size),
		notifiers: notifiers,
	}
}

// Start launches the workers. They stop when ctx is done.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Notifier worker %d started", id)
	for {
		select {
		case msg := <-wp.jobs:
			wp.deliver(ctx, msg)
		case <-ctx.Done():
			log.Printf("Notifier worker %d shutting down", id)
			return
		}
	}
}

func (wp *WorkerPool) deliver(ctx context.Context, msg Message) {
	for _, n := range wp.notifiers {
		if err := n.Notify(ctx, msg); err != nil {
			log.Printf("notify resident %s: %v", msg.ResidentID, err)
		}
	}
}

// Dispatch queues msg, blocking while the pool is saturated.
func (wp *WorkerPool) Dispatch(ctx context.Context, msg Message) error {
	select {
	case wp.jobs <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Handler adapts the pool to a kafka.Consumer. Undecodable messages and
// events with no resident notification are skipped so they are not redelivered.
func (wp *WorkerPool) Handler() func(context.Context, kafkaGo.Message) error {
	return func(ctx context.Context, msg kafkaGo.Message) error {
		event, err := kafka.DecodeEvent(msg)
		if err != nil {
			log.Printf("skip message: %v", err)
			return nil
		}
		notification, ok := MessageFor(event)
		if !ok {
			return nil
		}
		return wp.Dispatch(ctx, notification)
	}
}
