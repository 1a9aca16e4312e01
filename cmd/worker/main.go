package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/compoundaccess/config"
	"github.com/Domenick1991/compoundaccess/internal/cache"
	"github.com/Domenick1991/compoundaccess/internal/kafka"
	"github.com/Domenick1991/compoundaccess/internal/notify"
	"github.com/Domenick1991/compoundaccess/internal/repository"
	"github.com/Domenick1991/compoundaccess/internal/service/amenities"
	"github.com/Domenick1991/compoundaccess/internal/service/booking"
	"github.com/Domenick1991/compoundaccess/internal/service/passes"
	"github.com/Domenick1991/compoundaccess/internal/service/visitorpass"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()
	sweepProducer := kafka.Retrying{Producer: producer, Attempts: 3}
	redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.AmenityCacheTTL())
	defer redisCache.Close()

	amenityService := amenities.NewAmenityService(repository.NewAmenityRepository(pool), redisCache)
	bookingService := booking.NewBookingService(
		repository.NewBookingRepository(pool),
		amenityService,
		redisCache,
		sweepProducer,
		cfg.Kafka.EventsTopic,
		cfg.Booking.LockTTL(),
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		booking.WithLocation(cfg.Booking.Location),
	)
	passService := passes.NewPassService(
		repository.NewVisitorPassRepository(pool),
		sweepProducer,
		cfg.Kafka.EventsTopic,
		visitorpass.Policy{
			GracePeriod:         cfg.Passes.GracePeriod(),
			DefaultValidity:     cfg.Passes.DefaultValidity(),
			ActivateImmediately: cfg.Passes.ActivateImmediately,
		},
		passes.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)

	notifiers := []notify.Notifier{notify.NewLogNotifier(log.New(os.Stdout, "[notify] ", log.LstdFlags))}
	if cfg.Push.Enabled() {
		notifiers = append(notifiers, notify.NewWebPushNotifier(repository.NewPushSubscriptionRepository(pool), cfg.Push))
	} else {
		log.Printf("push keys not configured; notifications are only logged")
	}
	workers := notify.NewWorkerPool(cfg.Worker.NotifierPoolSize, notifiers...)
	workers.Start(ctx)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	go func() {
		if err := consumer.Consume(ctx, workers.Handler()); err != nil && ctx.Err() == nil {
			log.Printf("consumer stopped: %v", err)
		}
	}()

	sweepTicker := time.NewTicker(cfg.Worker.SweepInterval())
	defer sweepTicker.Stop()

	for {
		select {
		case <-sweepTicker.C:
			sweep(ctx, "activate passes", passService.ActivateDuePasses)
			sweep(ctx, "expire passes", passService.ExpireOverduePasses)
			sweep(ctx, "complete bookings", bookingService.CompletePastBookings)
		case <-ctx.Done():
			log.Printf("shutting down worker")
			return
		}
	}
}

func sweep[T any](ctx context.Context, name string, run func(context.Context) ([]T, error)) {
	changed, err := run(ctx)
	if err != nil {
		log.Printf("%s error: %v", name, err)
		return
	}
	if len(changed) > 0 {
		log.Printf("%s: %d updated", name, len(changed))
	}
}
