package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/compoundaccess/api"
	"github.com/Domenick1991/compoundaccess/config"
	"github.com/Domenick1991/compoundaccess/internal/bootstrap"
	"github.com/Domenick1991/compoundaccess/internal/cache"
	"github.com/Domenick1991/compoundaccess/internal/kafka"
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

	if cfg.Database.Migrate {
		if err := repository.Migrate(ctx, pool); err != nil {
			log.Fatalf("migrate: %v", err)
		}
	}

	redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.AmenityCacheTTL())
	defer redisCache.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()
	if err := producer.CheckConnection(ctx); err != nil {
		log.Printf("WARNING: kafka unavailable, events will be dropped: %v", err)
	}

	amenityService := amenities.NewAmenityService(repository.NewAmenityRepository(pool), redisCache)
	bookingService := booking.NewBookingService(
		repository.NewBookingRepository(pool),
		amenityService,
		redisCache,
		producer,
		cfg.Kafka.EventsTopic,
		cfg.Booking.LockTTL(),
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		booking.WithLocation(cfg.Booking.Location),
	)
	passService := passes.NewPassService(
		repository.NewVisitorPassRepository(pool),
		producer,
		cfg.Kafka.EventsTopic,
		visitorpass.Policy{
			GracePeriod:         cfg.Passes.GracePeriod(),
			DefaultValidity:     cfg.Passes.DefaultValidity(),
			ActivateImmediately: cfg.Passes.ActivateImmediately,
		},
		passes.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)

	handlers := api.Handlers{
		Amenities: api.NewAmenityHandler(amenityService, bookingService),
		Bookings:  api.NewBookingHandler(bookingService),
		Passes:    api.NewPassHandler(passService),
		Push:      api.NewPushHandler(repository.NewPushSubscriptionRepository(pool)),
	}

	if err := bootstrap.Run(ctx, cfg, handlers); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
