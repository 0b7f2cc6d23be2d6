package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pharmacy-api/internal/cache"
	"pharmacy-api/internal/config"
	"pharmacy-api/internal/events"
	"pharmacy-api/internal/services"
	"pharmacy-api/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err == nil {
		err = cfg.ValidateWorker()
	}
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	if err := run(cfg); err != nil {
		slog.Error("Payment worker stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pg, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pg.Close()

	conn, err := events.Dial(ctx, cfg.AMQPURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	pub, err := events.NewAMQPPublisher(conn, events.OrderEventsQueue)
	if err != nil {
		return err
	}
	defer pub.Close()

	deps := services.Deps{
		Store:     pg,
		Publisher: events.NewBreakerPublisher(pub, 5, 30*time.Second),
	}
	// Redis is only used here to drop stale dashboard stats.
	if redisClient, err := cache.NewClient(ctx, cfg.RedisAddr); err != nil {
		slog.Warn("Redis unavailable, dashboard stats will expire on their own", "error", err)
	} else {
		defer redisClient.Close()
		deps.Cache = redisClient
	}
	svc := services.New(deps)

	slog.Info("Starting payment worker", "queue", events.PaymentUpdatesQueue)
	return events.ConsumePaymentUpdates(ctx, conn, events.PaymentUpdatesQueue, func(ctx context.Context, u events.PaymentUpdate) error {
		_, err := svc.ApplyPaymentUpdate(ctx, u)
		if errors.Is(err, services.ErrInvalidInput) || errors.Is(err, services.ErrNotFound) {
			// Redelivery cannot fix these.
			slog.Warn("Discarding payment update", "order_id", u.OrderID, "error", err)
			return nil
		}
		if err != nil {
			return fmt.Errorf("apply payment update for order %s: %w", u.OrderID, err)
		}
		return nil
	})
}
