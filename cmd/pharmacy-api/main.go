package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pharmacy-api/internal/api"
	"pharmacy-api/internal/auth"
	"pharmacy-api/internal/cache"
	"pharmacy-api/internal/catalog"
	"pharmacy-api/internal/config"
	"pharmacy-api/internal/events"
	"pharmacy-api/internal/realtime"
	"pharmacy-api/internal/services"
	"pharmacy-api/internal/store"
)

type recordStore interface {
	services.Store
	api.Pinger
	Close() error
}

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	if err := run(cfg); err != nil {
		slog.Error("Server shutdown error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting pharmacy API", "port", cfg.HTTPPort)

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	redisClient, err := cache.NewClient(ctx, cfg.RedisAddr)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	slog.Info("Connected to Redis", "addr", cfg.RedisAddr)

	publisher, closePublisher, err := openPublisher(ctx, cfg)
	if err != nil {
		return err
	}
	defer closePublisher()

	products, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return err
	}

	hub := realtime.NewHub(cfg.AllowedOrigins)
	svc := services.New(services.Deps{
		Store:     st,
		Carts:     redisClient,
		Cache:     redisClient,
		Catalog:   products,
		Publisher: publisher,
		Notifier:  hub,
		StatsTTL:  cfg.StatsCacheTTL,
	})

	handler := api.NewHandler(
		svc,
		hub,
		auth.NewMiddleware(cfg.JWTSecret),
		api.NewRateLimiter(redisClient, cfg.RateLimitRequests, cfg.RateLimitWindow),
		map[string]api.Pinger{"store": st, "redis": redisClient},
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:           handler.Routes(api.CORS(cfg.AllowedOrigins)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openStore connects to Postgres, or falls back to the in-memory store when
// no DATABASE_URL is set.
func openStore(ctx context.Context, cfg *config.Config) (recordStore, error) {
	if cfg.DatabaseURL == "" {
		slog.Warn("DATABASE_URL not set, using in-memory store")
		return store.NewMemory(), nil
	}

	pg, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if cfg.MigrateOnStart {
		if err := store.Migrate(ctx, pg.DB()); err != nil {
			_ = pg.Close()
			return nil, err
		}
	}
	return pg, nil
}

func openPublisher(ctx context.Context, cfg *config.Config) (events.Publisher, func(), error) {
	if cfg.AMQPURL == "" {
		slog.Warn("AMQP_URL not set, order events are not published")
		return events.NopPublisher{}, func() {}, nil
	}

	conn, err := events.Dial(ctx, cfg.AMQPURL)
	if err != nil {
		return nil, nil, err
	}
	pub, err := events.NewAMQPPublisher(conn, events.OrderEventsQueue)
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	slog.Info("Publishing order events", "queue", events.OrderEventsQueue)

	closeFn := func() {
		_ = pub.Close()
		_ = conn.Close()
	}
	return events.NewBreakerPublisher(pub, 5, 30*time.Second), closeFn, nil
}
