package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shareit/internal/api"
	"shareit/internal/config"
	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/logging"
	"shareit/internal/metrics"
	"shareit/internal/repository"
	"shareit/internal/seed"
	"shareit/internal/service"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	db, err := initDatabase(cfg, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient := initRedis(cfg, &logger)
	defer (func() { _ = repository.Close(redisClient) })()

	bus := initEventBus(&logger)
	svc := api.Services{
		Bookings: service.NewBookingService(db, bus, &logger),
		Queries:  service.NewBookingQueryService(db, &logger),
		Items:    service.NewItemService(db, &logger),
		Comments: service.NewCommentService(db, bus, &logger),
		Users:    service.NewUserService(db, &logger),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := applySeed(ctx, cfg, svc, &logger); err != nil {
		return err
	}

	var grpcServer *api.GRPCServer
	if cfg.API.GRPC.Enabled {
		grpcServer, err = api.NewGRPCServer(cfg, svc, &logger)
		if err != nil {
			logger.Error().Err(err).Msg("create grpc server")
			return err
		}
	}

	httpServer := api.NewHTTPServer(cfg, svc, db, writeLimiter(redisClient, &logger), &logger)

	startMetrics(ctx, cfg, &logger)
	go database.NewSnapshotService(db, cfg.Backup, &logger).Start(ctx)

	return startServers(ctx, grpcServer, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func initDatabase(cfg *config.Config, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return nil, err
	}
	return db, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(context.Background(), redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, using in-memory write quota")
		_ = repository.Close(redisClient)
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// writeLimiter prefers Redis and falls back to process memory while Redis
// is unreachable.
func writeLimiter(client *redis.Client, logger *zerolog.Logger) domain.RateLimitRepository {
	memory := repository.NewMemoryRateLimitRepository()
	if client == nil {
		return memory
	}
	return repository.NewFailoverRateLimitRepository(repository.NewRedisRateLimitRepository(client), memory, logger)
}

func initEventBus(logger *zerolog.Logger) *events.EventBus {
	bus := events.NewEventBus()
	bus.OnError(func(event *events.Event, err error) {
		logger.Error().Err(err).Str("event", event.Type).Int64("event_id", event.ID).Msg("event handler failed")
	})

	bus.SubscribeAll(events.AuditLog(logger), append(events.BookingEventTypes, events.EventCommentAdded)...)
	bus.SubscribeAll(func(event *events.Event) error {
		metrics.IncBookingEvent(event.Type)
		return nil
	}, events.BookingEventTypes...)
	bus.Subscribe(events.EventCommentAdded, func(*events.Event) error {
		metrics.IncComment()
		return nil
	})
	return bus
}

func applySeed(ctx context.Context, cfg *config.Config, svc api.Services, logger *zerolog.Logger) error {
	if cfg.Seed.Path == "" {
		return nil
	}
	fixtures, err := seed.Load(cfg.Seed.Path)
	if err != nil {
		logger.Error().Err(err).Str("seed_path", cfg.Seed.Path).Msg("load seed")
		return err
	}
	_, err = seed.Apply(ctx, svc.Users, svc.Items, fixtures, logger)
	return err
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	metrics.Register()
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func startServers(
	ctx context.Context,
	grpcServer *api.GRPCServer,
	httpServer *api.HTTPServer,
	cfg *config.Config,
	logger *zerolog.Logger,
) error {
	errCh := make(chan error, 2)

	if grpcServer != nil {
		go func() {
			if err := grpcServer.Serve(); err != nil {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	if cfg.API.HTTP.Enabled {
		go func() {
			if err := httpServer.Start(); err != nil {
				errCh <- fmt.Errorf("http server: %w", err)
			}
		}()
	}

	logger.Info().
		Bool("grpc", grpcServer != nil).
		Bool("http", cfg.API.HTTP.Enabled).
		Str("http_addr", httpServer.Addr()).
		Msg("API server started")

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case runErr = <-errCh:
		logger.Error().Err(runErr).Msg("server stopped unexpectedly")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.API.HTTP.ShutdownTimeout)
	defer cancel()

	if grpcServer != nil {
		grpcServer.Shutdown(shutdownCtx)
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}

	logger.Info().Msg("API server stopped")
	return runErr
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
