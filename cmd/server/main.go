package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"fintrack/internal/config"
	"fintrack/internal/database"
	"fintrack/internal/events"
	"fintrack/internal/logging"
	"fintrack/internal/server"
	"fintrack/internal/services"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	cfg := config.Load()

	logger := logging.New(cfg.Log, os.Stdout)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", logging.KeyError, err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("Server exited with error", logging.KeyError, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Initialize(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	publisher := newPublisher(cfg, logger)
	defer publisher.Close()

	srv := server.New(cfg, server.Dependencies{
		DB:        db,
		Publisher: publisher,
		Metrics:   services.NewPrometheusMetrics(prometheus.DefaultRegisterer),
		Gatherer:  prometheus.DefaultGatherer,
		Logger:    logger,
	})

	if cfg.Database.Seed {
		if user, err := srv.DemoData.SeedDemoUser(ctx); err != nil {
			logger.Warn("Failed to seed demo user", logging.KeyError, err)
		} else {
			logger.Info("Demo user ready", "email", user.Email)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(srv.Start)

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return srv.Cleanup.Start(gctx)
	})

	if srv.RateLimiter != nil {
		g.Go(func() error {
			srv.RateLimiter.StartCleanup(gctx)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("Server stopped gracefully")
	return nil
}

// newPublisher connects to the broker when one is configured. A broker that is
// down at start-up disables events rather than the API.
func newPublisher(cfg *config.Config, logger *slog.Logger) events.Publisher {
	if !cfg.EventsEnabled() {
		logger.Info("AMQP_URL not set, domain events disabled")
		return events.NewNoopPublisher()
	}

	amqpPublisher, err := events.NewAMQPPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange, logging.WithComponent(logger, "events"))
	if err != nil {
		logger.Warn("Failed to connect to AMQP broker, domain events disabled", logging.KeyError, err)
		return events.NewNoopPublisher()
	}

	return events.NewBreakerPublisher(amqpPublisher, events.DefaultBreakerConfig())
}
