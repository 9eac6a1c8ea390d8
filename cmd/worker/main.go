package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/healthmate/api/internal/bootstrap"
	"github.com/healthmate/api/internal/config"
	"github.com/healthmate/api/internal/email"
	"github.com/healthmate/api/internal/handler/health"
	"github.com/healthmate/api/internal/handler/prometheus"
	"github.com/healthmate/api/internal/service/booking"
	"github.com/healthmate/api/internal/service/event"
	"github.com/healthmate/api/internal/service/notification"
	"github.com/healthmate/api/internal/service/reminder"
	"github.com/healthmate/api/internal/worker"
	"github.com/healthmate/api/pkg/logger"
	"github.com/healthmate/api/pkg/metrics"
	pkgworker "github.com/healthmate/api/pkg/worker"
)

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	baseLogger := logger.Setup(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	workerLogger := baseLogger.WithFields(map[string]interface{}{"worker_id": workerID()})
	loc := cfg.Location()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := bootstrap.OpenStores(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open stores")
	}
	defer stores.Close(context.Background())

	// Initialize Redis broker
	broker, err := bootstrap.OpenBroker(ctx, cfg.Redis, workerLogger.Zerolog())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Redis broker")
	}
	defer broker.Close()

	registry := promclient.NewRegistry()
	appMetrics := metrics.NewMetrics("healthmate", registry)

	mailer := email.NewNoopService()
	if cfg.SMTP.Enabled {
		mailer = email.NewSMTPService(cfg.SMTP)
	}
	notifier := notification.NewService(broker, mailer, appMetrics)

	processor := pkgworker.NewOutboxProcessor(
		stores.Outbox,
		broker,
		pkgworker.OutboxProcessorConfig{
			BatchSize:     cfg.Outbox.BatchSize,
			PollInterval:  cfg.Outbox.PollInterval,
			RetryAttempts: cfg.Outbox.RetryAttempts,
			RetryDelay:    cfg.Outbox.RetryDelay,
			MaxRetries:    cfg.Outbox.MaxRetries,
		},
		workerLogger,
		appMetrics,
		worker.AppointmentNotifier(notifier),
	)

	bookingSvc := booking.NewService(stores.Doctors, stores.Slots, stores.Appointments, event.NewEventService(stores.Outbox), appMetrics,
		booking.WithLocation(loc),
	)
	reminderSvc := reminder.NewService(stores.Reminders, stores.Patients, notifier, loc)
	cleaner := pkgworker.NewOutboxCleaner(stores.Outbox, cfg.Worker.OutboxCleanupAge, workerLogger)
	scheduler := worker.NewScheduler(cfg.Worker, loc, bookingSvc, reminderSvc, cleaner, workerLogger)

	// Setup health check endpoints
	checks := stores.Checks()
	checks["redis"] = broker.Ping
	srv := healthServer(cfg.Worker.HealthPort, health.NewHandler(checks), prometheus.New(registry))
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Health check server failed")
			stop()
		}
	}()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		processor.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := scheduler.Start(ctx); err != nil {
			log.Error().Err(err).Msg("Scheduler failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	wg.Wait()
}

func healthServer(port int, h *health.Handler, metricsHandler *prometheus.Handler) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	h.RegisterRoutes(engine.Group(""))
	metricsHandler.RegisterRoutes(engine.Group(""))

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func workerID() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return fmt.Sprintf("worker-%s-%d", hostname, os.Getpid())
}
