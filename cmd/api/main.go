package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/healthmate/api/internal/bootstrap"
	"github.com/healthmate/api/internal/config"
	bookingHandler "github.com/healthmate/api/internal/handler/booking"
	dashboardHandler "github.com/healthmate/api/internal/handler/dashboard"
	doctorHandler "github.com/healthmate/api/internal/handler/doctor"
	"github.com/healthmate/api/internal/handler/health"
	"github.com/healthmate/api/internal/handler/profile"
	"github.com/healthmate/api/internal/handler/prometheus"
	"github.com/healthmate/api/internal/handler/record"
	reminderHandler "github.com/healthmate/api/internal/handler/reminder"
	"github.com/healthmate/api/internal/middleware"
	"github.com/healthmate/api/internal/router"
	bookingService "github.com/healthmate/api/internal/service/booking"
	dashboardService "github.com/healthmate/api/internal/service/dashboard"
	doctorService "github.com/healthmate/api/internal/service/doctor"
	eventService "github.com/healthmate/api/internal/service/event"
	medicalService "github.com/healthmate/api/internal/service/medical"
	patientService "github.com/healthmate/api/internal/service/patient"
	reminderService "github.com/healthmate/api/internal/service/reminder"
	"github.com/healthmate/api/pkg/auth"
	"github.com/healthmate/api/pkg/cdn"
	"github.com/healthmate/api/pkg/logger"
	"github.com/healthmate/api/pkg/metrics"
	"github.com/healthmate/api/pkg/security"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.Setup(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	loc := cfg.Location()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize stores
	stores, err := bootstrap.OpenStores(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open stores")
	}
	defer func() {
		if err := stores.Close(context.Background()); err != nil {
			log.Error().Err(err).Msg("failed to close stores")
		}
	}()

	jwtSvc, err := auth.NewJWTService(auth.Config{
		Secret:   cfg.JWT.Secret,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
		Leeway:   cfg.JWT.Leeway,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize token verifier")
	}

	encryptor, err := security.NewPassphraseEncryptor(cfg.Security.EncryptionPassphrase, cfg.Security.EncryptionSalt, "medical-records")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize record encryption")
	}

	registry := promclient.NewRegistry()
	appMetrics := metrics.NewMetrics("healthmate", registry)
	images := cdn.NewBuilder(cfg.CDN.BaseURL, cfg.CDN.CloudName)

	// Initialize services
	eventSvc := eventService.NewEventService(stores.Outbox)
	bookingSvc := bookingService.NewService(stores.Doctors, stores.Slots, stores.Appointments, eventSvc, appMetrics,
		bookingService.WithLocation(loc),
	)
	doctorSvc := doctorService.NewService(stores.Doctors, stores.Slots, images)
	dashboardSvc := dashboardService.NewService(stores.Appointments, stores.Reminders, stores.Slots, loc, cfg.Dashboard.AdminLimit)
	// Reminder delivery runs in the worker; the API only manages reminders.
	reminderSvc := reminderService.NewService(stores.Reminders, stores.Patients, nil, loc)
	patientSvc := patientService.NewService(stores.Patients)
	medicalSvc := medicalService.NewService(stores.Records, encryptor, images)

	// Setup router
	r := router.NewRouter(
		middleware.NewAuthMiddleware(jwtSvc),
		health.NewHandler(stores.Checks()),
		prometheus.New(registry),
		router.RouterConfig{
			Mode:           cfg.Server.Mode,
			RateLimit:      rateLimit(cfg.RateLimit),
			RateBurst:      cfg.RateLimit.Burst,
			RequestTimeout: cfg.Server.RequestTimeout,
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			AllowedMethods: cfg.CORS.AllowedMethods,
			AllowedHeaders: cfg.CORS.AllowedHeaders,
		},
		bookingHandler.NewHandler(bookingSvc),
		doctorHandler.NewHandler(doctorSvc),
		dashboardHandler.NewHandler(dashboardSvc, cfg.Dashboard.HomeLimit),
		reminderHandler.NewHandler(reminderSvc),
		profile.NewHandler(patientSvc),
		record.NewHandler(medicalSvc),
	)
	r.Setup()

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("store", cfg.Store).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	<-ctx.Done()
	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server exited properly")
}

func rateLimit(cfg config.RateLimitConfig) float64 {
	if !cfg.Enabled {
		return 0
	}
	return cfg.RequestsPerSecond
}
