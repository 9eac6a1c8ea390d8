// Package bootstrap opens the stores and clients shared by the api, worker
// and healthmatectl binaries.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/healthmate/api/internal/config"
	"github.com/healthmate/api/internal/handler/health"
	"github.com/healthmate/api/internal/repository"
	"github.com/healthmate/api/internal/repository/mongodb"
	"github.com/healthmate/api/internal/repository/postgres"
	"github.com/healthmate/api/pkg/messaging/redis"
)

// Stores holds one implementation of every repository. Doctors, slots and
// appointments come from MongoDB when store is "mongo"; the rest always
// live in Postgres.
type Stores struct {
	DB    *sqlx.DB
	Mongo *mongo.Client

	Doctors      repository.DoctorRepository
	Slots        repository.SlotRepository
	Appointments repository.AppointmentRepository
	Reminders    repository.ReminderRepository
	Patients     repository.PatientRepository
	Records      repository.MedicalRecordRepository
	Outbox       repository.OutboxRepository
}

func OpenStores(ctx context.Context, cfg *config.Config) (*Stores, error) {
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	s := &Stores{
		DB:           db,
		Doctors:      postgres.NewDoctorRepository(db),
		Slots:        postgres.NewSlotRepository(db),
		Appointments: postgres.NewAppointmentRepository(db),
		Reminders:    postgres.NewReminderRepository(db),
		Patients:     postgres.NewPatientRepository(db),
		Records:      postgres.NewMedicalRecordRepository(db),
		Outbox:       postgres.NewOutboxRepository(db),
	}

	if cfg.Store == config.StoreMongo {
		client, mdb, err := mongodb.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			db.Close()
			return nil, err
		}
		if err := mongodb.EnsureIndexes(ctx, mdb); err != nil {
			_ = client.Disconnect(ctx)
			db.Close()
			return nil, err
		}
		s.Mongo = client
		s.Doctors = mongodb.NewDoctorRepository(mdb)
		s.Slots = mongodb.NewSlotRepository(mdb)
		s.Appointments = mongodb.NewAppointmentRepository(mdb)
	}

	return s, nil
}

// Checks returns the readiness probes for the open stores.
func (s *Stores) Checks() map[string]health.Check {
	checks := map[string]health.Check{
		"database": s.DB.PingContext,
	}
	if s.Mongo != nil {
		checks["mongo"] = func(ctx context.Context) error {
			return s.Mongo.Ping(ctx, nil)
		}
	}
	return checks
}

func (s *Stores) Close(ctx context.Context) error {
	var errs []error
	if s.Mongo != nil {
		if err := s.Mongo.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("mongo: %w", err))
		}
	}
	if err := s.DB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("postgres: %w", err))
	}
	return errors.Join(errs...)
}

func OpenBroker(ctx context.Context, cfg config.RedisConfig, logger *zerolog.Logger) (*redis.RedisBroker, error) {
	return redis.NewRedisBroker(ctx, redis.Config{
		URL:          cfg.URL,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	}, logger)
}
