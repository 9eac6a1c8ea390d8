package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/healthmate/api/internal/config"
	"github.com/healthmate/api/pkg/logger"
	"github.com/healthmate/api/pkg/retry"
)

const outboxCleanupSpec = "30 3 * * *"

type StatusSweeper interface {
	AutoUpdateStatuses(ctx context.Context, patientID string) (int, error)
}

type ReminderDispatcher interface {
	Dispatch(ctx context.Context, at time.Time) (int, error)
}

type OutboxCleaner interface {
	Cleanup(ctx context.Context) (int64, error)
}

// Scheduler runs the periodic jobs of the worker process on cron specs
// evaluated in the configured time zone.
type Scheduler struct {
	cfg       config.WorkerConfig
	sweeper   StatusSweeper
	reminders ReminderDispatcher
	cleaner   OutboxCleaner
	logger    *logger.Logger
	retry     retry.Config
	cron      *cron.Cron
	now       func() time.Time
}

func NewScheduler(
	cfg config.WorkerConfig,
	loc *time.Location,
	sweeper StatusSweeper,
	reminders ReminderDispatcher,
	cleaner OutboxCleaner,
	logger *logger.Logger,
) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cfg:       cfg,
		sweeper:   sweeper,
		reminders: reminders,
		cleaner:   cleaner,
		logger:    logger,
		retry:     retry.DefaultConfig(),
		now:       time.Now,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}
}

// Start registers the jobs and blocks until ctx is done, then waits for
// running jobs to finish.
func (s *Scheduler) Start(ctx context.Context) error {
	jobs := []struct {
		name string
		spec string
		run  func(context.Context) error
	}{
		{"status_sweep", s.cfg.StatusSweepCron, s.RunStatusSweep},
		{"reminder_dispatch", s.cfg.ReminderCron, s.RunReminderDispatch},
		{"outbox_cleanup", outboxCleanupSpec, s.RunOutboxCleanup},
	}

	for _, job := range jobs {
		job := job
		if job.spec == "" {
			continue
		}
		_, err := s.cron.AddFunc(job.spec, func() {
			if err := job.run(ctx); err != nil {
				s.logger.Error(err, "Scheduled job failed", "job", job.name)
			}
		})
		if err != nil {
			return fmt.Errorf("invalid cron spec %q for %s: %w", job.spec, job.name, err)
		}
	}

	s.logger.Info("Starting scheduler", "jobs", len(s.cron.Entries()))
	s.cron.Start()

	<-ctx.Done()
	s.logger.Info("Shutting down scheduler")
	<-s.cron.Stop().Done()
	return nil
}

// RunStatusSweep completes past appointments for every patient.
func (s *Scheduler) RunStatusSweep(ctx context.Context) error {
	var changed int
	err := retry.Do(ctx, s.retry, func(ctx context.Context) error {
		n, err := s.sweeper.AutoUpdateStatuses(ctx, "")
		changed += n
		return err
	})
	if err != nil {
		return fmt.Errorf("status sweep failed: %w", err)
	}
	s.logger.Info("Status sweep finished", "completed", changed)
	return nil
}

func (s *Scheduler) RunReminderDispatch(ctx context.Context) error {
	if _, err := s.reminders.Dispatch(ctx, s.now()); err != nil {
		return fmt.Errorf("reminder dispatch failed: %w", err)
	}
	return nil
}

func (s *Scheduler) RunOutboxCleanup(ctx context.Context) error {
	if s.cleaner == nil {
		return nil
	}
	_, err := s.cleaner.Cleanup(ctx)
	return err
}
