package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/healthmate/api/internal/model"
	"github.com/healthmate/api/internal/repository"
	"github.com/healthmate/api/pkg/logger"
	"github.com/healthmate/api/pkg/messaging"
	"github.com/healthmate/api/pkg/metrics"
	"github.com/healthmate/api/pkg/retry"
)

const maxRetryBackoff = time.Hour

type OutboxProcessorConfig struct {
	BatchSize    int
	PollInterval time.Duration
	// RetryAttempts and RetryDelay shape the in-process publish retry.
	RetryAttempts int
	RetryDelay    time.Duration
	// MaxRetries failed rounds move an event to the dead letter table.
	MaxRetries int
	// Lease hides claimed events from other workers while they are published.
	Lease time.Duration
}

// EventHook runs after an event is published. Hook errors are logged only.
type EventHook func(ctx context.Context, event *model.OutboxEvent) error

type OutboxProcessor struct {
	repo    repository.OutboxRepository
	broker  messaging.Broker
	config  OutboxProcessorConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
	hooks   []EventHook
	now     func() time.Time
}

func NewOutboxProcessor(
	repo repository.OutboxRepository,
	broker messaging.Broker,
	config OutboxProcessorConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
	hooks ...EventHook,
) *OutboxProcessor {
	if config.BatchSize <= 0 {
		panic("BatchSize must be greater than 0")
	}
	if config.PollInterval <= 0 {
		panic("PollInterval must be greater than 0")
	}
	if config.RetryAttempts <= 0 {
		config.RetryAttempts = 1
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = time.Second
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 5
	}
	if config.Lease <= 0 {
		config.Lease = time.Minute
	}

	return &OutboxProcessor{
		repo:    repo,
		broker:  broker,
		config:  config,
		logger:  logger,
		metrics: metrics,
		hooks:   hooks,
		now:     time.Now,
	}
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.logger.Info("Starting outbox processor")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Shutting down outbox processor")
			return
		case <-ticker.C:
			if _, err := p.ProcessOnce(ctx); err != nil {
				p.logger.Error(err, "Failed to process events")
			}
		}
	}
}

// ProcessOnce claims one batch and publishes it. It returns the number of
// events published.
func (p *OutboxProcessor) ProcessOnce(ctx context.Context) (int, error) {
	timer := prometheus.NewTimer(p.metrics.OutboxProcessingLatency)
	defer timer.ObserveDuration()

	claimTimer := prometheus.NewTimer(p.metrics.DatabaseLatency.WithLabelValues("claim_pending_events"))
	events, err := p.repo.ClaimPending(ctx, p.config.BatchSize, p.config.Lease)
	claimTimer.ObserveDuration()
	if err != nil {
		p.metrics.DatabaseOperations.WithLabelValues("claim_pending_events", "error").Inc()
		return 0, fmt.Errorf("failed to claim pending events: %w", err)
	}
	p.metrics.DatabaseOperations.WithLabelValues("claim_pending_events", "success").Inc()
	p.metrics.OutboxQueueSize.Set(float64(len(events)))

	published := 0
	for _, event := range events {
		if ctx.Err() != nil {
			return published, ctx.Err()
		}
		if err := p.processEvent(ctx, event); err != nil {
			p.logger.Error(err, "Failed to process event",
				"event_id", event.ID,
				"event_type", event.EventType)
			continue
		}
		published++
	}

	return published, nil
}

func (p *OutboxProcessor) processEvent(ctx context.Context, event *model.OutboxEvent) error {
	msg := messaging.Message{
		ID:      event.ID,
		Type:    event.EventType,
		Payload: json.RawMessage(event.Payload),
	}

	cfg := retry.Config{
		Attempts:     p.config.RetryAttempts,
		InitialDelay: p.config.RetryDelay,
		MaxDelay:     p.config.RetryDelay * 8,
		Factor:       2,
		OnRetry: func(int, error, time.Duration) {
			p.metrics.OutboxRetries.WithLabelValues(event.EventType).Inc()
		},
	}
	err := retry.Do(ctx, cfg, func(ctx context.Context) error {
		return p.broker.Publish(ctx, messaging.ChannelEvents, msg)
	})
	if err != nil {
		p.metrics.OutboxEventsFailed.Inc()
		p.fail(ctx, event, err)
		return err
	}

	// Publishing is at-least-once: an event whose status update fails is
	// claimed and published again after its lease. Hooks only run once the
	// event is marked, so patients are not notified twice.
	if err := p.repo.MarkProcessed(ctx, event.ID); err != nil {
		p.logger.Error(err, "Failed to update event status", "event_id", event.ID)
		return err
	}
	p.metrics.OutboxEventsProcessed.Inc()

	for _, hook := range p.hooks {
		if err := hook(ctx, event); err != nil {
			p.logger.Warn("Event hook failed", "event_id", event.ID, "event_type", event.EventType, "error", err.Error())
		}
	}
	return nil
}

func (p *OutboxProcessor) fail(ctx context.Context, event *model.OutboxEvent, cause error) {
	msg := cause.Error()
	event.ErrorMessage = &msg

	if event.RetryCount+1 >= p.config.MaxRetries {
		if err := p.repo.MoveToDeadLetter(ctx, event); err != nil {
			p.logger.Error(err, "Failed to move event to dead letter", "event_id", event.ID)
			return
		}
		p.logger.Warn("Event moved to dead letter", "event_id", event.ID, "retries", event.RetryCount+1)
		return
	}

	backoff := p.config.RetryDelay << uint(event.RetryCount)
	if backoff <= 0 || backoff > maxRetryBackoff {
		backoff = maxRetryBackoff
	}
	if err := p.repo.MarkFailed(ctx, event.ID, msg, p.now().Add(backoff)); err != nil {
		p.logger.Error(err, "Failed to update event status", "event_id", event.ID)
	}
}
