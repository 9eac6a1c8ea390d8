package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/healthmate/api/internal/repository"
	"github.com/healthmate/api/pkg/logger"
)

// OutboxCleaner deletes published events once they are older than the
// retention period.
type OutboxCleaner struct {
	repo      repository.OutboxRepository
	retention time.Duration
	logger    *logger.Logger
}

func NewOutboxCleaner(repo repository.OutboxRepository, retention time.Duration, logger *logger.Logger) *OutboxCleaner {
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}
	return &OutboxCleaner{repo: repo, retention: retention, logger: logger}
}

func (c *OutboxCleaner) Cleanup(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-c.retention)

	rows, err := c.repo.DeleteProcessedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up outbox events: %w", err)
	}

	c.logger.Info("Cleaned up outbox events", "deleted", rows, "cutoff", cutoff.Format(time.RFC3339))
	return rows, nil
}
