package repotest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/healthmate/api/internal/model"
	"github.com/healthmate/api/internal/repository"
)

// OutboxRepo also exposes Events and DeadLetters for assertions.
type OutboxRepo struct{ s *Store }

var _ repository.OutboxRepository = (*OutboxRepo)(nil)

func (r *OutboxRepo) Create(ctx context.Context, e *model.OutboxEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("outbox.create"); err != nil {
		return err
	}
	now := time.Now().UTC()
	e.Status = model.OutboxStatusPending
	e.CreatedAt = now
	e.UpdatedAt = now
	cp := *e
	r.s.outbox[e.ID] = &cp
	r.s.outboxOrder = append(r.s.outboxOrder, e.ID)
	return nil
}

func (r *OutboxRepo) ClaimPending(ctx context.Context, limit int, lease time.Duration) ([]*model.OutboxEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	var due []*model.OutboxEvent
	for _, id := range r.s.outboxOrder {
		e, ok := r.s.outbox[id]
		if !ok {
			continue
		}
		if e.Status != model.OutboxStatusPending && e.Status != model.OutboxStatusRetry {
			continue
		}
		if e.RetryAt != nil && e.RetryAt.After(now) {
			continue
		}
		due = append(due, e)
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].CreatedAt.Before(due[j].CreatedAt) })
	if len(due) > limit {
		due = due[:limit]
	}

	out := make([]*model.OutboxEvent, 0, len(due))
	leaseUntil := now.Add(lease)
	for _, e := range due {
		e.RetryAt = &leaseUntil
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

func (r *OutboxRepo) MarkProcessed(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("outbox.mark_processed"); err != nil {
		return err
	}
	e, ok := r.s.outbox[id]
	if !ok {
		return fmt.Errorf("failed to mark outbox event processed: %w", repository.ErrNotFound)
	}
	now := time.Now().UTC()
	e.Status = model.OutboxStatusProcessed
	e.ProcessedAt = &now
	e.RetryAt = nil
	e.ErrorMessage = nil
	return nil
}

func (r *OutboxRepo) MarkFailed(ctx context.Context, id string, msg string, retryAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.outbox[id]
	if !ok {
		return fmt.Errorf("failed to mark outbox event failed: %w", repository.ErrNotFound)
	}
	e.Status = model.OutboxStatusRetry
	e.ErrorMessage = &msg
	e.RetryAt = &retryAt
	e.RetryCount++
	return nil
}

func (r *OutboxRepo) MoveToDeadLetter(ctx context.Context, event *model.OutboxEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *event
	r.s.deadLetter[event.ID] = &cp
	if e, ok := r.s.outbox[event.ID]; ok {
		e.Status = model.OutboxStatusFailed
	}
	return nil
}

func (r *OutboxRepo) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, e := range r.s.outbox {
		if e.Status == model.OutboxStatusProcessed && e.ProcessedAt != nil && e.ProcessedAt.Before(before) {
			delete(r.s.outbox, id)
			n++
		}
	}
	return n, nil
}

// Events returns a copy of every outbox event in insertion order.
func (r *OutboxRepo) Events() []*model.OutboxEvent {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*model.OutboxEvent, 0, len(r.s.outbox))
	for _, id := range r.s.outboxOrder {
		if e, ok := r.s.outbox[id]; ok {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out
}

func (r *OutboxRepo) DeadLetters() []*model.OutboxEvent {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*model.OutboxEvent, 0, len(r.s.deadLetter))
	for _, e := range r.s.deadLetter {
		cp := *e
		out = append(out, &cp)
	}
	return out
}
