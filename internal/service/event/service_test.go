package event

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/healthmate/api/internal/model"
)

type mockOutbox struct {
	mock.Mock
}

func (m *mockOutbox) Create(ctx context.Context, event *model.OutboxEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockOutbox) ClaimPending(ctx context.Context, limit int, lease time.Duration) ([]*model.OutboxEvent, error) {
	args := m.Called(ctx, limit, lease)
	return args.Get(0).([]*model.OutboxEvent), args.Error(1)
}

func (m *mockOutbox) MarkProcessed(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockOutbox) MarkFailed(ctx context.Context, id string, msg string, retryAt time.Time) error {
	return m.Called(ctx, id, msg, retryAt).Error(0)
}

func (m *mockOutbox) MoveToDeadLetter(ctx context.Context, event *model.OutboxEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockOutbox) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func TestEmitWritesOutboxEvent(t *testing.T) {
	repo := &mockOutbox{}
	repo.On("Create", mock.Anything, mock.MatchedBy(func(e *model.OutboxEvent) bool {
		var payload model.AppointmentEvent
		return e.EventType == model.EventAppointmentBooked &&
			e.ID != "" &&
			json.Unmarshal(e.Payload, &payload) == nil &&
			payload.AppointmentID == "a1"
	})).Return(nil)

	svc := NewEventService(repo)
	err := svc.Emit(context.Background(), model.EventAppointmentBooked, model.AppointmentEvent{AppointmentID: "a1"})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestEmitPropagatesStoreError(t *testing.T) {
	repo := &mockOutbox{}
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

	err := NewEventService(repo).Emit(context.Background(), "x", map[string]string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create outbox event")
}

func TestEmitRejectsUnmarshalablePayload(t *testing.T) {
	repo := &mockOutbox{}
	err := NewEventService(repo).Emit(context.Background(), "x", make(chan int))
	require.Error(t, err)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
