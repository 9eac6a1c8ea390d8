package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/healthmate/api/internal/model"
	"github.com/healthmate/api/internal/repository/repotest"
	"github.com/healthmate/api/pkg/logger"
	"github.com/healthmate/api/pkg/messaging"
	"github.com/healthmate/api/pkg/metrics"
)

type mockBroker struct {
	mock.Mock
}

func (m *mockBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	return m.Called(ctx, channel, message).Error(0)
}

func (m *mockBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	return nil, m.Called(ctx, channel).Error(1)
}

func (m *mockBroker) Ping(ctx context.Context) error { return m.Called(ctx).Error(0) }
func (m *mockBroker) Close() error                   { return m.Called().Error(0) }

func testLogger() *logger.Logger {
	return logger.New(zerolog.New(&bytes.Buffer{}))
}

func queue(t *testing.T, outbox *repotest.OutboxRepo, id, eventType string) {
	t.Helper()
	payload, err := json.Marshal(model.AppointmentEvent{AppointmentID: "a-" + id, PatientID: "p1"})
	require.NoError(t, err)
	require.NoError(t, outbox.Create(context.Background(), &model.OutboxEvent{ID: id, EventType: eventType, Payload: payload}))
}

func newProcessor(outbox *repotest.OutboxRepo, broker *mockBroker, m *metrics.Metrics, hooks ...EventHook) *OutboxProcessor {
	return NewOutboxProcessor(outbox, broker, OutboxProcessorConfig{
		BatchSize:     10,
		PollInterval:  time.Second,
		RetryAttempts: 2,
		RetryDelay:    time.Millisecond,
		MaxRetries:    2,
	}, testLogger(), m, hooks...)
}

func TestProcessOncePublishesAndMarksProcessed(t *testing.T) {
	outbox := repotest.New().Outbox()
	queue(t, outbox, "e1", model.EventAppointmentBooked)
	queue(t, outbox, "e2", model.EventAppointmentCancelled)

	broker := new(mockBroker)
	broker.On("Publish", mock.Anything, messaging.ChannelEvents, mock.MatchedBy(func(m messaging.Message) bool {
		return m.ID == "e1" || m.ID == "e2"
	})).Return(nil).Twice()

	var hooked []string
	hook := func(ctx context.Context, e *model.OutboxEvent) error {
		hooked = append(hooked, e.ID)
		return errors.New("hook failures are only logged")
	}

	m := metrics.NewNoop()
	n, err := newProcessor(outbox, broker, m, hook).ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"e1", "e2"}, hooked)

	for _, e := range outbox.Events() {
		assert.Equal(t, model.OutboxStatusProcessed, e.Status)
		assert.NotNil(t, e.ProcessedAt)
	}
	assert.Equal(t, float64(2), testutil.ToFloat64(m.OutboxEventsProcessed))
	broker.AssertExpectations(t)

	// nothing left to claim
	n, err = newProcessor(outbox, broker, m).ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestHooksWaitForProcessedStatus(t *testing.T) {
	store := repotest.New()
	outbox := store.Outbox()
	queue(t, outbox, "e1", model.EventAppointmentBooked)

	broker := new(mockBroker)
	broker.On("Publish", mock.Anything, messaging.ChannelEvents, mock.Anything).Return(nil)

	hooked := 0
	hook := func(ctx context.Context, e *model.OutboxEvent) error {
		hooked++
		return nil
	}

	store.Fail = func(op string) error {
		if op == "outbox.mark_processed" {
			return errors.New("connection reset")
		}
		return nil
	}
	m := metrics.NewNoop()
	p := newProcessor(outbox, broker, m, hook)

	n, err := p.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, hooked)
	assert.Zero(t, testutil.ToFloat64(m.OutboxEventsProcessed))

	// the lease expires and the event is published again, this time for good
	store.Fail = nil
	require.NoError(t, outbox.MarkFailed(context.Background(), "e1", "lease expired", time.Now().Add(-time.Minute)))
	n, err = p.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, hooked)
	broker.AssertNumberOfCalls(t, "Publish", 2)
}

func TestProcessOnceRetriesThenDeadLetters(t *testing.T) {
	outbox := repotest.New().Outbox()
	queue(t, outbox, "e1", model.EventAppointmentBooked)

	broker := new(mockBroker)
	broker.On("Publish", mock.Anything, messaging.ChannelEvents, mock.Anything).Return(errors.New("circuit breaker is open"))

	m := metrics.NewNoop()
	p := newProcessor(outbox, broker, m)

	n, err := p.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	events := outbox.Events()
	require.Len(t, events, 1)
	assert.Equal(t, model.OutboxStatusRetry, events[0].Status)
	assert.Equal(t, 1, events[0].RetryCount)
	require.NotNil(t, events[0].ErrorMessage)
	assert.Contains(t, *events[0].ErrorMessage, "circuit breaker")
	// two attempts in-process, one retry between them
	broker.AssertNumberOfCalls(t, "Publish", 2)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.OutboxRetries.WithLabelValues(model.EventAppointmentBooked)))

	// make the event due again; the next failed round hits MaxRetries
	require.NoError(t, outbox.MarkFailed(context.Background(), "e1", "forced", time.Now().Add(-time.Minute)))
	_, err = p.ProcessOnce(context.Background())
	require.NoError(t, err)

	assert.Len(t, outbox.DeadLetters(), 1)
	assert.Equal(t, model.OutboxStatusFailed, outbox.Events()[0].Status)
}

func TestOutboxCleaner(t *testing.T) {
	outbox := repotest.New().Outbox()
	queue(t, outbox, "old", model.EventAppointmentBooked)
	queue(t, outbox, "pending", model.EventAppointmentBooked)
	require.NoError(t, outbox.MarkProcessed(context.Background(), "old"))
	time.Sleep(time.Millisecond)

	n, err := NewOutboxCleaner(outbox, time.Nanosecond, testLogger()).Cleanup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	events := outbox.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "pending", events[0].ID)
}
