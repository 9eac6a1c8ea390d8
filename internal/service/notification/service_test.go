package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/healthmate/api/internal/model"
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
	args := m.Called(ctx, channel)
	return nil, args.Error(1)
}

func (m *mockBroker) Ping(ctx context.Context) error { return m.Called(ctx).Error(0) }
func (m *mockBroker) Close() error                   { return m.Called().Error(0) }

type mockEmail struct {
	mock.Mock
}

func (m *mockEmail) SendReminder(ctx context.Context, to, name, medicine, at string) error {
	return m.Called(ctx, to, name, medicine, at).Error(0)
}

func (m *mockEmail) SendCustom(ctx context.Context, to, subject, content string) error {
	return m.Called(ctx, to, subject, content).Error(0)
}

var reminder = &model.Reminder{ID: "r1", PatientID: "p1", MedicineName: "Metformin", Time: "08:00", Active: true}

func TestNotifyReminderPushAndEmail(t *testing.T) {
	broker := new(mockBroker)
	mailer := new(mockEmail)
	m := metrics.NewNoop()
	svc := NewService(broker, mailer, m)

	broker.On("Publish", mock.Anything, messaging.ChannelNotifications, mock.MatchedBy(func(n messaging.Notification) bool {
		return n.PatientID == "p1" && n.Kind == kindReminder
	})).Return(nil)
	mailer.On("SendReminder", mock.Anything, "asha@example.com", "Asha", "Metformin", "08:00").Return(nil)

	err := svc.NotifyReminder(context.Background(), reminder, &model.PatientProfile{ID: "p1", Name: "Asha", Email: "asha@example.com"})
	require.NoError(t, err)

	broker.AssertExpectations(t)
	mailer.AssertExpectations(t)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RemindersDispatched.WithLabelValues(channelEmail, "sent")))
}

func TestNotifyReminderWithoutProfileSkipsEmail(t *testing.T) {
	broker := new(mockBroker)
	mailer := new(mockEmail)
	svc := NewService(broker, mailer, nil)

	broker.On("Publish", mock.Anything, messaging.ChannelNotifications, mock.Anything).Return(nil)

	require.NoError(t, svc.NotifyReminder(context.Background(), reminder, nil))
	mailer.AssertNotCalled(t, "SendReminder", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestNotifyReminderPushFailureStillEmails(t *testing.T) {
	broker := new(mockBroker)
	mailer := new(mockEmail)
	m := metrics.NewNoop()
	svc := NewService(broker, mailer, m)

	broker.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("circuit breaker is open"))
	mailer.On("SendReminder", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	err := svc.NotifyReminder(context.Background(), reminder, &model.PatientProfile{Email: "asha@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to push reminder")
	mailer.AssertExpectations(t)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RemindersDispatched.WithLabelValues(channelPush, "failed")))
}

func TestNotifyAppointment(t *testing.T) {
	broker := new(mockBroker)
	svc := NewService(broker, nil, nil)

	broker.On("Publish", mock.Anything, messaging.ChannelNotifications, mock.MatchedBy(func(n messaging.Notification) bool {
		return n.Title == "Appointment cancelled" && n.PatientID == "p1"
	})).Return(nil).Once()

	err := svc.NotifyAppointment(context.Background(), model.EventAppointmentCancelled, model.AppointmentEvent{
		PatientID: "p1", DoctorName: "Dr. Asha Rao", Date: "2024-05-10", Time: "10:00 AM",
	})
	require.NoError(t, err)

	// unknown events are ignored
	require.NoError(t, svc.NotifyAppointment(context.Background(), "doctor.created", model.AppointmentEvent{}))
	broker.AssertExpectations(t)
}
