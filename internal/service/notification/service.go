package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/healthmate/api/internal/email"
	"github.com/healthmate/api/internal/model"
	"github.com/healthmate/api/pkg/messaging"
	"github.com/healthmate/api/pkg/metrics"
)

const (
	channelEmail = "email"
	channelPush  = "push"

	kindReminder    = "medication_reminder"
	kindAppointment = "appointment"
)

type Service interface {
	// NotifyReminder pushes the reminder and e-mails it when the profile has
	// an address. profile may be nil.
	NotifyReminder(ctx context.Context, reminder *model.Reminder, profile *model.PatientProfile) error
	NotifyAppointment(ctx context.Context, eventType string, evt model.AppointmentEvent) error
}

type service struct {
	broker   messaging.Broker
	emailSvc email.Service
	metrics  *metrics.Metrics
}

func NewService(broker messaging.Broker, emailSvc email.Service, m *metrics.Metrics) Service {
	if emailSvc == nil {
		emailSvc = email.NewNoopService()
	}
	if m == nil {
		m = metrics.NewNoop()
	}
	return &service{broker: broker, emailSvc: emailSvc, metrics: m}
}

func (s *service) NotifyReminder(ctx context.Context, reminder *model.Reminder, profile *model.PatientProfile) error {
	var errs []error

	push := messaging.Notification{
		PatientID: reminder.PatientID,
		Title:     "Medication reminder",
		Body:      fmt.Sprintf("Time to take %s (%s)", reminder.MedicineName, reminder.Time),
		Kind:      kindReminder,
	}
	if err := s.broker.Publish(ctx, messaging.ChannelNotifications, push); err != nil {
		s.metrics.RemindersDispatched.WithLabelValues(channelPush, "failed").Inc()
		errs = append(errs, fmt.Errorf("failed to push reminder: %w", err))
	} else {
		s.metrics.RemindersDispatched.WithLabelValues(channelPush, "sent").Inc()
	}

	if profile != nil && profile.Email != "" {
		if err := s.emailSvc.SendReminder(ctx, profile.Email, profile.Name, reminder.MedicineName, reminder.Time); err != nil {
			s.metrics.RemindersDispatched.WithLabelValues(channelEmail, "failed").Inc()
			errs = append(errs, fmt.Errorf("failed to email reminder: %w", err))
		} else {
			s.metrics.RemindersDispatched.WithLabelValues(channelEmail, "sent").Inc()
		}
	}

	if len(errs) > 0 {
		log.Ctx(ctx).Warn().Err(errors.Join(errs...)).Str("reminder_id", reminder.ID).Msg("reminder delivery incomplete")
	}
	return errors.Join(errs...)
}

func (s *service) NotifyAppointment(ctx context.Context, eventType string, evt model.AppointmentEvent) error {
	var title, body string
	switch eventType {
	case model.EventAppointmentBooked:
		title = "Appointment confirmed"
		body = fmt.Sprintf("%s on %s at %s", evt.DoctorName, evt.Date, evt.Time)
	case model.EventAppointmentCancelled:
		title = "Appointment cancelled"
		body = fmt.Sprintf("Your appointment with %s on %s at %s was cancelled", evt.DoctorName, evt.Date, evt.Time)
	case model.EventAppointmentCompleted:
		title = "How was your visit?"
		body = fmt.Sprintf("Your appointment with %s on %s is complete", evt.DoctorName, evt.Date)
	default:
		return nil
	}

	err := s.broker.Publish(ctx, messaging.ChannelNotifications, messaging.Notification{
		PatientID: evt.PatientID,
		Title:     title,
		Body:      body,
		Kind:      kindAppointment,
	})
	if err != nil {
		return fmt.Errorf("failed to push appointment notification: %w", err)
	}
	return nil
}
