package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/healthmate/api/internal/model"
	"github.com/healthmate/api/internal/repository"
	"github.com/healthmate/api/internal/service/event"
	apperrors "github.com/healthmate/api/pkg/errors"
	"github.com/healthmate/api/pkg/metrics"
	"github.com/healthmate/api/pkg/retry"
	"github.com/healthmate/api/pkg/validator"
)

type BookRequest struct {
	DoctorID  string `json:"doctor_id" validate:"required,uuid"`
	SlotID    string `json:"slot_id" validate:"required,uuid"`
	PatientID string `json:"patient_id" validate:"required,max=128"`
}

type CancelRequest struct {
	AppointmentID string `json:"appointment_id" validate:"required,uuid"`
	SlotID        string `json:"slot_id" validate:"required,uuid"`
	PatientID     string `json:"patient_id" validate:"required_without=Admin,max=128"`
	Admin         bool   `json:"-"`
}

// BookingResult carries either the new appointment or, on conflict, the slot
// the caller may offer instead. Fallback is nil when the doctor has no other
// free slot.
type BookingResult struct {
	Appointment *model.Appointment `json:"appointment,omitempty"`
	Conflict    bool               `json:"conflict"`
	Fallback    *model.Slot        `json:"fallback_slot,omitempty"`
}

type Service struct {
	doctors      repository.DoctorRepository
	slots        repository.SlotRepository
	appointments repository.AppointmentRepository
	events       event.Emitter
	metrics      *metrics.Metrics
	validate     *validator.Validator

	now       func() time.Time
	loc       *time.Location
	readRetry retry.Config
}

type Option func(*Service)

// WithClock pins "now" for the status pass.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the zone "today" is computed in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithReadRetry sets the schedule used for the fallback slot lookup.
func WithReadRetry(cfg retry.Config) Option {
	return func(s *Service) { s.readRetry = cfg }
}

func NewService(
	doctors repository.DoctorRepository,
	slots repository.SlotRepository,
	appointments repository.AppointmentRepository,
	events event.Emitter,
	m *metrics.Metrics,
	opts ...Option,
) *Service {
	if events == nil {
		events = event.Nop{}
	}
	if m == nil {
		m = metrics.NewNoop()
	}
	s := &Service{
		doctors:      doctors,
		slots:        slots,
		appointments: appointments,
		events:       events,
		metrics:      m,
		validate:     validator.New(),
		now:          time.Now,
		loc:          time.UTC,
		readRetry:    retry.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListSlots returns the doctor's slots in the order they were created.
func (s *Service) ListSlots(ctx context.Context, doctorID string) ([]*model.Slot, error) {
	if err := s.validate.Var("doctor_id", doctorID, "required,uuid"); err != nil {
		return nil, apperrors.BadRequest("invalid doctor id", err)
	}
	if _, err := s.doctors.Get(ctx, doctorID); err != nil {
		return nil, translate(err, "doctor", "failed to load doctor")
	}

	slots, err := s.slots.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, apperrors.Internal("failed to list slots", err)
	}
	return slots, nil
}

// BookSlot reserves req.SlotID for the patient. A slot that is already taken
// is reported through BookingResult.Conflict, not as an error.
func (s *Service) BookSlot(ctx context.Context, req BookRequest) (*BookingResult, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	doctor, err := s.doctors.Get(ctx, req.DoctorID)
	if err != nil {
		return nil, translate(err, "doctor", "failed to load doctor")
	}

	now := s.now().UTC()
	appt := &model.Appointment{
		ID:         uuid.NewString(),
		PatientID:  req.PatientID,
		DoctorID:   doctor.ID,
		SlotID:     req.SlotID,
		DoctorName: doctor.Name,
		Status:     model.AppointmentStatusConfirmed,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err = s.appointments.Book(ctx, appt)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrSlotConflict):
		s.metrics.Bookings.WithLabelValues(metrics.BookingConflict).Inc()
		return &BookingResult{Conflict: true, Fallback: s.fallback(ctx, req.DoctorID, req.SlotID)}, nil
	case errors.Is(err, repository.ErrSlotMismatch):
		s.metrics.Bookings.WithLabelValues(metrics.BookingFailed).Inc()
		return nil, apperrors.BadRequest("slot does not belong to doctor", err)
	case errors.Is(err, repository.ErrNotFound):
		s.metrics.Bookings.WithLabelValues(metrics.BookingFailed).Inc()
		return nil, apperrors.NotFound("slot", err)
	default:
		s.metrics.Bookings.WithLabelValues(metrics.BookingFailed).Inc()
		return nil, apperrors.Internal("failed to book appointment", err)
	}

	s.metrics.Bookings.WithLabelValues(metrics.BookingBooked).Inc()
	s.emit(ctx, model.EventAppointmentBooked, appt)

	log.Ctx(ctx).Info().
		Str("appointment_id", appt.ID).
		Str("slot_id", appt.SlotID).
		Str("doctor_id", appt.DoctorID).
		Msg("appointment booked")

	return &BookingResult{Appointment: appt}, nil
}

// fallback finds the first free slot of the doctor other than taken. Lookup
// failures are logged and yield no suggestion.
func (s *Service) fallback(ctx context.Context, doctorID, taken string) *model.Slot {
	var slots []*model.Slot
	err := retry.Do(ctx, s.readRetry, func(ctx context.Context) error {
		var err error
		slots, err = s.slots.ListByDoctor(ctx, doctorID)
		return err
	})
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("doctor_id", doctorID).Msg("failed to look up fallback slot")
		return nil
	}

	for _, sl := range slots {
		if !sl.IsBooked && sl.ID != taken {
			return sl
		}
	}
	return nil
}

// CancelAppointment cancels a PENDING or CONFIRMED appointment and frees its
// slot. Patients may only cancel their own appointments.
func (s *Service) CancelAppointment(ctx context.Context, req CancelRequest) (*model.Appointment, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	appt, err := s.appointments.Get(ctx, req.AppointmentID)
	if err != nil {
		return nil, translate(err, "appointment", "failed to load appointment")
	}
	if !req.Admin && appt.PatientID != req.PatientID {
		return nil, apperrors.Forbidden("appointment belongs to another patient")
	}
	if appt.SlotID != req.SlotID {
		return nil, apperrors.BadRequest("slot does not match appointment", nil)
	}

	cancelled, err := s.appointments.Cancel(ctx, req.AppointmentID, req.SlotID)
	if err != nil {
		s.metrics.Cancellations.WithLabelValues("failed").Inc()
		switch {
		case errors.Is(err, repository.ErrInvalidTransition):
			return nil, apperrors.Conflict(fmt.Sprintf("%s appointment cannot be cancelled", appt.Status), err)
		case errors.Is(err, repository.ErrSlotMismatch):
			return nil, apperrors.BadRequest("slot does not match appointment", err)
		default:
			return nil, translate(err, "appointment", "failed to cancel appointment")
		}
	}

	s.metrics.Cancellations.WithLabelValues("cancelled").Inc()
	s.emit(ctx, model.EventAppointmentCancelled, cancelled)

	log.Ctx(ctx).Info().
		Str("appointment_id", cancelled.ID).
		Str("slot_id", cancelled.SlotID).
		Bool("admin", req.Admin).
		Msg("appointment cancelled")

	return cancelled, nil
}

// PatientAppointments refreshes statuses for the patient and lists their
// appointments, newest first. A failed refresh is logged and the list is
// still returned.
func (s *Service) PatientAppointments(ctx context.Context, patientID string) ([]*model.Appointment, error) {
	if patientID == "" {
		return nil, apperrors.BadRequest("patient id is required", nil)
	}

	if _, err := s.AutoUpdateStatuses(ctx, patientID); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("patient_id", patientID).Msg("status pass failed")
	}

	appts, err := s.appointments.List(ctx, model.AppointmentFilter{PatientID: patientID})
	if err != nil {
		return nil, apperrors.Internal("failed to list appointments", err)
	}
	return appts, nil
}

func (s *Service) emit(ctx context.Context, eventType string, appt *model.Appointment) {
	payload := model.AppointmentEvent{
		AppointmentID: appt.ID,
		PatientID:     appt.PatientID,
		DoctorID:      appt.DoctorID,
		DoctorName:    appt.DoctorName,
		SlotID:        appt.SlotID,
		Date:          appt.Date,
		Time:          appt.Time,
		Status:        appt.Status,
	}
	if err := s.events.Emit(ctx, eventType, payload); err != nil {
		log.Ctx(ctx).Error().Err(err).
			Str("event_type", eventType).
			Str("appointment_id", appt.ID).
			Msg("failed to queue event")
	}
}

func translate(err error, resource, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(resource, err)
	}
	return apperrors.Internal(msg, err)
}
