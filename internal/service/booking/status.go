package booking

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/healthmate/api/internal/model"
	apperrors "github.com/healthmate/api/pkg/errors"
)

// AutoUpdateStatuses moves CONFIRMED appointments dated before today to
// COMPLETED and returns how many changed. An empty patientID covers every
// patient. Each transition is conditional on the record still being
// CONFIRMED, so concurrent cancels win and repeated runs are no-ops.
func (s *Service) AutoUpdateStatuses(ctx context.Context, patientID string) (int, error) {
	today, err := model.ParseDate(model.FormatDate(s.now(), s.loc), s.loc)
	if err != nil {
		return 0, apperrors.Internal("failed to compute today", err)
	}

	confirmed, err := s.appointments.List(ctx, model.AppointmentFilter{
		PatientID: patientID,
		Status:    model.AppointmentStatusConfirmed,
	})
	if err != nil {
		return 0, apperrors.Internal("failed to list confirmed appointments", err)
	}

	var (
		changed int
		errs    []error
	)
	for _, appt := range confirmed {
		if err := ctx.Err(); err != nil {
			return changed, err
		}

		day, err := model.ParseDate(appt.Date, s.loc)
		if err != nil {
			s.metrics.StatusSweepSkips.Inc()
			log.Ctx(ctx).Warn().Err(err).
				Str("appointment_id", appt.ID).
				Msg("skipping appointment with unparsable date")
			continue
		}
		if !day.Before(today) {
			continue
		}

		ok, err := s.appointments.TransitionStatus(ctx, appt.ID, model.AppointmentStatusConfirmed, model.AppointmentStatusCompleted)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !ok {
			continue
		}

		changed++
		s.metrics.StatusTransitions.Inc()
		appt.Status = model.AppointmentStatusCompleted
		s.emit(ctx, model.EventAppointmentCompleted, appt)
	}

	if len(errs) > 0 {
		return changed, apperrors.Internal("failed to complete past appointments", errors.Join(errs...))
	}
	return changed, nil
}
