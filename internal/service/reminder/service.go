package reminder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/healthmate/api/internal/model"
	"github.com/healthmate/api/internal/repository"
	"github.com/healthmate/api/internal/service/notification"
	apperrors "github.com/healthmate/api/pkg/errors"
	"github.com/healthmate/api/pkg/validator"
)

type Service struct {
	reminders repository.ReminderRepository
	patients  repository.PatientRepository
	notifier  notification.Service
	validate  *validator.Validator
	loc       *time.Location
}

func NewService(
	reminders repository.ReminderRepository,
	patients repository.PatientRepository,
	notifier notification.Service,
	loc *time.Location,
) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		reminders: reminders,
		patients:  patients,
		notifier:  notifier,
		validate:  validator.New(),
		loc:       loc,
	}
}

func (s *Service) Create(ctx context.Context, patientID string, req model.CreateReminderRequest) (*model.Reminder, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	now := time.Now().UTC()
	r := &model.Reminder{
		ID:           uuid.NewString(),
		PatientID:    patientID,
		MedicineName: strings.TrimSpace(req.MedicineName),
		Time:         req.Time,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.reminders.Create(ctx, r); err != nil {
		return nil, apperrors.Internal("failed to create reminder", err)
	}
	return r, nil
}

func (s *Service) List(ctx context.Context, patientID string) ([]*model.Reminder, error) {
	reminders, err := s.reminders.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, apperrors.Internal("failed to list reminders", err)
	}
	return reminders, nil
}

func (s *Service) Toggle(ctx context.Context, patientID, id string, req model.ToggleReminderRequest) (*model.Reminder, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}
	r, err := s.owned(ctx, patientID, id)
	if err != nil {
		return nil, err
	}

	if err := s.reminders.SetActive(ctx, id, *req.Active); err != nil {
		return nil, apperrors.Internal("failed to update reminder", err)
	}
	r.Active = *req.Active
	return r, nil
}

func (s *Service) Delete(ctx context.Context, patientID, id string) error {
	if _, err := s.owned(ctx, patientID, id); err != nil {
		return err
	}
	if err := s.reminders.Delete(ctx, id); err != nil {
		return apperrors.Internal("failed to delete reminder", err)
	}
	return nil
}

func (s *Service) owned(ctx context.Context, patientID, id string) (*model.Reminder, error) {
	r, err := s.reminders.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("reminder", err)
		}
		return nil, apperrors.Internal("failed to get reminder", err)
	}
	// Someone else's reminder looks the same as a missing one.
	if r.PatientID != patientID {
		return nil, apperrors.NotFound("reminder", nil)
	}
	return r, nil
}

// Dispatch notifies every active reminder due at the minute of at, in the
// service's time zone. It returns how many were delivered without error.
func (s *Service) Dispatch(ctx context.Context, at time.Time) (int, error) {
	clock := at.In(s.loc).Format(model.ClockLayout)

	due, err := s.reminders.ListActiveAt(ctx, clock)
	if err != nil {
		return 0, fmt.Errorf("failed to list reminders due at %s: %w", clock, err)
	}

	profiles := map[string]*model.PatientProfile{}
	var (
		sent int
		errs []error
	)
	for _, r := range due {
		profile, ok := profiles[r.PatientID]
		if !ok {
			profile, err = s.patients.Get(ctx, r.PatientID)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				log.Ctx(ctx).Warn().Err(err).Str("patient_id", r.PatientID).Msg("failed to load profile for reminder")
			}
			profiles[r.PatientID] = profile
		}

		if err := s.notifier.NotifyReminder(ctx, r, profile); err != nil {
			errs = append(errs, err)
			continue
		}
		sent++
	}

	if len(due) > 0 {
		log.Ctx(ctx).Info().Str("clock", clock).Int("due", len(due)).Int("sent", sent).Msg("reminders dispatched")
	}
	return sent, errors.Join(errs...)
}
