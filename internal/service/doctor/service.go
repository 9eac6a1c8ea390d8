package doctor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/healthmate/api/internal/model"
	"github.com/healthmate/api/internal/repository"
	"github.com/healthmate/api/pkg/cdn"
	apperrors "github.com/healthmate/api/pkg/errors"
	"github.com/healthmate/api/pkg/validator"
)

const (
	DefaultSlotStep = 30 * time.Minute
	cacheTTL        = 5 * time.Minute
	cacheCleanup    = 10 * time.Minute
)

type Service struct {
	doctors  repository.DoctorRepository
	slots    repository.SlotRepository
	images   *cdn.Builder
	cache    *cache.Cache
	validate *validator.Validator
}

func NewService(doctors repository.DoctorRepository, slots repository.SlotRepository, images *cdn.Builder) *Service {
	return &Service{
		doctors:  doctors,
		slots:    slots,
		images:   images,
		cache:    cache.New(cacheTTL, cacheCleanup),
		validate: validator.New(),
	}
}

func (s *Service) CreateDoctor(ctx context.Context, req model.CreateDoctorRequest) (*model.Doctor, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	now := time.Now().UTC()
	d := &model.Doctor{
		ID:              uuid.NewString(),
		Name:            strings.TrimSpace(req.Name),
		Specialization:  strings.TrimSpace(req.Specialization),
		ExperienceYears: req.ExperienceYears,
		Education:       strings.TrimSpace(req.Education),
		ImagePublicID:   req.ImagePublicID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.doctors.Create(ctx, d); err != nil {
		return nil, apperrors.Internal("failed to create doctor", err)
	}
	s.cache.Flush()

	log.Ctx(ctx).Info().Str("doctor_id", d.ID).Msg("doctor created")
	return s.present(d), nil
}

func (s *Service) GetDoctor(ctx context.Context, id string) (*model.Doctor, error) {
	if err := s.validate.Var("doctor_id", id, "required,uuid"); err != nil {
		return nil, apperrors.BadRequest("invalid doctor id", err)
	}

	key := "doctor:" + id
	if cached, ok := s.cache.Get(key); ok {
		d := *cached.(*model.Doctor)
		return &d, nil
	}

	d, err := s.doctors.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("doctor", err)
		}
		return nil, apperrors.Internal("failed to get doctor", err)
	}
	d = s.present(d)
	s.cache.SetDefault(key, d)

	cp := *d
	return &cp, nil
}

func (s *Service) ListDoctors(ctx context.Context, filter model.DoctorFilter) ([]*model.Doctor, error) {
	filter.Specialization = strings.TrimSpace(filter.Specialization)
	key := "doctors:" + strings.ToLower(filter.Specialization)
	if cached, ok := s.cache.Get(key); ok {
		return copyDoctors(cached.([]*model.Doctor)), nil
	}

	doctors, err := s.doctors.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal("failed to list doctors", err)
	}
	for _, d := range doctors {
		s.present(d)
	}
	s.cache.SetDefault(key, doctors)
	return copyDoctors(doctors), nil
}

func (s *Service) UpdateDoctor(ctx context.Context, id string, req model.UpdateDoctorRequest) (*model.Doctor, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	d, err := s.doctors.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("doctor", err)
		}
		return nil, apperrors.Internal("failed to get doctor", err)
	}

	if req.Name != nil {
		d.Name = strings.TrimSpace(*req.Name)
	}
	if req.Specialization != nil {
		d.Specialization = strings.TrimSpace(*req.Specialization)
	}
	if req.ExperienceYears != nil {
		d.ExperienceYears = *req.ExperienceYears
	}
	if req.Education != nil {
		d.Education = strings.TrimSpace(*req.Education)
	}
	if req.ImagePublicID != nil {
		d.ImagePublicID = *req.ImagePublicID
	}

	if err := s.doctors.Update(ctx, d); err != nil {
		return nil, apperrors.Internal("failed to update doctor", err)
	}
	s.cache.Flush()
	return s.present(d), nil
}

// DeleteDoctor removes the doctor and their free slots. Doctors with booked
// slots are kept.
func (s *Service) DeleteDoctor(ctx context.Context, id string) error {
	err := s.doctors.Delete(ctx, id)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound("doctor", err)
	case errors.Is(err, repository.ErrSlotConflict):
		return apperrors.Conflict("doctor has booked appointments", err)
	default:
		return apperrors.Internal("failed to delete doctor", err)
	}
	s.cache.Flush()

	log.Ctx(ctx).Info().Str("doctor_id", id).Msg("doctor deleted")
	return nil
}

// CreateSlots adds one free slot per entry in req.Times, in the given order.
func (s *Service) CreateSlots(ctx context.Context, doctorID string, req model.CreateSlotsRequest) ([]*model.Slot, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	seen := make(map[string]bool, len(req.Times))
	now := time.Now().UTC()
	slots := make([]*model.Slot, 0, len(req.Times))
	for _, t := range req.Times {
		t = strings.TrimSpace(t)
		if seen[t] {
			return nil, apperrors.BadRequest(fmt.Sprintf("duplicate time %q", t), nil)
		}
		seen[t] = true
		slots = append(slots, &model.Slot{
			ID:        uuid.NewString(),
			DoctorID:  doctorID,
			Date:      req.Date,
			Time:      t,
			CreatedAt: now,
		})
	}

	if err := s.slots.CreateBatch(ctx, slots); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("doctor", err)
		}
		return nil, apperrors.Internal("failed to create slots", err)
	}

	log.Ctx(ctx).Info().Str("doctor_id", doctorID).Str("date", req.Date).Int("count", len(slots)).Msg("slots created")
	return slots, nil
}

// GenerateDaySlots creates slots every StepMinutes from Start up to, but not
// including, End.
func (s *Service) GenerateDaySlots(ctx context.Context, doctorID string, req model.GenerateSlotsRequest) ([]*model.Slot, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}
	step := DefaultSlotStep
	if req.StepMinutes > 0 {
		step = time.Duration(req.StepMinutes) * time.Minute
	}

	times, err := DayTimes(req.Start, req.End, step)
	if err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}
	return s.CreateSlots(ctx, doctorID, model.CreateSlotsRequest{Date: req.Date, Times: times})
}

// DayTimes lists HH:MM clock times in [start, end) at step.
func DayTimes(start, end string, step time.Duration) ([]string, error) {
	from, err := time.Parse(model.ClockLayout, start)
	if err != nil {
		return nil, fmt.Errorf("invalid start %q", start)
	}
	to, err := time.Parse(model.ClockLayout, end)
	if err != nil {
		return nil, fmt.Errorf("invalid end %q", end)
	}
	if !to.After(from) {
		return nil, errors.New("end must be after start")
	}
	if step <= 0 {
		return nil, errors.New("step must be positive")
	}

	var out []string
	for t := from; t.Before(to); t = t.Add(step) {
		out = append(out, t.Format(model.ClockLayout))
	}
	return out, nil
}

func (s *Service) DeleteSlot(ctx context.Context, id string) error {
	err := s.slots.Delete(ctx, id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound("slot", err)
	case errors.Is(err, repository.ErrSlotConflict):
		return apperrors.Conflict("slot is booked", err)
	default:
		return apperrors.Internal("failed to delete slot", err)
	}
}

func (s *Service) present(d *model.Doctor) *model.Doctor {
	if s.images != nil {
		d.ImageURL = s.images.Thumbnail(d.ImagePublicID)
	}
	return d
}

func copyDoctors(in []*model.Doctor) []*model.Doctor {
	out := make([]*model.Doctor, len(in))
	for i, d := range in {
		cp := *d
		out[i] = &cp
	}
	return out
}
