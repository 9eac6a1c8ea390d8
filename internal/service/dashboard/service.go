// Package dashboard builds the patient home screen and the admin day view.
package dashboard

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/healthmate/api/internal/model"
	"github.com/healthmate/api/internal/repository"
	apperrors "github.com/healthmate/api/pkg/errors"
)

const (
	DefaultHomeLimit  = 3
	DefaultAdminLimit = 50
)

type PatientHome struct {
	Upcoming  []*model.Appointment `json:"upcoming"`
	Reminders []*model.Reminder    `json:"reminders"`
}

type AdminToday struct {
	Date         string                          `json:"date"`
	Appointments []*model.Appointment            `json:"appointments"`
	Counts       map[model.AppointmentStatus]int `json:"counts"`
	Slots        model.SlotCounts                `json:"slots"`
}

type Service struct {
	appointments repository.AppointmentRepository
	reminders    repository.ReminderRepository
	slots        repository.SlotRepository

	now        func() time.Time
	loc        *time.Location
	adminLimit int
}

func NewService(
	appointments repository.AppointmentRepository,
	reminders repository.ReminderRepository,
	slots repository.SlotRepository,
	loc *time.Location,
	adminLimit int,
) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if adminLimit <= 0 {
		adminLimit = DefaultAdminLimit
	}
	return &Service{
		appointments: appointments,
		reminders:    reminders,
		slots:        slots,
		now:          time.Now,
		loc:          loc,
		adminLimit:   adminLimit,
	}
}

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) today() (time.Time, string) {
	date := model.FormatDate(s.now(), s.loc)
	day, _ := model.ParseDate(date, s.loc)
	return day, date
}

func (s *Service) PatientHome(ctx context.Context, patientID string, limit int) (*PatientHome, error) {
	if patientID == "" {
		return nil, apperrors.BadRequest("patient id is required", nil)
	}
	if limit <= 0 {
		limit = DefaultHomeLimit
	}

	appts, err := s.appointments.List(ctx, model.AppointmentFilter{
		PatientID: patientID,
		Status:    model.AppointmentStatusConfirmed,
	})
	if err != nil {
		return nil, apperrors.Internal("failed to list appointments", err)
	}

	reminders, err := s.reminders.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, apperrors.Internal("failed to list reminders", err)
	}

	today, _ := s.today()
	return &PatientHome{
		Upcoming:  UpcomingConfirmed(ctx, appts, today, s.loc, limit),
		Reminders: ActiveReminders(reminders),
	}, nil
}

func (s *Service) AdminToday(ctx context.Context) (*AdminToday, error) {
	_, date := s.today()

	appts, err := s.appointments.List(ctx, model.AppointmentFilter{Date: date})
	if err != nil {
		return nil, apperrors.Internal("failed to list appointments", err)
	}
	slots, err := s.slots.ListByDate(ctx, date)
	if err != nil {
		return nil, apperrors.Internal("failed to list slots", err)
	}

	out := &AdminToday{
		Date:         date,
		Appointments: OnDate(appts, date, s.adminLimit),
		Counts:       map[model.AppointmentStatus]int{},
	}
	for _, a := range appts {
		if a.Date == date {
			out.Counts[a.Status]++
		}
	}
	for _, sl := range slots {
		if sl.IsBooked {
			out.Slots.Booked++
		} else {
			out.Slots.Free++
		}
	}
	return out, nil
}

// UpcomingConfirmed returns up to limit CONFIRMED appointments dated today or
// later, earliest first. Records with unparsable dates are dropped.
func UpcomingConfirmed(ctx context.Context, appts []*model.Appointment, today time.Time, loc *time.Location, limit int) []*model.Appointment {
	out := make([]*model.Appointment, 0, len(appts))
	for _, a := range appts {
		if a.Status != model.AppointmentStatusConfirmed {
			continue
		}
		day, err := model.ParseDate(a.Date, loc)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("appointment_id", a.ID).Msg("dropping appointment with unparsable date")
			continue
		}
		if day.Before(today) {
			continue
		}
		out = append(out, a)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return model.TimeLess(out[i].Time, out[j].Time)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// OnDate returns non-cancelled appointments on date ordered by time, capped
// at limit.
func OnDate(appts []*model.Appointment, date string, limit int) []*model.Appointment {
	out := make([]*model.Appointment, 0, len(appts))
	for _, a := range appts {
		if a.Date == date && a.Status != model.AppointmentStatusCancelled {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return model.TimeLess(out[i].Time, out[j].Time) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ActiveReminders keeps active reminders ordered by time of day.
func ActiveReminders(reminders []*model.Reminder) []*model.Reminder {
	out := make([]*model.Reminder, 0, len(reminders))
	for _, r := range reminders {
		if r.Active {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}
