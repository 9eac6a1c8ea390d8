// Package repotest provides map-backed implementations of the repository
// interfaces for tests. Writes that span records hold one lock, so Book and
// Cancel are atomic the same way the SQL transactions are.
package repotest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/healthmate/api/internal/model"
	"github.com/healthmate/api/internal/repository"
)

// Store holds every collection behind a single mutex.
type Store struct {
	mu sync.Mutex

	doctors      map[string]*model.Doctor
	slots        map[string]*model.Slot
	appointments map[string]*model.Appointment
	reminders    map[string]*model.Reminder
	profiles     map[string]*model.PatientProfile
	records      map[string]*model.MedicalRecord
	outbox       map[string]*model.OutboxEvent
	deadLetter   map[string]*model.OutboxEvent
	outboxOrder  []string
	seq          int64

	// Fail, when set, is consulted before each named write; a non-nil
	// return aborts that write. Names are "<collection>.<op>", plus
	// "slots.release" for the second half of Cancel.
	Fail func(op string) error
}

func New() *Store {
	return &Store{
		doctors:      map[string]*model.Doctor{},
		slots:        map[string]*model.Slot{},
		appointments: map[string]*model.Appointment{},
		reminders:    map[string]*model.Reminder{},
		profiles:     map[string]*model.PatientProfile{},
		records:      map[string]*model.MedicalRecord{},
		outbox:       map[string]*model.OutboxEvent{},
		deadLetter:   map[string]*model.OutboxEvent{},
	}
}

func (s *Store) fail(op string) error {
	if s.Fail == nil {
		return nil
	}
	return s.Fail(op)
}

func (s *Store) Doctors() repository.DoctorRepository           { return doctorRepo{s} }
func (s *Store) Slots() repository.SlotRepository               { return slotRepo{s} }
func (s *Store) Appointments() repository.AppointmentRepository { return appointmentRepo{s} }
func (s *Store) Reminders() repository.ReminderRepository       { return reminderRepo{s} }
func (s *Store) Patients() repository.PatientRepository         { return patientRepo{s} }
func (s *Store) Records() repository.MedicalRecordRepository    { return recordRepo{s} }
func (s *Store) Outbox() *OutboxRepo                            { return &OutboxRepo{s} }

// Doctors

type doctorRepo struct{ s *Store }

func (r doctorRepo) Create(ctx context.Context, d *model.Doctor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("doctors.create"); err != nil {
		return err
	}
	cp := *d
	r.s.doctors[d.ID] = &cp
	return nil
}

func (r doctorRepo) Get(ctx context.Context, id string) (*model.Doctor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.doctors[id]
	if !ok {
		return nil, fmt.Errorf("failed to get doctor: %w", repository.ErrNotFound)
	}
	cp := *d
	return &cp, nil
}

func (r doctorRepo) Update(ctx context.Context, d *model.Doctor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.doctors[d.ID]; !ok {
		return fmt.Errorf("failed to update doctor: %w", repository.ErrNotFound)
	}
	d.UpdatedAt = time.Now().UTC()
	cp := *d
	r.s.doctors[d.ID] = &cp
	return nil
}

func (r doctorRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.doctors[id]; !ok {
		return fmt.Errorf("failed to delete doctor: %w", repository.ErrNotFound)
	}
	for _, sl := range r.s.slots {
		if sl.DoctorID == id && sl.IsBooked {
			return fmt.Errorf("doctor has booked slots: %w", repository.ErrSlotConflict)
		}
	}
	delete(r.s.doctors, id)
	for sid, sl := range r.s.slots {
		if sl.DoctorID == id {
			delete(r.s.slots, sid)
		}
	}
	return nil
}

func (r doctorRepo) List(ctx context.Context, filter model.DoctorFilter) ([]*model.Doctor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*model.Doctor{}
	for _, d := range r.s.doctors {
		if filter.Specialization != "" && !strings.EqualFold(d.Specialization, filter.Specialization) {
			continue
		}
		cp := *d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Slots

type slotRepo struct{ s *Store }

func (r slotRepo) CreateBatch(ctx context.Context, slots []*model.Slot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if len(slots) == 0 {
		return nil
	}
	if _, ok := r.s.doctors[slots[0].DoctorID]; !ok {
		return fmt.Errorf("failed to create slots: %w", repository.ErrNotFound)
	}
	if err := r.s.fail("slots.create"); err != nil {
		return err
	}
	for _, sl := range slots {
		r.s.seq++
		sl.Seq = r.s.seq
		cp := *sl
		r.s.slots[sl.ID] = &cp
	}
	return nil
}

func (r slotRepo) Get(ctx context.Context, id string) (*model.Slot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sl, ok := r.s.slots[id]
	if !ok {
		return nil, fmt.Errorf("failed to get slot: %w", repository.ErrNotFound)
	}
	cp := *sl
	return &cp, nil
}

func (r slotRepo) ListByDoctor(ctx context.Context, doctorID string) ([]*model.Slot, error) {
	return r.list(func(sl *model.Slot) bool { return sl.DoctorID == doctorID })
}

func (r slotRepo) ListByDate(ctx context.Context, date string) ([]*model.Slot, error) {
	return r.list(func(sl *model.Slot) bool { return sl.Date == date })
}

func (r slotRepo) list(match func(*model.Slot) bool) ([]*model.Slot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("slots.list"); err != nil {
		return nil, err
	}
	out := []*model.Slot{}
	for _, sl := range r.s.slots {
		if match(sl) {
			cp := *sl
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (r slotRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sl, ok := r.s.slots[id]
	if !ok {
		return fmt.Errorf("failed to delete slot: %w", repository.ErrNotFound)
	}
	if sl.IsBooked {
		return fmt.Errorf("failed to delete slot: %w", repository.ErrSlotConflict)
	}
	delete(r.s.slots, id)
	return nil
}

// Appointments

type appointmentRepo struct{ s *Store }

func (r appointmentRepo) Book(ctx context.Context, appt *model.Appointment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sl, ok := r.s.slots[appt.SlotID]
	switch {
	case !ok:
		return fmt.Errorf("failed to reserve slot: %w", repository.ErrNotFound)
	case sl.DoctorID != appt.DoctorID:
		return fmt.Errorf("failed to reserve slot: %w", repository.ErrSlotMismatch)
	case sl.IsBooked:
		return fmt.Errorf("failed to reserve slot: %w", repository.ErrSlotConflict)
	}
	if err := r.s.fail("appointments.book"); err != nil {
		return err
	}

	sl.IsBooked = true
	appt.Date = sl.Date
	appt.Time = sl.Time
	cp := *appt
	r.s.appointments[appt.ID] = &cp
	return nil
}

func (r appointmentRepo) Cancel(ctx context.Context, appointmentID, slotID string) (*model.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.appointments[appointmentID]
	switch {
	case !ok:
		return nil, fmt.Errorf("failed to cancel appointment: %w", repository.ErrNotFound)
	case a.SlotID != slotID:
		return nil, fmt.Errorf("failed to cancel appointment: %w", repository.ErrSlotMismatch)
	case !a.Status.Cancellable():
		return nil, fmt.Errorf("failed to cancel %s appointment: %w", a.Status, repository.ErrInvalidTransition)
	}
	if err := r.s.fail("appointments.cancel"); err != nil {
		return nil, err
	}

	prev := *a
	a.Status = model.AppointmentStatusCancelled
	a.UpdatedAt = time.Now().UTC()

	sl, ok := r.s.slots[slotID]
	var err error
	if !ok {
		err = fmt.Errorf("failed to release slot: %w", repository.ErrNotFound)
	} else if ferr := r.s.fail("slots.release"); ferr != nil {
		err = fmt.Errorf("failed to release slot: %w", ferr)
	}
	if err != nil {
		*a = prev
		return nil, err
	}
	sl.IsBooked = false

	cp := *a
	return &cp, nil
}

func (r appointmentRepo) Get(ctx context.Context, id string) (*model.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.appointments[id]
	if !ok {
		return nil, fmt.Errorf("failed to get appointment: %w", repository.ErrNotFound)
	}
	cp := *a
	return &cp, nil
}

func (r appointmentRepo) List(ctx context.Context, f model.AppointmentFilter) ([]*model.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("appointments.list"); err != nil {
		return nil, err
	}
	out := []*model.Appointment{}
	for _, a := range r.s.appointments {
		if (f.PatientID != "" && a.PatientID != f.PatientID) ||
			(f.DoctorID != "" && a.DoctorID != f.DoctorID) ||
			(f.Date != "" && a.Date != f.Date) ||
			(f.Status != "" && a.Status != f.Status) {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		if out[i].Time != out[j].Time {
			return out[i].Time > out[j].Time
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r appointmentRepo) TransitionStatus(ctx context.Context, id string, from, to model.AppointmentStatus) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("appointments.transition"); err != nil {
		return false, err
	}
	a, ok := r.s.appointments[id]
	if !ok || a.Status != from {
		return false, nil
	}
	a.Status = to
	a.UpdatedAt = time.Now().UTC()
	return true, nil
}

// Put stores an appointment as-is, bypassing Book. For fixtures.
func (s *Store) Put(appts ...*model.Appointment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range appts {
		cp := *a
		s.appointments[a.ID] = &cp
	}
}
