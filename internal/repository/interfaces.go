package repository

import (
	"context"
	"time"

	"github.com/healthmate/api/internal/model"
)

// All repository interfaces in one file
type (
	DoctorRepository interface {
		Create(ctx context.Context, doctor *model.Doctor) error
		Get(ctx context.Context, id string) (*model.Doctor, error)
		Update(ctx context.Context, doctor *model.Doctor) error
		// Delete fails with ErrSlotConflict while any of the doctor's slots is booked.
		Delete(ctx context.Context, id string) error
		List(ctx context.Context, filter model.DoctorFilter) ([]*model.Doctor, error)
	}

	SlotRepository interface {
		CreateBatch(ctx context.Context, slots []*model.Slot) error
		Get(ctx context.Context, id string) (*model.Slot, error)
		// ListByDoctor returns slots in insertion order.
		ListByDoctor(ctx context.Context, doctorID string) ([]*model.Slot, error)
		ListByDate(ctx context.Context, date string) ([]*model.Slot, error)
		// Delete fails with ErrSlotConflict when the slot is booked.
		Delete(ctx context.Context, id string) error
	}

	AppointmentRepository interface {
		// Book flips the slot from free to booked and inserts appt in one
		// atomic step. appt.Date and appt.Time are filled from the slot.
		// Returns ErrSlotConflict when the slot is already booked,
		// ErrSlotMismatch when it belongs to another doctor and ErrNotFound
		// when it does not exist.
		Book(ctx context.Context, appt *model.Appointment) error
		// Cancel marks a PENDING or CONFIRMED appointment CANCELLED and frees
		// its slot. Either both writes land or neither does.
		Cancel(ctx context.Context, appointmentID, slotID string) (*model.Appointment, error)
		Get(ctx context.Context, id string) (*model.Appointment, error)
		List(ctx context.Context, filter model.AppointmentFilter) ([]*model.Appointment, error)
		// TransitionStatus moves id from -> to and reports whether a row changed.
		TransitionStatus(ctx context.Context, id string, from, to model.AppointmentStatus) (bool, error)
	}

	ReminderRepository interface {
		Create(ctx context.Context, reminder *model.Reminder) error
		Get(ctx context.Context, id string) (*model.Reminder, error)
		ListByPatient(ctx context.Context, patientID string) ([]*model.Reminder, error)
		ListActiveAt(ctx context.Context, clock string) ([]*model.Reminder, error)
		SetActive(ctx context.Context, id string, active bool) error
		Delete(ctx context.Context, id string) error
	}

	PatientRepository interface {
		Upsert(ctx context.Context, profile *model.PatientProfile) error
		Get(ctx context.Context, id string) (*model.PatientProfile, error)
	}

	MedicalRecordRepository interface {
		Create(ctx context.Context, record *model.MedicalRecord) error
		Get(ctx context.Context, id string) (*model.MedicalRecord, error)
		ListByPatient(ctx context.Context, patientID string) ([]*model.MedicalRecord, error)
		Delete(ctx context.Context, id string) error
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		// ClaimPending leases up to limit due events so concurrent workers do
		// not pick the same rows.
		ClaimPending(ctx context.Context, limit int, lease time.Duration) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id string) error
		MarkFailed(ctx context.Context, id string, errorMessage string, retryAt time.Time) error
		MoveToDeadLetter(ctx context.Context, event *model.OutboxEvent) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
