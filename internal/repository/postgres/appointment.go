package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/healthmate/api/internal/model"
	"github.com/healthmate/api/internal/repository"
)

const appointmentColumns = `id, patient_id, doctor_id, slot_id, doctor_name, date, time, status, created_at, updated_at`

func (r *appointmentRepository) Book(ctx context.Context, appt *model.Appointment) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		var slot model.Slot
		err := tx.GetContext(ctx, &slot, `
			UPDATE slots SET is_booked = TRUE
			WHERE id = $1 AND doctor_id = $2 AND is_booked = FALSE
			RETURNING `+slotColumns,
			appt.SlotID, appt.DoctorID,
		)
		if errors.Is(err, sql.ErrNoRows) {
			return bookMiss(ctx, tx, appt)
		}
		if err != nil {
			return fmt.Errorf("failed to reserve slot: %w", err)
		}

		appt.Date = slot.Date
		appt.Time = slot.Time

		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO appointments (`+appointmentColumns+`)
			VALUES (:id, :patient_id, :doctor_id, :slot_id, :doctor_name, :date, :time, :status, :created_at, :updated_at)
		`, appt)
		if isUniqueViolation(err) {
			return fmt.Errorf("failed to create appointment: %w", repository.ErrSlotConflict)
		}
		if err != nil {
			return fmt.Errorf("failed to create appointment: %w", err)
		}
		return nil
	})
}

// bookMiss explains why the conditional reservation matched no row.
func bookMiss(ctx context.Context, tx *sqlx.Tx, appt *model.Appointment) error {
	var current struct {
		DoctorID string `db:"doctor_id"`
		IsBooked bool   `db:"is_booked"`
	}
	err := tx.GetContext(ctx, &current, `SELECT doctor_id, is_booked FROM slots WHERE id = $1`, appt.SlotID)
	if err != nil {
		return fmt.Errorf("failed to reserve slot: %w", notFound(err))
	}
	if current.DoctorID != appt.DoctorID {
		return fmt.Errorf("failed to reserve slot: %w", repository.ErrSlotMismatch)
	}
	return fmt.Errorf("failed to reserve slot: %w", repository.ErrSlotConflict)
}

func (r *appointmentRepository) Cancel(ctx context.Context, appointmentID, slotID string) (*model.Appointment, error) {
	var appt model.Appointment

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &appt, `
			UPDATE appointments SET status = $3, updated_at = NOW()
			WHERE id = $1 AND slot_id = $2 AND status IN ('PENDING', 'CONFIRMED')
			RETURNING `+appointmentColumns,
			appointmentID, slotID, model.AppointmentStatusCancelled,
		)
		if errors.Is(err, sql.ErrNoRows) {
			return cancelMiss(ctx, tx, appointmentID, slotID)
		}
		if err != nil {
			return fmt.Errorf("failed to cancel appointment: %w", err)
		}

		result, err := tx.ExecContext(ctx, `UPDATE slots SET is_booked = FALSE WHERE id = $1`, slotID)
		if err != nil {
			return fmt.Errorf("failed to release slot: %w", err)
		}
		return expectRows(result, "failed to release slot")
	})
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

func cancelMiss(ctx context.Context, tx *sqlx.Tx, appointmentID, slotID string) error {
	var current struct {
		SlotID string                  `db:"slot_id"`
		Status model.AppointmentStatus `db:"status"`
	}
	err := tx.GetContext(ctx, &current, `SELECT slot_id, status FROM appointments WHERE id = $1`, appointmentID)
	if err != nil {
		return fmt.Errorf("failed to cancel appointment: %w", notFound(err))
	}
	if current.SlotID != slotID {
		return fmt.Errorf("failed to cancel appointment: %w", repository.ErrSlotMismatch)
	}
	return fmt.Errorf("failed to cancel %s appointment: %w", current.Status, repository.ErrInvalidTransition)
}

func (r *appointmentRepository) Get(ctx context.Context, id string) (*model.Appointment, error) {
	var appt model.Appointment
	err := r.db.GetContext(ctx, &appt, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", notFound(err))
	}
	return &appt, nil
}

func (r *appointmentRepository) List(ctx context.Context, filter model.AppointmentFilter) ([]*model.Appointment, error) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.PatientID != "" {
		add("patient_id = $%d", filter.PatientID)
	}
	if filter.DoctorID != "" {
		add("doctor_id = $%d", filter.DoctorID)
	}
	if filter.Date != "" {
		add("date = $%d", filter.Date)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY date DESC, time DESC, created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	appts := []*model.Appointment{}
	if err := r.db.SelectContext(ctx, &appts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appts, nil
}

func (r *appointmentRepository) TransitionStatus(ctx context.Context, id string, from, to model.AppointmentStatus) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE appointments SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`,
		id, from, to,
	)
	if err != nil {
		return false, fmt.Errorf("failed to transition appointment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}
