package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/healthmate/api/internal/model"
	"github.com/healthmate/api/internal/repository"
)

const doctorColumns = `id, name, specialization, experience_years, education, image_public_id, created_at, updated_at`

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	query := `
		INSERT INTO doctors (` + doctorColumns + `)
		VALUES (:id, :name, :specialization, :experience_years, :education, :image_public_id, :created_at, :updated_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, doctor); err != nil {
		return fmt.Errorf("failed to create doctor: %w", err)
	}
	return nil
}

func (r *doctorRepository) Get(ctx context.Context, id string) (*model.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE id = $1`

	var doctor model.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, id); err != nil {
		return nil, fmt.Errorf("failed to get doctor: %w", notFound(err))
	}
	return &doctor, nil
}

func (r *doctorRepository) Update(ctx context.Context, doctor *model.Doctor) error {
	query := `
		UPDATE doctors
		SET name = :name, specialization = :specialization, experience_years = :experience_years,
			education = :education, image_public_id = :image_public_id, updated_at = :updated_at
		WHERE id = :id
	`
	doctor.UpdatedAt = time.Now().UTC()

	result, err := r.db.NamedExecContext(ctx, query, doctor)
	if err != nil {
		return fmt.Errorf("failed to update doctor: %w", err)
	}
	return expectRows(result, "failed to update doctor")
}

func (r *doctorRepository) Delete(ctx context.Context, id string) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		// Row locks make a concurrent Book wait for this transaction. Once the
		// cascade has removed the slot, that Book matches no row.
		var states []bool
		err := tx.SelectContext(ctx, &states,
			`SELECT is_booked FROM slots WHERE doctor_id = $1 FOR UPDATE`, id)
		if err != nil {
			return fmt.Errorf("failed to lock doctor slots: %w", err)
		}
		booked := 0
		for _, b := range states {
			if b {
				booked++
			}
		}
		if booked > 0 {
			return fmt.Errorf("doctor has %d booked slots: %w", booked, repository.ErrSlotConflict)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM doctors WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete doctor: %w", err)
		}
		return expectRows(result, "failed to delete doctor")
	})
}

func (r *doctorRepository) List(ctx context.Context, filter model.DoctorFilter) ([]*model.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors`
	var args []interface{}
	if filter.Specialization != "" {
		query += ` WHERE LOWER(specialization) = LOWER($1)`
		args = append(args, filter.Specialization)
	}
	query += ` ORDER BY name ASC`

	doctors := []*model.Doctor{}
	if err := r.db.SelectContext(ctx, &doctors, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}
