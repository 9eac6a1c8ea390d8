package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/healthmate/api/internal/model"
	"github.com/healthmate/api/internal/repository"
)

const slotColumns = `id, doctor_id, date, time, is_booked, seq, created_at`

func (r *slotRepository) CreateBatch(ctx context.Context, slots []*model.Slot) error {
	if len(slots) == 0 {
		return nil
	}

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		var exists bool
		if err := tx.GetContext(ctx, &exists,
			`SELECT EXISTS (SELECT 1 FROM doctors WHERE id = $1)`, slots[0].DoctorID); err != nil {
			return fmt.Errorf("failed to check doctor: %w", err)
		}
		if !exists {
			return fmt.Errorf("failed to create slots: doctor %s: %w", slots[0].DoctorID, repository.ErrNotFound)
		}

		// One row at a time so seq follows the order of the input.
		query := `
			INSERT INTO slots (id, doctor_id, date, time, is_booked, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING seq
		`
		for _, s := range slots {
			if err := tx.QueryRowxContext(ctx, query,
				s.ID, s.DoctorID, s.Date, s.Time, s.IsBooked, s.CreatedAt,
			).Scan(&s.Seq); err != nil {
				return fmt.Errorf("failed to create slot: %w", err)
			}
		}
		return nil
	})
}

func (r *slotRepository) Get(ctx context.Context, id string) (*model.Slot, error) {
	var slot model.Slot
	err := r.db.GetContext(ctx, &slot, `SELECT `+slotColumns+` FROM slots WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get slot: %w", notFound(err))
	}
	return &slot, nil
}

func (r *slotRepository) ListByDoctor(ctx context.Context, doctorID string) ([]*model.Slot, error) {
	slots := []*model.Slot{}
	err := r.db.SelectContext(ctx, &slots,
		`SELECT `+slotColumns+` FROM slots WHERE doctor_id = $1 ORDER BY seq ASC`, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	return slots, nil
}

func (r *slotRepository) ListByDate(ctx context.Context, date string) ([]*model.Slot, error) {
	slots := []*model.Slot{}
	err := r.db.SelectContext(ctx, &slots,
		`SELECT `+slotColumns+` FROM slots WHERE date = $1 ORDER BY seq ASC`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots by date: %w", err)
	}
	return slots, nil
}

func (r *slotRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM slots WHERE id = $1 AND NOT is_booked`, id)
	if err != nil {
		return fmt.Errorf("failed to delete slot: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}

	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("failed to delete slot: %w", repository.ErrSlotConflict)
}
