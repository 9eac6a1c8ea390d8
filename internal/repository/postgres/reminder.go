package postgres

import (
	"context"
	"fmt"

	"github.com/healthmate/api/internal/model"
)

const reminderColumns = `id, patient_id, medicine_name, time, active, created_at, updated_at`

func (r *reminderRepository) Create(ctx context.Context, reminder *model.Reminder) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO reminders (`+reminderColumns+`)
		VALUES (:id, :patient_id, :medicine_name, :time, :active, :created_at, :updated_at)
	`, reminder)
	if err != nil {
		return fmt.Errorf("failed to create reminder: %w", err)
	}
	return nil
}

func (r *reminderRepository) Get(ctx context.Context, id string) (*model.Reminder, error) {
	var reminder model.Reminder
	err := r.db.GetContext(ctx, &reminder, `SELECT `+reminderColumns+` FROM reminders WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get reminder: %w", notFound(err))
	}
	return &reminder, nil
}

func (r *reminderRepository) ListByPatient(ctx context.Context, patientID string) ([]*model.Reminder, error) {
	reminders := []*model.Reminder{}
	err := r.db.SelectContext(ctx, &reminders,
		`SELECT `+reminderColumns+` FROM reminders WHERE patient_id = $1 ORDER BY time ASC`, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	return reminders, nil
}

func (r *reminderRepository) ListActiveAt(ctx context.Context, clock string) ([]*model.Reminder, error) {
	reminders := []*model.Reminder{}
	err := r.db.SelectContext(ctx, &reminders,
		`SELECT `+reminderColumns+` FROM reminders WHERE active AND time = $1`, clock)
	if err != nil {
		return nil, fmt.Errorf("failed to list due reminders: %w", err)
	}
	return reminders, nil
}

func (r *reminderRepository) SetActive(ctx context.Context, id string, active bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE reminders SET active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("failed to update reminder: %w", err)
	}
	return expectRows(result, "failed to update reminder")
}

func (r *reminderRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete reminder: %w", err)
	}
	return expectRows(result, "failed to delete reminder")
}
