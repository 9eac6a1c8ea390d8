package postgres

import (
	"context"
	"fmt"

	"github.com/healthmate/api/internal/model"
)

func (r *patientRepository) Upsert(ctx context.Context, profile *model.PatientProfile) error {
	query := `
		INSERT INTO patient_profiles (id, name, email, phone, created_at, updated_at)
		VALUES (:id, :name, :email, :phone, :created_at, :updated_at)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, email = EXCLUDED.email, phone = EXCLUDED.phone, updated_at = EXCLUDED.updated_at
		RETURNING created_at
	`
	rows, err := r.db.NamedQueryContext(ctx, query, profile)
	if err != nil {
		return fmt.Errorf("failed to upsert patient profile: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&profile.CreatedAt); err != nil {
			return fmt.Errorf("failed to read patient profile: %w", err)
		}
	}
	return rows.Err()
}

func (r *patientRepository) Get(ctx context.Context, id string) (*model.PatientProfile, error) {
	var profile model.PatientProfile
	err := r.db.GetContext(ctx, &profile,
		`SELECT id, name, email, phone, created_at, updated_at FROM patient_profiles WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get patient profile: %w", notFound(err))
	}
	return &profile, nil
}
