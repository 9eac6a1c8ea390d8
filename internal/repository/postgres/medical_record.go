package postgres

import (
	"context"
	"fmt"

	"github.com/healthmate/api/internal/model"
)

const medicalRecordColumns = `id, patient_id, title, record_type, file_public_id, notes, record_date, created_at, updated_at`

func (r *medicalRecordRepository) Create(ctx context.Context, record *model.MedicalRecord) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO medical_records (`+medicalRecordColumns+`)
		VALUES (:id, :patient_id, :title, :record_type, :file_public_id, :notes, :record_date, :created_at, :updated_at)
	`, record)
	if err != nil {
		return fmt.Errorf("failed to create medical record: %w", err)
	}
	return nil
}

func (r *medicalRecordRepository) Get(ctx context.Context, id string) (*model.MedicalRecord, error) {
	var record model.MedicalRecord
	err := r.db.GetContext(ctx, &record, `SELECT `+medicalRecordColumns+` FROM medical_records WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get medical record: %w", notFound(err))
	}
	return &record, nil
}

func (r *medicalRecordRepository) ListByPatient(ctx context.Context, patientID string) ([]*model.MedicalRecord, error) {
	records := []*model.MedicalRecord{}
	err := r.db.SelectContext(ctx, &records, `
		SELECT `+medicalRecordColumns+` FROM medical_records
		WHERE patient_id = $1
		ORDER BY record_date DESC, created_at DESC
	`, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list medical records: %w", err)
	}
	return records, nil
}

func (r *medicalRecordRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM medical_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete medical record: %w", err)
	}
	return expectRows(result, "failed to delete medical record")
}
