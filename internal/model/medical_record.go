package model

import "time"

type RecordType string

const (
	RecordTypePrescription RecordType = "prescription"
	RecordTypeLabReport    RecordType = "lab_report"
	RecordTypeScan         RecordType = "scan"
	RecordTypeOther        RecordType = "other"
)

// MedicalRecord is metadata for a file hosted on the media CDN. Notes are
// stored encrypted; the service decrypts them before returning the record.
type MedicalRecord struct {
	ID           string     `db:"id" json:"id"`
	PatientID    string     `db:"patient_id" json:"patient_id"`
	Title        string     `db:"title" json:"title"`
	RecordType   RecordType `db:"record_type" json:"record_type"`
	FilePublicID string     `db:"file_public_id" json:"file_public_id"`
	FileURL      string     `db:"-" json:"file_url,omitempty"`
	Notes        string     `db:"notes" json:"notes,omitempty"`
	RecordDate   string     `db:"record_date" json:"record_date"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

type CreateMedicalRecordRequest struct {
	Title        string `json:"title" validate:"notblank,max=150"`
	RecordType   string `json:"record_type" validate:"required,oneof=prescription lab_report scan other"`
	FilePublicID string `json:"file_public_id" validate:"notblank,max=255"`
	Notes        string `json:"notes" validate:"max=4000"`
	RecordDate   string `json:"record_date" validate:"required,isodate"`
}
