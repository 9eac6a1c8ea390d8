package model

import "time"

type Reminder struct {
	ID           string    `db:"id" json:"id"`
	PatientID    string    `db:"patient_id" json:"patient_id"`
	MedicineName string    `db:"medicine_name" json:"medicine_name"`
	Time         string    `db:"time" json:"time"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

type CreateReminderRequest struct {
	MedicineName string `json:"medicine_name" validate:"notblank,max=100"`
	Time         string `json:"time" validate:"required,clock"`
}

type ToggleReminderRequest struct {
	Active *bool `json:"active" validate:"required"`
}
