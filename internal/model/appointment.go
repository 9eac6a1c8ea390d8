package model

import "time"

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "PENDING"
	AppointmentStatusConfirmed AppointmentStatus = "CONFIRMED"
	AppointmentStatusCompleted AppointmentStatus = "COMPLETED"
	AppointmentStatusCancelled AppointmentStatus = "CANCELLED"
)

// Cancellable reports whether an appointment in status s may be cancelled.
func (s AppointmentStatus) Cancellable() bool {
	return s == AppointmentStatusPending || s == AppointmentStatusConfirmed
}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusConfirmed, AppointmentStatusCompleted, AppointmentStatusCancelled:
		return true
	}
	return false
}

// Appointment carries denormalized doctor name, date and time for display.
type Appointment struct {
	ID         string            `db:"id" json:"id" bson:"_id"`
	PatientID  string            `db:"patient_id" json:"patient_id" bson:"patient_id"`
	DoctorID   string            `db:"doctor_id" json:"doctor_id" bson:"doctor_id"`
	SlotID     string            `db:"slot_id" json:"slot_id" bson:"slot_id"`
	DoctorName string            `db:"doctor_name" json:"doctor_name" bson:"doctor_name"`
	Date       string            `db:"date" json:"date" bson:"date"`
	Time       string            `db:"time" json:"time" bson:"time"`
	Status     AppointmentStatus `db:"status" json:"status" bson:"status"`
	CreatedAt  time.Time         `db:"created_at" json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time         `db:"updated_at" json:"updated_at" bson:"updated_at"`
}

type BookAppointmentRequest struct {
	DoctorID string `json:"doctor_id" validate:"required,uuid"`
	SlotID   string `json:"slot_id" validate:"required,uuid"`
}

type CancelAppointmentRequest struct {
	SlotID string `json:"slot_id" validate:"required,uuid"`
}

// AppointmentFilter narrows appointment listings. Zero values match everything.
type AppointmentFilter struct {
	PatientID string
	DoctorID  string
	Date      string
	Status    AppointmentStatus
	Limit     int
}
