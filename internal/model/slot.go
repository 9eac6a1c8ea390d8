package model

import "time"

// Slot is a bookable (doctor, date, time) unit. Time is a display string.
type Slot struct {
	ID        string    `db:"id" json:"id" bson:"_id"`
	DoctorID  string    `db:"doctor_id" json:"doctor_id" bson:"doctor_id"`
	Date      string    `db:"date" json:"date" bson:"date"`
	Time      string    `db:"time" json:"time" bson:"time"`
	IsBooked  bool      `db:"is_booked" json:"is_booked" bson:"is_booked"`
	Seq       int64     `db:"seq" json:"-" bson:"seq"`
	CreatedAt time.Time `db:"created_at" json:"created_at" bson:"created_at"`
}

type CreateSlotsRequest struct {
	Date  string   `json:"date" validate:"required,isodate"`
	Times []string `json:"times" validate:"required,min=1,max=96,dive,notblank,max=20"`
}

type GenerateSlotsRequest struct {
	Date        string `json:"date" validate:"required,isodate"`
	Start       string `json:"start" validate:"required,clock"`
	End         string `json:"end" validate:"required,clock"`
	StepMinutes int    `json:"step_minutes" validate:"omitempty,min=5,max=240"`
}

// SlotCounts summarises slots on a single date.
type SlotCounts struct {
	Free   int `json:"free"`
	Booked int `json:"booked"`
}
