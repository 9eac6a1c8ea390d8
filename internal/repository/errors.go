package repository

import "errors"

var (
	ErrNotFound          = errors.New("record not found")
	ErrSlotConflict      = errors.New("slot already booked")
	ErrSlotMismatch      = errors.New("slot does not belong to doctor")
	ErrInvalidTransition = errors.New("invalid status transition")
)
