package appointment

import "errors"

var (
	ErrAppointmentNotFound     = errors.New("appointment not found")
	ErrAppointmentConflict     = errors.New("appointment time slot is already booked")
	ErrInvalidStatusTransition = errors.New("invalid appointment status transition")
	ErrScheduledInPast         = errors.New("cannot schedule appointment in the past")
	ErrInvalidDuration         = errors.New("appointment duration must be between 20 and 120 minutes")
	ErrInvalidModality         = errors.New("invalid appointment modality")
	ErrAlreadyLinked           = errors.New("appointment is already part of a reimbursement request")
)
