package scheduling

import "errors"

var (
	ErrValidation           = errors.New("invalid input")
	ErrProfessionalNotFound = errors.New("professional not found")
	ErrPatientNotFound      = errors.New("patient not found")
	ErrRuleNotFound         = errors.New("availability rule not found")
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrSlotConflict         = errors.New("interval conflicts with an existing appointment")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrCalendarBusy         = errors.New("calendar is being modified, please retry")
)
