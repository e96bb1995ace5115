package entity

import "errors"

var (
	// Patient errors
	ErrPatientNotFound  = errors.New("patient not found")
	ErrPatientInactive  = errors.New("patient is deactivated")
	ErrGuardianNotFound = errors.New("guardian not found")

	// Medication errors
	ErrMedicationNotFound = errors.New("medication not found")
	ErrMedicationInactive = errors.New("medication is not active")

	// Reminder errors
	ErrReminderNotFound  = errors.New("reminder record not found")
	ErrDuplicateReminder = errors.New("reminder already exists for this slot")

	// Registration errors
	ErrConsentRequired  = errors.New("consent is required")
	ErrTooManyContacts  = errors.New("at most two emergency contacts are allowed")
	ErrInvalidWhatsApp  = errors.New("invalid whatsapp number")
	ErrInvalidTimeOfDay = errors.New("invalid time of day, expected HH:MM")
	ErrInvalidWeekday   = errors.New("invalid weekday index, expected 0-6")

	// General errors
	ErrInvalidInput  = errors.New("invalid input")
	ErrDatabaseError = errors.New("database error")
)
