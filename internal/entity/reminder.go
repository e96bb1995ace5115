package entity

import (
	"time"
)

type ReminderStatus string

const (
	ReminderStatusSent             ReminderStatus = "sent"
	ReminderStatusTaken            ReminderStatus = "tomou"
	ReminderStatusNotTaken         ReminderStatus = "nao_tomou"
	ReminderStatusDelayed          ReminderStatus = "adiado"
	ReminderStatusAlertSent        ReminderStatus = "alerta_enviado"
	ReminderStatusScheduledDelayed ReminderStatus = "scheduled_delayed"
	ReminderStatusError            ReminderStatus = "error"
)

// IsTerminal reports whether no further automatic transition happens on
// a record once it carries this status.
func (s ReminderStatus) IsTerminal() bool {
	switch s {
	case ReminderStatusTaken, ReminderStatusNotTaken, ReminderStatusDelayed,
		ReminderStatusAlertSent, ReminderStatusError:
		return true
	case ReminderStatusSent, ReminderStatusScheduledDelayed:
		return false
	}
	return false
}

type ReminderSource string

const (
	ReminderSourceScan    ReminderSource = "scan"
	ReminderSourceManual  ReminderSource = "manual"
	ReminderSourceDelayed ReminderSource = "delayed"
)

type ReminderRecord struct {
	ID            string         `json:"id" db:"id"`
	MedicationID  string         `json:"medication_id" db:"medication_id"`
	PatientID     string         `json:"patient_id" db:"patient_id"`
	Status        ReminderStatus `json:"status" db:"status"`
	Attempts      int            `json:"attempts" db:"attempts"`
	ScheduledTime string         `json:"scheduled_time" db:"scheduled_time"` // literal "HH:MM" that matched
	ScheduledDate time.Time      `json:"scheduled_date" db:"scheduled_date"`
	Source        ReminderSource `json:"source" db:"source"`
	RespondedAt   *time.Time     `json:"responded_at,omitempty" db:"responded_at"`
	ResponseCode  string         `json:"response_code,omitempty" db:"response_code"`
	DeliverySID   string         `json:"delivery_sid,omitempty" db:"delivery_sid"`
	DeliveryState string         `json:"delivery_state,omitempty" db:"delivery_state"`
	ErrorText     string         `json:"error_text,omitempty" db:"error_text"`
	DelayedByMin  int            `json:"delayed_by_min,omitempty" db:"delayed_by_min"`
	EscalatedAt   *time.Time     `json:"escalated_at,omitempty" db:"escalated_at"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
}

// AdherenceStats holds one patient's reminder outcomes for a single
// civil day, as reported to the guardian.
type AdherenceStats struct {
	Taken      int `json:"taken"`
	NotTaken   int `json:"not_taken"`
	Delayed    int `json:"delayed"`
	NoResponse int `json:"no_response"`
}

func (s *AdherenceStats) Total() int {
	return s.Taken + s.NotTaken + s.Delayed + s.NoResponse
}

// Count buckets one record status into the daily stats. Statuses sent
// and alerta_enviado both mean the patient never answered.
func (s *AdherenceStats) Count(status ReminderStatus) {
	switch status {
	case ReminderStatusTaken:
		s.Taken++
	case ReminderStatusNotTaken:
		s.NotTaken++
	case ReminderStatusDelayed:
		s.Delayed++
	case ReminderStatusSent, ReminderStatusAlertSent:
		s.NoResponse++
	case ReminderStatusScheduledDelayed, ReminderStatusError:
		// not part of the adherence report
	}
}
