package entity

import (
	"time"
)

type Medication struct {
	ID            string     `json:"id" db:"id"`
	PatientID     string     `json:"patient_id" db:"patient_id"`
	Name          string     `json:"name" db:"name"`
	Dosage        string     `json:"dosage" db:"dosage"`
	Times         []string   `json:"times" db:"times"`       // "HH:MM", local civil time, ordered
	Weekdays      []int      `json:"weekdays" db:"weekdays"` // 0=Sunday .. 6=Saturday
	Active        bool       `json:"active" db:"active"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty" db:"deactivated_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

// DueAt reports whether this medication is due at the given weekday and
// minute. Stored times may carry seconds; only the HH:MM portion counts.
func (m *Medication) DueAt(weekday int, hhmm string) bool {
	if !m.Active {
		return false
	}
	if !m.ScheduledOn(weekday) {
		return false
	}
	for _, t := range m.Times {
		if normalizeTime(t) == hhmm {
			return true
		}
	}
	return false
}

func (m *Medication) ScheduledOn(weekday int) bool {
	for _, d := range m.Weekdays {
		if d == weekday {
			return true
		}
	}
	return false
}

// DueTimes returns the scheduled times matching the given minute.
// Duplicate entries collapse into one slot; reminder records are keyed
// by (medication, date, time) and fire once per slot.
func (m *Medication) DueTimes(hhmm string) []string {
	var due []string
	for _, t := range m.Times {
		normalized := normalizeTime(t)
		if normalized != hhmm {
			continue
		}
		seen := false
		for _, d := range due {
			if d == normalized {
				seen = true
				break
			}
		}
		if !seen {
			due = append(due, normalized)
		}
	}
	return due
}

func normalizeTime(t string) string {
	if len(t) > 5 {
		return t[:5]
	}
	return t
}
