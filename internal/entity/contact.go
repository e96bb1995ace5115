package entity

import "time"

// Contact is an emergency contact notified when a reminder goes
// unanswered. At most two per patient, enforced at registration.
type Contact struct {
	ID        string    `json:"id" db:"id"`
	PatientID string    `json:"patient_id" db:"patient_id"`
	Name      string    `json:"name" db:"name"`
	WhatsApp  string    `json:"whatsapp" db:"whatsapp"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
