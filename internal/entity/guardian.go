package entity

import "time"

type Guardian struct {
	ID             string     `json:"id" db:"id"`
	Name           string     `json:"name" db:"name"`
	WhatsApp       string     `json:"whatsapp" db:"whatsapp"`
	ConsentGiven   bool       `json:"consent_given" db:"consent_given"`
	ConsentAt      *time.Time `json:"consent_at,omitempty" db:"consent_at"`
	ConsentVersion string     `json:"consent_version,omitempty" db:"consent_version"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}
