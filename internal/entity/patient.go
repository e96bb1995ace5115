package entity

import "time"

type Patient struct {
	ID            string     `json:"id" db:"id"`
	GuardianID    string     `json:"guardian_id" db:"guardian_id"`
	Name          string     `json:"name" db:"name"`
	WhatsApp      string     `json:"whatsapp" db:"whatsapp"` // digits only, no country code
	Timezone      string     `json:"timezone" db:"timezone"`
	Active        bool       `json:"active" db:"active"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty" db:"deactivated_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}
