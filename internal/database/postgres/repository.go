package repository

import (
	"context"
	"time"

	"github.com/cuidador-digital/backend/internal/entity"
)

type GuardianRepository interface {
	Create(ctx context.Context, guardian *entity.Guardian) error
	GetByID(ctx context.Context, id string) (*entity.Guardian, error)
	GetAll(ctx context.Context) ([]*entity.Guardian, error)
}

type PatientRepository interface {
	Create(ctx context.Context, patient *entity.Patient) error
	GetByID(ctx context.Context, id string) (*entity.Patient, error)
	GetByWhatsApp(ctx context.Context, address string) (*entity.Patient, error)
	GetByGuardianID(ctx context.Context, guardianID string) ([]*entity.Patient, error)
}

type MedicationRepository interface {
	Create(ctx context.Context, medication *entity.Medication) error
	GetByID(ctx context.Context, id string) (*entity.Medication, error)

	// Query operations
	GetActive(ctx context.Context) ([]*entity.Medication, error)
	GetActiveByPatientID(ctx context.Context, patientID string) ([]*entity.Medication, error)

	// Opt-out: flips every active medication of the patient in one
	// transaction and stamps the deactivation time.
	DeactivateAllByPatient(ctx context.Context, patientID string, at time.Time) (int64, error)
}

type ContactRepository interface {
	Create(ctx context.Context, contact *entity.Contact) error
	GetByPatientID(ctx context.Context, patientID string) ([]*entity.Contact, error)
	CountByPatientID(ctx context.Context, patientID string) (int, error)
}

type ReminderRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, record *entity.ReminderRecord) error
	GetByID(ctx context.Context, id string) (*entity.ReminderRecord, error)

	// CreateBatch inserts all records in one transaction; partial
	// writes are never left behind.
	CreateBatch(ctx context.Context, records []*entity.ReminderRecord) error

	// ExistsForSlot reports whether the due scan already created a
	// record for this (medication, date, time) slot.
	ExistsForSlot(ctx context.Context, medicationID string, date time.Time, hhmm string) (bool, error)

	// Query operations
	GetLatestOpenByPatient(ctx context.Context, patientID string) (*entity.ReminderRecord, error)
	GetUnansweredBefore(ctx context.Context, cutoff time.Time) ([]*entity.ReminderRecord, error)
	GetDueDelayed(ctx context.Context, now time.Time) ([]*entity.ReminderRecord, error)
	GetByPatientAndRange(ctx context.Context, patientID string, from, to time.Time) ([]*entity.ReminderRecord, error)

	// Status transitions
	MarkResponded(ctx context.Context, id string, status entity.ReminderStatus, at time.Time, code string) error
	MarkEscalated(ctx context.Context, id string, at time.Time) error
	Reactivate(ctx context.Context, id string, at time.Time) error
	SetDelivery(ctx context.Context, id, sid, state string) error
	SetError(ctx context.Context, id, errText string) error
}
