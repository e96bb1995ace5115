package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cuidador-digital/backend/internal/entity"
	"github.com/google/uuid"
)

type patientRepository struct {
	db *sql.DB
}

func NewPatientRepository(db *sql.DB) PatientRepository {
	return &patientRepository{db: db}
}

func (r *patientRepository) Create(ctx context.Context, patient *entity.Patient) error {
	if patient.ID == "" {
		patient.ID = uuid.NewString()
	}
	if patient.Timezone == "" {
		patient.Timezone = "America/Sao_Paulo"
	}
	now := time.Now()

	query := `
		INSERT INTO patients (id, guardian_id, name, whatsapp, timezone, active, created_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		patient.ID,
		patient.GuardianID,
		patient.Name,
		patient.WhatsApp,
		patient.Timezone,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}

	patient.Active = true
	patient.CreatedAt = now
	return nil
}

func (r *patientRepository) GetByID(ctx context.Context, id string) (*entity.Patient, error) {
	query := `
		SELECT id, guardian_id, name, whatsapp, timezone, active, deactivated_at, created_at
		FROM patients
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *patientRepository) GetByWhatsApp(ctx context.Context, address string) (*entity.Patient, error) {
	query := `
		SELECT id, guardian_id, name, whatsapp, timezone, active, deactivated_at, created_at
		FROM patients
		WHERE whatsapp = $1
		ORDER BY created_at ASC
		LIMIT 1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, address))
}

func (r *patientRepository) GetByGuardianID(ctx context.Context, guardianID string) ([]*entity.Patient, error) {
	query := `
		SELECT id, guardian_id, name, whatsapp, timezone, active, deactivated_at, created_at
		FROM patients
		WHERE guardian_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, guardianID)
	if err != nil {
		return nil, fmt.Errorf("failed to query patients by guardian: %w", err)
	}
	defer rows.Close()

	var patients []*entity.Patient
	for rows.Next() {
		patient, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, patient)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating patients: %w", err)
	}

	return patients, nil
}

func (r *patientRepository) scanOne(row *sql.Row) (*entity.Patient, error) {
	var patient entity.Patient
	err := row.Scan(
		&patient.ID,
		&patient.GuardianID,
		&patient.Name,
		&patient.WhatsApp,
		&patient.Timezone,
		&patient.Active,
		&patient.DeactivatedAt,
		&patient.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, entity.ErrPatientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	return &patient, nil
}

func (r *patientRepository) scanRow(rows *sql.Rows) (*entity.Patient, error) {
	var patient entity.Patient
	err := rows.Scan(
		&patient.ID,
		&patient.GuardianID,
		&patient.Name,
		&patient.WhatsApp,
		&patient.Timezone,
		&patient.Active,
		&patient.DeactivatedAt,
		&patient.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan patient: %w", err)
	}
	return &patient, nil
}
