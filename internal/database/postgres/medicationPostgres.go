package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cuidador-digital/backend/internal/entity"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type medicationRepository struct {
	db *sql.DB
}

func NewMedicationRepository(db *sql.DB) MedicationRepository {
	return &medicationRepository{db: db}
}

func (r *medicationRepository) Create(ctx context.Context, medication *entity.Medication) error {
	if medication.ID == "" {
		medication.ID = uuid.NewString()
	}
	now := time.Now()

	query := `
		INSERT INTO medications (id, patient_id, name, dosage, times, weekdays, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		medication.ID,
		medication.PatientID,
		medication.Name,
		medication.Dosage,
		pq.Array(medication.Times),
		pq.Array(medication.Weekdays),
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create medication: %w", err)
	}

	medication.Active = true
	medication.CreatedAt = now
	return nil
}

func (r *medicationRepository) GetByID(ctx context.Context, id string) (*entity.Medication, error) {
	query := `
		SELECT id, patient_id, name, dosage, times, weekdays, active, deactivated_at, created_at
		FROM medications
		WHERE id = $1
	`

	var medication entity.Medication
	var times pq.StringArray
	var weekdays pq.Int64Array
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&medication.ID,
		&medication.PatientID,
		&medication.Name,
		&medication.Dosage,
		&times,
		&weekdays,
		&medication.Active,
		&medication.DeactivatedAt,
		&medication.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, entity.ErrMedicationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get medication: %w", err)
	}

	medication.Times = times
	medication.Weekdays = toIntSlice(weekdays)
	return &medication, nil
}

func (r *medicationRepository) GetActive(ctx context.Context) ([]*entity.Medication, error) {
	query := `
		SELECT id, patient_id, name, dosage, times, weekdays, active, deactivated_at, created_at
		FROM medications
		WHERE active = TRUE
		ORDER BY created_at ASC
	`
	return r.queryMany(ctx, query)
}

func (r *medicationRepository) GetActiveByPatientID(ctx context.Context, patientID string) ([]*entity.Medication, error) {
	query := `
		SELECT id, patient_id, name, dosage, times, weekdays, active, deactivated_at, created_at
		FROM medications
		WHERE patient_id = $1 AND active = TRUE
		ORDER BY created_at ASC
	`
	return r.queryMany(ctx, query, patientID)
}

// DeactivateAllByPatient flips every active medication in a single
// transaction so an opt-out cannot leave the schedule half-disabled.
func (r *medicationRepository) DeactivateAllByPatient(ctx context.Context, patientID string, at time.Time) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE medications
		SET active = FALSE, deactivated_at = $1
		WHERE patient_id = $2 AND active = TRUE
	`
	result, err := tx.ExecContext(ctx, query, at, patientID)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate medications: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return rowsAffected, nil
}

func (r *medicationRepository) queryMany(ctx context.Context, query string, args ...interface{}) ([]*entity.Medication, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query medications: %w", err)
	}
	defer rows.Close()

	var medications []*entity.Medication
	for rows.Next() {
		var medication entity.Medication
		var times pq.StringArray
		var weekdays pq.Int64Array
		err := rows.Scan(
			&medication.ID,
			&medication.PatientID,
			&medication.Name,
			&medication.Dosage,
			&times,
			&weekdays,
			&medication.Active,
			&medication.DeactivatedAt,
			&medication.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan medication: %w", err)
		}
		medication.Times = times
		medication.Weekdays = toIntSlice(weekdays)
		medications = append(medications, &medication)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating medications: %w", err)
	}

	return medications, nil
}

func toIntSlice(arr pq.Int64Array) []int {
	out := make([]int, 0, len(arr))
	for _, v := range arr {
		out = append(out, int(v))
	}
	return out
}
