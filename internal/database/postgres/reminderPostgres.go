package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cuidador-digital/backend/internal/entity"
	"github.com/google/uuid"
)

const reminderColumns = `
	id, medication_id, patient_id, status, attempts, scheduled_time,
	scheduled_date, source, responded_at, response_code, delivery_sid,
	delivery_state, error_text, delayed_by_min, escalated_at, created_at
`

type reminderRepository struct {
	db *sql.DB
}

func NewReminderRepository(db *sql.DB) ReminderRepository {
	return &reminderRepository{db: db}
}

func (r *reminderRepository) Create(ctx context.Context, record *entity.ReminderRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO reminders (
			id, medication_id, patient_id, status, attempts, scheduled_time,
			scheduled_date, source, response_code, delivery_sid, delivery_state,
			error_text, delayed_by_min, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.MedicationID,
		record.PatientID,
		record.Status,
		record.Attempts,
		record.ScheduledTime,
		record.ScheduledDate,
		record.Source,
		record.ResponseCode,
		record.DeliverySID,
		record.DeliveryState,
		record.ErrorText,
		record.DelayedByMin,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create reminder record: %w", err)
	}

	return nil
}

// CreateBatch writes all records inside one transaction. A failure on
// any insert rolls back the whole batch.
func (r *reminderRepository) CreateBatch(ctx context.Context, records []*entity.ReminderRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO reminders (
			id, medication_id, patient_id, status, attempts, scheduled_time,
			scheduled_date, source, delayed_by_min, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	for _, record := range records {
		if record.ID == "" {
			record.ID = uuid.NewString()
		}
		if record.CreatedAt.IsZero() {
			record.CreatedAt = time.Now()
		}

		_, err := tx.ExecContext(ctx, query,
			record.ID,
			record.MedicationID,
			record.PatientID,
			record.Status,
			record.Attempts,
			record.ScheduledTime,
			record.ScheduledDate,
			record.Source,
			record.DelayedByMin,
			record.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert reminder record %s: %w", record.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reminder batch: %w", err)
	}

	return nil
}

func (r *reminderRepository) ExistsForSlot(ctx context.Context, medicationID string, date time.Time, hhmm string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM reminders
			WHERE medication_id = $1 AND scheduled_date = $2 AND scheduled_time = $3 AND source = 'scan'
		)
	`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, medicationID, date, hhmm).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check reminder slot: %w", err)
	}
	return exists, nil
}

func (r *reminderRepository) GetByID(ctx context.Context, id string) (*entity.ReminderRecord, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE id = $1`

	record, err := scanReminder(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, entity.ErrReminderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reminder record: %w", err)
	}
	return record, nil
}

// GetLatestOpenByPatient returns the most recent record still waiting
// for an answer, or nil when the patient has none.
func (r *reminderRepository) GetLatestOpenByPatient(ctx context.Context, patientID string) (*entity.ReminderRecord, error) {
	query := `SELECT ` + reminderColumns + `
		FROM reminders
		WHERE patient_id = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT 1
	`

	record, err := scanReminder(r.db.QueryRowContext(ctx, query, patientID, entity.ReminderStatusSent))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get open reminder: %w", err)
	}
	return record, nil
}

func (r *reminderRepository) GetUnansweredBefore(ctx context.Context, cutoff time.Time) ([]*entity.ReminderRecord, error) {
	query := `SELECT ` + reminderColumns + `
		FROM reminders
		WHERE status = $1 AND created_at <= $2
		ORDER BY created_at ASC
	`
	return r.queryMany(ctx, query, entity.ReminderStatusSent, cutoff)
}

// GetDueDelayed finds postponed reminders whose delay window has passed.
func (r *reminderRepository) GetDueDelayed(ctx context.Context, now time.Time) ([]*entity.ReminderRecord, error) {
	query := `SELECT ` + reminderColumns + `
		FROM reminders
		WHERE status = $1 AND created_at + delayed_by_min * INTERVAL '1 minute' <= $2
		ORDER BY created_at ASC
	`
	return r.queryMany(ctx, query, entity.ReminderStatusScheduledDelayed, now)
}

func (r *reminderRepository) GetByPatientAndRange(ctx context.Context, patientID string, from, to time.Time) ([]*entity.ReminderRecord, error) {
	query := `SELECT ` + reminderColumns + `
		FROM reminders
		WHERE patient_id = $1 AND created_at >= $2 AND created_at <= $3
		ORDER BY created_at ASC
	`
	return r.queryMany(ctx, query, patientID, from, to)
}

func (r *reminderRepository) MarkResponded(ctx context.Context, id string, status entity.ReminderStatus, at time.Time, code string) error {
	query := `
		UPDATE reminders
		SET status = $1, responded_at = $2, response_code = $3
		WHERE id = $4
	`
	return r.exec(ctx, query, status, at, code, id)
}

func (r *reminderRepository) MarkEscalated(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE reminders
		SET status = $1, escalated_at = $2
		WHERE id = $3
	`
	return r.exec(ctx, query, entity.ReminderStatusAlertSent, at, id)
}

// Reactivate fires a postponed reminder: the record moves forward to
// sent and its creation time is reset so the escalation window counts
// from the re-send.
func (r *reminderRepository) Reactivate(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE reminders
		SET status = $1, attempts = attempts + 1, created_at = $2
		WHERE id = $3 AND status = $4
	`
	return r.exec(ctx, query, entity.ReminderStatusSent, at, id, entity.ReminderStatusScheduledDelayed)
}

func (r *reminderRepository) SetDelivery(ctx context.Context, id, sid, state string) error {
	query := `
		UPDATE reminders
		SET delivery_sid = $1, delivery_state = $2
		WHERE id = $3
	`
	return r.exec(ctx, query, sid, state, id)
}

func (r *reminderRepository) SetError(ctx context.Context, id, errText string) error {
	query := `
		UPDATE reminders
		SET status = $1, error_text = $2
		WHERE id = $3
	`
	return r.exec(ctx, query, entity.ReminderStatusError, errText, id)
}

func (r *reminderRepository) exec(ctx context.Context, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update reminder record: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrReminderNotFound
	}

	return nil
}

func (r *reminderRepository) queryMany(ctx context.Context, query string, args ...interface{}) ([]*entity.ReminderRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminder records: %w", err)
	}
	defer rows.Close()

	var records []*entity.ReminderRecord
	for rows.Next() {
		record, err := scanReminderRow(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminder records: %w", err)
	}

	return records, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReminder(row rowScanner) (*entity.ReminderRecord, error) {
	var record entity.ReminderRecord
	var responseCode, deliverySID, deliveryState, errorText sql.NullString
	err := row.Scan(
		&record.ID,
		&record.MedicationID,
		&record.PatientID,
		&record.Status,
		&record.Attempts,
		&record.ScheduledTime,
		&record.ScheduledDate,
		&record.Source,
		&record.RespondedAt,
		&responseCode,
		&deliverySID,
		&deliveryState,
		&errorText,
		&record.DelayedByMin,
		&record.EscalatedAt,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.ResponseCode = responseCode.String
	record.DeliverySID = deliverySID.String
	record.DeliveryState = deliveryState.String
	record.ErrorText = errorText.String
	return &record, nil
}

func scanReminderRow(rows *sql.Rows) (*entity.ReminderRecord, error) {
	record, err := scanReminder(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan reminder record: %w", err)
	}
	return record, nil
}
