package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cuidador-digital/backend/internal/entity"
	"github.com/google/uuid"
)

type contactRepository struct {
	db *sql.DB
}

func NewContactRepository(db *sql.DB) ContactRepository {
	return &contactRepository{db: db}
}

func (r *contactRepository) Create(ctx context.Context, contact *entity.Contact) error {
	if contact.ID == "" {
		contact.ID = uuid.NewString()
	}
	now := time.Now()

	query := `
		INSERT INTO contacts (id, patient_id, name, whatsapp, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		contact.ID,
		contact.PatientID,
		contact.Name,
		contact.WhatsApp,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}

	contact.CreatedAt = now
	return nil
}

func (r *contactRepository) GetByPatientID(ctx context.Context, patientID string) ([]*entity.Contact, error) {
	query := `
		SELECT id, patient_id, name, whatsapp, created_at
		FROM contacts
		WHERE patient_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query contacts: %w", err)
	}
	defer rows.Close()

	var contacts []*entity.Contact
	for rows.Next() {
		var contact entity.Contact
		err := rows.Scan(
			&contact.ID,
			&contact.PatientID,
			&contact.Name,
			&contact.WhatsApp,
			&contact.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, &contact)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contacts: %w", err)
	}

	return contacts, nil
}

// CountByPatientID backs the two-contact limit enforced at registration.
func (r *contactRepository) CountByPatientID(ctx context.Context, patientID string) (int, error) {
	query := `SELECT COUNT(*) FROM contacts WHERE patient_id = $1`
	var count int
	err := r.db.QueryRowContext(ctx, query, patientID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count contacts: %w", err)
	}
	return count, nil
}
