package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cuidador-digital/backend/internal/entity"
	"github.com/google/uuid"
)

type guardianRepository struct {
	db *sql.DB
}

func NewGuardianRepository(db *sql.DB) GuardianRepository {
	return &guardianRepository{db: db}
}

func (r *guardianRepository) Create(ctx context.Context, guardian *entity.Guardian) error {
	if guardian.ID == "" {
		guardian.ID = uuid.NewString()
	}
	now := time.Now()

	query := `
		INSERT INTO guardians (id, name, whatsapp, consent_given, consent_at, consent_version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		guardian.ID,
		guardian.Name,
		guardian.WhatsApp,
		guardian.ConsentGiven,
		guardian.ConsentAt,
		guardian.ConsentVersion,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create guardian: %w", err)
	}

	guardian.CreatedAt = now
	return nil
}

func (r *guardianRepository) GetByID(ctx context.Context, id string) (*entity.Guardian, error) {
	query := `
		SELECT id, name, whatsapp, consent_given, consent_at, consent_version, created_at
		FROM guardians
		WHERE id = $1
	`

	var guardian entity.Guardian
	var consentVersion sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&guardian.ID,
		&guardian.Name,
		&guardian.WhatsApp,
		&guardian.ConsentGiven,
		&guardian.ConsentAt,
		&consentVersion,
		&guardian.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, entity.ErrGuardianNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get guardian: %w", err)
	}

	guardian.ConsentVersion = consentVersion.String
	return &guardian, nil
}

func (r *guardianRepository) GetAll(ctx context.Context) ([]*entity.Guardian, error) {
	query := `
		SELECT id, name, whatsapp, consent_given, consent_at, consent_version, created_at
		FROM guardians
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query guardians: %w", err)
	}
	defer rows.Close()

	var guardians []*entity.Guardian
	for rows.Next() {
		var guardian entity.Guardian
		var consentVersion sql.NullString
		err := rows.Scan(
			&guardian.ID,
			&guardian.Name,
			&guardian.WhatsApp,
			&guardian.ConsentGiven,
			&guardian.ConsentAt,
			&consentVersion,
			&guardian.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan guardian: %w", err)
		}
		guardian.ConsentVersion = consentVersion.String
		guardians = append(guardians, &guardian)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating guardians: %w", err)
	}

	return guardians, nil
}
