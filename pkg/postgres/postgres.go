package postgres

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/cuidador-digital/backend/config"

	_ "github.com/lib/pq"
)

func NewPostgresDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to PostgreSQL")
	return db, nil
}

func RunMigrations(db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS guardians (
			id TEXT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			whatsapp VARCHAR(20) NOT NULL,
			consent_given BOOLEAN NOT NULL DEFAULT FALSE,
			consent_at TIMESTAMP,
			consent_version VARCHAR(20),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS patients (
			id TEXT PRIMARY KEY,
			guardian_id TEXT REFERENCES guardians(id),
			name VARCHAR(255) NOT NULL,
			whatsapp VARCHAR(20) NOT NULL,
			timezone VARCHAR(64) NOT NULL DEFAULT 'America/Sao_Paulo',
			active BOOLEAN NOT NULL DEFAULT TRUE,
			deactivated_at TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS medications (
			id TEXT PRIMARY KEY,
			patient_id TEXT REFERENCES patients(id),
			name VARCHAR(255) NOT NULL,
			dosage VARCHAR(100) NOT NULL,
			times TEXT[] NOT NULL,
			weekdays INTEGER[] NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			deactivated_at TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS contacts (
			id TEXT PRIMARY KEY,
			patient_id TEXT REFERENCES patients(id),
			name VARCHAR(255) NOT NULL,
			whatsapp VARCHAR(20) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS reminders (
			id TEXT PRIMARY KEY,
			medication_id TEXT REFERENCES medications(id),
			patient_id TEXT REFERENCES patients(id),
			status VARCHAR(20) NOT NULL,
			attempts INTEGER NOT NULL DEFAULT 1,
			scheduled_time VARCHAR(5) NOT NULL,
			scheduled_date DATE NOT NULL,
			source VARCHAR(10) NOT NULL DEFAULT 'scan',
			responded_at TIMESTAMP,
			response_code VARCHAR(10),
			delivery_sid VARCHAR(64),
			delivery_state VARCHAR(20),
			error_text TEXT,
			delayed_by_min INTEGER NOT NULL DEFAULT 0,
			escalated_at TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_patients_whatsapp ON patients(whatsapp)`,
		`CREATE INDEX IF NOT EXISTS idx_patients_guardian_id ON patients(guardian_id)`,
		`CREATE INDEX IF NOT EXISTS idx_medications_patient_id ON medications(patient_id)`,
		`CREATE INDEX IF NOT EXISTS idx_medications_active ON medications(active)`,
		`CREATE INDEX IF NOT EXISTS idx_contacts_patient_id ON contacts(patient_id)`,
		`CREATE INDEX IF NOT EXISTS idx_reminders_patient_status ON reminders(patient_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_reminders_status_created ON reminders(status, created_at)`,

		// The due scan must never double-fire for the same (medication, minute)
		// slot even when the trigger re-invokes it.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_reminders_scan_slot
			ON reminders(medication_id, scheduled_date, scheduled_time)
			WHERE source = 'scan'`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("failed to execute migration: %v", err)
		}
	}

	log.Println("Database migrations completed successfully")
	return nil
}
