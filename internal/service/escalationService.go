package service

import (
	"context"
	"fmt"
	"time"

	repository "github.com/cuidador-digital/backend/internal/database/postgres"
	"github.com/cuidador-digital/backend/pkg/clock"

	"github.com/sirupsen/logrus"
)

type escalationService struct {
	reminderRepo   repository.ReminderRepository
	patientRepo    repository.PatientRepository
	medicationRepo repository.MedicationRepository
	contactRepo    repository.ContactRepository
	guardianRepo   repository.GuardianRepository
	gateway        MessageGateway
	clk            clock.Clock
	timeoutMin     int
}

func NewEscalationService(
	reminderRepo repository.ReminderRepository,
	patientRepo repository.PatientRepository,
	medicationRepo repository.MedicationRepository,
	contactRepo repository.ContactRepository,
	guardianRepo repository.GuardianRepository,
	gateway MessageGateway,
	clk clock.Clock,
	timeoutMin int,
) EscalationService {
	if timeoutMin <= 0 {
		timeoutMin = 20
	}
	return &escalationService{
		reminderRepo:   reminderRepo,
		patientRepo:    patientRepo,
		medicationRepo: medicationRepo,
		contactRepo:    contactRepo,
		guardianRepo:   guardianRepo,
		gateway:        gateway,
		clk:            clk,
		timeoutMin:     timeoutMin,
	}
}

func (s *escalationService) RunEscalationScan(ctx context.Context) (int, error) {
	now := s.clk.Now()
	cutoff := now.Add(-time.Duration(s.timeoutMin) * time.Minute)

	records, err := s.reminderRepo.GetUnansweredBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to load unanswered reminders: %w", err)
	}

	if len(records) == 0 {
		logrus.Debug("Escalation scan: nothing to escalate")
		return 0, nil
	}

	logrus.Infof("Escalation scan: %d unanswered reminders past %d minutes", len(records), s.timeoutMin)

	escalated := 0
	for _, record := range records {
		patient, err := s.patientRepo.GetByID(ctx, record.PatientID)
		if err != nil {
			logrus.Errorf("Patient %s not resolvable for reminder %s: %v", record.PatientID, record.ID, err)
			continue
		}
		medication, err := s.medicationRepo.GetByID(ctx, record.MedicationID)
		if err != nil {
			logrus.Errorf("Medication %s not resolvable for reminder %s: %v", record.MedicationID, record.ID, err)
			continue
		}

		message := alertMessage(patient.Name, medication.Name, record.ScheduledTime)

		// per-recipient sends are independent; one failure never blocks
		// the others or the status change below
		contacts, err := s.contactRepo.GetByPatientID(ctx, patient.ID)
		if err != nil {
			logrus.Errorf("Failed to load contacts for patient %s: %v", patient.ID, err)
		}
		for _, contact := range contacts {
			result := s.gateway.Send(ctx, contact.WhatsApp, message)
			if !result.Delivered {
				logrus.Errorf("Alert send to contact %s failed: %s", contact.ID, result.Error)
			}
		}

		guardian, err := s.guardianRepo.GetByID(ctx, patient.GuardianID)
		if err != nil {
			logrus.Errorf("Guardian %s not resolvable for patient %s: %v", patient.GuardianID, patient.ID, err)
		} else {
			result := s.gateway.Send(ctx, guardian.WhatsApp, message)
			if !result.Delivered {
				logrus.Errorf("Alert send to guardian %s failed: %s", guardian.ID, result.Error)
			}
		}

		// the status change removes the record from the next scan's
		// query set, so it escalates at most once
		if err := s.reminderRepo.MarkEscalated(ctx, record.ID, now); err != nil {
			logrus.Errorf("Failed to mark reminder %s escalated: %v", record.ID, err)
			continue
		}
		escalated++
		logrus.Infof("Escalated reminder %s for patient %s (%s)", record.ID, patient.Name, medication.Name)
	}

	return escalated, nil
}
