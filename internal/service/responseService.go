package service

import (
	"context"
	"fmt"
	"strings"

	repository "github.com/cuidador-digital/backend/internal/database/postgres"
	"github.com/cuidador-digital/backend/internal/entity"
	"github.com/cuidador-digital/backend/pkg/clock"
	"github.com/cuidador-digital/backend/pkg/whatsapp"

	"github.com/sirupsen/logrus"
)

type responseService struct {
	patientRepo    repository.PatientRepository
	medicationRepo repository.MedicationRepository
	reminderRepo   repository.ReminderRepository
	cache          PatientCache // optional
	gateway        MessageGateway
	clk            clock.Clock
	delayMinutes   int
}

func NewResponseService(
	patientRepo repository.PatientRepository,
	medicationRepo repository.MedicationRepository,
	reminderRepo repository.ReminderRepository,
	cache PatientCache,
	gateway MessageGateway,
	clk clock.Clock,
	delayMinutes int,
) ResponseService {
	if delayMinutes <= 0 {
		delayMinutes = 10
	}
	return &responseService{
		patientRepo:    patientRepo,
		medicationRepo: medicationRepo,
		reminderRepo:   reminderRepo,
		cache:          cache,
		gateway:        gateway,
		clk:            clk,
		delayMinutes:   delayMinutes,
	}
}

// HandleInbound maps one inbound message onto the reminder state
// machine. Store faults propagate to the caller; every recognized
// sender gets exactly one reply.
func (s *responseService) HandleInbound(ctx context.Context, from, body string) error {
	address := whatsapp.NormalizeSender(from)
	body = strings.TrimSpace(body)

	logrus.Infof("Inbound message: from=%s body=%q", address, body)

	patient, err := s.lookupPatient(ctx, address)
	if err != nil {
		return err
	}

	switch {
	case body == responseCodeTaken || body == responseCodeNotTaken || body == responseCodeDelay:
		if err := s.applyResponse(ctx, patient, body); err != nil {
			return err
		}
		s.gateway.Send(ctx, address, confirmationMessage(body, patient.Name))

	case strings.EqualFold(body, optOutKeyword):
		count, err := s.medicationRepo.DeactivateAllByPatient(ctx, patient.ID, s.clk.Now())
		if err != nil {
			return fmt.Errorf("failed to deactivate medications: %w", err)
		}
		logrus.Infof("Opt-out: deactivated %d medications for patient %s", count, patient.ID)
		s.gateway.Send(ctx, address, optOutMessage(patient.Name))

	default:
		s.gateway.Send(ctx, address, fallbackMessage())
	}

	return nil
}

// applyResponse closes the most recent open reminder with the mapped
// status. A delay response additionally opens a postponed record; the
// closed one stays terminal.
func (s *responseService) applyResponse(ctx context.Context, patient *entity.Patient, code string) error {
	record, err := s.reminderRepo.GetLatestOpenByPatient(ctx, patient.ID)
	if err != nil {
		return fmt.Errorf("failed to look up open reminder: %w", err)
	}
	if record == nil {
		// confirmation is still sent; there is just nothing to close
		logrus.Warnf("No open reminder for patient %s, response %q ignored", patient.ID, code)
		return nil
	}

	now := s.clk.Now()
	status := statusForCode(code)
	if err := s.reminderRepo.MarkResponded(ctx, record.ID, status, now, code); err != nil {
		return fmt.Errorf("failed to update reminder status: %w", err)
	}
	logrus.Infof("Reminder %s closed with status %s", record.ID, status)

	if status != entity.ReminderStatusDelayed {
		return nil
	}

	if _, err := s.medicationRepo.GetByID(ctx, record.MedicationID); err != nil {
		// the medication vanished; nothing left to postpone
		logrus.Errorf("Medication %s not resolvable for delayed reminder: %v", record.MedicationID, err)
		return nil
	}

	delayed := &entity.ReminderRecord{
		MedicationID:  record.MedicationID,
		PatientID:     patient.ID,
		Status:        entity.ReminderStatusScheduledDelayed,
		Attempts:      1,
		ScheduledTime: record.ScheduledTime,
		ScheduledDate: record.ScheduledDate,
		Source:        entity.ReminderSourceDelayed,
		DelayedByMin:  s.delayMinutes,
		CreatedAt:     now,
	}
	if err := s.reminderRepo.Create(ctx, delayed); err != nil {
		return fmt.Errorf("failed to create delayed reminder: %w", err)
	}
	logrus.Infof("Delayed reminder %s scheduled in %d minutes", delayed.ID, s.delayMinutes)
	return nil
}

func (s *responseService) lookupPatient(ctx context.Context, address string) (*entity.Patient, error) {
	if s.cache != nil {
		if patient, err := s.cache.GetPatient(ctx, address); err == nil {
			return patient, nil
		}
	}

	patient, err := s.patientRepo.GetByWhatsApp(ctx, address)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetPatient(ctx, address, patient); err != nil {
			logrus.Warnf("Failed to cache patient %s: %v", patient.ID, err)
		}
	}
	return patient, nil
}

func statusForCode(code string) entity.ReminderStatus {
	switch code {
	case responseCodeTaken:
		return entity.ReminderStatusTaken
	case responseCodeNotTaken:
		return entity.ReminderStatusNotTaken
	case responseCodeDelay:
		return entity.ReminderStatusDelayed
	}
	return entity.ReminderStatusError
}
