package service

import (
	"context"
	"fmt"

	repository "github.com/cuidador-digital/backend/internal/database/postgres"
	"github.com/cuidador-digital/backend/internal/entity"
	"github.com/cuidador-digital/backend/pkg/clock"

	"github.com/sirupsen/logrus"
)

type reportService struct {
	guardianRepo repository.GuardianRepository
	patientRepo  repository.PatientRepository
	reminderRepo repository.ReminderRepository
	gateway      MessageGateway
	clk          clock.Clock
}

func NewReportService(
	guardianRepo repository.GuardianRepository,
	patientRepo repository.PatientRepository,
	reminderRepo repository.ReminderRepository,
	gateway MessageGateway,
	clk clock.Clock,
) ReportService {
	return &reportService{
		guardianRepo: guardianRepo,
		patientRepo:  patientRepo,
		reminderRepo: reminderRepo,
		gateway:      gateway,
		clk:          clk,
	}
}

func (s *reportService) RunDailyReport(ctx context.Context) (int, error) {
	now := s.clk.Now()
	start, end := clock.DayBounds(now)

	guardians, err := s.guardianRepo.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load guardians: %w", err)
	}

	sent := 0
	for _, guardian := range guardians {
		patients, err := s.patientRepo.GetByGuardianID(ctx, guardian.ID)
		if err != nil {
			logrus.Errorf("Failed to load patients for guardian %s: %v", guardian.ID, err)
			continue
		}

		for _, patient := range patients {
			records, err := s.reminderRepo.GetByPatientAndRange(ctx, patient.ID, start, end)
			if err != nil {
				logrus.Errorf("Failed to load reminders for patient %s: %v", patient.ID, err)
				continue
			}

			var stats entity.AdherenceStats
			for _, record := range records {
				stats.Count(record.Status)
			}

			// a patient without reminders today produces no message
			if stats.Total() == 0 {
				continue
			}

			result := s.gateway.Send(ctx, guardian.WhatsApp, dailyReportMessage(patient.Name, &stats, now))
			if !result.Delivered {
				logrus.Errorf("Daily report send to guardian %s failed: %s", guardian.ID, result.Error)
				continue
			}
			sent++
			logrus.Infof("Daily report sent to %s for patient %s", guardian.Name, patient.Name)
		}
	}

	return sent, nil
}
