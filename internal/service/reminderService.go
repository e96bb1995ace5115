package service

import (
	"context"
	"fmt"
	"time"

	repository "github.com/cuidador-digital/backend/internal/database/postgres"
	"github.com/cuidador-digital/backend/internal/entity"
	"github.com/cuidador-digital/backend/pkg/clock"
	"github.com/cuidador-digital/backend/pkg/whatsapp"

	"github.com/sirupsen/logrus"
)

type reminderService struct {
	medicationRepo repository.MedicationRepository
	patientRepo    repository.PatientRepository
	reminderRepo   repository.ReminderRepository
	gateway        MessageGateway
	clk            clock.Clock
}

func NewReminderService(
	medicationRepo repository.MedicationRepository,
	patientRepo repository.PatientRepository,
	reminderRepo repository.ReminderRepository,
	gateway MessageGateway,
	clk clock.Clock,
) ReminderService {
	return &reminderService{
		medicationRepo: medicationRepo,
		patientRepo:    patientRepo,
		reminderRepo:   reminderRepo,
		gateway:        gateway,
		clk:            clk,
	}
}

// outboundReminder pairs a record with the message it owes, so the
// decision pass stays separate from the I/O pass.
type outboundReminder struct {
	record  *entity.ReminderRecord
	address string
	body    string
}

func (s *reminderService) RunDueScan(ctx context.Context) (*ScanReport, error) {
	now := s.clk.Now()
	hhmm := clock.Minute(now)
	weekday := clock.Weekday(now)
	day := dateOnly(now)

	logrus.Infof("Due-reminder scan: time=%s weekday=%d", hhmm, weekday)

	medications, err := s.medicationRepo.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active medications: %w", err)
	}

	var queue []outboundReminder
	for _, medication := range medications {
		if !medication.ScheduledOn(weekday) {
			continue
		}
		dueTimes := medication.DueTimes(hhmm)
		if len(dueTimes) == 0 {
			continue
		}

		patient, err := s.patientRepo.GetByID(ctx, medication.PatientID)
		if err != nil {
			// data-integrity fault: skip this medication, keep scanning
			logrus.Errorf("Patient %s not resolvable for medication %s: %v",
				medication.PatientID, medication.ID, err)
			continue
		}

		for _, slot := range dueTimes {
			exists, err := s.reminderRepo.ExistsForSlot(ctx, medication.ID, day, slot)
			if err != nil {
				return nil, fmt.Errorf("failed to check reminder slot: %w", err)
			}
			if exists {
				logrus.Debugf("Slot already fired: medication=%s time=%s", medication.ID, slot)
				continue
			}

			queue = append(queue, outboundReminder{
				record: &entity.ReminderRecord{
					MedicationID:  medication.ID,
					PatientID:     patient.ID,
					Status:        entity.ReminderStatusSent,
					Attempts:      1,
					ScheduledTime: slot,
					ScheduledDate: day,
					Source:        entity.ReminderSourceScan,
					CreatedAt:     now,
				},
				address: patient.WhatsApp,
				body:    reminderMessage(patient.Name, medication.Name, medication.Dosage),
			})
		}
	}

	report := &ScanReport{}

	if len(queue) > 0 {
		records := make([]*entity.ReminderRecord, 0, len(queue))
		for _, ob := range queue {
			records = append(records, ob.record)
		}
		// batch write is all-or-nothing; a failure fails the whole scan
		if err := s.reminderRepo.CreateBatch(ctx, records); err != nil {
			return nil, fmt.Errorf("failed to write reminder batch: %w", err)
		}
		report.Created = len(records)
	}

	for _, ob := range queue {
		s.deliver(ctx, ob, report)
	}

	reactivated, err := s.reactivateDelayed(ctx, now, report)
	if err != nil {
		logrus.Errorf("Delayed reminder reactivation failed: %v", err)
	}
	report.Reactivated = reactivated

	logrus.Infof("Due-reminder scan done: created=%d reactivated=%d send_failures=%d",
		report.Created, report.Reactivated, report.SendFailures)
	return report, nil
}

// deliver sends one queued message. Delivery faults land on that one
// record and never interrupt the siblings.
func (s *reminderService) deliver(ctx context.Context, ob outboundReminder, report *ScanReport) {
	result := s.gateway.Send(ctx, ob.address, ob.body)
	if result.Delivered {
		if err := s.reminderRepo.SetDelivery(ctx, ob.record.ID, result.SID, result.Status); err != nil {
			logrus.Errorf("Failed to store delivery info for reminder %s: %v", ob.record.ID, err)
		}
		return
	}

	report.SendFailures++
	logrus.Errorf("Reminder send failed: record=%s error=%s", ob.record.ID, result.Error)
	if err := s.reminderRepo.SetError(ctx, ob.record.ID, result.Error); err != nil {
		logrus.Errorf("Failed to store send error for reminder %s: %v", ob.record.ID, err)
	}
}

// reactivateDelayed re-fires postponed reminders whose delay window has
// passed: the record moves forward to sent and the message goes out again.
func (s *reminderService) reactivateDelayed(ctx context.Context, now time.Time, report *ScanReport) (int, error) {
	due, err := s.reminderRepo.GetDueDelayed(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to load delayed reminders: %w", err)
	}

	reactivated := 0
	for _, record := range due {
		patient, err := s.patientRepo.GetByID(ctx, record.PatientID)
		if err != nil {
			logrus.Errorf("Patient %s not resolvable for delayed reminder %s: %v",
				record.PatientID, record.ID, err)
			continue
		}
		medication, err := s.medicationRepo.GetByID(ctx, record.MedicationID)
		if err != nil {
			logrus.Errorf("Medication %s not resolvable for delayed reminder %s: %v",
				record.MedicationID, record.ID, err)
			continue
		}

		if err := s.reminderRepo.Reactivate(ctx, record.ID, now); err != nil {
			logrus.Errorf("Failed to reactivate delayed reminder %s: %v", record.ID, err)
			continue
		}
		reactivated++

		s.deliver(ctx, outboundReminder{
			record:  record,
			address: patient.WhatsApp,
			body:    reminderMessage(patient.Name, medication.Name, medication.Dosage),
		}, report)
	}

	return reactivated, nil
}

func (s *reminderService) SendManualReminder(ctx context.Context, patientID, medicationID string) (*entity.ReminderRecord, *whatsapp.SendResult, error) {
	patient, err := s.patientRepo.GetByID(ctx, patientID)
	if err != nil {
		return nil, nil, err
	}
	medication, err := s.medicationRepo.GetByID(ctx, medicationID)
	if err != nil {
		return nil, nil, err
	}

	now := s.clk.Now()
	record := &entity.ReminderRecord{
		MedicationID:  medication.ID,
		PatientID:     patient.ID,
		Status:        entity.ReminderStatusSent,
		Attempts:      1,
		ScheduledTime: clock.Minute(now),
		ScheduledDate: dateOnly(now),
		Source:        entity.ReminderSourceManual,
		CreatedAt:     now,
	}
	if err := s.reminderRepo.Create(ctx, record); err != nil {
		return nil, nil, fmt.Errorf("failed to create manual reminder: %w", err)
	}

	result := s.gateway.Send(ctx, patient.WhatsApp, reminderMessage(patient.Name, medication.Name, medication.Dosage))
	if result.Delivered {
		if err := s.reminderRepo.SetDelivery(ctx, record.ID, result.SID, result.Status); err != nil {
			logrus.Errorf("Failed to store delivery info for reminder %s: %v", record.ID, err)
		}
	} else {
		if err := s.reminderRepo.SetError(ctx, record.ID, result.Error); err != nil {
			logrus.Errorf("Failed to store send error for reminder %s: %v", record.ID, err)
		}
	}

	return record, result, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
