package service

import (
	"context"

	"github.com/cuidador-digital/backend/internal/entity"
	"github.com/cuidador-digital/backend/pkg/whatsapp"
)

// MessageGateway is the outbound side of the engine. The concrete
// implementation is pkg/whatsapp; tests plug in fakes.
type MessageGateway interface {
	Send(ctx context.Context, to, body string) *whatsapp.SendResult
	Enabled() bool
}

// PatientCache fronts the patient-by-address lookup done on every
// inbound message. Any cache error is treated as a miss.
type PatientCache interface {
	GetPatient(ctx context.Context, address string) (*entity.Patient, error)
	SetPatient(ctx context.Context, address string, patient *entity.Patient) error
}

// ScanReport summarizes one due-scan invocation.
type ScanReport struct {
	Created      int `json:"created"`
	Reactivated  int `json:"reactivated"`
	SendFailures int `json:"send_failures"`
}

type ReminderService interface {
	// RunDueScan finds medications due at the current minute, writes
	// their reminder records and sends the reminder messages. It also
	// re-fires postponed reminders whose delay window has passed.
	RunDueScan(ctx context.Context) (*ScanReport, error)

	// SendManualReminder fires one reminder for a (patient, medication)
	// pair, bypassing the schedule match.
	SendManualReminder(ctx context.Context, patientID, medicationID string) (*entity.ReminderRecord, *whatsapp.SendResult, error)
}

type ResponseService interface {
	// HandleInbound consumes one inbound message and produces exactly
	// one outbound message to the sender.
	HandleInbound(ctx context.Context, from, body string) error
}

type EscalationService interface {
	// RunEscalationScan alerts contacts and the guardian about
	// reminders unanswered past the timeout. Returns how many records
	// were escalated.
	RunEscalationScan(ctx context.Context) (int, error)
}

type ReportService interface {
	// RunDailyReport sends each guardian one adherence summary per
	// patient that had reminders today. Returns how many reports went out.
	RunDailyReport(ctx context.Context) (int, error)
}

type RegistrationService interface {
	Register(ctx context.Context, req *RegistrationRequest) (*RegistrationResult, error)
}
