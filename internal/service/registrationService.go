package service

import (
	"context"
	"fmt"
	"regexp"

	repository "github.com/cuidador-digital/backend/internal/database/postgres"
	"github.com/cuidador-digital/backend/internal/entity"
	"github.com/cuidador-digital/backend/pkg/clock"
	"github.com/cuidador-digital/backend/pkg/whatsapp"

	"github.com/sirupsen/logrus"
)

const maxContactsPerPatient = 2

var timeOfDayRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// RegistrationRequest carries the full intake: one guardian, one
// patient, their medications and optional emergency contacts. Field
// names match the registration site's payload.
type RegistrationRequest struct {
	Guardian    GuardianInput     `json:"responsavel" binding:"required"`
	Patient     PatientInput      `json:"idoso" binding:"required"`
	Contacts    []ContactInput    `json:"contatos"`
	Medications []MedicationInput `json:"medicamentos" binding:"required,min=1"`
	Consent     bool              `json:"lgpd_consent"`
}

type GuardianInput struct {
	Name     string `json:"nome" binding:"required"`
	WhatsApp string `json:"whatsapp" binding:"required"`
}

type PatientInput struct {
	Name     string `json:"nome" binding:"required"`
	WhatsApp string `json:"whatsapp" binding:"required"`
	Timezone string `json:"timezone"`
}

type ContactInput struct {
	Name     string `json:"nome" binding:"required"`
	WhatsApp string `json:"whatsapp" binding:"required"`
}

type MedicationInput struct {
	Name     string   `json:"nome" binding:"required"`
	Dosage   string   `json:"dosagem" binding:"required"`
	Times    []string `json:"horarios" binding:"required,min=1"`
	Weekdays []int    `json:"dias_da_semana" binding:"required,min=1"`
}

type RegistrationResult struct {
	GuardianID       string `json:"guardian_id"`
	PatientID        string `json:"patient_id"`
	MedicationsCount int    `json:"medications_count"`
	ContactsCount    int    `json:"contacts_count"`
	WelcomeSent      bool   `json:"welcome_sent"`
}

const consentPolicyVersion = "1.0"

type registrationService struct {
	guardianRepo   repository.GuardianRepository
	patientRepo    repository.PatientRepository
	contactRepo    repository.ContactRepository
	medicationRepo repository.MedicationRepository
	gateway        MessageGateway
	clk            clock.Clock
}

func NewRegistrationService(
	guardianRepo repository.GuardianRepository,
	patientRepo repository.PatientRepository,
	contactRepo repository.ContactRepository,
	medicationRepo repository.MedicationRepository,
	gateway MessageGateway,
	clk clock.Clock,
) RegistrationService {
	return &registrationService{
		guardianRepo:   guardianRepo,
		patientRepo:    patientRepo,
		contactRepo:    contactRepo,
		medicationRepo: medicationRepo,
		gateway:        gateway,
		clk:            clk,
	}
}

func (s *registrationService) Register(ctx context.Context, req *RegistrationRequest) (*RegistrationResult, error) {
	if err := validateRegistration(req); err != nil {
		return nil, err
	}

	now := s.clk.Now()
	consentAt := now

	guardian := &entity.Guardian{
		Name:           req.Guardian.Name,
		WhatsApp:       whatsapp.OnlyDigits(req.Guardian.WhatsApp),
		ConsentGiven:   true,
		ConsentAt:      &consentAt,
		ConsentVersion: consentPolicyVersion,
	}
	if err := s.guardianRepo.Create(ctx, guardian); err != nil {
		return nil, fmt.Errorf("failed to save guardian: %w", err)
	}

	patient := &entity.Patient{
		GuardianID: guardian.ID,
		Name:       req.Patient.Name,
		WhatsApp:   whatsapp.OnlyDigits(req.Patient.WhatsApp),
		Timezone:   req.Patient.Timezone,
	}
	if err := s.patientRepo.Create(ctx, patient); err != nil {
		return nil, fmt.Errorf("failed to save patient: %w", err)
	}

	for _, in := range req.Contacts {
		contact := &entity.Contact{
			PatientID: patient.ID,
			Name:      in.Name,
			WhatsApp:  whatsapp.OnlyDigits(in.WhatsApp),
		}
		if err := s.contactRepo.Create(ctx, contact); err != nil {
			return nil, fmt.Errorf("failed to save contact: %w", err)
		}
	}

	for _, in := range req.Medications {
		medication := &entity.Medication{
			PatientID: patient.ID,
			Name:      in.Name,
			Dosage:    in.Dosage,
			Times:     in.Times,
			Weekdays:  in.Weekdays,
		}
		if err := s.medicationRepo.Create(ctx, medication); err != nil {
			return nil, fmt.Errorf("failed to save medication: %w", err)
		}
	}

	result := s.gateway.Send(ctx, patient.WhatsApp, welcomeMessage(patient.Name))
	if !result.Delivered {
		logrus.Warnf("Welcome message to patient %s not delivered: %s", patient.ID, result.Error)
	}

	logrus.Infof("Registration complete: guardian=%s patient=%s medications=%d contacts=%d",
		guardian.ID, patient.ID, len(req.Medications), len(req.Contacts))

	return &RegistrationResult{
		GuardianID:       guardian.ID,
		PatientID:        patient.ID,
		MedicationsCount: len(req.Medications),
		ContactsCount:    len(req.Contacts),
		WelcomeSent:      result.Delivered,
	}, nil
}

func validateRegistration(req *RegistrationRequest) error {
	if !req.Consent {
		return entity.ErrConsentRequired
	}
	if len(req.Contacts) > maxContactsPerPatient {
		return entity.ErrTooManyContacts
	}
	if !validWhatsApp(req.Guardian.WhatsApp) || !validWhatsApp(req.Patient.WhatsApp) {
		return entity.ErrInvalidWhatsApp
	}
	for _, contact := range req.Contacts {
		if !validWhatsApp(contact.WhatsApp) {
			return entity.ErrInvalidWhatsApp
		}
	}
	for _, medication := range req.Medications {
		for _, t := range medication.Times {
			if !timeOfDayRe.MatchString(t) {
				return entity.ErrInvalidTimeOfDay
			}
		}
		for _, d := range medication.Weekdays {
			if d < 0 || d > 6 {
				return entity.ErrInvalidWeekday
			}
		}
	}
	return nil
}

// validWhatsApp accepts local Brazilian numbers: 10 or 11 digits after
// stripping formatting.
func validWhatsApp(phone string) bool {
	digits := whatsapp.OnlyDigits(phone)
	return len(digits) == 10 || len(digits) == 11
}
