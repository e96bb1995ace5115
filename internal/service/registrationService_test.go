package service

import (
	"context"
	"testing"

	"github.com/cuidador-digital/backend/internal/entity"
	"github.com/cuidador-digital/backend/pkg/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registrationFixture struct {
	guardianRepo   *fakeGuardianRepo
	patientRepo    *fakePatientRepo
	contactRepo    *fakeContactRepo
	medicationRepo *fakeMedicationRepo
	gateway        *fakeGateway
	service        RegistrationService
}

func newRegistrationFixture(t *testing.T) *registrationFixture {
	t.Helper()
	f := &registrationFixture{
		guardianRepo:   &fakeGuardianRepo{},
		patientRepo:    &fakePatientRepo{},
		contactRepo:    &fakeContactRepo{},
		medicationRepo: &fakeMedicationRepo{},
		gateway:        &fakeGateway{},
	}
	f.service = NewRegistrationService(
		f.guardianRepo, f.patientRepo, f.contactRepo, f.medicationRepo,
		f.gateway, clock.Fixed(monday8am),
	)
	return f
}

func validRegistration() *RegistrationRequest {
	return &RegistrationRequest{
		Guardian: GuardianInput{Name: "Ana", WhatsApp: "(11) 97777-7777"},
		Patient:  PatientInput{Name: "Maria", WhatsApp: "11 99999-9999"},
		Contacts: []ContactInput{
			{Name: "Carlos", WhatsApp: "11666666666"},
		},
		Medications: []MedicationInput{
			{Name: "Losartana", Dosage: "50mg", Times: []string{"08:00", "20:00"}, Weekdays: []int{1, 3, 5}},
		},
		Consent: true,
	}
}

func TestRegister(t *testing.T) {
	f := newRegistrationFixture(t)

	result, err := f.service.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	assert.NotEmpty(t, result.GuardianID)
	assert.NotEmpty(t, result.PatientID)
	assert.Equal(t, 1, result.MedicationsCount)
	assert.Equal(t, 1, result.ContactsCount)
	assert.True(t, result.WelcomeSent)

	require.Len(t, f.guardianRepo.guardians, 1)
	guardian := f.guardianRepo.guardians[0]
	assert.Equal(t, "11977777777", guardian.WhatsApp)
	assert.True(t, guardian.ConsentGiven)
	require.NotNil(t, guardian.ConsentAt)
	assert.Equal(t, monday8am, *guardian.ConsentAt)

	require.Len(t, f.patientRepo.patients, 1)
	patient := f.patientRepo.patients[0]
	assert.Equal(t, guardian.ID, patient.GuardianID)
	assert.Equal(t, "11999999999", patient.WhatsApp)

	require.Len(t, f.medicationRepo.medications, 1)
	medication := f.medicationRepo.medications[0]
	assert.Equal(t, patient.ID, medication.PatientID)
	assert.Equal(t, []string{"08:00", "20:00"}, medication.Times)
	assert.True(t, medication.Active)

	require.Len(t, f.contactRepo.contacts, 1)
	assert.Equal(t, patient.ID, f.contactRepo.contacts[0].PatientID)

	// the welcome goes to the patient, explaining the response codes
	welcome := f.gateway.sentTo("11999999999")
	require.Len(t, welcome, 1)
	assert.Contains(t, welcome[0].body, "Maria")
	assert.Contains(t, welcome[0].body, "SAIR")
}

func TestRegister_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(req *RegistrationRequest)
		wantErr error
	}{
		{
			name:    "missing consent",
			mutate:  func(req *RegistrationRequest) { req.Consent = false },
			wantErr: entity.ErrConsentRequired,
		},
		{
			name: "three contacts",
			mutate: func(req *RegistrationRequest) {
				req.Contacts = []ContactInput{
					{Name: "A", WhatsApp: "11111111111"},
					{Name: "B", WhatsApp: "11222222222"},
					{Name: "C", WhatsApp: "11333333333"},
				}
			},
			wantErr: entity.ErrTooManyContacts,
		},
		{
			name:    "guardian whatsapp too short",
			mutate:  func(req *RegistrationRequest) { req.Guardian.WhatsApp = "9999" },
			wantErr: entity.ErrInvalidWhatsApp,
		},
		{
			name:    "patient whatsapp with country code",
			mutate:  func(req *RegistrationRequest) { req.Patient.WhatsApp = "+55 11 99999-9999" },
			wantErr: entity.ErrInvalidWhatsApp,
		},
		{
			name:    "contact whatsapp invalid",
			mutate:  func(req *RegistrationRequest) { req.Contacts[0].WhatsApp = "abc" },
			wantErr: entity.ErrInvalidWhatsApp,
		},
		{
			name:    "time without leading zero",
			mutate:  func(req *RegistrationRequest) { req.Medications[0].Times = []string{"8:00"} },
			wantErr: entity.ErrInvalidTimeOfDay,
		},
		{
			name:    "hour out of range",
			mutate:  func(req *RegistrationRequest) { req.Medications[0].Times = []string{"25:00"} },
			wantErr: entity.ErrInvalidTimeOfDay,
		},
		{
			name:    "weekday out of range",
			mutate:  func(req *RegistrationRequest) { req.Medications[0].Weekdays = []int{7} },
			wantErr: entity.ErrInvalidWeekday,
		},
		{
			name:    "negative weekday",
			mutate:  func(req *RegistrationRequest) { req.Medications[0].Weekdays = []int{-1} },
			wantErr: entity.ErrInvalidWeekday,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRegistrationFixture(t)
			req := validRegistration()
			tt.mutate(req)

			_, err := f.service.Register(context.Background(), req)
			assert.ErrorIs(t, err, tt.wantErr)

			// nothing is persisted and nothing is sent on a rejected intake
			assert.Empty(t, f.guardianRepo.guardians)
			assert.Empty(t, f.patientRepo.patients)
			assert.Empty(t, f.gateway.sent)
		})
	}
}

func TestRegister_WelcomeFailureDoesNotFail(t *testing.T) {
	f := newRegistrationFixture(t)
	f.gateway.failAll = true

	result, err := f.service.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	assert.False(t, result.WelcomeSent)
	require.Len(t, f.patientRepo.patients, 1)
}
