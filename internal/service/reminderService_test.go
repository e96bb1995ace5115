package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cuidador-digital/backend/internal/entity"
	"github.com/cuidador-digital/backend/pkg/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// monday8am is a Monday. Weekday index 1, minute "08:00".
var monday8am = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

type scanFixture struct {
	medicationRepo *fakeMedicationRepo
	patientRepo    *fakePatientRepo
	reminderRepo   *fakeReminderRepo
	gateway        *fakeGateway
	service        ReminderService
}

func newScanFixture(t *testing.T, now time.Time) *scanFixture {
	t.Helper()
	f := &scanFixture{
		medicationRepo: &fakeMedicationRepo{},
		patientRepo:    &fakePatientRepo{},
		reminderRepo:   &fakeReminderRepo{},
		gateway:        &fakeGateway{},
	}
	f.service = NewReminderService(f.medicationRepo, f.patientRepo, f.reminderRepo, f.gateway, clock.Fixed(now))
	return f
}

func (f *scanFixture) addPatient(t *testing.T, name, whatsApp string) *entity.Patient {
	t.Helper()
	patient := &entity.Patient{Name: name, WhatsApp: whatsApp}
	require.NoError(t, f.patientRepo.Create(context.Background(), patient))
	return patient
}

func (f *scanFixture) addMedication(t *testing.T, patientID, name, dosage string, times []string, weekdays []int) *entity.Medication {
	t.Helper()
	medication := &entity.Medication{
		PatientID: patientID,
		Name:      name,
		Dosage:    dosage,
		Times:     times,
		Weekdays:  weekdays,
	}
	require.NoError(t, f.medicationRepo.Create(context.Background(), medication))
	return medication
}

func TestRunDueScan(t *testing.T) {
	tests := []struct {
		name        string
		times       []string
		weekdays    []int
		wantCreated int
	}{
		{
			name:        "medication due now",
			times:       []string{"08:00"},
			weekdays:    []int{1},
			wantCreated: 1,
		},
		{
			name:        "wrong weekday",
			times:       []string{"08:00"},
			weekdays:    []int{2},
			wantCreated: 0,
		},
		{
			name:        "wrong time",
			times:       []string{"09:00"},
			weekdays:    []int{1},
			wantCreated: 0,
		},
		{
			name:        "stored time carries seconds",
			times:       []string{"08:00:00"},
			weekdays:    []int{1},
			wantCreated: 1,
		},
		{
			name:        "duplicate time entries collapse into one slot",
			times:       []string{"08:00", "08:00"},
			weekdays:    []int{1},
			wantCreated: 1,
		},
		{
			name:        "every day of the week",
			times:       []string{"08:00"},
			weekdays:    []int{0, 1, 2, 3, 4, 5, 6},
			wantCreated: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newScanFixture(t, monday8am)
			patient := f.addPatient(t, "Maria", "11999999999")
			f.addMedication(t, patient.ID, "Losartana", "50mg", tt.times, tt.weekdays)

			report, err := f.service.RunDueScan(context.Background())
			require.NoError(t, err)

			assert.Equal(t, tt.wantCreated, report.Created)
			assert.Len(t, f.reminderRepo.records, tt.wantCreated)
			assert.Len(t, f.gateway.sent, tt.wantCreated)
		})
	}
}

func TestRunDueScan_RecordContents(t *testing.T) {
	f := newScanFixture(t, monday8am)
	patient := f.addPatient(t, "Maria", "11999999999")
	medication := f.addMedication(t, patient.ID, "Losartana", "50mg", []string{"08:00"}, []int{1})

	report, err := f.service.RunDueScan(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Created)

	record := f.reminderRepo.records[0]
	assert.Equal(t, medication.ID, record.MedicationID)
	assert.Equal(t, patient.ID, record.PatientID)
	assert.Equal(t, entity.ReminderStatusSent, record.Status)
	assert.Equal(t, entity.ReminderSourceScan, record.Source)
	assert.Equal(t, 1, record.Attempts)
	assert.Equal(t, "08:00", record.ScheduledTime)
	assert.NotEmpty(t, record.DeliverySID)

	require.Len(t, f.gateway.sent, 1)
	message := f.gateway.sent[0]
	assert.Equal(t, "11999999999", message.to)
	assert.Contains(t, message.body, "Losartana")
	assert.Contains(t, message.body, "50mg")
	assert.Contains(t, message.body, "Maria")
}

func TestRunDueScan_Idempotent(t *testing.T) {
	f := newScanFixture(t, monday8am)
	patient := f.addPatient(t, "Maria", "11999999999")
	f.addMedication(t, patient.ID, "Losartana", "50mg", []string{"08:00"}, []int{1})

	first, err := f.service.RunDueScan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Created)

	// same minute again: the slot already has a record
	second, err := f.service.RunDueScan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Len(t, f.reminderRepo.records, 1)
	assert.Len(t, f.gateway.sent, 1)
}

func TestRunDueScan_MultiplePatients(t *testing.T) {
	f := newScanFixture(t, monday8am)
	maria := f.addPatient(t, "Maria", "11999999999")
	joao := f.addPatient(t, "João", "11888888888")
	f.addMedication(t, maria.ID, "Losartana", "50mg", []string{"08:00"}, []int{1})
	f.addMedication(t, joao.ID, "Metformina", "850mg", []string{"08:00"}, []int{1})
	f.addMedication(t, joao.ID, "Enalapril", "10mg", []string{"12:00"}, []int{1})

	report, err := f.service.RunDueScan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Created)
	assert.Len(t, f.gateway.sentTo("11999999999"), 1)
	assert.Len(t, f.gateway.sentTo("11888888888"), 1)
}

func TestRunDueScan_SendFailureIsolated(t *testing.T) {
	f := newScanFixture(t, monday8am)
	maria := f.addPatient(t, "Maria", "11999999999")
	joao := f.addPatient(t, "João", "11888888888")
	f.addMedication(t, maria.ID, "Losartana", "50mg", []string{"08:00"}, []int{1})
	f.addMedication(t, joao.ID, "Metformina", "850mg", []string{"08:00"}, []int{1})
	f.gateway.failTo = map[string]bool{"11999999999": true}

	report, err := f.service.RunDueScan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 1, report.SendFailures)

	var failed, delivered *entity.ReminderRecord
	for _, record := range f.reminderRepo.records {
		if record.PatientID == maria.ID {
			failed = record
		} else {
			delivered = record
		}
	}
	require.NotNil(t, failed)
	require.NotNil(t, delivered)
	assert.Equal(t, entity.ReminderStatusError, failed.Status)
	assert.Equal(t, "send failed", failed.ErrorText)
	assert.Equal(t, entity.ReminderStatusSent, delivered.Status)
	assert.NotEmpty(t, delivered.DeliverySID)
}

func TestRunDueScan_InactiveMedicationSkipped(t *testing.T) {
	f := newScanFixture(t, monday8am)
	patient := f.addPatient(t, "Maria", "11999999999")
	medication := f.addMedication(t, patient.ID, "Losartana", "50mg", []string{"08:00"}, []int{1})
	medication.Active = false

	report, err := f.service.RunDueScan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Created)
	assert.Empty(t, f.gateway.sent)
}

func TestRunDueScan_ReactivatesDelayed(t *testing.T) {
	f := newScanFixture(t, monday8am)
	patient := f.addPatient(t, "Maria", "11999999999")
	medication := f.addMedication(t, patient.ID, "Losartana", "50mg", []string{"07:30"}, []int{1})

	delayed := &entity.ReminderRecord{
		MedicationID:  medication.ID,
		PatientID:     patient.ID,
		Status:        entity.ReminderStatusScheduledDelayed,
		Attempts:      1,
		ScheduledTime: "07:30",
		ScheduledDate: monday8am,
		Source:        entity.ReminderSourceDelayed,
		DelayedByMin:  10,
		CreatedAt:     monday8am.Add(-15 * time.Minute),
	}
	require.NoError(t, f.reminderRepo.Create(context.Background(), delayed))

	report, err := f.service.RunDueScan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Reactivated)
	assert.Equal(t, entity.ReminderStatusSent, delayed.Status)
	assert.Equal(t, 2, delayed.Attempts)
	// the escalation window counts from the re-send
	assert.Equal(t, monday8am, delayed.CreatedAt)
	require.Len(t, f.gateway.sent, 1)
	assert.Contains(t, f.gateway.sent[0].body, "Losartana")
}

func TestRunDueScan_DelayWindowNotElapsed(t *testing.T) {
	f := newScanFixture(t, monday8am)
	patient := f.addPatient(t, "Maria", "11999999999")
	medication := f.addMedication(t, patient.ID, "Losartana", "50mg", []string{"07:30"}, []int{1})

	delayed := &entity.ReminderRecord{
		MedicationID:  medication.ID,
		PatientID:     patient.ID,
		Status:        entity.ReminderStatusScheduledDelayed,
		ScheduledTime: "07:30",
		ScheduledDate: monday8am,
		Source:        entity.ReminderSourceDelayed,
		DelayedByMin:  10,
		CreatedAt:     monday8am.Add(-5 * time.Minute),
	}
	require.NoError(t, f.reminderRepo.Create(context.Background(), delayed))

	report, err := f.service.RunDueScan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, report.Reactivated)
	assert.Equal(t, entity.ReminderStatusScheduledDelayed, delayed.Status)
	assert.Empty(t, f.gateway.sent)
}

func TestSendManualReminder(t *testing.T) {
	f := newScanFixture(t, monday8am)
	patient := f.addPatient(t, "Maria", "11999999999")
	medication := f.addMedication(t, patient.ID, "Losartana", "50mg", []string{"08:00"}, []int{1})

	record, result, err := f.service.SendManualReminder(context.Background(), patient.ID, medication.ID)
	require.NoError(t, err)

	assert.Equal(t, entity.ReminderSourceManual, record.Source)
	assert.Equal(t, entity.ReminderStatusSent, record.Status)
	assert.True(t, result.Delivered)
	assert.NotEmpty(t, record.DeliverySID)
	require.Len(t, f.gateway.sent, 1)
	assert.True(t, strings.Contains(f.gateway.sent[0].body, "Losartana"))
}

func TestSendManualReminder_UnknownPatient(t *testing.T) {
	f := newScanFixture(t, monday8am)

	_, _, err := f.service.SendManualReminder(context.Background(), "missing", "missing")
	assert.ErrorIs(t, err, entity.ErrPatientNotFound)
	assert.Empty(t, f.gateway.sent)
}

func TestSendManualReminder_UnknownMedication(t *testing.T) {
	f := newScanFixture(t, monday8am)
	patient := f.addPatient(t, "Maria", "11999999999")

	_, _, err := f.service.SendManualReminder(context.Background(), patient.ID, "missing")
	assert.ErrorIs(t, err, entity.ErrMedicationNotFound)
	assert.Empty(t, f.gateway.sent)
}
