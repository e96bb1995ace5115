package service

import (
	"context"
	"errors"
	"time"

	"github.com/cuidador-digital/backend/internal/entity"
	"github.com/cuidador-digital/backend/pkg/whatsapp"

	"github.com/google/uuid"
)

// In-memory fakes backing the service tests. They follow the same
// contracts as the postgres repositories: GetLatestOpenByPatient
// returns nil on no rows, status transitions return ErrReminderNotFound
// when nothing matches.

type sentMessage struct {
	to   string
	body string
}

type fakeGateway struct {
	failTo  map[string]bool
	failAll bool
	sent    []sentMessage
}

func (g *fakeGateway) Send(_ context.Context, to, body string) *whatsapp.SendResult {
	g.sent = append(g.sent, sentMessage{to: to, body: body})
	if g.failAll || g.failTo[to] {
		return &whatsapp.SendResult{Delivered: false, Error: "send failed"}
	}
	return &whatsapp.SendResult{Delivered: true, SID: "SM" + uuid.NewString()[:8], Status: "queued"}
}

func (g *fakeGateway) Enabled() bool { return true }

func (g *fakeGateway) sentTo(to string) []sentMessage {
	var out []sentMessage
	for _, m := range g.sent {
		if m.to == to {
			out = append(out, m)
		}
	}
	return out
}

type fakeGuardianRepo struct {
	guardians []*entity.Guardian
}

func (r *fakeGuardianRepo) Create(_ context.Context, guardian *entity.Guardian) error {
	if guardian.ID == "" {
		guardian.ID = uuid.NewString()
	}
	r.guardians = append(r.guardians, guardian)
	return nil
}

func (r *fakeGuardianRepo) GetByID(_ context.Context, id string) (*entity.Guardian, error) {
	for _, g := range r.guardians {
		if g.ID == id {
			return g, nil
		}
	}
	return nil, entity.ErrGuardianNotFound
}

func (r *fakeGuardianRepo) GetAll(_ context.Context) ([]*entity.Guardian, error) {
	return r.guardians, nil
}

type fakePatientRepo struct {
	patients        []*entity.Patient
	whatsAppLookups int
}

func (r *fakePatientRepo) Create(_ context.Context, patient *entity.Patient) error {
	if patient.ID == "" {
		patient.ID = uuid.NewString()
	}
	patient.Active = true
	r.patients = append(r.patients, patient)
	return nil
}

func (r *fakePatientRepo) GetByID(_ context.Context, id string) (*entity.Patient, error) {
	for _, p := range r.patients {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, entity.ErrPatientNotFound
}

func (r *fakePatientRepo) GetByWhatsApp(_ context.Context, address string) (*entity.Patient, error) {
	r.whatsAppLookups++
	for _, p := range r.patients {
		if p.WhatsApp == address {
			return p, nil
		}
	}
	return nil, entity.ErrPatientNotFound
}

func (r *fakePatientRepo) GetByGuardianID(_ context.Context, guardianID string) ([]*entity.Patient, error) {
	var out []*entity.Patient
	for _, p := range r.patients {
		if p.GuardianID == guardianID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeMedicationRepo struct {
	medications []*entity.Medication
}

func (r *fakeMedicationRepo) Create(_ context.Context, medication *entity.Medication) error {
	if medication.ID == "" {
		medication.ID = uuid.NewString()
	}
	medication.Active = true
	r.medications = append(r.medications, medication)
	return nil
}

func (r *fakeMedicationRepo) GetByID(_ context.Context, id string) (*entity.Medication, error) {
	for _, m := range r.medications {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, entity.ErrMedicationNotFound
}

func (r *fakeMedicationRepo) GetActive(_ context.Context) ([]*entity.Medication, error) {
	var out []*entity.Medication
	for _, m := range r.medications {
		if m.Active {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMedicationRepo) GetActiveByPatientID(_ context.Context, patientID string) ([]*entity.Medication, error) {
	var out []*entity.Medication
	for _, m := range r.medications {
		if m.Active && m.PatientID == patientID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMedicationRepo) DeactivateAllByPatient(_ context.Context, patientID string, at time.Time) (int64, error) {
	var count int64
	for _, m := range r.medications {
		if m.Active && m.PatientID == patientID {
			m.Active = false
			deactivatedAt := at
			m.DeactivatedAt = &deactivatedAt
			count++
		}
	}
	return count, nil
}

type fakeContactRepo struct {
	contacts []*entity.Contact
}

func (r *fakeContactRepo) Create(_ context.Context, contact *entity.Contact) error {
	if contact.ID == "" {
		contact.ID = uuid.NewString()
	}
	r.contacts = append(r.contacts, contact)
	return nil
}

func (r *fakeContactRepo) GetByPatientID(_ context.Context, patientID string) ([]*entity.Contact, error) {
	var out []*entity.Contact
	for _, c := range r.contacts {
		if c.PatientID == patientID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeContactRepo) CountByPatientID(ctx context.Context, patientID string) (int, error) {
	contacts, _ := r.GetByPatientID(ctx, patientID)
	return len(contacts), nil
}

type fakeReminderRepo struct {
	records  []*entity.ReminderRecord
	batchErr error
	slotErr  error
}

func (r *fakeReminderRepo) Create(_ context.Context, record *entity.ReminderRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	r.records = append(r.records, record)
	return nil
}

func (r *fakeReminderRepo) GetByID(_ context.Context, id string) (*entity.ReminderRecord, error) {
	record := r.find(id)
	if record == nil {
		return nil, entity.ErrReminderNotFound
	}
	return record, nil
}

func (r *fakeReminderRepo) CreateBatch(ctx context.Context, records []*entity.ReminderRecord) error {
	if r.batchErr != nil {
		return r.batchErr
	}
	for _, record := range records {
		if err := r.Create(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeReminderRepo) ExistsForSlot(_ context.Context, medicationID string, date time.Time, hhmm string) (bool, error) {
	if r.slotErr != nil {
		return false, r.slotErr
	}
	for _, record := range r.records {
		if record.Source == entity.ReminderSourceScan &&
			record.MedicationID == medicationID &&
			sameDay(record.ScheduledDate, date) &&
			record.ScheduledTime == hhmm {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeReminderRepo) GetLatestOpenByPatient(_ context.Context, patientID string) (*entity.ReminderRecord, error) {
	var latest *entity.ReminderRecord
	for _, record := range r.records {
		if record.PatientID != patientID || record.Status != entity.ReminderStatusSent {
			continue
		}
		if latest == nil || record.CreatedAt.After(latest.CreatedAt) {
			latest = record
		}
	}
	return latest, nil
}

func (r *fakeReminderRepo) GetUnansweredBefore(_ context.Context, cutoff time.Time) ([]*entity.ReminderRecord, error) {
	var out []*entity.ReminderRecord
	for _, record := range r.records {
		if record.Status == entity.ReminderStatusSent && !record.CreatedAt.After(cutoff) {
			out = append(out, record)
		}
	}
	return out, nil
}

func (r *fakeReminderRepo) GetDueDelayed(_ context.Context, now time.Time) ([]*entity.ReminderRecord, error) {
	var out []*entity.ReminderRecord
	for _, record := range r.records {
		if record.Status != entity.ReminderStatusScheduledDelayed {
			continue
		}
		due := record.CreatedAt.Add(time.Duration(record.DelayedByMin) * time.Minute)
		if !due.After(now) {
			out = append(out, record)
		}
	}
	return out, nil
}

func (r *fakeReminderRepo) GetByPatientAndRange(_ context.Context, patientID string, from, to time.Time) ([]*entity.ReminderRecord, error) {
	var out []*entity.ReminderRecord
	for _, record := range r.records {
		if record.PatientID == patientID && !record.CreatedAt.Before(from) && !record.CreatedAt.After(to) {
			out = append(out, record)
		}
	}
	return out, nil
}

func (r *fakeReminderRepo) MarkResponded(_ context.Context, id string, status entity.ReminderStatus, at time.Time, code string) error {
	record := r.find(id)
	if record == nil {
		return entity.ErrReminderNotFound
	}
	record.Status = status
	respondedAt := at
	record.RespondedAt = &respondedAt
	record.ResponseCode = code
	return nil
}

func (r *fakeReminderRepo) MarkEscalated(_ context.Context, id string, at time.Time) error {
	record := r.find(id)
	if record == nil {
		return entity.ErrReminderNotFound
	}
	record.Status = entity.ReminderStatusAlertSent
	escalatedAt := at
	record.EscalatedAt = &escalatedAt
	return nil
}

func (r *fakeReminderRepo) Reactivate(_ context.Context, id string, at time.Time) error {
	record := r.find(id)
	if record == nil || record.Status != entity.ReminderStatusScheduledDelayed {
		return entity.ErrReminderNotFound
	}
	record.Status = entity.ReminderStatusSent
	record.Attempts++
	record.CreatedAt = at
	return nil
}

func (r *fakeReminderRepo) SetDelivery(_ context.Context, id, sid, state string) error {
	record := r.find(id)
	if record == nil {
		return entity.ErrReminderNotFound
	}
	record.DeliverySID = sid
	record.DeliveryState = state
	return nil
}

func (r *fakeReminderRepo) SetError(_ context.Context, id, errText string) error {
	record := r.find(id)
	if record == nil {
		return entity.ErrReminderNotFound
	}
	record.Status = entity.ReminderStatusError
	record.ErrorText = errText
	return nil
}

func (r *fakeReminderRepo) find(id string) *entity.ReminderRecord {
	for _, record := range r.records {
		if record.ID == id {
			return record
		}
	}
	return nil
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

type fakeCache struct {
	patients map[string]*entity.Patient
	hits     int
}

func (c *fakeCache) GetPatient(_ context.Context, address string) (*entity.Patient, error) {
	if patient, ok := c.patients[address]; ok {
		c.hits++
		return patient, nil
	}
	return nil, errors.New("cache miss")
}

func (c *fakeCache) SetPatient(_ context.Context, address string, patient *entity.Patient) error {
	if c.patients == nil {
		c.patients = map[string]*entity.Patient{}
	}
	c.patients[address] = patient
	return nil
}
