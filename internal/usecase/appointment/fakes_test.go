package appointment

import (
	"context"
	"sync"
	"time"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/pkg/livesync"
)

// fakeRepo cobre só o que cada teste precisa; o resto devolve zeros.
type fakeRepo struct {
	clinic  *models.Clinic
	doctor  *models.User
	patient *models.Patient

	appointment *models.Appointment
	hours       *models.WorkingHours
	booked      []models.Appointment

	conflictErr      error
	withinHours      bool
	conflictIgnoreID uint

	created *models.Appointment
	updated *models.Appointment
}

var _ domain.Repository = (*fakeRepo)(nil)

func (f *fakeRepo) GetClinicByID(_ context.Context, _ uint) (*models.Clinic, error) {
	return f.clinic, nil
}

func (f *fakeRepo) GetDoctorByID(_ context.Context, _ uint) (*models.User, error) {
	return f.doctor, nil
}

func (f *fakeRepo) ListDoctors(_ context.Context) ([]models.User, error) {
	return []models.User{*f.doctor}, nil
}

func (f *fakeRepo) GetPatientByID(_ context.Context, _ uint) (*models.Patient, error) {
	return f.patient, nil
}

func (f *fakeRepo) GetOrCreatePatient(_ context.Context, name, email, phone string) (*models.Patient, error) {
	if f.patient != nil {
		return f.patient, nil
	}
	return &models.Patient{ID: 1, Name: name, Email: email, Phone: phone}, nil
}

func (f *fakeRepo) CreateAppointment(_ context.Context, ap *models.Appointment) error {
	ap.ID = 10
	f.created = ap
	return nil
}

func (f *fakeRepo) AssertNoTimeConflict(_ context.Context, _ uint, _, _ time.Time, ignoreID uint) error {
	f.conflictIgnoreID = ignoreID
	return f.conflictErr
}

func (f *fakeRepo) GetAppointmentByID(_ context.Context, _ uint) (*models.Appointment, error) {
	return f.appointment, nil
}

func (f *fakeRepo) UpdateAppointment(_ context.Context, ap *models.Appointment) error {
	f.updated = ap
	return nil
}

func (f *fakeRepo) GetWorkingHours(_ context.Context, _ uint, _ int) (*models.WorkingHours, error) {
	return f.hours, nil
}

func (f *fakeRepo) ListAppointmentsForDay(_ context.Context, _ uint, _, _ time.Time) ([]models.Appointment, error) {
	return f.booked, nil
}

func (f *fakeRepo) IsWithinWorkingHours(_ context.Context, _ uint, _, _ time.Time) (bool, error) {
	return f.withinHours, nil
}

func (f *fakeRepo) ListAppointmentsForDoctor(_ context.Context, _ uint) ([]models.Appointment, error) {
	if f.appointment == nil {
		return nil, nil
	}
	return []models.Appointment{*f.appointment}, nil
}

func (f *fakeRepo) ListAppointmentsForPatient(_ context.Context, _ uint) ([]models.Appointment, error) {
	if f.appointment == nil {
		return nil, nil
	}
	return []models.Appointment{*f.appointment}, nil
}

// fakeBroadcaster grava os eventos publicados.
type fakeBroadcaster struct {
	mu     sync.Mutex
	events []livesync.Event
}

func (f *fakeBroadcaster) Broadcast(ev livesync.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

func (f *fakeBroadcaster) Events() []livesync.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]livesync.Event(nil), f.events...)
}
