package appointment

import (
	"context"
	"log"
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/dto"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
	"github.com/BruksfildServices01/clinic-scheduler/pkg/livesync"
)

// ======================================================
// INPUT
// ======================================================

type CreateAppointmentInput struct {
	DoctorID uint

	// PatientID vem do token quando o paciente agenda;
	// os campos soltos, quando o médico agenda pelo balcão
	PatientID    uint
	PatientName  string
	PatientEmail string
	PatientPhone string

	Date   string
	Time   string
	Reason string

	// ator do audit (médico autenticado, se houver)
	ActorUserID *uint
}

// ======================================================
// USE CASE
// ======================================================

type CreateAppointment struct {
	repo      domain.Repository
	audit     *audit.Dispatcher
	broadcast Broadcaster
}

func NewCreateAppointment(
	repo domain.Repository,
	audit *audit.Dispatcher,
	broadcast Broadcaster,
) *CreateAppointment {
	return &CreateAppointment{
		repo:      repo,
		audit:     audit,
		broadcast: broadcast,
	}
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *CreateAppointment) Execute(
	ctx context.Context,
	in CreateAppointmentInput,
) (dto.AppointmentDTO, error) {

	// --------------------------------------------------
	// 1️⃣ Médico e clínica
	// --------------------------------------------------
	doctor, err := uc.repo.GetDoctorByID(ctx, in.DoctorID)
	if err != nil {
		return dto.AppointmentDTO{}, httperr.ErrBusiness("doctor_not_found")
	}

	clinic, err := uc.repo.GetClinicByID(ctx, doctor.ClinicID)
	if err != nil {
		return dto.AppointmentDTO{}, err
	}

	loc := timezone.Location(clinic.Timezone)

	// --------------------------------------------------
	// 2️⃣ Data / hora no timezone da clínica
	// --------------------------------------------------
	start, err := time.ParseInLocation(
		"2006-01-02 15:04",
		in.Date+" "+in.Time,
		loc,
	)
	if err != nil {
		return dto.AppointmentDTO{}, httperr.ErrBusiness("invalid_date_or_time")
	}

	// --------------------------------------------------
	// 3️⃣ Antecedência mínima
	// --------------------------------------------------
	minAdvance := clinic.MinAdvanceMinutes
	if minAdvance <= 0 {
		minAdvance = 120
	}

	now := timezone.NowIn(clinic.Timezone)
	if start.Before(now.Add(time.Duration(minAdvance) * time.Minute)) {
		return dto.AppointmentDTO{}, httperr.ErrBusiness("too_soon")
	}

	// --------------------------------------------------
	// 4️⃣ Duração da consulta
	// --------------------------------------------------
	slotMinutes := clinic.SlotMinutes
	if slotMinutes <= 0 {
		slotMinutes = 30
	}
	end := start.Add(time.Duration(slotMinutes) * time.Minute)

	// --------------------------------------------------
	// 5️⃣ Expediente do médico
	// --------------------------------------------------
	ok, err := uc.repo.IsWithinWorkingHours(ctx, in.DoctorID, start, end)
	if err != nil {
		return dto.AppointmentDTO{}, err
	}
	if !ok {
		return dto.AppointmentDTO{}, httperr.ErrBusiness("outside_working_hours")
	}

	// --------------------------------------------------
	// 6️⃣ Paciente (token ou get-or-create)
	// --------------------------------------------------
	var patient *models.Patient
	if in.PatientID != 0 {
		patient, err = uc.repo.GetPatientByID(ctx, in.PatientID)
		if err != nil {
			return dto.AppointmentDTO{}, httperr.ErrBusiness("patient_not_found")
		}
	} else {
		patient, err = uc.repo.GetOrCreatePatient(
			ctx,
			in.PatientName,
			in.PatientEmail,
			in.PatientPhone,
		)
		if err != nil {
			return dto.AppointmentDTO{}, err
		}
	}

	// --------------------------------------------------
	// 7️⃣ Conflito de horário
	// --------------------------------------------------
	if err := uc.repo.AssertNoTimeConflict(ctx, in.DoctorID, start, end, 0); err != nil {
		return dto.AppointmentDTO{}, err
	}

	// --------------------------------------------------
	// 8️⃣ Criação (status centralizado)
	// --------------------------------------------------
	ap := &models.Appointment{
		ClinicID:  clinic.ID,
		DoctorID:  doctor.ID,
		PatientID: patient.ID,
		StartTime: start,
		EndTime:   end,
		Status:    string(domain.InitialStatus()),
		Reason:    in.Reason,
	}

	if err := uc.repo.CreateAppointment(ctx, ap); err != nil {
		return dto.AppointmentDTO{}, err
	}

	ap.Doctor = *doctor
	ap.Patient = *patient
	record := dto.FromAppointment(ap, loc)

	// --------------------------------------------------
	// 9️⃣ Auditoria
	// --------------------------------------------------
	if uc.audit != nil {
		uc.audit.Dispatch(audit.Event{
			ClinicID: clinic.ID,
			UserID:   in.ActorUserID,
			Action:   "appointment_created",
			Entity:   "appointment",
			EntityID: &ap.ID,
		})
	}

	// --------------------------------------------------
	// 🔟 Broadcast em tempo real
	// --------------------------------------------------
	if ev, err := livesync.NewEvent(livesync.EventAppointmentCreated, record); err == nil {
		uc.broadcast.Broadcast(ev)
	} else {
		log.Printf("appointment: evento de criação não serializável: %v", err)
	}

	return record, nil
}
