package appointment

import (
	"context"
	"log"
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/dto"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/middleware"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
	"github.com/BruksfildServices01/clinic-scheduler/pkg/livesync"
)

// ======================================================
// INPUT
// ======================================================

type UpdateAppointmentInput struct {
	AppointmentID uint

	// ator do token
	ActorUserType  string
	ActorDoctorID  uint
	ActorPatientID uint

	// remarcação (os dois juntos)
	Date string
	Time string

	// mudança de status ("confirmed" ou "cancelled")
	Status string
}

// ======================================================
// USE CASE
// ======================================================

type UpdateAppointment struct {
	repo      domain.Repository
	audit     *audit.Dispatcher
	broadcast Broadcaster
}

func NewUpdateAppointment(
	repo domain.Repository,
	audit *audit.Dispatcher,
	broadcast Broadcaster,
) *UpdateAppointment {
	return &UpdateAppointment{
		repo:      repo,
		audit:     audit,
		broadcast: broadcast,
	}
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *UpdateAppointment) Execute(
	ctx context.Context,
	in UpdateAppointmentInput,
) (dto.AppointmentDTO, error) {

	// --------------------------------------------------
	// 1️⃣ Consulta alvo
	// --------------------------------------------------
	ap, err := uc.repo.GetAppointmentByID(ctx, in.AppointmentID)
	if err != nil {
		return dto.AppointmentDTO{}, httperr.ErrBusiness("appointment_not_found")
	}

	// --------------------------------------------------
	// 2️⃣ Dono da consulta
	// --------------------------------------------------
	switch in.ActorUserType {
	case middleware.UserTypeDoctor:
		if ap.DoctorID != in.ActorDoctorID {
			return dto.AppointmentDTO{}, httperr.ErrBusiness("not_appointment_owner")
		}
	case middleware.UserTypePatient:
		if ap.PatientID != in.ActorPatientID {
			return dto.AppointmentDTO{}, httperr.ErrBusiness("not_appointment_owner")
		}
	default:
		return dto.AppointmentDTO{}, httperr.ErrBusiness("not_appointment_owner")
	}

	loc := timezone.Location(ap.Clinic.Timezone)
	now := timezone.NowIn(ap.Clinic.Timezone)

	// --------------------------------------------------
	// 3️⃣ Remarcação ou mudança de status
	// --------------------------------------------------
	switch {
	case in.Date != "" || in.Time != "":
		if in.Date == "" || in.Time == "" {
			return dto.AppointmentDTO{}, httperr.ErrBusiness("invalid_date_or_time")
		}

		start, err := time.ParseInLocation(
			"2006-01-02 15:04",
			in.Date+" "+in.Time,
			loc,
		)
		if err != nil {
			return dto.AppointmentDTO{}, httperr.ErrBusiness("invalid_date_or_time")
		}

		slotMinutes := ap.Clinic.SlotMinutes
		if slotMinutes <= 0 {
			slotMinutes = 30
		}
		end := start.Add(time.Duration(slotMinutes) * time.Minute)

		minAdvance := ap.Clinic.MinAdvanceMinutes
		if minAdvance <= 0 {
			minAdvance = 120
		}
		if start.Before(now.Add(time.Duration(minAdvance) * time.Minute)) {
			return dto.AppointmentDTO{}, httperr.ErrBusiness("too_soon")
		}

		ok, err := uc.repo.IsWithinWorkingHours(ctx, ap.DoctorID, start, end)
		if err != nil {
			return dto.AppointmentDTO{}, err
		}
		if !ok {
			return dto.AppointmentDTO{}, httperr.ErrBusiness("outside_working_hours")
		}

		// ignora a própria consulta no check de conflito
		if err := uc.repo.AssertNoTimeConflict(ctx, ap.DoctorID, start, end, ap.ID); err != nil {
			return dto.AppointmentDTO{}, err
		}

		if err := domain.Reschedule(ap, start, end); err != nil {
			return dto.AppointmentDTO{}, err
		}

	case in.Status == string(domain.StatusConfirmed):
		if err := domain.Confirm(ap, now); err != nil {
			return dto.AppointmentDTO{}, err
		}

	case in.Status == string(domain.StatusCancelled):
		if err := domain.Cancel(ap, now); err != nil {
			return dto.AppointmentDTO{}, err
		}

	default:
		return dto.AppointmentDTO{}, httperr.ErrBusiness("nothing_to_update")
	}

	// --------------------------------------------------
	// 4️⃣ Persistência
	// --------------------------------------------------
	if err := uc.repo.UpdateAppointment(ctx, ap); err != nil {
		return dto.AppointmentDTO{}, err
	}

	record := dto.FromAppointment(ap, loc)

	// --------------------------------------------------
	// 5️⃣ Auditoria
	// --------------------------------------------------
	var actorID *uint
	if in.ActorUserType == middleware.UserTypeDoctor {
		id := in.ActorDoctorID
		actorID = &id
	}

	if uc.audit != nil {
		uc.audit.Dispatch(audit.Event{
			ClinicID: ap.ClinicID,
			UserID:   actorID,
			Action:   "appointment_updated",
			Entity:   "appointment",
			EntityID: &ap.ID,
			Metadata: map[string]string{"status": ap.Status},
		})
	}

	// --------------------------------------------------
	// 6️⃣ Broadcast em tempo real
	// --------------------------------------------------
	if ev, err := livesync.NewEvent(livesync.EventAppointmentUpdated, record); err == nil {
		uc.broadcast.Broadcast(ev)
	} else {
		log.Printf("appointment: evento de atualização não serializável: %v", err)
	}

	return record, nil
}
