package appointment

import (
	"context"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/dto"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/middleware"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
)

// ======================================================
// INPUT
// ======================================================

type ListAppointmentsInput struct {
	UserType  string
	DoctorID  uint
	PatientID uint
}

// ======================================================
// USE CASE
// ======================================================

// ListAppointments é a fonte de verdade para o resync do
// cliente: devolve todas as consultas da identidade no
// mesmo formato dos eventos em tempo real.
type ListAppointments struct {
	repo domain.Repository
}

func NewListAppointments(repo domain.Repository) *ListAppointments {
	return &ListAppointments{repo: repo}
}

func (uc *ListAppointments) Execute(
	ctx context.Context,
	in ListAppointmentsInput,
) ([]dto.AppointmentDTO, error) {

	var (
		apps []models.Appointment
		err  error
	)

	switch in.UserType {
	case middleware.UserTypeDoctor:
		apps, err = uc.repo.ListAppointmentsForDoctor(ctx, in.DoctorID)
	case middleware.UserTypePatient:
		apps, err = uc.repo.ListAppointmentsForPatient(ctx, in.PatientID)
	default:
		return nil, httperr.ErrBusiness("unknown_user_type")
	}

	if err != nil {
		return nil, err
	}

	out := make([]dto.AppointmentDTO, 0, len(apps))
	for i := range apps {
		loc := timezone.Location(apps[i].Clinic.Timezone)
		out = append(out, dto.FromAppointment(&apps[i], loc))
	}

	return out, nil
}
