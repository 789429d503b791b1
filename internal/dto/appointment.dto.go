package dto

import (
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

// ======================================================
// DTO canônico de consulta
// ======================================================
//
// Mesmo formato para listagem REST e para eventos em tempo
// real: o cliente reconcilia o cache local a partir dele.

type AppointmentDTO struct {
	ID       uint `json:"id"`
	ClinicID uint `json:"clinic_id"`

	DoctorID       uint   `json:"doctor_id"`
	DoctorName     string `json:"doctor_name"`
	Specialization string `json:"specialization"`

	PatientName  string `json:"patient_name"`
	PatientEmail string `json:"patient_email"`
	PatientPhone string `json:"patient_phone"`

	Date string `json:"date"` // 2006-01-02
	Time string `json:"time"` // 15:04

	Reason    string    `json:"reason"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// FromAppointment monta o DTO no timezone da clínica.
// Exige Doctor e Patient pré-carregados.
func FromAppointment(ap *models.Appointment, loc *time.Location) AppointmentDTO {
	start := ap.StartTime.In(loc)

	return AppointmentDTO{
		ID:       ap.ID,
		ClinicID: ap.ClinicID,

		DoctorID:       ap.DoctorID,
		DoctorName:     ap.Doctor.Name,
		Specialization: ap.Doctor.Specialization,

		PatientName:  ap.Patient.Name,
		PatientEmail: ap.Patient.Email,
		PatientPhone: ap.Patient.Phone,

		Date: start.Format("2006-01-02"),
		Time: start.Format("15:04"),

		Reason:    ap.Reason,
		Status:    ap.Status,
		CreatedAt: ap.CreatedAt,
	}
}
