package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/clinic-scheduler/internal/middleware"
	appointment "github.com/BruksfildServices01/clinic-scheduler/internal/usecase/appointment"
)

// ======================================================
// HANDLER
// ======================================================

type AppointmentHandler struct {
	create *appointment.CreateAppointment
	update *appointment.UpdateAppointment
	list   *appointment.ListAppointments
}

func NewAppointmentHandler(
	create *appointment.CreateAppointment,
	update *appointment.UpdateAppointment,
	list *appointment.ListAppointments,
) *AppointmentHandler {
	return &AppointmentHandler{
		create: create,
		update: update,
		list:   list,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type CreateAppointmentRequest struct {
	DoctorID uint `json:"doctor_id" binding:"required"`

	// obrigatórios quando quem agenda é o médico (balcão)
	PatientName  string `json:"patient_name"`
	PatientEmail string `json:"patient_email"`
	PatientPhone string `json:"patient_phone"`

	Date   string `json:"date" binding:"required"` // YYYY-MM-DD
	Time   string `json:"time" binding:"required"` // HH:mm
	Reason string `json:"reason"`
}

type UpdateAppointmentRequest struct {
	Date   string `json:"date"`
	Time   string `json:"time"`
	Status string `json:"status"`
}

// ======================================================
// CREATE
// ======================================================

func (h *AppointmentHandler) Create(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uint)
	userType := c.GetString(middleware.ContextUserType)

	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	in := appointment.CreateAppointmentInput{
		DoctorID: req.DoctorID,
		Date:     req.Date,
		Time:     req.Time,
		Reason:   req.Reason,
	}

	switch userType {
	case middleware.UserTypePatient:
		in.PatientID = userID

	case middleware.UserTypeDoctor:
		if req.PatientName == "" || req.PatientEmail == "" {
			httperr.BadRequest(c, "missing_patient", "Nome e e-mail do paciente são obrigatórios.")
			return
		}
		in.PatientName = req.PatientName
		in.PatientEmail = req.PatientEmail
		in.PatientPhone = req.PatientPhone
		in.ActorUserID = &userID

	default:
		httperr.Forbidden(c, "unknown_user_type", "Tipo de usuário inválido.")
		return
	}

	record, err := h.create.Execute(c.Request.Context(), in)
	if err != nil {
		mapAppointmentErrors(c, err)
		return
	}

	c.JSON(http.StatusCreated, record)
}

// ======================================================
// UPDATE (remarcação ou status)
// ======================================================

func (h *AppointmentHandler) Update(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uint)
	userType := c.GetString(middleware.ContextUserType)

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_appointment_id", "Agendamento inválido.")
		return
	}

	var req UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	in := appointment.UpdateAppointmentInput{
		AppointmentID: uint(id),
		ActorUserType: userType,
		Date:          req.Date,
		Time:          req.Time,
		Status:        req.Status,
	}

	switch userType {
	case middleware.UserTypeDoctor:
		in.ActorDoctorID = userID
	case middleware.UserTypePatient:
		in.ActorPatientID = userID
	}

	record, err := h.update.Execute(c.Request.Context(), in)
	if err != nil {
		mapAppointmentErrors(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// ======================================================
// LIST (fonte de verdade do resync)
// ======================================================

func (h *AppointmentHandler) List(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uint)
	userType := c.GetString(middleware.ContextUserType)

	in := appointment.ListAppointmentsInput{UserType: userType}

	switch userType {
	case middleware.UserTypeDoctor:
		in.DoctorID = userID
	case middleware.UserTypePatient:
		in.PatientID = userID
	}

	records, err := h.list.Execute(c.Request.Context(), in)
	if err != nil {
		mapAppointmentErrors(c, err)
		return
	}

	httpresp.List(c, records)
}

// ======================================================
// ERROR MAPPING
// ======================================================

func mapAppointmentErrors(c *gin.Context, err error) {
	code, ok := httperr.BusinessCode(err)
	if !ok {
		httperr.Internal(c, "internal_error", "Erro interno.")
		return
	}

	switch code {
	case "doctor_not_found", "patient_not_found", "appointment_not_found":
		httperr.NotFound(c, code, "Registro não encontrado.")

	case "time_conflict":
		httperr.Conflict(c, code, "Conflito de horário.")

	case "not_appointment_owner":
		httperr.Forbidden(c, code, "Você não pode alterar este agendamento.")

	case "invalid_date_or_time", "too_soon", "outside_working_hours",
		"nothing_to_update", "invalid_state", "unknown_user_type":
		httperr.BadRequest(c, code, "Requisição inválida.")

	default:
		httperr.BadRequest(c, code, "Requisição inválida.")
	}
}
