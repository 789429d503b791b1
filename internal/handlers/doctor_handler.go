package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-scheduler/internal/cache"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
	appointment "github.com/BruksfildServices01/clinic-scheduler/internal/usecase/appointment"
)

// ======================================================
// HANDLER
// ======================================================

// DoctorHandler serve as rotas públicas de descoberta:
// lista de médicos e disponibilidade. As duas passam pelo
// cache Redis com TTL curto.
type DoctorHandler struct {
	db           *gorm.DB
	cache        *cache.Cache
	availability *appointment.GetAvailability
}

func NewDoctorHandler(
	db *gorm.DB,
	c *cache.Cache,
	availability *appointment.GetAvailability,
) *DoctorHandler {
	return &DoctorHandler{
		db:           db,
		cache:        c,
		availability: availability,
	}
}

const (
	doctorsCacheKey      = "doctors:list"
	doctorsCacheTTL      = 60 * time.Second
	availabilityCacheTTL = 30 * time.Second
)

// ======================================================
// DTOs
// ======================================================

type DoctorSummary struct {
	ID             uint   `json:"id"`
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
	ClinicID       uint   `json:"clinic_id"`
	ClinicName     string `json:"clinic_name"`
}

// ======================================================
// LIST
// ======================================================

func (h *DoctorHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	var cached []DoctorSummary
	if h.cache.GetJSON(ctx, doctorsCacheKey, &cached) {
		c.JSON(http.StatusOK, gin.H{"doctors": cached})
		return
	}

	var doctors []models.User
	if err := h.db.
		Preload("Clinic").
		Order("name ASC").
		Find(&doctors).Error; err != nil {

		httperr.Internal(c, "failed_to_list_doctors", "Erro ao listar médicos.")
		return
	}

	out := make([]DoctorSummary, 0, len(doctors))
	for _, d := range doctors {
		out = append(out, DoctorSummary{
			ID:             d.ID,
			Name:           d.Name,
			Specialization: d.Specialization,
			ClinicID:       d.ClinicID,
			ClinicName:     d.Clinic.Name,
		})
	}

	h.cache.SetJSON(ctx, doctorsCacheKey, out, doctorsCacheTTL)

	c.JSON(http.StatusOK, gin.H{"doctors": out})
}

// ======================================================
// AVAILABILITY
// ======================================================

func (h *DoctorHandler) Availability(c *gin.Context) {
	ctx := c.Request.Context()

	doctorID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_doctor_id", "Médico inválido.")
		return
	}

	dateStr := c.Query("date")
	if dateStr == "" {
		httperr.BadRequest(c, "missing_date", "Data obrigatória.")
		return
	}

	cacheKey := fmt.Sprintf("availability:%d:%s", doctorID, dateStr)

	var cached []domain.TimeSlot
	if h.cache.GetJSON(ctx, cacheKey, &cached) {
		c.JSON(http.StatusOK, gin.H{"date": dateStr, "slots": cached})
		return
	}

	var doctor models.User
	if err := h.db.Preload("Clinic").First(&doctor, doctorID).Error; err != nil {
		httperr.NotFound(c, "doctor_not_found", "Médico não encontrado.")
		return
	}

	date, err := time.ParseInLocation(
		"2006-01-02",
		dateStr,
		timezone.Location(doctor.Clinic.Timezone),
	)
	if err != nil {
		httperr.BadRequest(c, "invalid_date", "Data inválida.")
		return
	}

	slots, err := h.availability.Execute(ctx, domain.AvailabilityInput{
		ClinicID: doctor.ClinicID,
		DoctorID: doctor.ID,
		Date:     date,
	})
	if err != nil {
		if httperr.IsBusiness(err, "doctor_not_found") {
			httperr.NotFound(c, "doctor_not_found", "Médico não encontrado.")
			return
		}
		httperr.Internal(c, "availability_failed", "Erro ao calcular horários.")
		return
	}

	h.cache.SetJSON(ctx, cacheKey, slots, availabilityCacheTTL)

	c.JSON(http.StatusOK, gin.H{"date": dateStr, "slots": slots})
}
