package appointment

import (
	"context"
	"time"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
)

// ======================================================
// USE CASE
// ======================================================

type GetAvailability struct {
	repo domain.Repository
}

func NewGetAvailability(repo domain.Repository) *GetAvailability {
	return &GetAvailability{repo: repo}
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *GetAvailability) Execute(
	ctx context.Context,
	in domain.AvailabilityInput,
) ([]domain.TimeSlot, error) {

	// --------------------------------------------------
	// 1️⃣ Médico e clínica
	// --------------------------------------------------
	doctor, err := uc.repo.GetDoctorByID(ctx, in.DoctorID)
	if err != nil {
		return nil, httperr.ErrBusiness("doctor_not_found")
	}

	clinic, err := uc.repo.GetClinicByID(ctx, doctor.ClinicID)
	if err != nil {
		return nil, err
	}

	loc := timezone.Location(clinic.Timezone)

	// --------------------------------------------------
	// 2️⃣ Expediente do dia
	// --------------------------------------------------
	weekday := int(in.Date.Weekday())

	wh, err := uc.repo.GetWorkingHours(ctx, in.DoctorID, weekday)
	if err != nil || wh == nil || !wh.Active {
		// sem expediente = sem slots, não é erro
		return []domain.TimeSlot{}, nil
	}

	dayStart := atTime(in.Date, wh.StartTime, loc)
	dayEnd := atTime(in.Date, wh.EndTime, loc)
	if !dayStart.Before(dayEnd) {
		return []domain.TimeSlot{}, nil
	}

	var lunchStart, lunchEnd time.Time
	hasLunch := wh.LunchStart != "" && wh.LunchEnd != ""
	if hasLunch {
		lunchStart = atTime(in.Date, wh.LunchStart, loc)
		lunchEnd = atTime(in.Date, wh.LunchEnd, loc)
	}

	// --------------------------------------------------
	// 3️⃣ Consultas já marcadas no dia
	// --------------------------------------------------
	midnight := time.Date(
		in.Date.Year(), in.Date.Month(), in.Date.Day(),
		0, 0, 0, 0, loc,
	)

	booked, err := uc.repo.ListAppointmentsForDay(
		ctx,
		in.DoctorID,
		midnight,
		midnight.AddDate(0, 0, 1),
	)
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 4️⃣ Varredura de slots
	// --------------------------------------------------
	slotMinutes := clinic.SlotMinutes
	if slotMinutes <= 0 {
		slotMinutes = 30
	}
	slotDuration := time.Duration(slotMinutes) * time.Minute

	minAdvance := clinic.MinAdvanceMinutes
	if minAdvance <= 0 {
		minAdvance = 120
	}
	earliest := timezone.NowIn(clinic.Timezone).
		Add(time.Duration(minAdvance) * time.Minute)

	slots := []domain.TimeSlot{}

	for cur := dayStart; !cur.Add(slotDuration).After(dayEnd); cur = cur.Add(slotDuration) {
		end := cur.Add(slotDuration)

		if cur.Before(earliest) {
			continue
		}

		if hasLunch && cur.Before(lunchEnd) && end.After(lunchStart) {
			continue
		}

		if overlapsAny(booked, cur, end) {
			continue
		}

		slots = append(slots, domain.TimeSlot{
			Start: cur.Format("15:04"),
			End:   end.Format("15:04"),
		})
	}

	return slots, nil
}

// ======================================================
// Helpers
// ======================================================

func atTime(day time.Time, hm string, loc *time.Location) time.Time {
	t, err := time.Parse("15:04", hm)
	if err != nil {
		return time.Time{}
	}

	return time.Date(
		day.Year(), day.Month(), day.Day(),
		t.Hour(), t.Minute(), 0, 0,
		loc,
	)
}

func overlapsAny(booked []models.Appointment, start, end time.Time) bool {
	for i := range booked {
		if start.Before(booked[i].EndTime) && end.After(booked[i].StartTime) {
			return true
		}
	}
	return false
}
