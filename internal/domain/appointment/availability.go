package appointment

import "time"

type AvailabilityInput struct {
	ClinicID uint
	DoctorID uint
	Date     time.Time
}

type TimeSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}
