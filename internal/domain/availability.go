package domain

import (
	"dentalhub/pkg/timeslot"
)

type SlotQuery struct {
	ClinicID  int64
	Date      string
	ServiceID *int64
}

// SlotsResponse lists the bookable and taken slots of one clinic day.
type SlotsResponse struct {
	Date            string          `json:"date"`
	Slots           []timeslot.Slot `json:"slots"`
	BookedSlots     []timeslot.Slot `json:"booked_slots"`
	WorkingHours    *WorkingHours   `json:"working_hours"`
	ServiceDuration int             `json:"service_duration"`
	Message         string          `json:"message,omitempty"`
}
