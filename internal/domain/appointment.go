package domain

import (
	"time"

	"dentalhub/pkg/timeslot"
)

type AppointmentStatus string

const (
	AppointmentStatusBooked     AppointmentStatus = "BOOKED"
	AppointmentStatusConfirmed  AppointmentStatus = "CONFIRMED"
	AppointmentStatusInProgress AppointmentStatus = "IN_PROGRESS"
	AppointmentStatusCompleted  AppointmentStatus = "COMPLETED"
	AppointmentStatusCancelled  AppointmentStatus = "CANCELLED"
	AppointmentStatusNoShow     AppointmentStatus = "NO_SHOW"
)

// OccupyingStatuses block their time range for new bookings.
var OccupyingStatuses = []AppointmentStatus{
	AppointmentStatusBooked,
	AppointmentStatusConfirmed,
	AppointmentStatusInProgress,
}

var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusBooked:     {AppointmentStatusConfirmed, AppointmentStatusCancelled, AppointmentStatusNoShow},
	AppointmentStatusConfirmed:  {AppointmentStatusInProgress, AppointmentStatusCancelled, AppointmentStatusNoShow},
	AppointmentStatusInProgress: {AppointmentStatusCompleted},
}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusBooked, AppointmentStatusConfirmed, AppointmentStatusInProgress,
		AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusNoShow:
		return true
	}
	return false
}

func (s AppointmentStatus) IsOccupying() bool {
	for _, o := range OccupyingStatuses {
		if s == o {
			return true
		}
	}
	return false
}

func (s AppointmentStatus) IsTerminal() bool {
	return s == AppointmentStatusCompleted || s == AppointmentStatusCancelled || s == AppointmentStatusNoShow
}

func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range appointmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PatientCancellable reports whether the patient may still cancel on their own.
func (s AppointmentStatus) PatientCancellable() bool {
	return s == AppointmentStatusBooked || s == AppointmentStatusConfirmed
}

type PaymentStatus string

const (
	PaymentStatusPending     PaymentStatus = "PENDING"
	PaymentStatusNotRequired PaymentStatus = "NOT_REQUIRED"
)

type Appointment struct {
	ID                 int64             `json:"id"`
	ClinicID           int64             `json:"clinic_id"`
	PatientID          int64             `json:"patient_id"`
	ServiceID          int64             `json:"service_id"`
	DoctorID           *int64            `json:"doctor_id,omitempty"`
	StartTime          time.Time         `json:"start_time"`
	EndTime            time.Time         `json:"end_time"`
	Status             AppointmentStatus `json:"status"`
	PaymentStatus      PaymentStatus     `json:"payment_status"`
	Price              *float64          `json:"price,omitempty"`
	Description        *string           `json:"description,omitempty"`
	Notes              *string           `json:"notes,omitempty"`
	CancellationReason *string           `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
	PatientUserID      int64             `json:"-"`
	ClinicOwnerID      int64             `json:"-"`
	ClinicName         string            `json:"clinic_name,omitempty"`
	ServiceName        string            `json:"service_name,omitempty"`
	PatientName        string            `json:"patient_name,omitempty"`
	DoctorName         string            `json:"doctor_name,omitempty"`
}

func (a *Appointment) Interval() timeslot.Interval {
	return timeslot.Interval{Start: a.StartTime, End: a.EndTime}
}

// BookingCheck is evaluated inside the booking transaction against the occupying
// appointments of the clinic and of the patient that overlap the requested window.
type BookingCheck func(clinicBusy, patientBusy []Appointment) error

type CreateAppointmentDTO struct {
	ClinicID    int64     `json:"clinic_id" binding:"required"`
	ServiceID   int64     `json:"service_id" binding:"required"`
	StartTime   time.Time `json:"start_time" binding:"required" example:"2030-01-07T10:00:00+03:00"`
	EndTime     time.Time `json:"end_time" binding:"required" example:"2030-01-07T10:30:00+03:00"`
	Description *string   `json:"description"`
	DoctorID    *int64    `json:"doctor_id"`
}

type UpdateAppointmentStatusDTO struct {
	Status AppointmentStatus `json:"status" binding:"required,oneof=CONFIRMED IN_PROGRESS COMPLETED CANCELLED NO_SHOW"`
	Reason *string           `json:"reason"`
}

type CancelAppointmentDTO struct {
	Reason *string `json:"reason"`
}

type UpdateAppointmentNotesDTO struct {
	Notes string `json:"notes"`
}

type AppointmentFilter struct {
	ClinicID  *int64             `json:"clinic_id"`
	PatientID *int64             `json:"patient_id"`
	Status    *AppointmentStatus `json:"status"`
	StartDate *time.Time         `json:"start_date"`
	EndDate   *time.Time         `json:"end_date"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
}
