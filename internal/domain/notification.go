package domain

import (
	"time"
)

type NotificationType string

const (
	NotificationAppointmentBooked    NotificationType = "APPOINTMENT_BOOKED"
	NotificationAppointmentStatus    NotificationType = "APPOINTMENT_STATUS"
	NotificationAppointmentReminder  NotificationType = "APPOINTMENT_REMINDER"
	NotificationClinicStatus         NotificationType = "CLINIC_STATUS"
	NotificationNewClinicAppointment NotificationType = "NEW_CLINIC_APPOINTMENT"
)

type Notification struct {
	ID            int64            `json:"id"`
	UserID        int64            `json:"user_id"`
	Type          NotificationType `json:"type"`
	Title         string           `json:"title"`
	Message       string           `json:"message"`
	AppointmentID *int64           `json:"appointment_id,omitempty"`
	IsRead        bool             `json:"is_read"`
	CreatedAt     time.Time        `json:"created_at"`
}

type NotificationFilter struct {
	UserID     int64 `json:"user_id"`
	UnreadOnly bool  `json:"unread_only"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// AppointmentEvent is published on the message bus after an appointment changes.
type AppointmentEvent struct {
	EventID       string            `json:"event_id"`
	AppointmentID int64             `json:"appointment_id"`
	ClinicID      int64             `json:"clinic_id"`
	PatientID     int64             `json:"patient_id"`
	ServiceID     int64             `json:"service_id"`
	Status        AppointmentStatus `json:"status"`
	StartTime     time.Time         `json:"start_time"`
	EndTime       time.Time         `json:"end_time"`
	OccurredAt    time.Time         `json:"occurred_at"`
}

// ClinicEvent is published when an administrator changes a clinic status.
type ClinicEvent struct {
	EventID    string       `json:"event_id"`
	ClinicID   int64        `json:"clinic_id"`
	OwnerID    int64        `json:"owner_id"`
	Status     ClinicStatus `json:"status"`
	Reason     *string      `json:"reason,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// ReminderPayload is the body of a delayed appointment reminder task.
type ReminderPayload struct {
	AppointmentID int64     `json:"appointment_id"`
	StartTime     time.Time `json:"start_time"`
}
