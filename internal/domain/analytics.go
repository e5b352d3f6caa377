package domain

import (
	"time"
)

type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type ServiceStat struct {
	ServiceID   int64   `json:"service_id"`
	ServiceName string  `json:"service_name"`
	Bookings    int     `json:"bookings"`
	Revenue     float64 `json:"revenue"`
}

type PlatformAnalytics struct {
	UsersByRole          map[UserRole]int          `json:"users_by_role"`
	ClinicsByStatus      map[ClinicStatus]int      `json:"clinics_by_status"`
	AppointmentsByStatus map[AppointmentStatus]int `json:"appointments_by_status"`
	CompletedRevenue     float64                   `json:"completed_revenue"`
	BookingsPerDay       []DailyCount              `json:"bookings_per_day"`
	WindowStart          time.Time                 `json:"window_start"`
	WindowEnd            time.Time                 `json:"window_end"`
}

type ClinicAnalytics struct {
	ClinicID             int64                     `json:"clinic_id"`
	AppointmentsByStatus map[AppointmentStatus]int `json:"appointments_by_status"`
	UpcomingCount        int                       `json:"upcoming_count"`
	CompletedRevenue     float64                   `json:"completed_revenue"`
	TopServices          []ServiceStat             `json:"top_services"`
	LowStockItems        int                       `json:"low_stock_items"`
}
