package domain

import (
	"time"
)

// DentalService is a priced procedure offered by a clinic.
type DentalService struct {
	ID              int64     `json:"id"`
	ClinicID        int64     `json:"clinic_id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Price           *float64  `json:"price,omitempty"`
	DurationMinutes *int      `json:"duration_minutes,omitempty"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (s *DentalService) RequiresPayment() bool {
	return s.Price != nil && *s.Price > 0
}

type CreateDentalServiceDTO struct {
	Name            string   `json:"name" binding:"required"`
	Description     string   `json:"description"`
	Price           *float64 `json:"price" binding:"omitempty,gte=0"`
	DurationMinutes *int     `json:"duration_minutes" binding:"omitempty,gt=0,lte=480"`
}

type UpdateDentalServiceDTO struct {
	Name            *string  `json:"name"`
	Description     *string  `json:"description"`
	Price           *float64 `json:"price" binding:"omitempty,gte=0"`
	DurationMinutes *int     `json:"duration_minutes" binding:"omitempty,gt=0,lte=480"`
	IsActive        *bool    `json:"is_active"`
}
