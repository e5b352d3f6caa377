package domain

import (
	"time"
)

type ClinicStatus string

const (
	ClinicStatusPending   ClinicStatus = "PENDING"
	ClinicStatusApproved  ClinicStatus = "APPROVED"
	ClinicStatusRejected  ClinicStatus = "REJECTED"
	ClinicStatusSuspended ClinicStatus = "SUSPENDED"
)

type Clinic struct {
	ID              int64        `json:"id"`
	OwnerID         int64        `json:"owner_id"`
	Name            string       `json:"name"`
	Description     string       `json:"description"`
	Address         string       `json:"address"`
	City            string       `json:"city"`
	Phone           string       `json:"phone"`
	Email           string       `json:"email"`
	Timezone        string       `json:"timezone"`
	LogoURL         *string      `json:"logo_url,omitempty"`
	Status          ClinicStatus `json:"status"`
	RejectionReason *string      `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// Location resolves the clinic timezone, falling back to fallback when it is empty or unknown.
func (c *Clinic) Location(fallback *time.Location) *time.Location {
	if c.Timezone == "" {
		return fallback
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fallback
	}
	return loc
}

// ClinicDetails is the public clinic card with its active catalog.
type ClinicDetails struct {
	Clinic
	Services []DentalService `json:"services"`
	Doctors  []Doctor        `json:"doctors"`
}

type CreateClinicDTO struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Address     string `json:"address" binding:"required"`
	City        string `json:"city" binding:"required"`
	Phone       string `json:"phone" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Timezone    string `json:"timezone" example:"Europe/Moscow"`
}

type UpdateClinicDTO struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Address     *string `json:"address"`
	City        *string `json:"city"`
	Phone       *string `json:"phone"`
	Email       *string `json:"email" binding:"omitempty,email"`
	Timezone    *string `json:"timezone"`
}

type ClinicFilter struct {
	Status *ClinicStatus `json:"status"`
	City   *string       `json:"city"`
	Query  *string       `json:"query"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

type RejectClinicDTO struct {
	Reason string `json:"reason" binding:"required"`
}
