package domain

import (
	"time"
)

type Doctor struct {
	ID             int64     `json:"id"`
	ClinicID       int64     `json:"clinic_id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Specialization string    `json:"specialization"`
	Email          *string   `json:"email,omitempty"`
	Phone          *string   `json:"phone,omitempty"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type CreateDoctorDTO struct {
	FirstName      string  `json:"first_name" binding:"required"`
	LastName       string  `json:"last_name" binding:"required"`
	Specialization string  `json:"specialization" binding:"required"`
	Email          *string `json:"email" binding:"omitempty,email"`
	Phone          *string `json:"phone"`
}

type UpdateDoctorDTO struct {
	FirstName      *string `json:"first_name"`
	LastName       *string `json:"last_name"`
	Specialization *string `json:"specialization"`
	Email          *string `json:"email" binding:"omitempty,email"`
	Phone          *string `json:"phone"`
	IsActive       *bool   `json:"is_active"`
}
