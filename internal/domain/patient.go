package domain

import (
	"time"
)

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

type Patient struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Gender      *Gender    `json:"gender,omitempty"`
	Address     *string    `json:"address,omitempty"`
	Allergies   *string    `json:"allergies,omitempty"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	FirstName   string     `json:"first_name,omitempty"`
	LastName    string     `json:"last_name,omitempty"`
	Email       string     `json:"email,omitempty"`
	Phone       string     `json:"phone,omitempty"`
}

type PatientProfileDTO struct {
	DateOfBirth *string `json:"date_of_birth" example:"1990-05-17"`
	Gender      *Gender `json:"gender" binding:"omitempty,oneof=MALE FEMALE OTHER"`
	Address     *string `json:"address"`
	Allergies   *string `json:"allergies"`
}
