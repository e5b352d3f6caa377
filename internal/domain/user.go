package domain

import (
	"time"
)

type User struct {
	ID           int64     `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type UserRole string

const (
	UserRoleUnassigned  UserRole = "UNASSIGNED"
	UserRolePatient     UserRole = "PATIENT"
	UserRoleClinicOwner UserRole = "CLINIC_OWNER"
	UserRoleAdmin       UserRole = "ADMIN"
)

func (r UserRole) Valid() bool {
	switch r {
	case UserRoleUnassigned, UserRolePatient, UserRoleClinicOwner, UserRoleAdmin:
		return true
	}
	return false
}

// Identity is the authenticated caller as carried by the access token.
type Identity struct {
	UserID int64    `json:"user_id"`
	Role   UserRole `json:"role"`
}

func (i Identity) Anonymous() bool {
	return i.UserID == 0
}

type CreateUserDTO struct {
	FirstName string   `json:"first_name" binding:"required"`
	LastName  string   `json:"last_name" binding:"required"`
	Email     string   `json:"email" binding:"required,email"`
	Phone     string   `json:"phone" binding:"required"`
	Password  string   `json:"password" binding:"required,min=6"`
	Role      UserRole `json:"role" binding:"required,oneof=UNASSIGNED PATIENT CLINIC_OWNER ADMIN"`
}

type UpdateUserDTO struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email" binding:"omitempty,email"`
	Phone     *string `json:"phone"`
	IsActive  *bool   `json:"is_active"`
}

type PasswordUpdateDTO struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

type UserFilter struct {
	Role   *UserRole `json:"role"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}
