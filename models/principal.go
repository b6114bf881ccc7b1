package models

import (
	"time"

	"github.com/google/uuid"
)

// UserRole represents the role of a user within a clinic
type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleVet   UserRole = "vet"
	RoleStaff UserRole = "staff"
)

// User represents an authenticated principal
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	ClinicID  uuid.UUID `json:"clinic_id" db:"clinic_id"`
	Role      UserRole  `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// IsAdmin returns true if the user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Clinic represents a tenant in the multi-tenant system
type Clinic struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Slug      string    `json:"slug" db:"slug"` // URL-friendly identifier
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Clinic model
func (Clinic) TableName() string {
	return "clinics"
}
