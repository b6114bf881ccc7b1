package models

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus represents the lifecycle state of an appointment
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

// Appointment represents a booked clinic visit
type Appointment struct {
	ID        uuid.UUID         `json:"id" db:"id"`
	ClinicID  uuid.UUID         `json:"clinic_id" db:"clinic_id"`
	PetID     uuid.UUID         `json:"pet_id" db:"pet_id"`
	VetID     *uuid.UUID        `json:"vet_id,omitempty" db:"vet_id"`
	CreatedBy uuid.UUID         `json:"created_by" db:"created_by"`
	StartsAt  time.Time         `json:"starts_at" db:"starts_at"`
	Reason    string            `json:"reason" db:"reason"`
	Status    AppointmentStatus `json:"status" db:"status"`
	CreatedAt time.Time         `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the Appointment model
func (Appointment) TableName() string {
	return "appointments"
}
