package models

import (
	"time"

	"github.com/google/uuid"
)

// MedicalRecord represents one clinical entry in a pet's history. Records are
// immutable once written; corrections are appended as new entries.
type MedicalRecord struct {
	ID         uuid.UUID `json:"id" db:"id"`
	ClinicID   uuid.UUID `json:"clinic_id" db:"clinic_id"`
	PetID      uuid.UUID `json:"pet_id" db:"pet_id"`
	VetID      uuid.UUID `json:"vet_id" db:"vet_id"`
	Diagnosis  string    `json:"diagnosis" db:"diagnosis"`
	Treatment  string    `json:"treatment" db:"treatment"`
	Notes      string    `json:"notes,omitempty" db:"notes"`
	RecordedAt time.Time `json:"recorded_at" db:"recorded_at"`
}

// TableName returns the table name for the MedicalRecord model
func (MedicalRecord) TableName() string {
	return "medical_records"
}
