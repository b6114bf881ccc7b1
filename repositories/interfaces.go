package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/vetnova/clinic-platform/models"
)

// AuditRepository handles audit event persistence. Deliberately narrow: the
// pipeline only appends; retention and querying belong to the sink's owner.
type AuditRepository interface {
	// Insert appends a new audit event
	Insert(ctx context.Context, event *models.AuditEvent) error

	// GetByID retrieves an audit event by ID within a tenant
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.AuditEvent, error)

	// ListByTenant retrieves the most recent events for a tenant
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]*models.AuditEvent, error)
}

// AppointmentRepository handles appointment data operations, always scoped to
// a clinic.
type AppointmentRepository interface {
	// Create books a new appointment
	Create(ctx context.Context, appointment *models.Appointment) error

	// ListByClinic retrieves upcoming appointments for a clinic, soonest first
	ListByClinic(ctx context.Context, clinicID uuid.UUID, limit int) ([]*models.Appointment, error)
}

// MedicalRecordRepository handles pet medical record data operations. Access
// always goes through the sensitive-data pipeline tier.
type MedicalRecordRepository interface {
	// GetByID retrieves a medical record by ID within a clinic
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*models.MedicalRecord, error)

	// ListByPet retrieves the medical records for a pet, newest first
	ListByPet(ctx context.Context, clinicID, petID uuid.UUID, limit int) ([]*models.MedicalRecord, error)
}

// PrincipalRepository resolves authenticated principals and their tenants.
// The pipeline uses only these narrow lookups; the rest of the persistence
// layer is out of scope here.
type PrincipalRepository interface {
	// GetUserByID retrieves a user by ID
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetClinicByID retrieves a clinic by ID
	GetClinicByID(ctx context.Context, id uuid.UUID) (*models.Clinic, error)
}
