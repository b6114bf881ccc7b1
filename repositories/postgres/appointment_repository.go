package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/vetnova/clinic-platform/models"
	"github.com/vetnova/clinic-platform/repositories"
	"go.uber.org/zap"
)

// AppointmentRepository implements the repositories.AppointmentRepository interface
type AppointmentRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAppointmentRepository creates a new appointment repository
func NewAppointmentRepository(db *DB, logger *zap.Logger) repositories.AppointmentRepository {
	return &AppointmentRepository{
		db:     db,
		logger: logger,
	}
}

// Create books a new appointment
func (r *AppointmentRepository) Create(ctx context.Context, appointment *models.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, clinic_id, pet_id, vet_id, created_by, starts_at,
			reason, status, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
	`

	_, err := r.db.ExecContext(ctx, query,
		appointment.ID,
		appointment.ClinicID,
		appointment.PetID,
		appointment.VetID,
		appointment.CreatedBy,
		appointment.StartsAt,
		appointment.Reason,
		appointment.Status,
		appointment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}

	r.logger.Debug("appointment created",
		zap.String("id", appointment.ID.String()),
		zap.String("clinic_id", appointment.ClinicID.String()))
	return nil
}

// ListByClinic retrieves the upcoming appointments for a clinic
func (r *AppointmentRepository) ListByClinic(ctx context.Context, clinicID uuid.UUID, limit int) ([]*models.Appointment, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, clinic_id, pet_id, vet_id, created_by, starts_at,
		       reason, status, created_at
		FROM appointments
		WHERE clinic_id = $1
		ORDER BY starts_at ASC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, clinicID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()

	var appointments []*models.Appointment
	for rows.Next() {
		appointment := &models.Appointment{}
		if err := rows.Scan(
			&appointment.ID,
			&appointment.ClinicID,
			&appointment.PetID,
			&appointment.VetID,
			&appointment.CreatedBy,
			&appointment.StartsAt,
			&appointment.Reason,
			&appointment.Status,
			&appointment.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appointments = append(appointments, appointment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate appointments: %w", err)
	}

	return appointments, nil
}
