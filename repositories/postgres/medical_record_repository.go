package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vetnova/clinic-platform/models"
	"github.com/vetnova/clinic-platform/repositories"
	"github.com/vetnova/clinic-platform/services"
	"go.uber.org/zap"
)

// MedicalRecordRepository implements the repositories.MedicalRecordRepository interface
type MedicalRecordRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewMedicalRecordRepository creates a new medical record repository
func NewMedicalRecordRepository(db *DB, logger *zap.Logger) repositories.MedicalRecordRepository {
	return &MedicalRecordRepository{
		db:     db,
		logger: logger,
	}
}

const medicalRecordColumns = `
	SELECT id, clinic_id, pet_id, vet_id, diagnosis, treatment, notes, recorded_at
	FROM medical_records
`

// GetByID retrieves a medical record by ID within a clinic. The clinic filter
// is part of the query, not a post-check, so a record from another clinic is
// indistinguishable from a missing one.
func (r *MedicalRecordRepository) GetByID(ctx context.Context, clinicID, id uuid.UUID) (*models.MedicalRecord, error) {
	record := &models.MedicalRecord{}
	err := r.db.QueryRowContext(ctx,
		medicalRecordColumns+` WHERE clinic_id = $1 AND id = $2`,
		clinicID, id).Scan(
		&record.ID,
		&record.ClinicID,
		&record.PetID,
		&record.VetID,
		&record.Diagnosis,
		&record.Treatment,
		&record.Notes,
		&record.RecordedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, services.NewDomainError(services.ErrorTypeNotFound, "medical record not found", nil)
		}
		return nil, fmt.Errorf("failed to get medical record: %w", err)
	}
	return record, nil
}

// ListByPet retrieves the medical records for a pet, newest first
func (r *MedicalRecordRepository) ListByPet(ctx context.Context, clinicID, petID uuid.UUID, limit int) ([]*models.MedicalRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx,
		medicalRecordColumns+` WHERE clinic_id = $1 AND pet_id = $2 ORDER BY recorded_at DESC LIMIT $3`,
		clinicID, petID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list medical records: %w", err)
	}
	defer rows.Close()

	var records []*models.MedicalRecord
	for rows.Next() {
		record := &models.MedicalRecord{}
		if err := rows.Scan(
			&record.ID,
			&record.ClinicID,
			&record.PetID,
			&record.VetID,
			&record.Diagnosis,
			&record.Treatment,
			&record.Notes,
			&record.RecordedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan medical record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate medical records: %w", err)
	}

	return records, nil
}
