package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vetnova/clinic-platform/services"
	"go.uber.org/zap"
)

func medicalRecordRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "clinic_id", "pet_id", "vet_id",
		"diagnosis", "treatment", "notes", "recorded_at",
	})
}

func TestMedicalRecordRepository_GetByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMedicalRecordRepository(db, zap.NewNop())

		clinicID := uuid.New()
		recordID := uuid.New()

		mock.ExpectQuery("SELECT id, clinic_id, pet_id, vet_id").
			WithArgs(clinicID, recordID).
			WillReturnRows(medicalRecordRows().
				AddRow(recordID.String(), clinicID.String(), uuid.New().String(), uuid.New().String(),
					"otitis externa", "ear drops twice daily", "recheck in two weeks", time.Now()))

		record, err := repo.GetByID(context.Background(), clinicID, recordID)
		require.NoError(t, err)
		assert.Equal(t, recordID, record.ID)
		assert.Equal(t, clinicID, record.ClinicID)
		assert.Equal(t, "otitis externa", record.Diagnosis)
	})

	t.Run("wrong clinic reads as not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMedicalRecordRepository(db, zap.NewNop())

		mock.ExpectQuery("SELECT id, clinic_id, pet_id, vet_id").
			WillReturnRows(medicalRecordRows())

		_, err := repo.GetByID(context.Background(), uuid.New(), uuid.New())
		assert.True(t, services.IsNotFound(err))
	})

	t.Run("query error", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMedicalRecordRepository(db, zap.NewNop())

		mock.ExpectQuery("SELECT id, clinic_id, pet_id, vet_id").
			WillReturnError(errors.New("connection reset"))

		_, err := repo.GetByID(context.Background(), uuid.New(), uuid.New())
		assert.ErrorContains(t, err, "failed to get medical record")
		assert.False(t, services.IsNotFound(err))
	})
}

func TestMedicalRecordRepository_ListByPet(t *testing.T) {
	t.Run("returns pet history", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMedicalRecordRepository(db, zap.NewNop())

		clinicID := uuid.New()
		petID := uuid.New()
		now := time.Now()

		mock.ExpectQuery("SELECT id, clinic_id, pet_id, vet_id").
			WithArgs(clinicID, petID, 20).
			WillReturnRows(medicalRecordRows().
				AddRow(uuid.New().String(), clinicID.String(), petID.String(), uuid.New().String(),
					"fracture", "splint", "", now).
				AddRow(uuid.New().String(), clinicID.String(), petID.String(), uuid.New().String(),
					"dermatitis", "topical ointment", "resolved", now.Add(-30*24*time.Hour)))

		records, err := repo.ListByPet(context.Background(), clinicID, petID, 20)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, petID, records[0].PetID)
		assert.Equal(t, "fracture", records[0].Diagnosis)
	})

	t.Run("applies default limit", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMedicalRecordRepository(db, zap.NewNop())

		clinicID := uuid.New()
		petID := uuid.New()
		mock.ExpectQuery("SELECT id, clinic_id, pet_id, vet_id").
			WithArgs(clinicID, petID, 50).
			WillReturnRows(medicalRecordRows())

		records, err := repo.ListByPet(context.Background(), clinicID, petID, -1)
		require.NoError(t, err)
		assert.Empty(t, records)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
