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

// PrincipalRepository implements the repositories.PrincipalRepository interface
type PrincipalRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewPrincipalRepository creates a new principal repository
func NewPrincipalRepository(db *DB, logger *zap.Logger) repositories.PrincipalRepository {
	return &PrincipalRepository{
		db:     db,
		logger: logger,
	}
}

// GetUserByID retrieves a user by ID
func (r *PrincipalRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `
		SELECT id, email, clinic_id, role, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.ClinicID,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, services.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetClinicByID retrieves a clinic by ID
func (r *PrincipalRepository) GetClinicByID(ctx context.Context, id uuid.UUID) (*models.Clinic, error) {
	query := `
		SELECT id, name, slug, created_at, updated_at
		FROM clinics
		WHERE id = $1
	`

	clinic := &models.Clinic{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&clinic.ID,
		&clinic.Name,
		&clinic.Slug,
		&clinic.CreatedAt,
		&clinic.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, services.ErrClinicNotFound
		}
		return nil, fmt.Errorf("failed to get clinic: %w", err)
	}
	return clinic, nil
}
