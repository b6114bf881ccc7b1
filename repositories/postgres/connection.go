package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/vetnova/clinic-platform/config"
	"go.uber.org/zap"
)

// DB wraps the sql.DB connection pool
type DB struct {
	*sql.DB
	logger *zap.Logger
}

// NewDB creates a new database connection pool
func NewDB(cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	dsn := cfg.DSN()

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("connection", cfg.LogString()))

	return &DB{
		DB:     db,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (db *DB) Close() error {
	db.logger.Info("closing database connection")
	return db.DB.Close()
}

// HealthCheck performs a health check on the database
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database query check failed: %w", err)
	}

	return nil
}

// InitSchema creates the application tables when they do not exist yet.
// Audit events carry no foreign keys so anonymous and pre-auth traffic can
// be recorded.
func (db *DB) InitSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS clinics (
			id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			slug VARCHAR(100) NOT NULL UNIQUE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email VARCHAR(255) NOT NULL,
			clinic_id UUID NOT NULL REFERENCES clinics(id) ON DELETE CASCADE,
			role VARCHAR(50) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(email, clinic_id)
		);

		CREATE TABLE IF NOT EXISTS pets (
			id UUID PRIMARY KEY,
			clinic_id UUID NOT NULL REFERENCES clinics(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			species VARCHAR(100) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS appointments (
			id UUID PRIMARY KEY,
			clinic_id UUID NOT NULL REFERENCES clinics(id) ON DELETE CASCADE,
			pet_id UUID NOT NULL REFERENCES pets(id) ON DELETE CASCADE,
			vet_id UUID REFERENCES users(id) ON DELETE SET NULL,
			created_by UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			starts_at TIMESTAMP NOT NULL,
			reason TEXT NOT NULL,
			status VARCHAR(50) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS medical_records (
			id UUID PRIMARY KEY,
			clinic_id UUID NOT NULL REFERENCES clinics(id) ON DELETE CASCADE,
			pet_id UUID NOT NULL REFERENCES pets(id) ON DELETE CASCADE,
			vet_id UUID NOT NULL,
			diagnosis TEXT NOT NULL,
			treatment TEXT NOT NULL,
			notes TEXT,
			recorded_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS audit_events (
			id UUID PRIMARY KEY,
			timestamp TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			event_type VARCHAR(100) NOT NULL,
			user_id UUID,
			tenant_id UUID,
			ip_address VARCHAR(64),
			user_agent TEXT,
			endpoint VARCHAR(255),
			method VARCHAR(10),
			resource VARCHAR(100),
			resource_id VARCHAR(255),
			details JSONB,
			risk_level VARCHAR(20) NOT NULL,
			success BOOLEAN NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_users_clinic_id ON users(clinic_id);
		CREATE INDEX IF NOT EXISTS idx_pets_clinic_id ON pets(clinic_id);
		CREATE INDEX IF NOT EXISTS idx_appointments_clinic_id ON appointments(clinic_id);
		CREATE INDEX IF NOT EXISTS idx_appointments_starts_at ON appointments(starts_at);
		CREATE INDEX IF NOT EXISTS idx_medical_records_clinic_pet ON medical_records(clinic_id, pet_id);
		CREATE INDEX IF NOT EXISTS idx_audit_events_tenant_id ON audit_events(tenant_id);
		CREATE INDEX IF NOT EXISTS idx_audit_events_timestamp ON audit_events(timestamp);
		CREATE INDEX IF NOT EXISTS idx_audit_events_event_type ON audit_events(event_type);
		CREATE INDEX IF NOT EXISTS idx_audit_events_risk_level ON audit_events(risk_level);
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	db.logger.Info("database schema initialized")
	return nil
}
