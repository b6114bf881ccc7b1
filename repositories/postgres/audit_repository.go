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

// AuditRepository implements the repositories.AuditRepository interface
type AuditRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *DB, logger *zap.Logger) repositories.AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Insert appends a new audit event
func (r *AuditRepository) Insert(ctx context.Context, event *models.AuditEvent) error {
	query := `
		INSERT INTO audit_events (
			id, timestamp, event_type, user_id, tenant_id, ip_address,
			user_agent, endpoint, method, resource, resource_id, details,
			risk_level, success
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)
	`

	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.Timestamp,
		event.EventType,
		event.UserID,
		event.TenantID,
		event.IPAddress,
		event.UserAgent,
		event.Endpoint,
		event.Method,
		event.Resource,
		event.ResourceID,
		event.Details,
		event.RiskLevel,
		event.Success,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}

	r.logger.Debug("audit event inserted",
		zap.String("id", event.ID.String()),
		zap.String("event_type", string(event.EventType)))
	return nil
}

const auditSelectColumns = `
	SELECT id, timestamp, event_type, user_id, tenant_id, ip_address,
	       user_agent, endpoint, method, resource, resource_id, details,
	       risk_level, success
	FROM audit_events
`

// GetByID retrieves an audit event by ID within a tenant. The tenant filter
// is part of the query, not a post-check, so an event from another tenant is
// indistinguishable from a missing one.
func (r *AuditRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.AuditEvent, error) {
	event := &models.AuditEvent{}
	err := r.db.QueryRowContext(ctx, auditSelectColumns+` WHERE tenant_id = $1 AND id = $2`, tenantID, id).Scan(
		&event.ID,
		&event.Timestamp,
		&event.EventType,
		&event.UserID,
		&event.TenantID,
		&event.IPAddress,
		&event.UserAgent,
		&event.Endpoint,
		&event.Method,
		&event.Resource,
		&event.ResourceID,
		&event.Details,
		&event.RiskLevel,
		&event.Success,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, services.NewDomainError(services.ErrorTypeNotFound, "audit event not found", nil)
		}
		return nil, fmt.Errorf("failed to get audit event: %w", err)
	}
	return event, nil
}

// ListByTenant retrieves the most recent events for a tenant
func (r *AuditRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]*models.AuditEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx,
		auditSelectColumns+` WHERE tenant_id = $1 ORDER BY timestamp DESC LIMIT $2`,
		tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()

	var events []*models.AuditEvent
	for rows.Next() {
		event := &models.AuditEvent{}
		if err := rows.Scan(
			&event.ID,
			&event.Timestamp,
			&event.EventType,
			&event.UserID,
			&event.TenantID,
			&event.IPAddress,
			&event.UserAgent,
			&event.Endpoint,
			&event.Method,
			&event.Resource,
			&event.ResourceID,
			&event.Details,
			&event.RiskLevel,
			&event.Success,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit events: %w", err)
	}

	return events, nil
}
