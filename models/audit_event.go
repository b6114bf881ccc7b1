package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of security-relevant action being audited
type EventType string

const (
	EventAuthLogin           EventType = "auth_login"
	EventAuthLogout          EventType = "auth_logout"
	EventAuthFailed          EventType = "auth_failed"
	EventDataAccess          EventType = "data_access"
	EventDataCreate          EventType = "data_create"
	EventDataUpdate          EventType = "data_update"
	EventDataDelete          EventType = "data_delete"
	EventPermissionDenied    EventType = "permission_denied"
	EventRateLimitExceeded   EventType = "rate_limit_exceeded"
	EventSuspiciousActivity  EventType = "suspicious_activity"
	EventAdminAction         EventType = "admin_action"
	EventSensitiveDataAccess EventType = "sensitive_data_access"
	EventExportData          EventType = "export_data"
	EventSecurityEvent       EventType = "security_event"
)

// EventTypes lists every recognized event type. Used by tests and by consumers
// that need to iterate the closed enumeration.
var EventTypes = []EventType{
	EventAuthLogin,
	EventAuthLogout,
	EventAuthFailed,
	EventDataAccess,
	EventDataCreate,
	EventDataUpdate,
	EventDataDelete,
	EventPermissionDenied,
	EventRateLimitExceeded,
	EventSuspiciousActivity,
	EventAdminAction,
	EventSensitiveDataAccess,
	EventExportData,
	EventSecurityEvent,
}

// RiskLevel represents the ordered severity tier of an audit event
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// riskOrder gives RiskLevel its total order: low < medium < high < critical
var riskOrder = map[RiskLevel]int{
	RiskLow:      0,
	RiskMedium:   1,
	RiskHigh:     2,
	RiskCritical: 3,
}

// Severity returns the numeric rank of the risk level for threshold comparisons
func (r RiskLevel) Severity() int {
	return riskOrder[r]
}

// AtLeast reports whether r is at or above the given threshold
func (r RiskLevel) AtLeast(threshold RiskLevel) bool {
	return r.Severity() >= threshold.Severity()
}

// AuditEvent represents a single audit trail entry. Immutable once constructed;
// ID and Timestamp are assigned by the emitter, never by the caller.
type AuditEvent struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	Timestamp  time.Time       `json:"timestamp" db:"timestamp"`
	EventType  EventType       `json:"event_type" db:"event_type"`
	UserID     *uuid.UUID      `json:"user_id,omitempty" db:"user_id"`
	TenantID   *uuid.UUID      `json:"tenant_id,omitempty" db:"tenant_id"`
	IPAddress  string          `json:"ip_address" db:"ip_address"`
	UserAgent  string          `json:"user_agent" db:"user_agent"`
	Endpoint   string          `json:"endpoint" db:"endpoint"`
	Method     string          `json:"method" db:"method"`
	Resource   string          `json:"resource,omitempty" db:"resource"`
	ResourceID string          `json:"resource_id,omitempty" db:"resource_id"`
	Details    json.RawMessage `json:"details,omitempty" db:"details"`
	RiskLevel  RiskLevel       `json:"risk_level" db:"risk_level"`
	Success    bool            `json:"success" db:"success"`
}

// TableName returns the table name for the AuditEvent model
func (AuditEvent) TableName() string {
	return "audit_events"
}

// NewAuditEvent creates a new AuditEvent with a fresh ID and timestamp
func NewAuditEvent(eventType EventType, success bool) *AuditEvent {
	return &AuditEvent{
		ID:        uuid.New(),
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Success:   success,
	}
}

// WithUser sets the acting user ID
func (e *AuditEvent) WithUser(userID uuid.UUID) *AuditEvent {
	e.UserID = &userID
	return e
}

// WithTenant sets the tenant (clinic) ID
func (e *AuditEvent) WithTenant(tenantID uuid.UUID) *AuditEvent {
	e.TenantID = &tenantID
	return e
}

// WithRequest sets request metadata
func (e *AuditEvent) WithRequest(ipAddress, userAgent, endpoint, method string) *AuditEvent {
	e.IPAddress = ipAddress
	e.UserAgent = userAgent
	e.Endpoint = endpoint
	e.Method = method
	return e
}

// WithResource sets the resource type and optional resource ID
func (e *AuditEvent) WithResource(resource, resourceID string) *AuditEvent {
	e.Resource = resource
	e.ResourceID = resourceID
	return e
}

// WithDetails marshals and attaches free-form event details
func (e *AuditEvent) WithDetails(details interface{}) *AuditEvent {
	if details == nil {
		return e
	}
	if data, err := json.Marshal(details); err == nil {
		e.Details = data
	}
	return e
}

// WithRisk sets the risk level, overriding whatever the classifier would assign
func (e *AuditEvent) WithRisk(level RiskLevel) *AuditEvent {
	e.RiskLevel = level
	return e
}
