package audit

import (
	"github.com/vetnova/clinic-platform/models"
)

// Specialized emitters. Thin wrappers over Emit that fix the event type and,
// where policy demands it, the risk level.

func (s *Service) newEvent(info RequestInfo, eventType models.EventType, success bool) *models.AuditEvent {
	event := models.NewAuditEvent(eventType, success).
		WithRequest(info.IPAddress, info.UserAgent, info.Endpoint, info.Method)
	if info.UserID != nil {
		event.WithUser(*info.UserID)
	}
	if info.TenantID != nil {
		event.WithTenant(*info.TenantID)
	}
	return event
}

// LogAuthEvent records a login, logout or failed-auth event
func (s *Service) LogAuthEvent(info RequestInfo, eventType models.EventType, success bool, details map[string]interface{}) {
	s.Emit(s.newEvent(info, eventType, success).WithDetails(details))
}

// LogDataAccessEvent records a read/create/update/delete against a resource
func (s *Service) LogDataAccessEvent(info RequestInfo, accessType models.EventType, success bool, resource, resourceID string) {
	s.Emit(s.newEvent(info, accessType, success).WithResource(resource, resourceID))
}

// LogSensitiveDataAccess records access to a sensitive resource. The risk
// level is forced to high by policy, regardless of what the classifier would
// compute; sensitive-resource access is high risk by definition, not by
// heuristic.
func (s *Service) LogSensitiveDataAccess(info RequestInfo, accessType models.EventType, success bool, resource, resourceID string) {
	event := s.newEvent(info, models.EventSensitiveDataAccess, success).
		WithResource(resource, resourceID).
		WithDetails(map[string]interface{}{"access_type": accessType}).
		WithRisk(models.RiskHigh)
	s.Emit(event)
}

// LogAdminAction records an admin-tier operation. Always high risk; the
// specific operation name is kept in the details.
func (s *Service) LogAdminAction(info RequestInfo, action string, success bool, details map[string]interface{}) {
	if details == nil {
		details = make(map[string]interface{})
	}
	details["action"] = action
	event := s.newEvent(info, models.EventAdminAction, success).
		WithDetails(details).
		WithRisk(models.RiskHigh)
	s.Emit(event)
}

// LogSecurityEvent records rate_limit_exceeded, suspicious_activity and
// pipeline-level security_event records (for example an uncaught handler error).
func (s *Service) LogSecurityEvent(info RequestInfo, eventType models.EventType, success bool, details map[string]interface{}) {
	s.Emit(s.newEvent(info, eventType, success).WithDetails(details))
}
