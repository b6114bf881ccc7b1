package audit

import (
	"github.com/vetnova/clinic-platform/models"
)

// bruteForceAttemptThreshold is the failed-attempt count above which repeated
// auth failures escalate from medium to critical.
const bruteForceAttemptThreshold = 5

// ClassifyRisk maps an event type, outcome and optional details to a severity
// tier. Pure and total: every models.EventType resolves to exactly one of the
// four levels. Rules are evaluated in order; the first match wins.
func ClassifyRisk(eventType models.EventType, success bool, details map[string]interface{}) models.RiskLevel {
	switch eventType {
	case models.EventPermissionDenied, models.EventSuspiciousActivity:
		return models.RiskCritical
	}

	if eventType == models.EventAuthFailed && attemptCount(details) > bruteForceAttemptThreshold {
		return models.RiskCritical
	}

	switch eventType {
	case models.EventAdminAction,
		models.EventDataDelete,
		models.EventExportData,
		models.EventSensitiveDataAccess,
		models.EventRateLimitExceeded:
		return models.RiskHigh
	}

	if !success {
		return models.RiskMedium
	}

	switch eventType {
	case models.EventDataUpdate, models.EventDataCreate:
		return models.RiskMedium
	case models.EventAuthFailed:
		// Unreachable with success=true in practice, kept for totality.
		return models.RiskMedium
	}

	return models.RiskLow
}

// attemptCount reads details["attempts"], tolerating the numeric types a JSON
// round trip produces.
func attemptCount(details map[string]interface{}) int {
	if details == nil {
		return 0
	}
	switch v := details["attempts"].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
