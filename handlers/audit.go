package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vetnova/clinic-platform/app"
	"github.com/vetnova/clinic-platform/middleware"
	"github.com/vetnova/clinic-platform/services"
	"github.com/vetnova/clinic-platform/utils"
)

// ListAuditEventsQuery is the validated query schema for audit event listings
type ListAuditEventsQuery struct {
	Limit int `query:"limit" validate:"omitempty,gte=1,lte=500"`
}

// ListAuditEvents returns the most recent audit events for the caller's clinic
func ListAuditEvents(deps *app.Dependencies) middleware.Handler {
	return func(w http.ResponseWriter, r *http.Request, rc *middleware.RequestContext) error {
		limit := 0
		if rc.Query != nil {
			limit = rc.Query.(*ListAuditEventsQuery).Limit
		}

		events, err := deps.AuditEvents.ListByTenant(r.Context(), rc.Clinic.ID, limit)
		if err != nil {
			return err
		}
		return utils.WriteOK(w, events)
	}
}

// GetAuditEvent returns a single audit event by ID
func GetAuditEvent(deps *app.Dependencies) middleware.Handler {
	return func(w http.ResponseWriter, r *http.Request, rc *middleware.RequestContext) error {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			return utils.WriteBadRequest(w, "Invalid audit event ID", nil)
		}

		event, err := deps.AuditEvents.GetByID(r.Context(), rc.Clinic.ID, id)
		if err != nil {
			if services.IsNotFound(err) {
				return utils.WriteNotFound(w, "Audit event not found")
			}
			return err
		}
		return utils.WriteOK(w, event)
	}
}
