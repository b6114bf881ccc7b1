package handlers

import (
	"net/http"
	"time"

	"github.com/vetnova/clinic-platform/app"
	"github.com/vetnova/clinic-platform/utils"
)

// HealthCheck returns a liveness probe handler
func HealthCheck(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteOK(w, map[string]interface{}{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// ReadinessCheck returns a readiness probe handler that verifies the database
func ReadinessCheck(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.DB.HealthCheck(r.Context()); err != nil {
			_ = utils.WriteServiceUnavailable(w, "database unavailable")
			return
		}
		_ = utils.WriteOK(w, map[string]interface{}{"status": "ready"})
	}
}
