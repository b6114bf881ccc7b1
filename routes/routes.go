package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/vetnova/clinic-platform/app"
	"github.com/vetnova/clinic-platform/handlers"
	"github.com/vetnova/clinic-platform/middleware"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Response-Time", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Rate limiting runs before authentication so unauthenticated floods are
	// rejected cheaply. Health checks stay outside it.
	r.Get("/healthz", handlers.HealthCheck(deps))
	r.Get("/readyz", handlers.ReadinessCheck(deps))

	pipeline := deps.Pipeline

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(deps.RateLimit.Limit)

		// Appointments
		r.Route("/appointments", func(r chi.Router) {
			r.Get("/", pipeline.TenantScoped(handlers.ListAppointments(deps), middleware.Options{
				QuerySchema:  func() interface{} { return &handlers.ListAppointmentsQuery{} },
				ResourceType: "appointment",
			}))
			r.Post("/", pipeline.TenantScoped(handlers.CreateAppointment(deps), middleware.Options{
				BodySchema:   func() interface{} { return &handlers.CreateAppointmentRequest{} },
				ResourceType: "appointment",
			}))
		})

		// Pet medical records (sensitive tier)
		r.Route("/pets/{petId}/records", func(r chi.Router) {
			r.Get("/", pipeline.SensitiveData(handlers.ListPetRecords(deps), middleware.Options{
				QuerySchema:   func() interface{} { return &handlers.ListRecordsQuery{} },
				ResourceType:  "medical_record",
				RequireTenant: true,
			}))
		})
		r.Get("/records/{id}", pipeline.SensitiveData(handlers.GetMedicalRecord(deps), middleware.Options{
			ResourceType:  "medical_record",
			RequireTenant: true,
		}))

		// Audit events (admin tier)
		r.Route("/admin/audit-events", func(r chi.Router) {
			r.Get("/", pipeline.Admin(handlers.ListAuditEvents(deps), middleware.Options{
				QuerySchema:   func() interface{} { return &handlers.ListAuditEventsQuery{} },
				ResourceType:  "audit_event",
				RequireTenant: true,
			}))
			r.Get("/{id}", pipeline.Admin(handlers.GetAuditEvent(deps), middleware.Options{
				ResourceType:  "audit_event",
				RequireTenant: true,
			}))
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r
}
