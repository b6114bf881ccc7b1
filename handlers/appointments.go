package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/vetnova/clinic-platform/app"
	"github.com/vetnova/clinic-platform/middleware"
	"github.com/vetnova/clinic-platform/models"
	"github.com/vetnova/clinic-platform/utils"
)

// ListAppointmentsQuery is the validated query schema for appointment listings
type ListAppointmentsQuery struct {
	From  string `query:"from" validate:"omitempty,datetime=2006-01-02"`
	To    string `query:"to" validate:"omitempty,datetime=2006-01-02"`
	Limit int    `query:"limit" validate:"omitempty,gte=1,lte=200"`
}

// CreateAppointmentRequest is the validated body schema for appointment creation
type CreateAppointmentRequest struct {
	PetID    string    `json:"pet_id" validate:"required,uuid"`
	VetID    string    `json:"vet_id,omitempty" validate:"omitempty,uuid"`
	StartsAt time.Time `json:"starts_at" validate:"required"`
	Reason   string    `json:"reason" validate:"required,min=3,max=500"`
}

// ListAppointments lists the appointments for the caller's clinic
func ListAppointments(deps *app.Dependencies) middleware.Handler {
	return func(w http.ResponseWriter, r *http.Request, rc *middleware.RequestContext) error {
		query := rc.Query.(*ListAppointmentsQuery)
		limit := query.Limit
		if limit == 0 {
			limit = 50
		}

		appointments, err := deps.Appointments.ListByClinic(r.Context(), rc.Clinic.ID, limit)
		if err != nil {
			return err
		}
		return utils.WriteOK(w, appointments)
	}
}

// CreateAppointment books a new appointment in the caller's clinic
func CreateAppointment(deps *app.Dependencies) middleware.Handler {
	return func(w http.ResponseWriter, r *http.Request, rc *middleware.RequestContext) error {
		body := rc.Body.(*CreateAppointmentRequest)

		petID, err := uuid.Parse(body.PetID)
		if err != nil {
			return err
		}

		appointment := &models.Appointment{
			ID:        uuid.New(),
			ClinicID:  rc.Clinic.ID,
			PetID:     petID,
			CreatedBy: rc.User.ID,
			StartsAt:  body.StartsAt,
			Reason:    body.Reason,
			Status:    models.AppointmentScheduled,
			CreatedAt: time.Now().UTC(),
		}
		if body.VetID != "" {
			vetID, err := uuid.Parse(body.VetID)
			if err != nil {
				return err
			}
			appointment.VetID = &vetID
		}

		if err := deps.Appointments.Create(r.Context(), appointment); err != nil {
			return err
		}
		return utils.WriteCreated(w, appointment)
	}
}
