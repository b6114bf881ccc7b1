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

// ListRecordsQuery is the validated query schema for medical record listings
type ListRecordsQuery struct {
	Limit int `query:"limit" validate:"omitempty,gte=1,lte=200"`
}

// GetMedicalRecord returns a single medical record scoped to the caller's
// clinic. Cross-clinic IDs resolve to 404.
func GetMedicalRecord(deps *app.Dependencies) middleware.Handler {
	return func(w http.ResponseWriter, r *http.Request, rc *middleware.RequestContext) error {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			return utils.WriteBadRequest(w, "Invalid record ID", nil)
		}

		record, err := deps.MedicalRecords.GetByID(r.Context(), rc.Clinic.ID, id)
		if err != nil {
			if services.IsNotFound(err) {
				return utils.WriteNotFound(w, "Medical record not found")
			}
			return err
		}
		return utils.WriteOK(w, record)
	}
}

// ListPetRecords returns the medical history for one pet in the caller's clinic
func ListPetRecords(deps *app.Dependencies) middleware.Handler {
	return func(w http.ResponseWriter, r *http.Request, rc *middleware.RequestContext) error {
		petID, err := uuid.Parse(chi.URLParam(r, "petId"))
		if err != nil {
			return utils.WriteBadRequest(w, "Invalid pet ID", nil)
		}

		limit := 0
		if rc.Query != nil {
			limit = rc.Query.(*ListRecordsQuery).Limit
		}

		records, err := deps.MedicalRecords.ListByPet(r.Context(), rc.Clinic.ID, petID, limit)
		if err != nil {
			return err
		}
		return utils.WriteOK(w, records)
	}
}
