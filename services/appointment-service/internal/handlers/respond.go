package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/alvinroe04/scheduler/services/appointment-service/internal/model"
	"github.com/alvinroe04/scheduler/services/appointment-service/internal/validation"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// validationResponse lists every problem plus the distinct fields to
// highlight.
type validationResponse struct {
	Errors          validation.FieldErrors `json:"errors"`
	Fields          []validation.Field     `json:"fields"`
	Conflict        *appointmentResponse   `json:"conflict,omitempty"`
	ConflictMessage string                 `json:"conflict_message,omitempty"`
}

func newValidationResponse(errs validation.FieldErrors, conflict *model.Appointment, conflictMsg string) validationResponse {
	resp := validationResponse{Errors: errs, Fields: errs.Fields(), ConflictMessage: conflictMsg}
	if resp.Errors == nil {
		resp.Errors = validation.FieldErrors{}
	}
	if resp.Fields == nil {
		resp.Fields = []validation.Field{}
	}
	if conflict != nil {
		c := toAppointmentResponse(*conflict)
		resp.Conflict = &c
	}
	return resp
}

func writeValidation(w http.ResponseWriter, errs validation.FieldErrors, conflict *model.Appointment, conflictMsg string) {
	writeJSON(w, http.StatusUnprocessableEntity, newValidationResponse(errs, conflict, conflictMsg))
}

func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

type appointmentResponse struct {
	ID          int       `json:"appointment_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Type        string    `json:"type"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	CreatedAt   time.Time `json:"created_at"`
	CreatedBy   string    `json:"created_by"`
	UpdatedAt   time.Time `json:"updated_at"`
	UpdatedBy   string    `json:"updated_by"`
	CustomerID  int       `json:"customer_id"`
	UserID      int       `json:"user_id"`
	ContactID   int       `json:"contact_id"`
	ContactName string    `json:"contact_name,omitempty"`
	UserName    string    `json:"user_name,omitempty"`
}

func toAppointmentResponse(a model.Appointment) appointmentResponse {
	return appointmentResponse{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		Location:    a.Location,
		Type:        a.Type,
		Start:       a.Start,
		End:         a.End,
		CreatedAt:   a.CreatedAt,
		CreatedBy:   a.CreatedBy,
		UpdatedAt:   a.UpdatedAt,
		UpdatedBy:   a.UpdatedBy,
		CustomerID:  a.CustomerID,
		UserID:      a.UserID,
		ContactID:   a.ContactID,
	}
}

type customerResponse struct {
	ID         int       `json:"customer_id"`
	Name       string    `json:"name"`
	Address    string    `json:"address"`
	PostalCode string    `json:"postal_code"`
	Phone      string    `json:"phone"`
	DivisionID int       `json:"division_id"`
	CreatedAt  time.Time `json:"created_at"`
	CreatedBy  string    `json:"created_by"`
	UpdatedAt  time.Time `json:"updated_at"`
	UpdatedBy  string    `json:"updated_by"`
}

func toCustomerResponse(c model.Customer) customerResponse {
	return customerResponse{
		ID:         c.ID,
		Name:       c.Name,
		Address:    c.Address,
		PostalCode: c.PostalCode,
		Phone:      c.Phone,
		DivisionID: c.DivisionID,
		CreatedAt:  c.CreatedAt,
		CreatedBy:  c.CreatedBy,
		UpdatedAt:  c.UpdatedAt,
		UpdatedBy:  c.UpdatedBy,
	}
}
