package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/alvinroe04/scheduler/services/appointment-service/internal/ids"
	"github.com/alvinroe04/scheduler/services/appointment-service/internal/model"
	"github.com/alvinroe04/scheduler/services/appointment-service/internal/report"
	"github.com/alvinroe04/scheduler/services/appointment-service/internal/storage"
	"github.com/alvinroe04/scheduler/services/appointment-service/internal/validation"
)

type CustomerHandler struct {
	customers    CustomerStore
	appointments AppointmentStore
	logger       *slog.Logger
	now          func() time.Time
}

func NewCustomerHandler(customers CustomerStore, appointments AppointmentStore, logger *slog.Logger, now func() time.Time) *CustomerHandler {
	if now == nil {
		now = time.Now
	}
	return &CustomerHandler{customers: customers, appointments: appointments, logger: logger, now: now}
}

type customerRequest struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	PostalCode string `json:"postal_code"`
	Phone      string `json:"phone"`
	DivisionID int    `json:"division_id"`
}

func (req customerRequest) form() validation.CustomerForm {
	return validation.CustomerForm{
		Name:       req.Name,
		Address:    req.Address,
		PostalCode: req.PostalCode,
		Phone:      req.Phone,
		DivisionID: req.DivisionID,
	}.Normalize()
}

var unknownDivision = validation.FieldErrors{{
	Field:    validation.FieldDivision,
	Code:     validation.CodeMissingSelection,
	Severity: validation.SeverityError,
	Message:  "Unknown division",
}}

func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	sess := mustSession(r)
	customers, err := h.customers.List(r.Context())
	if err != nil {
		http.Error(w, "failed to list customers", http.StatusInternalServerError)
		return
	}
	out := make([]customerResponse, 0, len(customers))
	for _, c := range customers {
		c.CreatedAt = c.CreatedAt.In(sess.Location)
		c.UpdatedAt = c.UpdatedAt.In(sess.Location)
		out = append(out, toCustomerResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess := mustSession(r)
	var req customerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	form := req.form()
	if errs := validation.ValidateCustomer(form); errs != nil {
		writeValidation(w, errs, nil, "")
		return
	}

	ctx := r.Context()
	taken, err := h.customers.IDs(ctx)
	if err != nil {
		http.Error(w, "failed to allocate customer id", http.StatusInternalServerError)
		return
	}
	now := h.now().In(sess.Location)
	c := model.Customer{
		ID:         ids.Next(taken),
		Name:       form.Name,
		Address:    form.Address,
		PostalCode: form.PostalCode,
		Phone:      form.Phone,
		DivisionID: form.DivisionID,
		CreatedAt:  now,
		CreatedBy:  sess.UserName,
		UpdatedAt:  now,
		UpdatedBy:  sess.UserName,
	}
	if err := h.customers.Create(ctx, c); err != nil {
		switch {
		case storage.IsForeignKey(err):
			writeValidation(w, unknownDivision, nil, "")
		case storage.IsConflict(err):
			http.Error(w, "customer id already taken, retry", http.StatusConflict)
		default:
			h.logger.Error("create customer failed", "err", err)
			http.Error(w, "failed to create customer", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusCreated, toCustomerResponse(c))
}

func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	sess := mustSession(r)
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid customer id", http.StatusBadRequest)
		return
	}
	var req customerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	form := req.form()
	if errs := validation.ValidateCustomer(form); errs != nil {
		writeValidation(w, errs, nil, "")
		return
	}

	ctx := r.Context()
	c, err := h.customers.Get(ctx, id)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "customer not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load customer", http.StatusInternalServerError)
		return
	}
	c.Name = form.Name
	c.Address = form.Address
	c.PostalCode = form.PostalCode
	c.Phone = form.Phone
	c.DivisionID = form.DivisionID
	c.UpdatedAt = h.now().In(sess.Location)
	c.UpdatedBy = sess.UserName

	if err := h.customers.Update(ctx, c); err != nil {
		switch {
		case storage.IsNotFound(err):
			http.Error(w, "customer not found", http.StatusNotFound)
		case storage.IsForeignKey(err):
			writeValidation(w, unknownDivision, nil, "")
		default:
			h.logger.Error("update customer failed", "err", err, "customer_id", id)
			http.Error(w, "failed to update customer", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, toCustomerResponse(c))
}

// Delete removes the customer and every appointment they hold.
func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid customer id", http.StatusBadRequest)
		return
	}
	removed, err := h.customers.Delete(r.Context(), id)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "customer not found", http.StatusNotFound)
			return
		}
		h.logger.Error("delete customer failed", "err", err, "customer_id", id)
		http.Error(w, "failed to delete customer", http.StatusInternalServerError)
		return
	}
	if removed == nil {
		removed = []int{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"customer_id":          id,
		"removed_appointments": removed,
	})
}

func (h *CustomerHandler) Appointments(w http.ResponseWriter, r *http.Request) {
	sess := mustSession(r)
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid customer id", http.StatusBadRequest)
		return
	}
	appts, err := h.appointments.ListByCustomer(r.Context(), id)
	if err != nil {
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}
	appts = report.CustomerAppointments(appts, id)
	out := make([]appointmentResponse, 0, len(appts))
	for _, a := range appts {
		out = append(out, toAppointmentResponse(a.In(sess.Location)))
	}
	writeJSON(w, http.StatusOK, out)
}
