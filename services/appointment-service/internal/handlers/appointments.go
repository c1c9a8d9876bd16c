package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-sql/civil"

	"github.com/alvinroe04/scheduler/services/appointment-service/internal/availability"
	"github.com/alvinroe04/scheduler/services/appointment-service/internal/ids"
	"github.com/alvinroe04/scheduler/services/appointment-service/internal/model"
	"github.com/alvinroe04/scheduler/services/appointment-service/internal/report"
	"github.com/alvinroe04/scheduler/services/appointment-service/internal/session"
	"github.com/alvinroe04/scheduler/services/appointment-service/internal/storage"
	"github.com/alvinroe04/scheduler/services/appointment-service/internal/timefield"
	"github.com/alvinroe04/scheduler/services/appointment-service/internal/validation"
)

type SlotConfig struct {
	Length time.Duration
	Step   time.Duration
}

type AppointmentHandler struct {
	store     AppointmentStore
	validator *validation.Validator
	logger    *slog.Logger
	upcoming  time.Duration
	slots     SlotConfig
}

func NewAppointmentHandler(store AppointmentStore, v *validation.Validator, logger *slog.Logger, upcoming time.Duration, slots SlotConfig) *AppointmentHandler {
	if slots.Length <= 0 {
		slots.Length = 30 * time.Minute
	}
	if slots.Step <= 0 {
		slots.Step = 15 * time.Minute
	}
	return &AppointmentHandler{store: store, validator: v, logger: logger, upcoming: upcoming, slots: slots}
}

type timeFieldsRequest struct {
	Date     string `json:"date"`
	Hour     string `json:"hour"`
	Minute   string `json:"minute"`
	Meridiem string `json:"meridiem"`
}

func (t timeFieldsRequest) input() timefield.Input {
	// An unreadable date is reported the same way as a missing one.
	d, _ := civil.ParseDate(strings.TrimSpace(t.Date))
	return timefield.Input{
		Date:     d,
		Hour:     t.Hour,
		Minute:   t.Minute,
		Meridiem: timefield.ParseMeridiem(t.Meridiem),
	}
}

func timeFieldsOf(t time.Time) timeFieldsRequest {
	in := timefield.FormFields(t)
	return timeFieldsRequest{Date: in.Date.String(), Hour: in.Hour, Minute: in.Minute, Meridiem: in.Meridiem.String()}
}

type appointmentRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Location    string            `json:"location"`
	Type        string            `json:"type"`
	CustomerID  int               `json:"customer_id"`
	ContactID   int               `json:"contact_id"`
	UserID      int               `json:"user_id"`
	Start       timeFieldsRequest `json:"start"`
	End         timeFieldsRequest `json:"end"`
}

func (req appointmentRequest) form(sess *session.Context) validation.Form {
	userID := req.UserID
	if userID <= 0 {
		userID = sess.UserID
	}
	return validation.Form{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Type:        req.Type,
		CustomerID:  req.CustomerID,
		ContactID:   req.ContactID,
		UserID:      userID,
		Author:      sess.UserName,
		Start:       req.Start.input(),
		End:         req.End.input(),
	}
}

type savedAppointmentResponse struct {
	Appointment appointmentResponse `json:"appointment"`
	Truncated   []validation.Field  `json:"truncated,omitempty"`
}

func (h *AppointmentHandler) now(sess *session.Context) time.Time {
	return h.validator.Now().In(sess.Location)
}

func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	sess := mustSession(r)
	appts, err := h.store.ListAll(r.Context())
	if err != nil {
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}

	switch view := r.URL.Query().Get("view"); view {
	case "", "all":
	case "week":
		appts = report.Week(appts, h.now(sess))
	case "month":
		appts = report.Month(appts, h.now(sess))
	default:
		http.Error(w, "view must be all, week or month", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, h.present(sess, appts))
}

func (h *AppointmentHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	sess := mustSession(r)
	appts, err := h.store.ListAll(r.Context())
	if err != nil {
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, h.present(sess, report.Upcoming(appts, h.now(sess), h.upcoming)))
}

func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess := mustSession(r)
	appt, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.present(sess, []model.Appointment{appt})[0])
}

// Form returns the stored appointment as 12-hour form fields for editing.
func (h *AppointmentHandler) Form(w http.ResponseWriter, r *http.Request) {
	sess := mustSession(r)
	appt, ok := h.load(w, r)
	if !ok {
		return
	}
	appt = appt.In(sess.Location)
	writeJSON(w, http.StatusOK, appointmentRequest{
		Title:       appt.Title,
		Description: appt.Description,
		Location:    appt.Location,
		Type:        appt.Type,
		CustomerID:  appt.CustomerID,
		ContactID:   appt.ContactID,
		UserID:      appt.UserID,
		Start:       timeFieldsOf(appt.Start),
		End:         timeFieldsOf(appt.End),
	})
}

func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess := mustSession(r)
	var req appointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	existing, err := h.customerAppointments(r, req.CustomerID)
	if err != nil {
		http.Error(w, "failed to load customer appointments", http.StatusInternalServerError)
		return
	}
	taken, err := h.store.IDs(ctx)
	if err != nil {
		http.Error(w, "failed to allocate appointment id", http.StatusInternalServerError)
		return
	}

	form := req.form(sess)
	form.AppointmentID = ids.Next(taken)
	res := h.validator.NewSession().Save(form, existing)
	if res.Status != validation.Accepted {
		writeValidation(w, res.Errors, res.Conflict, res.ConflictMessage())
		return
	}

	if err := h.store.Create(ctx, res.Appointment); err != nil {
		if storage.IsConflict(err) {
			http.Error(w, "appointment id already taken, retry", http.StatusConflict)
			return
		}
		if storage.IsForeignKey(err) {
			http.Error(w, "unknown customer, contact or user", http.StatusBadRequest)
			return
		}
		h.logger.Error("create appointment failed", "err", err)
		http.Error(w, "failed to create appointment", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, savedAppointmentResponse{
		Appointment: h.present(sess, []model.Appointment{res.Appointment})[0],
		Truncated:   res.Truncated,
	})
}

func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	sess := mustSession(r)
	original, ok := h.load(w, r)
	if !ok {
		return
	}
	var req appointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	existing, err := h.customerAppointments(r, req.CustomerID)
	if err != nil {
		http.Error(w, "failed to load customer appointments", http.StatusInternalServerError)
		return
	}

	form := req.form(sess)
	form.AppointmentID = original.ID
	form.Original = &original
	res := h.validator.NewSession().Save(form, existing)
	if res.Status != validation.Accepted {
		writeValidation(w, res.Errors, res.Conflict, res.ConflictMessage())
		return
	}

	if err := h.store.Update(r.Context(), res.Appointment); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		if storage.IsForeignKey(err) {
			http.Error(w, "unknown customer, contact or user", http.StatusBadRequest)
			return
		}
		h.logger.Error("update appointment failed", "err", err, "appointment_id", original.ID)
		http.Error(w, "failed to update appointment", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, savedAppointmentResponse{
		Appointment: h.present(sess, []model.Appointment{res.Appointment})[0],
		Truncated:   res.Truncated,
	})
}

type draftRequest struct {
	appointmentRequest
	// AppointmentID is set when the draft edits a stored appointment.
	AppointmentID int  `json:"appointment_id"`
	Attempted     bool `json:"attempted"`
}

type draftResponse struct {
	Status string `json:"status"`
	validationResponse
	Truncated []validation.Field `json:"truncated,omitempty"`
}

// Validate checks an open add or update form without saving it. Until the
// client reports a save attempt the answer is not_yet_attempted with no
// field errors, so a fresh form is not covered in complaints.
func (h *AppointmentHandler) Validate(w http.ResponseWriter, r *http.Request) {
	sess := mustSession(r)
	var req draftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	fs := h.validator.ResumeSession(req.Attempted)
	form := req.form(sess)
	form.AppointmentID = req.AppointmentID
	var existing []model.Appointment
	if fs.Armed() {
		if req.AppointmentID > 0 {
			original, err := h.store.Get(r.Context(), req.AppointmentID)
			if err != nil {
				if storage.IsNotFound(err) {
					http.Error(w, "appointment not found", http.StatusNotFound)
					return
				}
				http.Error(w, "failed to load appointment", http.StatusInternalServerError)
				return
			}
			form.Original = &original
		}
		var err error
		existing, err = h.customerAppointments(r, req.CustomerID)
		if err != nil {
			http.Error(w, "failed to load customer appointments", http.StatusInternalServerError)
			return
		}
	}

	res := fs.Revalidate(form, existing)
	writeJSON(w, http.StatusOK, draftResponse{
		Status:             res.Status.String(),
		validationResponse: newValidationResponse(res.Errors, res.Conflict, res.ConflictMessage()),
		Truncated:          res.Truncated,
	})
}

func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return
	}
	appt, err := h.store.Delete(r.Context(), id)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		h.logger.Error("delete appointment failed", "err", err, "appointment_id", id)
		http.Error(w, "failed to delete appointment", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"appointment_id": appt.ID,
		"type":           appt.Type,
		"message":        fmt.Sprintf("Appointment #%d (%s) was cancelled", appt.ID, appt.Type),
	})
}

type slotsResponse struct {
	Date  string      `json:"date"`
	Open  time.Time   `json:"open"`
	Close time.Time   `json:"close"`
	Slots []time.Time `json:"slots"`
}

// Slots lists free start times for a customer on one date, within business
// hours.
func (h *AppointmentHandler) Slots(w http.ResponseWriter, r *http.Request) {
	sess := mustSession(r)
	customerID, err := strconv.Atoi(r.URL.Query().Get("customer_id"))
	if err != nil || customerID <= 0 {
		http.Error(w, "customer_id is required", http.StatusBadRequest)
		return
	}
	date, err := civil.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	if sess.Hours == nil {
		http.Error(w, "business hours not configured", http.StatusServiceUnavailable)
		return
	}

	appts, err := h.store.ListByCustomer(r.Context(), customerID)
	if err != nil {
		http.Error(w, "failed to load customer appointments", http.StatusInternalServerError)
		return
	}
	open, closing := sess.Hours.Span(date)
	slots := availability.AvailableSlots(open, closing, h.slots.Length, h.slots.Step, availability.Busy(appts, 0), h.now(sess))
	if slots == nil {
		slots = []time.Time{}
	}
	writeJSON(w, http.StatusOK, slotsResponse{Date: date.String(), Open: open, Close: closing, Slots: slots})
}

func (h *AppointmentHandler) load(w http.ResponseWriter, r *http.Request) (model.Appointment, bool) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return model.Appointment{}, false
	}
	appt, err := h.store.Get(r.Context(), id)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return model.Appointment{}, false
		}
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return model.Appointment{}, false
	}
	return appt, true
}

func (h *AppointmentHandler) customerAppointments(r *http.Request, customerID int) ([]model.Appointment, error) {
	if customerID <= 0 {
		return nil, nil
	}
	return h.store.ListByCustomer(r.Context(), customerID)
}

func (h *AppointmentHandler) present(sess *session.Context, appts []model.Appointment) []appointmentResponse {
	out := make([]appointmentResponse, 0, len(appts))
	for _, a := range appts {
		resp := toAppointmentResponse(a.In(sess.Location))
		if sess.Directory != nil {
			resp.ContactName = sess.Directory.ContactName(a.ContactID)
			resp.UserName = sess.Directory.UserName(a.UserID)
		}
		out = append(out, resp)
	}
	return out
}

// mustSession is only used behind RequireAuth.
func mustSession(r *http.Request) *session.Context {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		panic("handlers: request has no session; route is missing RequireAuth")
	}
	return sess
}
