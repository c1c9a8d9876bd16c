package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alvinroe04/scheduler/services/appointment-service/internal/report"
)

type ReportHandler struct {
	appointments AppointmentStore
	now          func() time.Time
}

func NewReportHandler(appointments AppointmentStore, now func() time.Time) *ReportHandler {
	if now == nil {
		now = time.Now
	}
	return &ReportHandler{appointments: appointments, now: now}
}

func (h *ReportHandler) Types(w http.ResponseWriter, r *http.Request) {
	appts, err := h.appointments.ListAll(r.Context())
	if err != nil {
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}
	counts := report.CountByType(appts)
	if counts == nil {
		counts = []report.TypeCount{}
	}
	writeJSON(w, http.StatusOK, counts)
}

func (h *ReportHandler) Months(w http.ResponseWriter, r *http.Request) {
	sess := mustSession(r)
	appts, err := h.appointments.ListAll(r.Context())
	if err != nil {
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, report.CountByMonth(appts, sess.Location))
}

// ContactSchedule serves a contact's schedule as JSON, or as iCalendar when
// the format is "ics".
func (h *ReportHandler) ContactSchedule(format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := mustSession(r)
		id, ok := pathID(r)
		if !ok {
			http.Error(w, "invalid contact id", http.StatusBadRequest)
			return
		}
		contact, known := sess.Directory.Contact(id)
		if !known {
			http.Error(w, "contact not found", http.StatusNotFound)
			return
		}
		appts, err := h.appointments.ListByContact(r.Context(), id)
		if err != nil {
			http.Error(w, "failed to list appointments", http.StatusInternalServerError)
			return
		}
		appts = report.ContactSchedule(appts, id)

		if format == "ics" {
			w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
			w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", icsFilename(contact.Name)))
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(report.ExportICS(contact.Name, appts, h.now())))
			return
		}

		out := make([]appointmentResponse, 0, len(appts))
		for _, a := range appts {
			resp := toAppointmentResponse(a.In(sess.Location))
			resp.ContactName = contact.Name
			out = append(out, resp)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"contact_id":   contact.ID,
			"contact_name": contact.Name,
			"appointments": out,
		})
	}
}

func icsFilename(name string) string {
	slug := strings.ToLower(strings.Join(strings.Fields(name), "-"))
	if slug == "" {
		slug = "schedule"
	}
	return slug + ".ics"
}
