package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/alvinroe04/scheduler/services/appointment-service/internal/timefield"
)

type LookupHandler struct {
	regions RegionStore
}

func NewLookupHandler(regions RegionStore) *LookupHandler {
	return &LookupHandler{regions: regions}
}

type contactResponse struct {
	ID    int    `json:"contact_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *LookupHandler) Contacts(w http.ResponseWriter, r *http.Request) {
	sess := mustSession(r)
	contacts := sess.Directory.Contacts()
	out := make([]contactResponse, 0, len(contacts))
	for _, c := range contacts {
		out = append(out, contactResponse{ID: c.ID, Name: c.Name, Email: c.Email})
	}
	writeJSON(w, http.StatusOK, out)
}

type countryResponse struct {
	ID   int    `json:"country_id"`
	Name string `json:"name"`
}

func (h *LookupHandler) Countries(w http.ResponseWriter, r *http.Request) {
	countries, err := h.regions.Countries(r.Context())
	if err != nil {
		http.Error(w, "failed to list countries", http.StatusInternalServerError)
		return
	}
	out := make([]countryResponse, 0, len(countries))
	for _, c := range countries {
		out = append(out, countryResponse{ID: c.ID, Name: c.Name})
	}
	writeJSON(w, http.StatusOK, out)
}

type divisionResponse struct {
	ID        int    `json:"division_id"`
	Name      string `json:"name"`
	CountryID int    `json:"country_id"`
}

func (h *LookupHandler) Divisions(w http.ResponseWriter, r *http.Request) {
	countryID := 0
	if raw := r.URL.Query().Get("country_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			http.Error(w, "invalid country_id", http.StatusBadRequest)
			return
		}
		countryID = id
	}
	divisions, err := h.regions.Divisions(r.Context(), countryID)
	if err != nil {
		http.Error(w, "failed to list divisions", http.StatusInternalServerError)
		return
	}
	out := make([]divisionResponse, 0, len(divisions))
	for _, d := range divisions {
		out = append(out, divisionResponse{ID: d.ID, Name: d.Name, CountryID: d.CountryID})
	}
	writeJSON(w, http.StatusOK, out)
}

type businessHoursRow struct {
	Weekday string `json:"weekday"`
	Open    string `json:"open"`
	Close   string `json:"close"`
}

type businessHoursResponse struct {
	Zone   string             `json:"zone"`
	Anchor string             `json:"anchor"`
	Days   []businessHoursRow `json:"days"`
}

// BusinessHours shows the opening and closing times in the caller's zone.
func (h *LookupHandler) BusinessHours(w http.ResponseWriter, r *http.Request) {
	sess := mustSession(r)
	if sess.Hours == nil {
		http.Error(w, "business hours not configured", http.StatusServiceUnavailable)
		return
	}
	resp := businessHoursResponse{Zone: sess.Hours.Location().String(), Anchor: sess.Hours.Anchor().String()}
	for _, d := range sess.Hours.Table() {
		resp.Days = append(resp.Days, businessHoursRow{
			Weekday: d.Weekday.String(),
			Open:    twelveHour(d.Open.Hour, d.Open.Minute),
			Close:   twelveHour(d.Close.Hour, d.Close.Minute),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func twelveHour(hour, minute int) string {
	h, m := timefield.ToTwelveHour(hour)
	return fmt.Sprintf("%d:%02d %s", h, minute, m)
}
