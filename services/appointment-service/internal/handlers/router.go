package handlers

import (
	"github.com/go-chi/chi/v5"
)

type Routes struct {
	Auth         *AuthHandler
	Appointments *AppointmentHandler
	Customers    *CustomerHandler
	Reports      *ReportHandler
	Lookups      *LookupHandler
	JWTSecret    string
	Session      SessionBase
}

// NewRouter mounts the API under /api/v1. Everything except login requires
// a bearer token.
func NewRouter(rt Routes) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", rt.Auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(rt.JWTSecret, rt.Session))

			r.Get("/auth/logins", rt.Auth.Logins)

			r.Route("/appointments", func(r chi.Router) {
				r.Get("/", rt.Appointments.List)
				r.Post("/", rt.Appointments.Create)
				r.Post("/validate", rt.Appointments.Validate)
				r.Get("/upcoming", rt.Appointments.Upcoming)
				r.Get("/slots", rt.Appointments.Slots)
				r.Get("/{id}", rt.Appointments.Get)
				r.Get("/{id}/form", rt.Appointments.Form)
				r.Put("/{id}", rt.Appointments.Update)
				r.Delete("/{id}", rt.Appointments.Delete)
			})

			r.Route("/customers", func(r chi.Router) {
				r.Get("/", rt.Customers.List)
				r.Post("/", rt.Customers.Create)
				r.Put("/{id}", rt.Customers.Update)
				r.Delete("/{id}", rt.Customers.Delete)
				r.Get("/{id}/appointments", rt.Customers.Appointments)
			})

			r.Get("/contacts", rt.Lookups.Contacts)
			r.Get("/countries", rt.Lookups.Countries)
			r.Get("/divisions", rt.Lookups.Divisions)
			r.Get("/business-hours", rt.Lookups.BusinessHours)

			r.Route("/reports", func(r chi.Router) {
				r.Get("/types", rt.Reports.Types)
				r.Get("/months", rt.Reports.Months)
				r.Get("/contacts/{id}/schedule", rt.Reports.ContactSchedule("json"))
				r.Get("/contacts/{id}/schedule.ics", rt.Reports.ContactSchedule("ics"))
			})
		})
	})
	return r
}
