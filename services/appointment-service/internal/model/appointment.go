package model

import "time"

type Appointment struct {
	ID          int
	Title       string
	Description string
	Location    string
	Type        string
	Start       time.Time
	End         time.Time
	CreatedAt   time.Time
	CreatedBy   string
	UpdatedAt   time.Time
	UpdatedBy   string
	CustomerID  int
	UserID      int
	ContactID   int
}

// In returns a copy with every timestamp expressed in loc.
func (a Appointment) In(loc *time.Location) Appointment {
	a.Start = a.Start.In(loc)
	a.End = a.End.In(loc)
	a.CreatedAt = a.CreatedAt.In(loc)
	a.UpdatedAt = a.UpdatedAt.In(loc)
	return a
}
