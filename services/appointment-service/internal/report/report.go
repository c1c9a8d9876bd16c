// Package report builds the schedule views and summary counts shown to
// signed-in users.
package report

import (
	"sort"
	"time"

	"github.com/golang-sql/civil"

	"github.com/alvinroe04/scheduler/services/appointment-service/internal/model"
)

const DefaultUpcomingWindow = 15 * time.Minute

type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// CountByType counts appointments per type, in the order each type first
// appears.
func CountByType(appts []model.Appointment) []TypeCount {
	index := map[string]int{}
	var out []TypeCount
	for _, a := range appts {
		i, ok := index[a.Type]
		if !ok {
			i = len(out)
			index[a.Type] = i
			out = append(out, TypeCount{Type: a.Type})
		}
		out[i].Count++
	}
	return out
}

type MonthCount struct {
	Month time.Month `json:"month"`
	Name  string     `json:"name"`
	Count int        `json:"count"`
}

// CountByMonth always returns twelve buckets, January first, keyed by the
// start month in loc.
func CountByMonth(appts []model.Appointment, loc *time.Location) []MonthCount {
	out := make([]MonthCount, 12)
	for i := range out {
		m := time.Month(i + 1)
		out[i] = MonthCount{Month: m, Name: m.String()}
	}
	for _, a := range appts {
		out[inLoc(a.Start, loc).Month()-1].Count++
	}
	return out
}

// ContactSchedule lists a contact's appointments by start time.
func ContactSchedule(appts []model.Appointment, contactID int) []model.Appointment {
	return sortedBy(appts, func(a model.Appointment) bool { return a.ContactID == contactID })
}

func CustomerAppointments(appts []model.Appointment, customerID int) []model.Appointment {
	return sortedBy(appts, func(a model.Appointment) bool { return a.CustomerID == customerID })
}

// Week keeps appointments starting between today and seven days from
// today, both dates inclusive.
func Week(appts []model.Appointment, now time.Time) []model.Appointment {
	today := civil.DateOf(now)
	last := today.AddDays(7)
	return sortedBy(appts, func(a model.Appointment) bool {
		d := civil.DateOf(a.Start.In(now.Location()))
		return !d.Before(today) && !d.After(last)
	})
}

// Month keeps appointments starting in the current calendar month.
func Month(appts []model.Appointment, now time.Time) []model.Appointment {
	return sortedBy(appts, func(a model.Appointment) bool {
		s := a.Start.In(now.Location())
		return s.Year() == now.Year() && s.Month() == now.Month()
	})
}

// Upcoming returns today's appointments that start within window of now.
// Anything that started up to a minute ago still counts.
func Upcoming(appts []model.Appointment, now time.Time, window time.Duration) []model.Appointment {
	if window <= 0 {
		window = DefaultUpcomingWindow
	}
	today := civil.DateOf(now)
	from := now.Add(-time.Minute)
	to := now.Add(window)
	return sortedBy(appts, func(a model.Appointment) bool {
		s := a.Start.In(now.Location())
		return civil.DateOf(s) == today && s.After(from) && !s.After(to)
	})
}

func sortedBy(appts []model.Appointment, keep func(model.Appointment) bool) []model.Appointment {
	out := make([]model.Appointment, 0, len(appts))
	for _, a := range appts {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

func inLoc(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		return t
	}
	return t.In(loc)
}
