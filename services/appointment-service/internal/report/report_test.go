package report

import (
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alvinroe04/scheduler/services/appointment-service/internal/model"
)

func appt(id int, typ string, start time.Time) model.Appointment {
	return model.Appointment{
		ID:        id,
		Title:     "Visit",
		Type:      typ,
		Start:     start,
		End:       start.Add(time.Hour),
		CreatedAt: start.Add(-24 * time.Hour),
		UpdatedAt: start.Add(-24 * time.Hour),
	}
}

func ids(appts []model.Appointment) []int {
	out := make([]int, 0, len(appts))
	for _, a := range appts {
		out = append(out, a.ID)
	}
	return out
}

func TestCountByTypeKeepsFirstAppearanceOrder(t *testing.T) {
	base := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	appts := []model.Appointment{
		appt(1, "Planning", base),
		appt(2, "Debrief", base),
		appt(3, "Planning", base),
	}
	assert.Equal(t, []TypeCount{{Type: "Planning", Count: 2}, {Type: "Debrief", Count: 1}}, CountByType(appts))
	assert.Empty(t, CountByType(nil))
}

func TestCountByMonthUsesLocalStart(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	appts := []model.Appointment{
		// 03:00 UTC on 1 February is still 31 January in New York.
		appt(1, "x", time.Date(2024, 2, 1, 3, 0, 0, 0, time.UTC)),
		appt(2, "x", time.Date(2024, 12, 10, 15, 0, 0, 0, time.UTC)),
	}
	counts := CountByMonth(appts, ny)
	require.Len(t, counts, 12)
	assert.Equal(t, time.January, counts[0].Month)
	assert.Equal(t, 1, counts[0].Count)
	assert.Equal(t, 0, counts[1].Count)
	assert.Equal(t, 1, counts[11].Count)
	assert.Equal(t, "December", counts[11].Name)
}

func TestScheduleFilters(t *testing.T) {
	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	a := appt(1, "x", time.Date(2024, 3, 12, 23, 0, 0, 0, time.UTC))
	b := appt(2, "x", time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC))
	c := appt(3, "x", time.Date(2024, 3, 13, 8, 0, 0, 0, time.UTC))
	d := appt(4, "x", time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC))
	e := appt(5, "x", time.Date(2023, 3, 20, 8, 0, 0, 0, time.UTC))
	a.ContactID, c.ContactID = 7, 7
	b.CustomerID = 3
	all := []model.Appointment{a, b, c, d, e}

	assert.Equal(t, []int{2, 1}, ids(Week(all, now)))
	assert.Equal(t, []int{4, 2, 1, 3}, ids(Month(all, now)))
	assert.Equal(t, []int{1, 3}, ids(ContactSchedule(all, 7)))
	assert.Equal(t, []int{2}, ids(CustomerAppointments(all, 3)))
}

func TestUpcoming(t *testing.T) {
	now := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	all := []model.Appointment{
		appt(1, "x", now.Add(15*time.Minute)),
		appt(2, "x", now.Add(16*time.Minute)),
		appt(3, "x", now.Add(-30*time.Second)),
		appt(4, "x", now.Add(-time.Minute)),
		appt(5, "x", now.Add(5*time.Minute)),
	}
	assert.Equal(t, []int{3, 5, 1}, ids(Upcoming(all, now, 0)))
	assert.Empty(t, Upcoming(all, now.Add(-2*time.Hour), time.Minute))
}

func TestUpcomingStopsAtMidnight(t *testing.T) {
	now := time.Date(2024, 3, 5, 23, 55, 0, 0, time.UTC)
	all := []model.Appointment{appt(1, "x", time.Date(2024, 3, 6, 0, 5, 0, 0, time.UTC))}
	assert.Empty(t, Upcoming(all, now, DefaultUpcomingWindow))
}

func TestExportICS(t *testing.T) {
	start := time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC)
	a := appt(42, "Planning", start)
	a.Location = "Room 4"

	out := ExportICS("Li Lee", []model.Appointment{a}, start)
	require.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR"))

	cal, err := ical.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "appointment-42@scheduler", events[0].Id())
	assert.Equal(t, "Visit", events[0].GetProperty(ical.ComponentPropertySummary).Value)
	got, err := events[0].GetStartAt()
	require.NoError(t, err)
	assert.True(t, got.Equal(start))
}
