package report

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/alvinroe04/scheduler/services/appointment-service/internal/model"
)

const productID = "-//alvinroe04//scheduler//EN"

// ExportICS renders appts as an iCalendar document named after the schedule
// owner. Times are written in UTC.
func ExportICS(name string, appts []model.Appointment, now time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetName(name)

	for _, a := range appts {
		ev := cal.AddEvent(fmt.Sprintf("appointment-%d@scheduler", a.ID))
		ev.SetDtStampTime(now.UTC())
		ev.SetCreatedTime(a.CreatedAt.UTC())
		ev.SetModifiedAt(a.UpdatedAt.UTC())
		ev.SetStartAt(a.Start.UTC())
		ev.SetEndAt(a.End.UTC())
		ev.SetSummary(a.Title)
		ev.SetDescription(fmt.Sprintf("%s (%s)", a.Description, a.Type))
		ev.SetLocation(a.Location)
	}
	return cal.Serialize()
}
