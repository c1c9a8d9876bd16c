package availability

import (
	"time"

	"github.com/alvinroe04/scheduler/services/appointment-service/internal/model"
)

// FindConflict returns the first appointment, in the order given, that
// collides with the candidate [start, end). The appointment with ID
// excludeID is ignored so an appointment never conflicts with itself.
//
// With the candidate as [s1,e1) and another appointment as [s2,e2) a
// conflict is any of:
//
//	s1 <= s2 < e1         the other starts inside the candidate
//	s1 <= e2 <= e1        the other ends inside the candidate
//	s2 <= s1 && e2 >= e1  the other covers the candidate
//
// Unlike the symmetric half-open test in AvailableSlots, an appointment that
// ends exactly when the candidate starts is reported, and one that starts
// exactly when the candidate ends is not.
func FindConflict(start, end time.Time, excludeID int, appts []model.Appointment) (model.Appointment, bool) {
	for _, a := range appts {
		if a.ID == excludeID {
			continue
		}
		if collides(start, end, a.Start, a.End) {
			return a, true
		}
	}
	return model.Appointment{}, false
}

func collides(s1, e1, s2, e2 time.Time) bool {
	startsInside := !s2.Before(s1) && s2.Before(e1)
	endsInside := !e2.Before(s1) && !e2.After(e1)
	covers := !s2.After(s1) && !e2.Before(e1)
	return startsInside || endsInside || covers
}
