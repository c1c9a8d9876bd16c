package availability

import (
	"time"

	"github.com/alvinroe04/scheduler/services/appointment-service/internal/model"
)

type Interval struct {
	Start time.Time
	End   time.Time
}

// Busy converts appointments into busy intervals, skipping excludeID.
func Busy(appts []model.Appointment, excludeID int) []Interval {
	out := make([]Interval, 0, len(appts))
	for _, a := range appts {
		if a.ID == excludeID {
			continue
		}
		out = append(out, Interval{Start: a.Start, End: a.End})
	}
	return out
}

// AvailableSlots returns slot start times within [windowStart, windowEnd) where an appointment of
// length duration would not overlap any of the busy intervals.
//
// All times are expected to be in the same location (timezone).
func AvailableSlots(windowStart, windowEnd time.Time, duration, step time.Duration, busy []Interval, now time.Time) []time.Time {
	if duration <= 0 || step <= 0 {
		return nil
	}
	if !windowEnd.After(windowStart) {
		return nil
	}
	if windowStart.Add(duration).After(windowEnd) {
		return nil
	}

	var slots []time.Time
	for t := windowStart; !t.Add(duration).After(windowEnd); t = t.Add(step) {
		if t.Before(now) {
			continue
		}
		if !overlapsAny(t, t.Add(duration), busy) {
			slots = append(slots, t)
		}
	}
	return slots
}

func overlapsAny(start, end time.Time, busy []Interval) bool {
	for _, b := range busy {
		// Half-open intervals: [start,end) overlaps [b.Start,b.End) iff start < b.End && b.Start < end.
		if start.Before(b.End) && b.Start.Before(end) {
			return true
		}
	}
	return false
}
