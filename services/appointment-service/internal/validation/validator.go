// Package validation decides whether an appointment form may be saved and,
// when it may not, which inputs are at fault.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-sql/civil"

	"github.com/alvinroe04/scheduler/services/appointment-service/internal/availability"
	"github.com/alvinroe04/scheduler/services/appointment-service/internal/hours"
	"github.com/alvinroe04/scheduler/services/appointment-service/internal/model"
	"github.com/alvinroe04/scheduler/services/appointment-service/internal/timefield"
)

const DefaultMaxTextLength = 40

type Status int

const (
	NotYetAttempted Status = iota
	Accepted
	Rejected
)

func (s Status) String() string {
	switch s {
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	default:
		return "not_yet_attempted"
	}
}

// Form is the raw content of an add or update appointment form.
type Form struct {
	// AppointmentID is the allocated ID on add and the edited ID on update.
	AppointmentID int
	Title         string
	Description   string
	Location      string
	Type          string
	CustomerID    int
	ContactID     int
	UserID        int
	Author        string
	Start         timefield.Input
	End           timefield.Input
	// Original is the stored appointment being updated, nil on add.
	Original *model.Appointment
}

type Result struct {
	Status      Status
	Appointment model.Appointment
	Errors      FieldErrors
	// Truncated lists text fields that were cut to the length limit.
	Truncated []Field
	Conflict  *model.Appointment
}

// ConflictMessage describes the overlapping appointment, or "" if none.
func (r Result) ConflictMessage() string {
	if r.Conflict == nil {
		return ""
	}
	const layout = "Jan 2, 2006 3:04 PM"
	return fmt.Sprintf("Overlaps with appointment #%d from %s to %s",
		r.Conflict.ID, r.Conflict.Start.Format(layout), r.Conflict.End.Format(layout))
}

type Validator struct {
	Hours         *hours.Calendar
	Location      *time.Location
	MaxTextLength int
	Now           func() time.Time
}

func New(cal *hours.Calendar, loc *time.Location, maxText int, now func() time.Time) *Validator {
	if loc == nil {
		loc = time.Local
	}
	if maxText <= 0 {
		maxText = DefaultMaxTextLength
	}
	if now == nil {
		now = time.Now
	}
	return &Validator{Hours: cal, Location: loc, MaxTextLength: maxText, Now: now}
}

type side struct {
	date, hour, minute, meridiem Field
}

var (
	startSide = side{FieldStartDate, FieldStartHour, FieldStartMinute, FieldStartMeridiem}
	endSide   = side{FieldEndDate, FieldEndHour, FieldEndMinute, FieldEndMeridiem}
)

func (s side) field(p timefield.Part) Field {
	switch p {
	case timefield.PartDate:
		return s.date
	case timefield.PartHour:
		return s.hour
	case timefield.PartMinute:
		return s.minute
	default:
		return s.meridiem
	}
}

// Validate runs every check and collects all problems. It never stops at
// the first failure.
func (v *Validator) Validate(form Form, existing []model.Appointment) Result {
	var res Result
	errs := &res.Errors

	title := v.text(form.Title, FieldTitle, errs, &res.Truncated)
	description := v.text(form.Description, FieldDescription, errs, &res.Truncated)
	location := v.text(form.Location, FieldLocation, errs, &res.Truncated)
	typ := v.text(form.Type, FieldType, errs, &res.Truncated)

	if form.CustomerID <= 0 {
		errs.add(FieldCustomer, CodeMissingSelection, "Select a customer")
	}
	if form.ContactID <= 0 {
		errs.add(FieldContact, CodeMissingSelection, "Select a contact")
	}

	start, startOK := v.parse(form.Start, startSide, errs)
	end, endOK := v.parse(form.End, endSide, errs)

	if startOK && endOK {
		if !start.Before(end) {
			if civil.DateOf(start) == civil.DateOf(end) {
				errs.add(FieldStartHour, CodeOrderingViolation, "Start time must be before end time")
				errs.add(FieldStartMinute, CodeOrderingViolation, "Start time must be before end time")
				errs.add(FieldEndHour, CodeOrderingViolation, "End time must be after start time")
				errs.add(FieldEndMinute, CodeOrderingViolation, "End time must be after start time")
			} else {
				errs.add(FieldStartDate, CodeOrderingViolation, "Start date must not be after end date")
				errs.add(FieldEndDate, CodeOrderingViolation, "End date must not be before start date")
			}
		}
	}

	if startOK {
		v.checkHours(start, startSide, errs)
	}
	if endOK {
		v.checkHours(end, endSide, errs)
	}

	if startOK && endOK && form.CustomerID > 0 {
		if other, ok := availability.FindConflict(start, end, form.AppointmentID, existing); ok {
			other = other.In(v.Location)
			res.Conflict = &other
			msg := res.ConflictMessage()
			for _, f := range []Field{FieldStartDate, FieldStartHour, FieldStartMinute, FieldEndDate, FieldEndHour, FieldEndMinute} {
				errs.add(f, CodeOverlapConflict, msg)
			}
		}
	}

	if len(res.Errors) > 0 {
		res.Status = Rejected
		return res
	}

	now := v.Now().In(v.Location)
	appt := model.Appointment{
		ID:          form.AppointmentID,
		Title:       title,
		Description: description,
		Location:    location,
		Type:        typ,
		Start:       start,
		End:         end,
		CreatedAt:   now,
		CreatedBy:   form.Author,
		UpdatedAt:   now,
		UpdatedBy:   form.Author,
		CustomerID:  form.CustomerID,
		UserID:      form.UserID,
		ContactID:   form.ContactID,
	}
	if form.Original != nil {
		appt.CreatedAt = form.Original.CreatedAt
		appt.CreatedBy = form.Original.CreatedBy
	}
	res.Status = Accepted
	res.Appointment = appt
	return res
}

func (v *Validator) text(raw string, f Field, errs *FieldErrors, truncated *[]Field) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		errs.add(f, CodeMissingField, "")
		return ""
	}
	if r := []rune(s); len(r) > v.MaxTextLength {
		s = string(r[:v.MaxTextLength])
		*truncated = append(*truncated, f)
	}
	return s
}

func (v *Validator) parse(in timefield.Input, s side, errs *FieldErrors) (time.Time, bool) {
	t, err := timefield.Parse(in, v.Location)
	if err == nil {
		return t, true
	}
	var partErrs timefield.Errors
	if !errors.As(err, &partErrs) {
		errs.add(s.date, CodeOutOfRange, err.Error())
		return time.Time{}, false
	}
	for _, pe := range partErrs {
		errs.add(s.field(pe.Part), partCode(pe.Err), "")
	}
	return time.Time{}, false
}

func partCode(err error) Code {
	switch {
	case errors.Is(err, timefield.ErrNotANumber):
		return CodeNotANumber
	case errors.Is(err, timefield.ErrOutOfRange):
		return CodeOutOfRange
	default:
		return CodeMissingField
	}
}

func (v *Validator) checkHours(t time.Time, s side, errs *FieldErrors) {
	if v.Hours == nil {
		return
	}
	// One read so a concurrent refresh cannot split the check from the message.
	wd := t.Weekday()
	w := v.Hours.Window(wd)
	if w.Contains(civil.TimeOf(t)) {
		return
	}
	msg := fmt.Sprintf("Outside business hours (%s %s to %s)", wd, clock(w.Open), clock(w.Close))
	errs.addWithSeverity(s.hour, CodeOutsideBusinessHours, SeverityWarning, msg)
	errs.addWithSeverity(s.minute, CodeOutsideBusinessHours, SeverityWarning, msg)
}

func clock(t civil.Time) string {
	h, m := timefield.ToTwelveHour(t.Hour)
	return fmt.Sprintf("%d:%02d %s", h, t.Minute, m)
}

// FormSession is one open add or update form. Validation stays quiet until
// the first save attempt; after that every change is re-validated.
type FormSession struct {
	v     *Validator
	armed bool
}

func (v *Validator) NewSession() *FormSession {
	return &FormSession{v: v}
}

// ResumeSession reopens a form on a later request. attempted reports whether
// the client already tried to save it.
func (v *Validator) ResumeSession(attempted bool) *FormSession {
	return &FormSession{v: v, armed: attempted}
}

func (s *FormSession) Armed() bool { return s.armed }

// Save arms the session and validates.
func (s *FormSession) Save(form Form, existing []model.Appointment) Result {
	s.armed = true
	return s.v.Validate(form, existing)
}

// Revalidate validates only once Save has been called at least once.
func (s *FormSession) Revalidate(form Form, existing []model.Appointment) Result {
	if !s.armed {
		return Result{Status: NotYetAttempted}
	}
	return s.v.Validate(form, existing)
}
