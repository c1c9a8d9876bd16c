// Package timefield turns the date, hour, minute and AM/PM inputs of an
// appointment form into a timestamp, and back.
package timefield

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-sql/civil"
)

// maxDigits is how much of the hour and minute text is considered.
const maxDigits = 2

var (
	ErrMissing    = errors.New("missing value")
	ErrNotANumber = errors.New("not a number")
	ErrOutOfRange = errors.New("out of range")
)

type Meridiem int

const (
	MeridiemUnset Meridiem = iota
	AM
	PM
)

func (m Meridiem) String() string {
	switch m {
	case AM:
		return "AM"
	case PM:
		return "PM"
	default:
		return ""
	}
}

// ParseMeridiem accepts "AM" or "PM" in any case. Anything else is unset.
func ParseMeridiem(raw string) Meridiem {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "AM":
		return AM
	case "PM":
		return PM
	default:
		return MeridiemUnset
	}
}

// Part names the sub-field of a time input that failed.
type Part string

const (
	PartDate     Part = "date"
	PartHour     Part = "hour"
	PartMinute   Part = "minute"
	PartMeridiem Part = "meridiem"
)

type PartError struct {
	Part Part
	Err  error
}

func (e *PartError) Error() string { return string(e.Part) + ": " + e.Err.Error() }

func (e *PartError) Unwrap() error { return e.Err }

// Errors collects every failing part of one input.
type Errors []*PartError

func (e Errors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, pe := range e {
		msgs = append(msgs, pe.Error())
	}
	return strings.Join(msgs, "; ")
}

func (e Errors) Unwrap() []error {
	out := make([]error, 0, len(e))
	for _, pe := range e {
		out = append(out, pe)
	}
	return out
}

// Input is one side (start or end) of an appointment form.
type Input struct {
	Date     civil.Date
	Hour     string
	Minute   string
	Meridiem Meridiem
}

// Parse validates in and returns the instant it names in loc. Every failing
// part is reported; the returned error is always of type Errors.
func Parse(in Input, loc *time.Location) (time.Time, error) {
	var errs Errors
	add := func(p Part, err error) { errs = append(errs, &PartError{Part: p, Err: err}) }

	switch {
	case in.Date == (civil.Date{}):
		add(PartDate, ErrMissing)
	case !in.Date.IsValid():
		add(PartDate, ErrOutOfRange)
	}

	hour, err := parseHour(in.Hour)
	if err != nil {
		add(PartHour, err)
	}
	minute, err := parseMinute(in.Minute)
	if err != nil {
		add(PartMinute, err)
	}
	if in.Meridiem != AM && in.Meridiem != PM {
		add(PartMeridiem, ErrMissing)
	}

	if len(errs) > 0 {
		return time.Time{}, errs
	}
	return time.Date(in.Date.Year, in.Date.Month, in.Date.Day, To24Hour(hour, in.Meridiem), minute, 0, 0, loc), nil
}

// To24Hour maps a 1..12 clock hour to 0..23. 12 AM is midnight, 12 PM is noon.
func To24Hour(hour int, m Meridiem) int {
	switch {
	case hour == 12 && m == AM:
		return 0
	case hour == 12:
		return 12
	case m == PM:
		return hour + 12
	default:
		return hour
	}
}

// ToTwelveHour is the inverse of To24Hour.
func ToTwelveHour(hour24 int) (int, Meridiem) {
	switch {
	case hour24 == 0:
		return 12, AM
	case hour24 == 12:
		return 12, PM
	case hour24 > 12:
		return hour24 - 12, PM
	default:
		return hour24, AM
	}
}

// FormFields renders t (already in the display zone) as form input.
func FormFields(t time.Time) Input {
	h, m := ToTwelveHour(t.Hour())
	return Input{
		Date:     civil.DateOf(t),
		Hour:     strconv.Itoa(h),
		Minute:   fmt.Sprintf("%02d", t.Minute()),
		Meridiem: m,
	}
}

func parseHour(raw string) (int, error) {
	h, err := parseDigits(raw)
	if err != nil {
		return 0, err
	}
	if h < 1 || h > 12 {
		return 0, ErrOutOfRange
	}
	return h, nil
}

func parseMinute(raw string) (int, error) {
	m, err := parseDigits(raw)
	if err != nil {
		return 0, err
	}
	if m < 0 || m > 59 {
		return 0, ErrOutOfRange
	}
	return m, nil
}

func parseDigits(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrMissing
	}
	if r := []rune(raw); len(r) > maxDigits {
		raw = string(r[:maxDigits])
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, ErrNotANumber
	}
	return n, nil
}
