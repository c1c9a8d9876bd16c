package validation

import (
	"fmt"
	"strings"
)

// Field names a form input. The values double as JSON field names.
type Field string

const (
	FieldTitle         Field = "title"
	FieldDescription   Field = "description"
	FieldLocation      Field = "location"
	FieldType          Field = "type"
	FieldCustomer      Field = "customer_id"
	FieldContact       Field = "contact_id"
	FieldStartDate     Field = "start_date"
	FieldStartHour     Field = "start_hour"
	FieldStartMinute   Field = "start_minute"
	FieldStartMeridiem Field = "start_meridiem"
	FieldEndDate       Field = "end_date"
	FieldEndHour       Field = "end_hour"
	FieldEndMinute     Field = "end_minute"
	FieldEndMeridiem   Field = "end_meridiem"

	FieldName       Field = "name"
	FieldAddress    Field = "address"
	FieldPostalCode Field = "postal_code"
	FieldPhone      Field = "phone"
	FieldDivision   Field = "division_id"
)

type Code string

const (
	CodeMissingField         Code = "missing_field"
	CodeNotANumber           Code = "not_a_number"
	CodeOutOfRange           Code = "out_of_range"
	CodeMissingSelection     Code = "missing_selection"
	CodeOrderingViolation    Code = "ordering_violation"
	CodeOutsideBusinessHours Code = "outside_business_hours"
	CodeOverlapConflict      Code = "overlap_conflict"
	CodeTooLong              Code = "too_long"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

type FieldError struct {
	Field    Field    `json:"field"`
	Code     Code     `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// FieldErrors holds at most one entry per (field, code) pair, in the order
// the problems were found.
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for _, e := range fe {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Code))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (fe FieldErrors) has(f Field) bool {
	for _, e := range fe {
		if e.Field == f {
			return true
		}
	}
	return false
}

func (fe FieldErrors) HasCode(f Field, c Code) bool {
	for _, e := range fe {
		if e.Field == f && e.Code == c {
			return true
		}
	}
	return false
}

// Fields lists each flagged field once.
func (fe FieldErrors) Fields() []Field {
	seen := map[Field]bool{}
	var out []Field
	for _, e := range fe {
		if !seen[e.Field] {
			seen[e.Field] = true
			out = append(out, e.Field)
		}
	}
	return out
}

func (fe *FieldErrors) add(f Field, c Code, msg string) {
	fe.addWithSeverity(f, c, SeverityError, msg)
}

func (fe *FieldErrors) addWithSeverity(f Field, c Code, sev Severity, msg string) {
	if fe.HasCode(f, c) {
		return
	}
	if msg == "" {
		msg = defaultMessage(c)
	}
	*fe = append(*fe, FieldError{Field: f, Code: c, Severity: sev, Message: msg})
}

func defaultMessage(c Code) string {
	switch c {
	case CodeMissingField:
		return "Required"
	case CodeNotANumber:
		return "Must be a number"
	case CodeOutOfRange:
		return "Out of range"
	case CodeMissingSelection:
		return "Make a selection"
	case CodeOrderingViolation:
		return "Start must be before end"
	case CodeOutsideBusinessHours:
		return "Outside business hours"
	case CodeOverlapConflict:
		return "Overlaps another appointment for this customer"
	case CodeTooLong:
		return "Too long"
	default:
		return string(c)
	}
}
