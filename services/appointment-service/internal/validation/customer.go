package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CustomerForm is the add or update customer form. Every field is required.
type CustomerForm struct {
	Name       string `field:"name" validate:"required,max=50"`
	Address    string `field:"address" validate:"required,max=100"`
	PostalCode string `field:"postal_code" validate:"required,max=50"`
	Phone      string `field:"phone" validate:"required,max=50"`
	DivisionID int    `field:"division_id" validate:"required,gt=0"`
}

var customerValidate = newCustomerValidate()

func newCustomerValidate() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("field")
	})
	return v
}

// Normalize trims surrounding whitespace from the text fields.
func (f CustomerForm) Normalize() CustomerForm {
	f.Name = strings.TrimSpace(f.Name)
	f.Address = strings.TrimSpace(f.Address)
	f.PostalCode = strings.TrimSpace(f.PostalCode)
	f.Phone = strings.TrimSpace(f.Phone)
	return f
}

// ValidateCustomer returns nil when f may be saved.
func ValidateCustomer(f CustomerForm) FieldErrors {
	err := customerValidate.Struct(f.Normalize())
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{{Field: FieldName, Code: CodeOutOfRange, Severity: SeverityError, Message: err.Error()}}
	}

	var out FieldErrors
	for _, fe := range verrs {
		f := Field(fe.Field())
		switch fe.Tag() {
		case "required", "gt":
			if f == FieldDivision {
				out.add(f, CodeMissingSelection, "Select a division")
				continue
			}
			out.add(f, CodeMissingField, "")
		case "max":
			out.add(f, CodeTooLong, "Max length: "+fe.Param()+" characters")
		default:
			out.add(f, CodeOutOfRange, "")
		}
	}
	return out
}
