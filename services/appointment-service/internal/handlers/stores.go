package handlers

import (
	"context"

	"github.com/alvinroe04/scheduler/services/appointment-service/internal/audit"
	"github.com/alvinroe04/scheduler/services/appointment-service/internal/model"
)

// AppointmentStore is implemented by storage.AppointmentRepository.
type AppointmentStore interface {
	ListAll(ctx context.Context) ([]model.Appointment, error)
	ListByCustomer(ctx context.Context, customerID int) ([]model.Appointment, error)
	ListByContact(ctx context.Context, contactID int) ([]model.Appointment, error)
	Get(ctx context.Context, id int) (model.Appointment, error)
	IDs(ctx context.Context) ([]int, error)
	Create(ctx context.Context, appt model.Appointment) error
	Update(ctx context.Context, appt model.Appointment) error
	Delete(ctx context.Context, id int) (model.Appointment, error)
}

// CustomerStore is implemented by storage.CustomerRepository.
type CustomerStore interface {
	List(ctx context.Context) ([]model.Customer, error)
	Get(ctx context.Context, id int) (model.Customer, error)
	IDs(ctx context.Context) ([]int, error)
	Create(ctx context.Context, c model.Customer) error
	Update(ctx context.Context, c model.Customer) error
	Delete(ctx context.Context, id int) ([]int, error)
}

// RegionStore is implemented by storage.DivisionRepository.
type RegionStore interface {
	Countries(ctx context.Context) ([]model.Country, error)
	Divisions(ctx context.Context, countryID int) ([]model.Division, error)
}

// UserStore is implemented by storage.UserRepository.
type UserStore interface {
	GetByName(ctx context.Context, name string) (model.User, error)
}

// LoginRecorder is implemented by audit.Repository.
type LoginRecorder interface {
	RecordLogin(ctx context.Context, a audit.LoginAttempt) error
	Recent(ctx context.Context, limit int) ([]audit.LoginAttempt, error)
}
