package storage

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/alvinroe04/scheduler/libs/db"
	"github.com/alvinroe04/scheduler/services/appointment-service/internal/model"
	"github.com/alvinroe04/scheduler/services/appointment-service/internal/outbox"
)

const appointmentColumns = `appointment_id, title, description, location, type, start_time, end_time,
	created_at, created_by, last_update, last_updated_by, customer_id, user_id, contact_id`

type AppointmentRepository struct {
	pool   *db.Pool
	outbox *outbox.Repository
	loc    *time.Location
}

// NewAppointmentRepository returns a repository whose reads are expressed in loc.
func NewAppointmentRepository(pool *db.Pool, outboxRepo *outbox.Repository, loc *time.Location) *AppointmentRepository {
	return &AppointmentRepository{pool: pool, outbox: outboxRepo, loc: loc}
}

func (r *AppointmentRepository) ListAll(ctx context.Context) ([]model.Appointment, error) {
	return r.list(ctx, `ORDER BY start_time ASC, appointment_id ASC`)
}

func (r *AppointmentRepository) ListByCustomer(ctx context.Context, customerID int) ([]model.Appointment, error) {
	return r.list(ctx, `WHERE customer_id = $1 ORDER BY start_time ASC, appointment_id ASC`, customerID)
}

func (r *AppointmentRepository) ListByContact(ctx context.Context, contactID int) ([]model.Appointment, error) {
	return r.list(ctx, `WHERE contact_id = $1 ORDER BY start_time ASC, appointment_id ASC`, contactID)
}

func (r *AppointmentRepository) Get(ctx context.Context, id int) (model.Appointment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE appointment_id = $1`, id)
	appt, err := scanAppointment(row)
	if err != nil {
		return model.Appointment{}, err
	}
	return appt.In(r.loc), nil
}

// IDs returns every appointment ID currently stored.
func (r *AppointmentRepository) IDs(ctx context.Context) ([]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT appointment_id FROM appointments`)
	if err != nil {
		return nil, err
	}
	return collectIDs(rows)
}

func (r *AppointmentRepository) Create(ctx context.Context, appt model.Appointment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO appointments (`+appointmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, appt.ID, appt.Title, appt.Description, appt.Location, appt.Type,
		appt.Start.UTC(), appt.End.UTC(), appt.CreatedAt.UTC(), appt.CreatedBy,
		appt.UpdatedAt.UTC(), appt.UpdatedBy, appt.CustomerID, appt.UserID, appt.ContactID)
	if err != nil {
		return err
	}
	if err := r.writeEvent(ctx, tx, outbox.AppointmentCreated, appt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *AppointmentRepository) Update(ctx context.Context, appt model.Appointment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE appointments
		SET title = $2,
			description = $3,
			location = $4,
			type = $5,
			start_time = $6,
			end_time = $7,
			last_update = $8,
			last_updated_by = $9,
			customer_id = $10,
			user_id = $11,
			contact_id = $12
		WHERE appointment_id = $1
	`, appt.ID, appt.Title, appt.Description, appt.Location, appt.Type,
		appt.Start.UTC(), appt.End.UTC(), appt.UpdatedAt.UTC(), appt.UpdatedBy,
		appt.CustomerID, appt.UserID, appt.ContactID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	if err := r.writeEvent(ctx, tx, outbox.AppointmentUpdated, appt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Delete removes the appointment and returns what was stored.
func (r *AppointmentRepository) Delete(ctx context.Context, id int) (model.Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Appointment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `DELETE FROM appointments WHERE appointment_id = $1 RETURNING `+appointmentColumns, id)
	appt, err := scanAppointment(row)
	if err != nil {
		return model.Appointment{}, err
	}
	if err := r.writeEvent(ctx, tx, outbox.AppointmentDeleted, appt); err != nil {
		return model.Appointment{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Appointment{}, err
	}
	return appt.In(r.loc), nil
}

func (r *AppointmentRepository) writeEvent(ctx context.Context, tx pgx.Tx, eventType string, appt model.Appointment) error {
	evt, err := outbox.NewEvent("appointment", strconv.Itoa(appt.ID), eventType, appointmentPayload(appt))
	if err != nil {
		return err
	}
	return r.outbox.Insert(ctx, tx, evt)
}

func appointmentPayload(appt model.Appointment) map[string]any {
	return map[string]any{
		"appointment_id": appt.ID,
		"title":          appt.Title,
		"type":           appt.Type,
		"customer_id":    appt.CustomerID,
		"contact_id":     appt.ContactID,
		"user_id":        appt.UserID,
		"start_time":     appt.Start.UTC().Format(time.RFC3339),
		"end_time":       appt.End.UTC().Format(time.RFC3339),
		"updated_by":     appt.UpdatedBy,
	}
}

func (r *AppointmentRepository) list(ctx context.Context, clause string, args ...any) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+appointmentColumns+` FROM appointments `+clause, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt.In(r.loc))
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var appt model.Appointment
	err := row.Scan(
		&appt.ID,
		&appt.Title,
		&appt.Description,
		&appt.Location,
		&appt.Type,
		&appt.Start,
		&appt.End,
		&appt.CreatedAt,
		&appt.CreatedBy,
		&appt.UpdatedAt,
		&appt.UpdatedBy,
		&appt.CustomerID,
		&appt.UserID,
		&appt.ContactID,
	)
	return appt, err
}
