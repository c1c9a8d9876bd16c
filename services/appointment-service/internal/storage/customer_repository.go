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

const customerColumns = `customer_id, customer_name, address, postal_code, phone, division_id,
	created_at, created_by, last_update, last_updated_by`

type CustomerRepository struct {
	pool   *db.Pool
	outbox *outbox.Repository
	loc    *time.Location
}

func NewCustomerRepository(pool *db.Pool, outboxRepo *outbox.Repository, loc *time.Location) *CustomerRepository {
	return &CustomerRepository{pool: pool, outbox: outboxRepo, loc: loc}
}

func (r *CustomerRepository) List(ctx context.Context) ([]model.Customer, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY customer_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []model.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, r.local(c))
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return customers, nil
}

func (r *CustomerRepository) Get(ctx context.Context, id int) (model.Customer, error) {
	c, err := scanCustomer(r.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE customer_id = $1`, id))
	if err != nil {
		return model.Customer{}, err
	}
	return r.local(c), nil
}

func (r *CustomerRepository) IDs(ctx context.Context) ([]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT customer_id FROM customers`)
	if err != nil {
		return nil, err
	}
	return collectIDs(rows)
}

func (r *CustomerRepository) Create(ctx context.Context, c model.Customer) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO customers (`+customerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, c.ID, c.Name, c.Address, c.PostalCode, c.Phone, c.DivisionID,
		c.CreatedAt.UTC(), c.CreatedBy, c.UpdatedAt.UTC(), c.UpdatedBy)
	if err != nil {
		return err
	}
	if err := r.writeEvent(ctx, tx, outbox.CustomerCreated, c, nil); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *CustomerRepository) Update(ctx context.Context, c model.Customer) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE customers
		SET customer_name = $2,
			address = $3,
			postal_code = $4,
			phone = $5,
			division_id = $6,
			last_update = $7,
			last_updated_by = $8
		WHERE customer_id = $1
	`, c.ID, c.Name, c.Address, c.PostalCode, c.Phone, c.DivisionID, c.UpdatedAt.UTC(), c.UpdatedBy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	if err := r.writeEvent(ctx, tx, outbox.CustomerUpdated, c, nil); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Delete removes the customer together with all of their appointments and
// returns the IDs of the appointments that went with them.
func (r *CustomerRepository) Delete(ctx context.Context, id int) ([]int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `DELETE FROM appointments WHERE customer_id = $1 RETURNING appointment_id`, id)
	if err != nil {
		return nil, err
	}
	removed, err := collectIDs(rows)
	if err != nil {
		return nil, err
	}

	c, err := scanCustomer(tx.QueryRow(ctx, `DELETE FROM customers WHERE customer_id = $1 RETURNING `+customerColumns, id))
	if err != nil {
		return nil, err
	}
	if err := r.writeEvent(ctx, tx, outbox.CustomerDeleted, c, removed); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return removed, nil
}

func (r *CustomerRepository) writeEvent(ctx context.Context, tx pgx.Tx, eventType string, c model.Customer, removed []int) error {
	payload := map[string]any{
		"customer_id": c.ID,
		"name":        c.Name,
		"division_id": c.DivisionID,
		"updated_by":  c.UpdatedBy,
	}
	if removed != nil {
		payload["removed_appointments"] = removed
	}
	evt, err := outbox.NewEvent("customer", strconv.Itoa(c.ID), eventType, payload)
	if err != nil {
		return err
	}
	return r.outbox.Insert(ctx, tx, evt)
}

func (r *CustomerRepository) local(c model.Customer) model.Customer {
	if r.loc != nil {
		c.CreatedAt = c.CreatedAt.In(r.loc)
		c.UpdatedAt = c.UpdatedAt.In(r.loc)
	}
	return c
}

func scanCustomer(row pgx.Row) (model.Customer, error) {
	var c model.Customer
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Address,
		&c.PostalCode,
		&c.Phone,
		&c.DivisionID,
		&c.CreatedAt,
		&c.CreatedBy,
		&c.UpdatedAt,
		&c.UpdatedBy,
	)
	return c, err
}
