package storage

import (
	"context"

	"github.com/alvinroe04/scheduler/libs/db"
	"github.com/alvinroe04/scheduler/services/appointment-service/internal/model"
)

type ContactRepository struct {
	pool *db.Pool
}

func NewContactRepository(pool *db.Pool) *ContactRepository {
	return &ContactRepository{pool: pool}
}

func (r *ContactRepository) List(ctx context.Context) ([]model.Contact, error) {
	rows, err := r.pool.Query(ctx, `SELECT contact_id, contact_name, email FROM contacts ORDER BY contact_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []model.Contact
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(&c.ID, &c.Name, &c.Email); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return contacts, nil
}

type UserRepository struct {
	pool *db.Pool
}

func NewUserRepository(pool *db.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) GetByName(ctx context.Context, name string) (model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, user_name, password_hash
		FROM users
		WHERE user_name = $1
	`, name).Scan(&u.ID, &u.Name, &u.PasswordHash)
	return u, err
}

// List returns users without their password hashes.
func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT user_id, user_name FROM users ORDER BY user_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return users, nil
}

// Upsert creates the user or replaces the password of an existing one.
func (r *UserRepository) Upsert(ctx context.Context, u model.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (user_id, user_name, password_hash)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET user_name = EXCLUDED.user_name,
			password_hash = EXCLUDED.password_hash
	`, u.ID, u.Name, u.PasswordHash)
	return err
}

type DivisionRepository struct {
	pool *db.Pool
}

func NewDivisionRepository(pool *db.Pool) *DivisionRepository {
	return &DivisionRepository{pool: pool}
}

func (r *DivisionRepository) Countries(ctx context.Context) ([]model.Country, error) {
	rows, err := r.pool.Query(ctx, `SELECT country_id, country FROM countries ORDER BY country_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var countries []model.Country
	for rows.Next() {
		var c model.Country
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		countries = append(countries, c)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return countries, nil
}

// Divisions lists the divisions of one country, or all of them when
// countryID is zero.
func (r *DivisionRepository) Divisions(ctx context.Context, countryID int) ([]model.Division, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT division_id, division, country_id
		FROM first_level_divisions
		WHERE $1 = 0 OR country_id = $1
		ORDER BY division_id ASC
	`, countryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var divisions []model.Division
	for rows.Next() {
		var d model.Division
		if err := rows.Scan(&d.ID, &d.Name, &d.CountryID); err != nil {
			return nil, err
		}
		divisions = append(divisions, d)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return divisions, nil
}
