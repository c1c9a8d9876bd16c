// Package audit records sign-in attempts.
package audit

import (
	"context"
	"time"

	"github.com/alvinroe04/scheduler/libs/db"
)

type LoginAttempt struct {
	UserName   string
	At         time.Time
	Success    bool
	RemoteAddr string
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

// RecordLogin stores one attempt. The time is kept in UTC.
func (r *Repository) RecordLogin(ctx context.Context, a LoginAttempt) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO login_attempts (user_name, attempted_at, success, remote_addr)
		VALUES ($1, $2, $3, $4)
	`, a.UserName, a.At.UTC(), a.Success, a.RemoteAddr)
	return err
}

// Recent returns the latest attempts, newest first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]LoginAttempt, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT user_name, attempted_at, success, remote_addr
		FROM login_attempts
		ORDER BY attempted_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LoginAttempt
	for rows.Next() {
		var a LoginAttempt
		if err := rows.Scan(&a.UserName, &a.At, &a.Success, &a.RemoteAddr); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
