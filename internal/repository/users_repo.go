package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"eta_monitor/internal/models"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrUsernameTaken is returned by Create when the username already exists.
var ErrUsernameTaken = errors.New("username already taken")

// UsersSQLite keeps the operators allowed to use the API.
type UsersSQLite struct {
	db *sql.DB
}

func NewUsersSQLite(db *sql.DB) *UsersSQLite {
	return &UsersSQLite{db: db}
}

var _ Authorization = (*UsersSQLite)(nil)

const (
	insertOperatorSQL = `INSERT INTO users (username, password_hash) VALUES (?, ?)`

	selectOperatorSQL = `SELECT id, username, password_hash FROM users WHERE username = ? LIMIT 1`

	countOperatorsSQL = `SELECT COUNT(*) FROM users`
)

func (r *UsersSQLite) Create(ctx context.Context, username, hash string) (int, error) {
	res, err := r.db.ExecContext(ctx, insertOperatorSQL, username, hash)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrUsernameTaken
		}
		return 0, fmt.Errorf("create operator %s: %w", username, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create operator %s: read id: %w", username, err)
	}
	return int(id), nil
}

// GetByUsername reports a missing operator as (nil, nil).
func (r *UsersSQLite) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, selectOperatorSQL, username)

	u := new(models.User)
	switch err := row.Scan(&u.ID, &u.Username, &u.PasswordHash); {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("load operator %s: %w", username, err)
	}
	return u, nil
}

// Count returns how many operators are registered.
func (r *UsersSQLite) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, countOperatorsSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("count operators: %w", err)
	}
	return n, nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
