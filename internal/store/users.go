package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/saif-byte/event-website/internal/model"
)

const createUser = `
INSERT INTO users (name, email, password_hash, instagram_handle, gender, role, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id, name, email, password_hash, instagram_handle, gender, role, created_at, updated_at
`

// CreateUserParams holds the fields needed to create a user.
type CreateUserParams struct {
	Name            string
	Email           string
	PasswordHash    string
	InstagramHandle sql.NullString
	Gender          string
	Role            string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CreateUser inserts a new user and returns the stored record.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (model.User, error) {
	row := q.db.QueryRowContext(ctx, createUser,
		arg.Name,
		arg.Email,
		arg.PasswordHash,
		arg.InstagramHandle,
		arg.Gender,
		arg.Role,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanUser(row)
}

const getUserByEmail = `
SELECT id, name, email, password_hash, instagram_handle, gender, role, created_at, updated_at
FROM users WHERE email = ?
`

// GetUserByEmail fetches a user by email. Returns sql.ErrNoRows when absent.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
}

const getUserByID = `
SELECT id, name, email, password_hash, instagram_handle, gender, role, created_at, updated_at
FROM users WHERE id = ?
`

// GetUserByID fetches a user by ID. Returns sql.ErrNoRows when absent.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByID, id))
}

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.InstagramHandle,
		&u.Gender,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}
