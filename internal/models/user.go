package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/resumectl/internal/apperr"
	"github.com/starford/resumectl/internal/database"
)

// User is an account. Password holds the bcrypt hash and is never
// serialised.
type User struct {
	Username string `json:"username"`
	Password string `json:"-"`
}

func (u *User) OwnerName() string { return u.Username }

// AddUser inserts a user. A taken username yields a Conflict error.
func AddUser(ctx context.Context, q database.Querier, username, passwordHash string) (*User, error) {
	_, err := q.ExecContext(ctx, `INSERT INTO users (username, password) VALUES (?, ?)`, username, passwordHash)
	if errors.Is(err, database.ErrUniqueViolation) {
		return nil, apperr.Conflict("Username %q is not available.", username)
	}
	if err != nil {
		return nil, fmt.Errorf("models: add user: %w", err)
	}
	return &User{Username: username, Password: passwordHash}, nil
}

// GetUser returns the user with the given username.
func GetUser(ctx context.Context, q database.Querier, username string) (*User, error) {
	var u User
	err := q.QueryRowContext(ctx, `SELECT username, password FROM users WHERE username = ?`, username).
		Scan(&u.Username, &u.Password)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("Can not find user %q.", username)
	}
	if err != nil {
		return nil, fmt.Errorf("models: get user: %w", err)
	}
	return &u, nil
}

// UpdatePassword stores a new password hash.
func (u *User) UpdatePassword(ctx context.Context, q database.Querier, passwordHash string) error {
	res, err := q.ExecContext(ctx, `UPDATE users SET password = ? WHERE username = ?`, passwordHash, u.Username)
	if err != nil {
		return fmt.Errorf("models: update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("models: update user: %w", err)
	}
	if n == 0 {
		return apperr.Internal("User %q was not found.", u.Username)
	}
	u.Password = passwordHash
	return nil
}

// Delete removes the user. Owned rows are removed by cascade.
func (u *User) Delete(ctx context.Context, q database.Querier) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM users WHERE username = ?`, u.Username); err != nil {
		return fmt.Errorf("models: delete user: %w", err)
	}
	return nil
}
