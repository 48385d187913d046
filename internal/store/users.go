package store

import (
	"context"
	"database/sql"
	"fmt"
)

// ListUsers returns every registered user ordered by id.
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT id, name FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store: list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name); err != nil {
			return nil, fmt.Errorf("store: list users: scan: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// FindUserByID returns the user with the given id, or ErrNotFound.
func (s *Store) FindUserByID(ctx context.Context, id uint32) (User, error) {
	var u User
	err := s.conn.QueryRowContext(ctx, `SELECT id, name FROM users WHERE id = ?`, id).Scan(&u.ID, &u.Name)
	if err == sql.ErrNoRows {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("store: find user %d: %w", id, err)
	}
	return u, nil
}

// UserNameExists reports whether name is already taken, excluding excludeID
// (if non-nil) from the check.
func (s *Store) UserNameExists(ctx context.Context, name string, excludeID *uint32) (bool, error) {
	var (
		row *sql.Row
	)
	if excludeID != nil {
		row = s.conn.QueryRowContext(ctx, `SELECT 1 FROM users WHERE name = ? AND id != ?`, name, *excludeID)
	} else {
		row = s.conn.QueryRowContext(ctx, `SELECT 1 FROM users WHERE name = ?`, name)
	}

	var exists int
	err := row.Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: user name exists: %w", err)
	}
	return true, nil
}

// CreateUser inserts a new user and returns the assigned id.
func (s *Store) CreateUser(ctx context.Context, name string) (User, error) {
	res, err := s.conn.ExecContext(ctx, `INSERT INTO users (name) VALUES (?)`, name)
	if err != nil {
		return User{}, fmt.Errorf("store: create user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return User{}, fmt.Errorf("store: create user: last insert id: %w", err)
	}

	return s.FindUserByID(ctx, uint32(id))
}

// UpdateUser renames an existing user.
func (s *Store) UpdateUser(ctx context.Context, id uint32, name string) (User, error) {
	res, err := s.conn.ExecContext(ctx, `UPDATE users SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return User{}, fmt.Errorf("store: update user %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return User{}, fmt.Errorf("store: update user %d: rows affected: %w", id, err)
	}
	if n == 0 {
		return User{}, ErrNotFound
	}

	return User{ID: id, Name: name}, nil
}
