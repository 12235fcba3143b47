package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"expensetracker/internal/models"
)

// CreateUser inserts a new user with a bcrypt password hash
func (s *Store) CreateUser(ctx context.Context, name, email, passwordHash string) (models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, password) VALUES ($1, $2, $3) RETURNING id, name, email`,
		name, email, passwordHash).Scan(&u.ID, &u.Name, &u.Email)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

// GetUserByEmail finds a user by email address
func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, email FROM users WHERE email = $1`, email).Scan(&u.ID, &u.Name, &u.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}
	return u, nil
}

// GetCredentials returns the user id and stored password hash for a login attempt
func (s *Store) GetCredentials(ctx context.Context, email string) (int, string, error) {
	var id int
	var hash string
	err := s.pool.QueryRow(ctx,
		`SELECT id, password FROM users WHERE email = $1`, email).Scan(&id, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, "", ErrNotFound
	}
	if err != nil {
		return 0, "", fmt.Errorf("failed to get credentials: %w", err)
	}
	return id, hash, nil
}

// ListUsers returns all registered users
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, email FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user rows: %w", err)
	}
	return users, nil
}
