package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shareit/internal/models"
)

func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	result, err := db.ExecContext(ctx, `INSERT INTO users (name, email) VALUES (?, ?)`, user.Name, user.Email)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: email %s", ErrDuplicate, user.Email)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	user.ID = id
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := db.QueryRowContext(ctx, `SELECT id, name, email FROM users WHERE id = ?`, id).
		Scan(&user.ID, &user.Name, &user.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}
