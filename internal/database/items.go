package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"shareit/internal/models"
)

const itemColumns = `id, name, description, available, owner_id, request_id`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (*models.Item, error) {
	var (
		item      models.Item
		requestID sql.NullInt64
	)
	if err := row.Scan(&item.ID, &item.Name, &item.Description, &item.Available, &item.OwnerID, &requestID); err != nil {
		return nil, err
	}
	if requestID.Valid {
		item.RequestID = &requestID.Int64
	}
	return &item, nil
}

func (db *DB) CreateItem(ctx context.Context, item *models.Item) error {
	query := `INSERT INTO items (name, description, available, owner_id, request_id) VALUES (?, ?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query, item.Name, item.Description, item.Available, item.OwnerID, item.RequestID)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	item.ID = id
	return nil
}

func (db *DB) GetItemByID(ctx context.Context, id int64) (*models.Item, error) {
	row := db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

func (db *DB) UpdateItem(ctx context.Context, item *models.Item) error {
	query := `UPDATE items SET name = ?, description = ?, available = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, item.Name, item.Description, item.Available, item.ID)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// GetItemsByOwner returns the owner's items ordered by id.
func (db *DB) GetItemsByOwner(ctx context.Context, ownerID int64, page models.Page) ([]*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE owner_id = ? ORDER BY id LIMIT ? OFFSET ?`
	return db.queryItems(ctx, query, ownerID, page.Limit, page.Offset)
}

// SearchItems matches text case-insensitively against name or description
// of available items. Blank text matches nothing.
func (db *DB) SearchItems(ctx context.Context, text string, page models.Page) ([]*models.Item, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []*models.Item{}, nil
	}

	pattern := "%" + escapeLike(strings.ToLower(text)) + "%"
	query := `SELECT ` + itemColumns + ` FROM items
		WHERE available = 1
		AND (LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')
		ORDER BY id LIMIT ? OFFSET ?`
	return db.queryItems(ctx, query, pattern, pattern, page.Limit, page.Offset)
}

func (db *DB) queryItems(ctx context.Context, query string, args ...interface{}) ([]*models.Item, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	items := []*models.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}
	return items, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
