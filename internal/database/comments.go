package database

import (
	"context"
	"fmt"
	"strings"

	"shareit/internal/models"
)

func (db *DB) CreateComment(ctx context.Context, comment *models.Comment) error {
	query := `INSERT INTO comments (text, item_id, author_id, created) VALUES (?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query, comment.Text, comment.ItemID, comment.AuthorID, formatTime(comment.Created))
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	comment.ID = id
	return nil
}

func (db *DB) GetCommentsByItem(ctx context.Context, itemID int64) ([]*models.CommentView, error) {
	byItem, err := db.GetCommentsByItems(ctx, []int64{itemID})
	if err != nil {
		return nil, err
	}
	if comments, ok := byItem[itemID]; ok {
		return comments, nil
	}
	return []*models.CommentView{}, nil
}

// GetCommentsByItems loads comments of several items in one query, oldest
// first, keyed by item id.
func (db *DB) GetCommentsByItems(ctx context.Context, itemIDs []int64) (map[int64][]*models.CommentView, error) {
	result := make(map[int64][]*models.CommentView, len(itemIDs))
	if len(itemIDs) == 0 {
		return result, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(itemIDs)), ",")
	args := make([]interface{}, len(itemIDs))
	for i, id := range itemIDs {
		args[i] = id
	}

	query := `SELECT c.id, c.item_id, c.text, COALESCE(u.name, ''), c.created
		FROM comments c
		LEFT JOIN users u ON u.id = c.author_id
		WHERE c.item_id IN (` + placeholders + `)
		ORDER BY c.created, c.id`
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			c       models.CommentView
			itemID  int64
			created string
		)
		if err := rows.Scan(&c.ID, &itemID, &c.Text, &c.AuthorName, &created); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		if c.Created, err = parseTime(created); err != nil {
			return nil, err
		}
		result[itemID] = append(result[itemID], &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comments: %w", err)
	}
	return result, nil
}
