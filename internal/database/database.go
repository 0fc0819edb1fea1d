package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

var (
	ErrNotFound               = errors.New("record not found")
	ErrDuplicate              = errors.New("duplicate record")
	ErrConcurrentModification = errors.New("concurrent modification")
)

// timeLayout is fixed width and always UTC, so stored values order
// lexicographically the same way they order in time.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type DB struct {
	*sql.DB
	path   string
	logger *zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	memory := path == ":memory:"
	dsn := path
	if !memory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = "file:" + path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
	}

	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if memory {
		// every connection to :memory: is a separate database
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{DB: sqlDB, path: path, logger: logger}
	if err := db.createTables(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("Database initialized")
	return db, nil
}

// Path returns the file the database was opened from.
func (db *DB) Path() string {
	return db.path
}

func (db *DB) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			available BOOLEAN NOT NULL DEFAULT 1,
			owner_id INTEGER NOT NULL,
			request_id INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS bookings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			start_date TEXT NOT NULL,
			end_date TEXT NOT NULL,
			item_id INTEGER NOT NULL,
			booker_id INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'WAITING',
			version INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS comments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			text TEXT NOT NULL,
			item_id INTEGER NOT NULL,
			author_id INTEGER NOT NULL,
			created TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_items_owner_id ON items(owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_booker_id ON bookings(booker_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_item_id ON bookings(item_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_start_date ON bookings(start_date)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_end_date ON bookings(end_date)`,
		`CREATE INDEX IF NOT EXISTS idx_comments_item_id ON comments(item_id)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// Ready reports whether the database answers queries.
func (db *DB) Ready(ctx context.Context) error {
	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse stored time %q: %w", s, err)
	}
	return t, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
