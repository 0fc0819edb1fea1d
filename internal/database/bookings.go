package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"shareit/internal/models"
)

const bookingColumns = `b.id, b.start_date, b.end_date, b.item_id, b.booker_id, b.status, b.version`

func scanBooking(row rowScanner, extra ...interface{}) (*models.Booking, error) {
	var (
		b          models.Booking
		start, end string
	)
	dest := append([]interface{}{&b.ID, &start, &end, &b.ItemID, &b.BookerID, &b.Status, &b.Version}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	var err error
	if b.Start, err = parseTime(start); err != nil {
		return nil, err
	}
	if b.End, err = parseTime(end); err != nil {
		return nil, err
	}
	return &b, nil
}

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	query := `INSERT INTO bookings (start_date, end_date, item_id, booker_id, status, version)
			VALUES (?, ?, ?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query,
		formatTime(booking.Start),
		formatTime(booking.End),
		booking.ItemID,
		booking.BookerID,
		booking.Status,
		1,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.ID = id
	booking.Version = 1
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	row := db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings b WHERE b.id = ?`, id)
	booking, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

// DecideBooking writes status only while the booking is still WAITING.
// A missing booking yields ErrNotFound, an already decided one
// ErrConcurrentModification.
func (db *DB) DecideBooking(ctx context.Context, id int64, status models.BookingStatus) error {
	query := `UPDATE bookings SET status = ?, version = version + 1 WHERE id = ? AND status = ?`
	result, err := db.ExecContext(ctx, query, status, id, models.StatusWaiting)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}

	var exists int
	err = db.QueryRowContext(ctx, `SELECT 1 FROM bookings WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check booking: %w", err)
	}
	return ErrConcurrentModification
}

// ListBookings returns bookings matching filter, newest start first, joined
// with item and booker. References that no longer resolve come back nil.
func (db *DB) ListBookings(ctx context.Context, filter models.BookingFilter, page models.Page) ([]*models.BookingRow, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.BookerID != 0 {
		conds = append(conds, "b.booker_id = ?")
		args = append(args, filter.BookerID)
	}
	if filter.OwnerID != 0 {
		conds = append(conds, "i.owner_id = ?")
		args = append(args, filter.OwnerID)
	}
	if filter.ItemID != 0 {
		conds = append(conds, "b.item_id = ?")
		args = append(args, filter.ItemID)
	}
	if filter.Status != "" {
		conds = append(conds, "b.status = ?")
		args = append(args, filter.Status)
	}
	if filter.StartBefore != nil {
		conds = append(conds, "b.start_date < ?")
		args = append(args, formatTime(*filter.StartBefore))
	}
	if filter.StartAfter != nil {
		conds = append(conds, "b.start_date > ?")
		args = append(args, formatTime(*filter.StartAfter))
	}
	if filter.EndBefore != nil {
		conds = append(conds, "b.end_date < ?")
		args = append(args, formatTime(*filter.EndBefore))
	}
	if filter.EndAfter != nil {
		conds = append(conds, "b.end_date > ?")
		args = append(args, formatTime(*filter.EndAfter))
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + bookingColumns + `, i.id, i.name, i.owner_id, u.id, u.name
		FROM bookings b
		LEFT JOIN items i ON i.id = b.item_id
		LEFT JOIN users u ON u.id = b.booker_id`)
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	sb.WriteString(" ORDER BY b.start_date DESC, b.id DESC LIMIT ? OFFSET ?")
	args = append(args, page.Limit, page.Offset)

	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	result := []*models.BookingRow{}
	for rows.Next() {
		var (
			itemID, ownerID, userID sql.NullInt64
			itemName, userName      sql.NullString
		)
		b, err := scanBooking(rows, &itemID, &itemName, &ownerID, &userID, &userName)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}

		row := &models.BookingRow{Booking: *b}
		if itemID.Valid {
			row.Item = &models.ItemRef{ID: itemID.Int64, Name: itemName.String, OwnerID: ownerID.Int64}
		}
		if userID.Valid {
			row.Booker = &models.UserRef{ID: userID.Int64, Name: userName.String}
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return result, nil
}

// GetLastBooking returns the booking on the item with the latest end
// strictly before now, or nil.
func (db *DB) GetLastBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b
		WHERE b.item_id = ? AND b.end_date < ?
		ORDER BY b.end_date DESC, b.id DESC LIMIT 1`
	return db.optionalBooking(ctx, query, itemID, formatTime(now))
}

// GetNextBooking returns the booking on the item with the earliest start
// strictly after now, or nil.
func (db *DB) GetNextBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b
		WHERE b.item_id = ? AND b.start_date > ?
		ORDER BY b.start_date ASC, b.id ASC LIMIT 1`
	return db.optionalBooking(ctx, query, itemID, formatTime(now))
}

func (db *DB) optionalBooking(ctx context.Context, query string, args ...interface{}) (*models.Booking, error) {
	booking, err := scanBooking(db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

// HasFinishedBooking reports whether bookerID has any booking of itemID
// that ended before now, whatever its status.
func (db *DB) HasFinishedBooking(ctx context.Context, bookerID, itemID int64, now time.Time) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM bookings WHERE booker_id = ? AND item_id = ? AND end_date < ?)`
	var exists bool
	if err := db.QueryRowContext(ctx, query, bookerID, itemID, formatTime(now)).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check finished booking: %w", err)
	}
	return exists, nil
}
