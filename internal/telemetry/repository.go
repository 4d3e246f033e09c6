package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// timeLayout is fixed-width so lexical order in SQLite matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Repository defines the persistence operations for readings.
type Repository interface {
	// Append stores r and sets its ID.
	Append(ctx context.Context, r *Reading) error

	// Latest returns the newest reading, optionally for one device.
	// Returns ErrNoReadings when nothing matches.
	Latest(ctx context.Context, deviceID string) (Reading, error)

	// Recent returns up to limit readings newest first, optionally for one device.
	Recent(ctx context.Context, deviceID string, limit int) ([]Reading, error)

	// DeviceIDs returns every distinct device id that has readings, ascending.
	DeviceIDs(ctx context.Context) ([]string, error)

	// DeleteByDevice removes every reading whose device id matches
	// case-insensitively, returning the number removed.
	DeleteByDevice(ctx context.Context, deviceID string) (int64, error)
}

// SQLiteRepository implements Repository on the bin_readings table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite reading repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Append inserts a reading. CreatedAt must be set by the caller.
func (r *SQLiteRepository) Append(ctx context.Context, reading *Reading) error {
	if !reading.Status.Valid() {
		return fmt.Errorf("inserting reading for %s: %w %q", reading.DeviceID, ErrInvalidStatus, reading.Status)
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO bin_readings (device_id, fill_percentage, status, created_at)
		 VALUES (?, ?, ?, ?)`,
		reading.DeviceID,
		reading.FillPercentage,
		string(reading.Status),
		reading.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting reading: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading insert id: %w", err)
	}
	reading.ID = id
	return nil
}

// Latest returns the newest reading. Ties on created_at go to the later insert.
func (r *SQLiteRepository) Latest(ctx context.Context, deviceID string) (Reading, error) {
	readings, err := r.Recent(ctx, deviceID, 1)
	if err != nil {
		return Reading{}, err
	}
	if len(readings) == 0 {
		return Reading{}, ErrNoReadings
	}
	return readings[0], nil
}

// Recent returns up to limit readings ordered by created_at then id, newest first.
func (r *SQLiteRepository) Recent(ctx context.Context, deviceID string, limit int) ([]Reading, error) {
	if limit <= 0 {
		limit = HistoryLimit
	}

	query := `SELECT id, device_id, fill_percentage, status, created_at FROM bin_readings`
	args := make([]any, 0, 2)
	if deviceID != "" {
		query += ` WHERE device_id = ?`
		args = append(args, deviceID)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying readings: %w", err)
	}
	defer rows.Close()

	readings := make([]Reading, 0, limit)
	for rows.Next() {
		reading, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		readings = append(readings, reading)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating readings: %w", err)
	}
	return readings, nil
}

// DeviceIDs returns distinct device ids in ascending order.
func (r *SQLiteRepository) DeviceIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT device_id FROM bin_readings ORDER BY device_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying device ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning device id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating device ids: %w", err)
	}
	return ids, nil
}

// DeleteByDevice removes all readings for deviceID, ignoring case.
func (r *SQLiteRepository) DeleteByDevice(ctx context.Context, deviceID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM bin_readings WHERE lower(device_id) = lower(?)`, deviceID)
	if err != nil {
		return 0, fmt.Errorf("deleting readings: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted readings: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanReading converts a snake_case row into a Reading.
func scanReading(row rowScanner) (Reading, error) {
	var (
		reading   Reading
		status    string
		createdAt string
	)
	if err := row.Scan(&reading.ID, &reading.DeviceID, &reading.FillPercentage, &status, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Reading{}, ErrNoReadings
		}
		return Reading{}, fmt.Errorf("scanning reading: %w", err)
	}
	reading.Status = Status(status)

	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		// Rows written by other tools may carry plain RFC 3339.
		t, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return Reading{}, fmt.Errorf("parsing reading timestamp %q: %w", createdAt, err)
		}
	}
	reading.CreatedAt = t.UTC()
	return reading, nil
}
