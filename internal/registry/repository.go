package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Repository defines the persistence operations for registrations.
type Repository interface {
	// List returns all registrations, newest first.
	List(ctx context.Context) ([]Registration, error)

	// GetByID returns ErrEntryNotFound when id is unknown.
	GetByID(ctx context.Context, id string) (Registration, error)

	// Create returns ErrEntryExists when the device id is taken.
	Create(ctx context.Context, r Registration) error

	// Update stores Name, Details and UpdatedAt of r.
	Update(ctx context.Context, r Registration) error

	// Delete removes the registration with id, or returns ErrEntryNotFound.
	Delete(ctx context.Context, id string) error

	// DeleteByDeviceID removes registrations whose device id matches
	// exactly and returns how many were removed.
	DeleteByDeviceID(ctx context.Context, deviceID string) (int64, error)
}

// SQLiteRepository implements Repository on the bin_registry table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite registry repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectColumns = `SELECT id, device_id, name, details, created_at, updated_at FROM bin_registry`

// List returns registrations ordered by created_at, newest first.
func (r *SQLiteRepository) List(ctx context.Context) ([]Registration, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying registrations: %w", err)
	}
	defer rows.Close()

	var regs []Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating registrations: %w", err)
	}
	return regs, nil
}

// GetByID loads a single registration.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (Registration, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	return scanRegistration(row)
}

// Create inserts a registration.
func (r *SQLiteRepository) Create(ctx context.Context, reg Registration) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bin_registry (id, device_id, name, details, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		reg.ID,
		reg.DeviceID,
		reg.Name,
		reg.Details,
		reg.CreatedAt.UTC().Format(timeLayout),
		reg.UpdatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEntryExists
		}
		return fmt.Errorf("inserting registration: %w", err)
	}
	return nil
}

// Update writes the editable fields of reg.
func (r *SQLiteRepository) Update(ctx context.Context, reg Registration) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bin_registry SET name = ?, details = ?, updated_at = ? WHERE id = ?`,
		reg.Name,
		reg.Details,
		reg.UpdatedAt.UTC().Format(timeLayout),
		reg.ID,
	)
	if err != nil {
		return fmt.Errorf("updating registration: %w", err)
	}
	return requireAffected(res)
}

// Delete removes a registration by id.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bin_registry WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting registration: %w", err)
	}
	return requireAffected(res)
}

// DeleteByDeviceID removes registrations for deviceID. The match is exact,
// so a registration differing only in case survives.
func (r *SQLiteRepository) DeleteByDeviceID(ctx context.Context, deviceID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM bin_registry WHERE device_id = ?`, deviceID)
	if err != nil {
		return 0, fmt.Errorf("deleting registrations by device: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted registrations: %w", err)
	}
	return n, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return ErrEntryNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegistration(row rowScanner) (Registration, error) {
	var reg Registration
	var createdAt, updatedAt string
	if err := row.Scan(&reg.ID, &reg.DeviceID, &reg.Name, &reg.Details, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Registration{}, ErrEntryNotFound
		}
		return Registration{}, fmt.Errorf("scanning registration: %w", err)
	}

	var err error
	if reg.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return Registration{}, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
	}
	if reg.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return Registration{}, fmt.Errorf("parsing updated_at %q: %w", updatedAt, err)
	}
	return reg, nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
