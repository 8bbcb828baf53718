package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rl1809/accommodator/internal/core/domain"
	"github.com/rl1809/accommodator/internal/port"
)

//go:embed schema.sql
var schemaSQL string

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// Migrate creates the tables if they are missing.
func (m *MySQLAdapter) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// SeedUnits upserts units by ID.
func (m *MySQLAdapter) SeedUnits(ctx context.Context, units []domain.Unit) error {
	for _, u := range units {
		_, err := m.db.ExecContext(ctx, `
			INSERT INTO units (id, name, location, price_per_night, capacity)
			VALUES (?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE name = VALUES(name), location = VALUES(location),
				price_per_night = VALUES(price_per_night), capacity = VALUES(capacity)`,
			u.ID, u.Name, u.Location, u.PricePerNight, u.Capacity,
		)
		if err != nil {
			return fmt.Errorf("seed unit %d: %w", u.ID, err)
		}
	}
	return nil
}

func (m *MySQLAdapter) ListAvailable(ctx context.Context) ([]domain.Unit, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, name, location, price_per_night, capacity
		FROM units WHERE capacity > 0 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query units: %w", err)
	}
	defer rows.Close()

	var out []domain.Unit
	for rows.Next() {
		var u domain.Unit
		if err := rows.Scan(&u.ID, &u.Name, &u.Location, &u.PricePerNight, &u.Capacity); err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (m *MySQLAdapter) GetUnit(ctx context.Context, id int64) (*domain.Unit, error) {
	var u domain.Unit
	err := m.db.QueryRowContext(ctx, `
		SELECT id, name, location, price_per_night, capacity
		FROM units WHERE id = ?`, id,
	).Scan(&u.ID, &u.Name, &u.Location, &u.PricePerNight, &u.Capacity)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query unit: %w", err)
	}
	return &u, nil
}

func (m *MySQLAdapter) FindOverlapping(ctx context.Context, unitID int64, dates domain.DateRange) ([]domain.Reservation, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, unit_id, user_id, start_date, end_date, created_at
		FROM reservations
		WHERE unit_id = ? AND start_date <= ? AND end_date >= ?
		ORDER BY start_date`,
		unitID, dates.End.String(), dates.Start.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("query reservations: %w", err)
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Commit locks the unit row, re-checks capacity and overlap, then inserts the
// reservation and decrements capacity in one transaction.
func (m *MySQLAdapter) Commit(ctx context.Context, reservation domain.Reservation) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var capacity int
	err = tx.QueryRowContext(ctx, `SELECT capacity FROM units WHERE id = ? FOR UPDATE`, reservation.UnitID).Scan(&capacity)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("lock unit %d: not found", reservation.UnitID)
	}
	if err != nil {
		return fmt.Errorf("lock unit: %w", err)
	}
	if capacity <= 0 {
		return port.ErrReservationConflict
	}

	var conflicts int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM reservations
		WHERE unit_id = ? AND start_date <= ? AND end_date >= ?`,
		reservation.UnitID, reservation.Dates.End.String(), reservation.Dates.Start.String(),
	).Scan(&conflicts)
	if err != nil {
		return fmt.Errorf("count overlapping: %w", err)
	}
	if conflicts > 0 {
		return port.ErrReservationConflict
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reservations (id, unit_id, user_id, start_date, end_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		reservation.ID, reservation.UnitID, reservation.UserID,
		reservation.Dates.Start.String(), reservation.Dates.End.String(), reservation.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE units SET capacity = capacity - 1
		WHERE id = ? AND capacity > 0`,
		reservation.UnitID,
	)
	if err != nil {
		return fmt.Errorf("update capacity: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return port.ErrReservationConflict
	}

	return tx.Commit()
}

func (m *MySQLAdapter) ListByUser(ctx context.Context, userID int64) ([]domain.ReservationView, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT r.id, r.unit_id, r.user_id, r.start_date, r.end_date, r.created_at, COALESCE(u.name, '')
		FROM reservations r LEFT JOIN units u ON u.id = r.unit_id
		WHERE r.user_id = ?
		ORDER BY r.start_date`, userID)
	if err != nil {
		return nil, fmt.Errorf("query reservations: %w", err)
	}
	defer rows.Close()

	var out []domain.ReservationView
	for rows.Next() {
		var v domain.ReservationView
		var start, end time.Time
		if err := rows.Scan(&v.ID, &v.UnitID, &v.UserID, &start, &end, &v.CreatedAt, &v.UnitName); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		v.Dates = domain.DateRange{Start: domain.DateOf(start), End: domain.DateOf(end)}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (m *MySQLAdapter) GetByPlatformID(ctx context.Context, platformID int64) (*domain.User, error) {
	var u domain.User
	err := m.db.QueryRowContext(ctx, `
		SELECT id, platform_id, first_name, last_name, username, created_at
		FROM users WHERE platform_id = ?`, platformID,
	).Scan(&u.ID, &u.PlatformID, &u.FirstName, &u.LastName, &u.Username, &u.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}

func (m *MySQLAdapter) CreateUser(ctx context.Context, user domain.User) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO users (platform_id, first_name, last_name, username, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		user.PlatformID, user.FirstName, user.LastName, user.Username, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func scanReservation(rows *sql.Rows) (domain.Reservation, error) {
	var r domain.Reservation
	var start, end time.Time
	if err := rows.Scan(&r.ID, &r.UnitID, &r.UserID, &start, &end, &r.CreatedAt); err != nil {
		return domain.Reservation{}, fmt.Errorf("scan reservation: %w", err)
	}
	r.Dates = domain.DateRange{Start: domain.DateOf(start), End: domain.DateOf(end)}
	return r, nil
}
