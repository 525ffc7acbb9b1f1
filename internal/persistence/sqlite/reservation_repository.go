package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/hotel-reservations/internal/persistence"
)

const reservationColumns = `r.id, r.name, r.room_id, r.guests, r.start_date, r.end_date, r.user_id, r.created_at, r.updated_at`

// ReservationRepository implements persistence.ReservationRepository using SQLite.
//
// Writes run inside a transaction that is opened with BEGIN IMMEDIATE (see
// migration.SQLiteConfig.ImmediateTransactions), so the overlap guard reads a
// snapshot no other writer can change before the insert or update commits.
type ReservationRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewReservationRepository creates a new SQLite reservation repository.
func NewReservationRepository(pool *ConnectionPool) *ReservationRepository {
	return &ReservationRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateReservation runs guard against the room's current reservations and inserts on success.
func (r *ReservationRepository) CreateReservation(ctx context.Context, reservation persistence.Reservation, guard persistence.OverlapGuard) error {
	if reservation.ID == "" || reservation.RoomID == "" || reservation.UserID == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	if reservation.CreatedAt.IsZero() {
		reservation.CreatedAt = now
	}
	if reservation.UpdatedAt.IsZero() {
		reservation.UpdatedAt = reservation.CreatedAt
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if err := r.runGuard(ctx, tx, reservation.RoomID, "", guard); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO reservations (id, name, room_id, guests, start_date, end_date, user_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			reservation.ID,
			reservation.Name,
			reservation.RoomID,
			reservation.Guests,
			formatDate(reservation.StartDate),
			formatDate(reservation.EndDate),
			reservation.UserID,
			formatTimestamp(reservation.CreatedAt),
			formatTimestamp(reservation.UpdatedAt),
		)
		return r.mapper.MapError(err)
	})
}

// UpdateReservation runs guard against the room's other reservations and updates on success.
// The owner and creation time are never changed.
func (r *ReservationRepository) UpdateReservation(ctx context.Context, reservation persistence.Reservation, guard persistence.OverlapGuard) error {
	if reservation.ID == "" || reservation.RoomID == "" {
		return persistence.ErrConstraintViolation
	}
	if reservation.UpdatedAt.IsZero() {
		reservation.UpdatedAt = time.Now().UTC()
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT 1 FROM reservations WHERE id = ?`, reservation.ID).Scan(&exists); err != nil {
			return r.mapper.MapError(err)
		}

		if err := r.runGuard(ctx, tx, reservation.RoomID, reservation.ID, guard); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `
			UPDATE reservations
			SET name = ?, room_id = ?, guests = ?, start_date = ?, end_date = ?, updated_at = ?
			WHERE id = ?
		`,
			reservation.Name,
			reservation.RoomID,
			reservation.Guests,
			formatDate(reservation.StartDate),
			formatDate(reservation.EndDate),
			formatTimestamp(reservation.UpdatedAt),
			reservation.ID,
		)
		return r.mapper.MapError(err)
	})
}

// DeleteReservation removes a reservation, returning persistence.ErrNotFound when absent.
func (r *ReservationRepository) DeleteReservation(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
		if err != nil {
			return r.mapper.MapError(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}
		return nil
	})
}

// GetReservation retrieves a reservation by ID.
func (r *ReservationRepository) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	if id == "" {
		return persistence.Reservation{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations r WHERE r.id = ?`, id)
	reservation, err := r.scanReservation(row)
	if err != nil {
		return persistence.Reservation{}, err
	}
	return reservation, nil
}

// ListReservationsForUser returns the user's reservations ordered by start date.
func (r *ReservationRepository) ListReservationsForUser(ctx context.Context, userID string) ([]persistence.ReservationWithOwner, error) {
	return r.listWithOwner(ctx, `WHERE r.user_id = ?`, userID)
}

// ListReservationsWithOwner returns every reservation joined with room type and owner.
func (r *ReservationRepository) ListReservationsWithOwner(ctx context.Context) ([]persistence.ReservationWithOwner, error) {
	return r.listWithOwner(ctx, "")
}

func (r *ReservationRepository) listWithOwner(ctx context.Context, where string, args ...any) ([]persistence.ReservationWithOwner, error) {
	query := `
		SELECT ` + reservationColumns + `, rm.type, u.username, u.email
		FROM reservations r
		JOIN rooms rm ON rm.id = r.room_id
		JOIN users u ON u.id = r.user_id
		` + where + `
		ORDER BY r.start_date, r.room_id, r.id
	`
	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var out []persistence.ReservationWithOwner
	for rows.Next() {
		var item persistence.ReservationWithOwner
		if err := r.scanInto(rows, &item.Reservation, &item.RoomType, &item.OwnerUsername, &item.OwnerEmail); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return out, nil
}

func (r *ReservationRepository) runGuard(ctx context.Context, tx *sql.Tx, roomID, excludeID string, guard persistence.OverlapGuard) error {
	if guard == nil {
		return nil
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations r WHERE r.room_id = ? AND r.id <> ? ORDER BY r.start_date`,
		roomID, excludeID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	defer rows.Close()

	var existing []persistence.Reservation
	for rows.Next() {
		reservation, err := r.scanReservation(rows)
		if err != nil {
			return err
		}
		existing = append(existing, reservation)
	}
	if err := rows.Err(); err != nil {
		return r.mapper.MapError(err)
	}

	return guard(existing)
}

func (r *ReservationRepository) scanReservation(row rowScanner) (persistence.Reservation, error) {
	var reservation persistence.Reservation
	if err := r.scanInto(row, &reservation); err != nil {
		return persistence.Reservation{}, err
	}
	return reservation, nil
}

func (r *ReservationRepository) scanInto(row rowScanner, reservation *persistence.Reservation, extra ...any) error {
	var startDate, endDate, createdAt, updatedAt string
	dest := []any{
		&reservation.ID,
		&reservation.Name,
		&reservation.RoomID,
		&reservation.Guests,
		&startDate,
		&endDate,
		&reservation.UserID,
		&createdAt,
		&updatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.ErrNotFound
		}
		return r.mapper.MapError(err)
	}

	var err error
	if reservation.StartDate, err = parseDate(startDate); err != nil {
		return fmt.Errorf("failed to parse start_date: %w", err)
	}
	if reservation.EndDate, err = parseDate(endDate); err != nil {
		return fmt.Errorf("failed to parse end_date: %w", err)
	}
	if reservation.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return fmt.Errorf("failed to parse created_at: %w", err)
	}
	if reservation.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return nil
}
