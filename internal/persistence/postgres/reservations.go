package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/example/hotel-reservations/internal/persistence"
)

const reservationColumns = `r.id, r.name, r.room_id, r.guests, r.start_date, r.end_date, r.user_id, r.created_at, r.updated_at`

// CreateReservation locks the room row, runs guard against the room's
// reservations and inserts on success. Concurrent writers for the same room
// queue on the row lock; the exclusion constraint rejects anything that
// slips past the guard with persistence.ErrOverlap.
func (s *Store) CreateReservation(ctx context.Context, reservation persistence.Reservation, guard persistence.OverlapGuard) error {
	if reservation.ID == "" || reservation.RoomID == "" || reservation.UserID == "" {
		return persistence.ErrConstraintViolation
	}
	if reservation.CreatedAt.IsZero() {
		reservation.CreatedAt = time.Now().UTC()
	}
	if reservation.UpdatedAt.IsZero() {
		reservation.UpdatedAt = reservation.CreatedAt
	}

	return s.withTx(ctx, func(tx pgx.Tx) error {
		if err := lockRoom(ctx, tx, reservation.RoomID); err != nil {
			return err
		}
		if err := runGuard(ctx, tx, reservation.RoomID, "", guard); err != nil {
			return err
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO reservations (id, name, room_id, guests, start_date, end_date, user_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
			reservation.ID,
			reservation.Name,
			reservation.RoomID,
			reservation.Guests,
			civilDate(reservation.StartDate),
			civilDate(reservation.EndDate),
			reservation.UserID,
			reservation.CreatedAt.UTC(),
			reservation.UpdatedAt.UTC(),
		)
		return mapError(err)
	})
}

// UpdateReservation locks the target room, runs guard against the room's
// other reservations and updates on success. The owner is never changed.
func (s *Store) UpdateReservation(ctx context.Context, reservation persistence.Reservation, guard persistence.OverlapGuard) error {
	if reservation.ID == "" || reservation.RoomID == "" {
		return persistence.ErrConstraintViolation
	}
	if reservation.UpdatedAt.IsZero() {
		reservation.UpdatedAt = time.Now().UTC()
	}

	return s.withTx(ctx, func(tx pgx.Tx) error {
		var exists int
		if err := tx.QueryRow(ctx, `SELECT 1 FROM reservations WHERE id = $1 FOR UPDATE`, reservation.ID).Scan(&exists); err != nil {
			return mapError(err)
		}
		if err := lockRoom(ctx, tx, reservation.RoomID); err != nil {
			return err
		}
		if err := runGuard(ctx, tx, reservation.RoomID, reservation.ID, guard); err != nil {
			return err
		}

		_, err := tx.Exec(ctx, `
			UPDATE reservations
			SET name = $1, room_id = $2, guests = $3, start_date = $4, end_date = $5, updated_at = $6
			WHERE id = $7
		`,
			reservation.Name,
			reservation.RoomID,
			reservation.Guests,
			civilDate(reservation.StartDate),
			civilDate(reservation.EndDate),
			reservation.UpdatedAt.UTC(),
			reservation.ID,
		)
		return mapError(err)
	})
}

// DeleteReservation removes a reservation, returning persistence.ErrNotFound when absent.
func (s *Store) DeleteReservation(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetReservation retrieves a reservation by ID.
func (s *Store) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	if id == "" {
		return persistence.Reservation{}, persistence.ErrNotFound
	}
	var reservation persistence.Reservation
	row := s.pool.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations r WHERE r.id = $1`, id)
	if err := scanReservation(row, &reservation); err != nil {
		return persistence.Reservation{}, err
	}
	return reservation, nil
}

// ListReservationsForUser returns the user's reservations ordered by start date.
func (s *Store) ListReservationsForUser(ctx context.Context, userID string) ([]persistence.ReservationWithOwner, error) {
	return s.listWithOwner(ctx, `WHERE r.user_id = $1`, userID)
}

// ListReservationsWithOwner returns every reservation joined with room type and owner.
func (s *Store) ListReservationsWithOwner(ctx context.Context) ([]persistence.ReservationWithOwner, error) {
	return s.listWithOwner(ctx, "")
}

func (s *Store) listWithOwner(ctx context.Context, where string, args ...any) ([]persistence.ReservationWithOwner, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+reservationColumns+`, rm.type, u.username, u.email
		FROM reservations r
		JOIN rooms rm ON rm.id = r.room_id
		JOIN users u ON u.id = r.user_id
		`+where+`
		ORDER BY r.start_date, r.room_id, r.id
	`, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []persistence.ReservationWithOwner
	for rows.Next() {
		var item persistence.ReservationWithOwner
		if err := scanReservation(rows, &item.Reservation, &item.RoomType, &item.OwnerUsername, &item.OwnerEmail); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, mapError(rows.Err())
}

func lockRoom(ctx context.Context, tx pgx.Tx, roomID string) error {
	var id string
	err := tx.QueryRow(ctx, `SELECT id FROM rooms WHERE id = $1 FOR UPDATE`, roomID).Scan(&id)
	if err != nil {
		if isNoRows(err) {
			return persistence.ErrForeignKeyViolation
		}
		return mapError(err)
	}
	return nil
}

func runGuard(ctx context.Context, tx pgx.Tx, roomID, excludeID string, guard persistence.OverlapGuard) error {
	if guard == nil {
		return nil
	}

	rows, err := tx.Query(ctx,
		`SELECT `+reservationColumns+` FROM reservations r WHERE r.room_id = $1 AND r.id <> $2 ORDER BY r.start_date`,
		roomID, excludeID,
	)
	if err != nil {
		return mapError(err)
	}

	var existing []persistence.Reservation
	for rows.Next() {
		var reservation persistence.Reservation
		if err := scanReservation(rows, &reservation); err != nil {
			rows.Close()
			return err
		}
		existing = append(existing, reservation)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return mapError(err)
	}

	return guard(existing)
}

func scanReservation(row pgx.Row, reservation *persistence.Reservation, extra ...any) error {
	dest := []any{
		&reservation.ID,
		&reservation.Name,
		&reservation.RoomID,
		&reservation.Guests,
		&reservation.StartDate,
		&reservation.EndDate,
		&reservation.UserID,
		&reservation.CreatedAt,
		&reservation.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		if isNoRows(err) {
			return persistence.ErrNotFound
		}
		return fmt.Errorf("scan reservation: %w", mapError(err))
	}
	reservation.StartDate = civilDate(reservation.StartDate)
	reservation.EndDate = civilDate(reservation.EndDate)
	reservation.CreatedAt = reservation.CreatedAt.UTC()
	reservation.UpdatedAt = reservation.UpdatedAt.UTC()
	return nil
}

// civilDate keeps the calendar date of t and drops the clock and zone.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
