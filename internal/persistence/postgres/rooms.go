package postgres

import (
	"context"

	"github.com/example/hotel-reservations/internal/persistence"
)

// ListRooms returns the room catalog ordered by price and type.
func (s *Store) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, type, price, capacity FROM rooms ORDER BY price, type, id`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var rooms []persistence.Room
	for rows.Next() {
		var room persistence.Room
		if err := rows.Scan(&room.ID, &room.Type, &room.Price, &room.Capacity); err != nil {
			return nil, mapError(err)
		}
		rooms = append(rooms, room)
	}
	return rooms, mapError(rows.Err())
}

// GetRoom retrieves a room by ID.
func (s *Store) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	if id == "" {
		return persistence.Room{}, persistence.ErrNotFound
	}
	var room persistence.Room
	err := s.pool.QueryRow(ctx, `SELECT id, type, price, capacity FROM rooms WHERE id = $1`, id).
		Scan(&room.ID, &room.Type, &room.Price, &room.Capacity)
	if err != nil {
		return persistence.Room{}, mapError(err)
	}
	return room, nil
}
