package persistence

import (
	"context"
	"time"
)

// RoomRepository exposes read access to the room catalog.
type RoomRepository interface {
	ListRooms(ctx context.Context) ([]Room, error)
	GetRoom(ctx context.Context, id string) (Room, error)
}

// UserRepository stores user accounts and their credentials.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	// GetUserByIdentifier matches either the username or the email address.
	GetUserByIdentifier(ctx context.Context, identifier string) (User, error)
	UpdatePasswordHash(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
	ListUsers(ctx context.Context) ([]User, error)
}

// OverlapGuard inspects the reservations currently held for a room and returns
// an error to abort the surrounding write.
type OverlapGuard func(existing []Reservation) error

// ReservationRepository stores reservations. Create and update run the guard
// and the write inside one transaction that is serialised per room.
type ReservationRepository interface {
	CreateReservation(ctx context.Context, reservation Reservation, guard OverlapGuard) error
	UpdateReservation(ctx context.Context, reservation Reservation, guard OverlapGuard) error
	DeleteReservation(ctx context.Context, id string) error
	GetReservation(ctx context.Context, id string) (Reservation, error)
	ListReservationsForUser(ctx context.Context, userID string) ([]ReservationWithOwner, error)
	ListReservationsWithOwner(ctx context.Context) ([]ReservationWithOwner, error)
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	RevokeUserSessions(ctx context.Context, userID string, revokedAt time.Time) error
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// Store bundles every repository a backend provides together with its lifecycle.
type Store interface {
	RoomRepository
	UserRepository
	ReservationRepository
	SessionRepository
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
