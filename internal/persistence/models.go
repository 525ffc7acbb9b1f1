package persistence

import "time"

// Room represents a bookable hotel room. Price is stored in minor currency units.
type Room struct {
	ID       string
	Type     string
	Price    int64
	Capacity int
}

// User represents a guest account or an administrator.
type User struct {
	ID                 string
	FirstName          string
	LastName           string
	Email              string
	PhoneNumber        string
	Nationality        string
	Username           string
	PasswordHash       string
	SecurityQuestion   string
	SecurityAnswerHash string
	IsAdmin            bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Reservation represents a half-open [StartDate, EndDate) booking of a room.
type Reservation struct {
	ID        string
	Name      string
	RoomID    string
	Guests    int
	StartDate time.Time
	EndDate   time.Time
	UserID    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReservationWithOwner joins a reservation with its room type and owning user.
type ReservationWithOwner struct {
	Reservation
	RoomType      string
	OwnerUsername string
	OwnerEmail    string
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID          string
	UserID      string
	Token       string
	Fingerprint string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	RevokedAt   *time.Time
}
