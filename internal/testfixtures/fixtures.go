package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/hotel-reservations/internal/application"
	"github.com/example/hotel-reservations/internal/persistence"
)

var (
	userCounter        uint64
	reservationCounter uint64
	sessionCounter     uint64
)

var referenceTime = time.Date(2030, time.June, 10, 9, 30, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceDate returns ReferenceTime truncated to its civil date.
func ReferenceDate() time.Time {
	y, m, d := referenceTime.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date is shorthand for a UTC civil date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// SeededRooms lists the rooms inserted by the schema migrations.
func SeededRooms() []persistence.Room {
	return []persistence.Room{
		{ID: "101", Type: "Single", Price: 8900, Capacity: 1},
		{ID: "102", Type: "Double", Price: 12900, Capacity: 2},
		{ID: "201", Type: "Twin", Price: 13900, Capacity: 2},
		{ID: "202", Type: "Family", Price: 18900, Capacity: 4},
		{ID: "301", Type: "Suite", Price: 29900, Capacity: 4},
	}
}

// ----------------------------- User fixtures -----------------------------

// UserFixture represents a deterministic user record that can be materialised
// for application or persistence tests.
type UserFixture struct {
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

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic user fixture with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	username := fmt.Sprintf("guest%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := UserFixture{
		ID:                 fmt.Sprintf("user-%03d", idx),
		FirstName:          "Guest",
		LastName:           fmt.Sprintf("Number %d", idx),
		Email:              username + "@example.com",
		PhoneNumber:        "+44 20 7946 0000",
		Nationality:        "GB",
		Username:           username,
		PasswordHash:       "hash-" + username,
		SecurityQuestion:   "Name of your first pet?",
		SecurityAnswerHash: "answer-hash-" + username,
		CreatedAt:          created,
		UpdatedAt:          created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) {
		f.ID = id
	}
}

// WithUsername overrides the username and derives a matching email address.
func WithUsername(username string) UserOption {
	return func(f *UserFixture) {
		f.Username = username
		f.Email = username + "@example.com"
	}
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) {
		f.Email = email
	}
}

// WithUserPasswordHash overrides the generated password hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(f *UserFixture) {
		f.PasswordHash = hash
	}
}

// WithUserSecurity sets the security question and the stored answer hash.
func WithUserSecurity(question, answerHash string) UserOption {
	return func(f *UserFixture) {
		f.SecurityQuestion = question
		f.SecurityAnswerHash = answerHash
	}
}

// WithUserAdmin sets the admin flag on the generated fixture.
func WithUserAdmin(isAdmin bool) UserOption {
	return func(f *UserFixture) {
		f.IsAdmin = isAdmin
	}
}

// Application returns the fixture as an application.User value.
func (f UserFixture) Application() application.User {
	return application.User{
		ID:          f.ID,
		FirstName:   f.FirstName,
		LastName:    f.LastName,
		Email:       f.Email,
		PhoneNumber: f.PhoneNumber,
		Nationality: f.Nationality,
		Username:    f.Username,
		IsAdmin:     f.IsAdmin,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Credentials returns the fixture as application.UserCredentials.
func (f UserFixture) Credentials() application.UserCredentials {
	return application.UserCredentials{
		User:               f.Application(),
		PasswordHash:       f.PasswordHash,
		SecurityQuestion:   f.SecurityQuestion,
		SecurityAnswerHash: f.SecurityAnswerHash,
	}
}

// Principal returns an application.Principal derived from the fixture.
func (f UserFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID, Username: f.Username, IsAdmin: f.IsAdmin}
}

// Persistence returns the fixture as a persistence.User value.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:                 f.ID,
		FirstName:          f.FirstName,
		LastName:           f.LastName,
		Email:              f.Email,
		PhoneNumber:        f.PhoneNumber,
		Nationality:        f.Nationality,
		Username:           f.Username,
		PasswordHash:       f.PasswordHash,
		SecurityQuestion:   f.SecurityQuestion,
		SecurityAnswerHash: f.SecurityAnswerHash,
		IsAdmin:            f.IsAdmin,
		CreatedAt:          f.CreatedAt,
		UpdatedAt:          f.UpdatedAt,
	}
}

// -------------------------- Reservation fixtures --------------------------

// ReservationFixture represents a deterministic reservation record.
type ReservationFixture struct {
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

// ReservationOption configures the generated reservation fixture.
type ReservationOption func(*ReservationFixture)

// NewReservationFixture returns a two-night stay in room 101 starting a week
// after ReferenceDate, with optional overrides.
func NewReservationFixture(opts ...ReservationOption) ReservationFixture {
	idx := atomic.AddUint64(&reservationCounter, 1)
	start := ReferenceDate().AddDate(0, 0, 7)
	fixture := ReservationFixture{
		ID:        fmt.Sprintf("reservation-%03d", idx),
		Name:      fmt.Sprintf("Guest %03d", idx),
		RoomID:    "101",
		Guests:    1,
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 2),
		UserID:    "user-001",
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithReservationID overrides the reservation ID.
func WithReservationID(id string) ReservationOption {
	return func(f *ReservationFixture) {
		f.ID = id
	}
}

// WithReservationRoom overrides the room.
func WithReservationRoom(roomID string) ReservationOption {
	return func(f *ReservationFixture) {
		f.RoomID = roomID
	}
}

// WithReservationOwner sets the owning user.
func WithReservationOwner(userID string) ReservationOption {
	return func(f *ReservationFixture) {
		f.UserID = userID
	}
}

// WithReservationGuests overrides the guest count.
func WithReservationGuests(guests int) ReservationOption {
	return func(f *ReservationFixture) {
		f.Guests = guests
	}
}

// WithReservationDates sets the half-open stay.
func WithReservationDates(start, end time.Time) ReservationOption {
	return func(f *ReservationFixture) {
		f.StartDate = start
		f.EndDate = end
	}
}

// Application returns the fixture as an application.Reservation value.
func (f ReservationFixture) Application() application.Reservation {
	return application.Reservation{
		ID:        f.ID,
		Name:      f.Name,
		RoomID:    f.RoomID,
		Guests:    f.Guests,
		StartDate: f.StartDate,
		EndDate:   f.EndDate,
		UserID:    f.UserID,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Reservation value.
func (f ReservationFixture) Persistence() persistence.Reservation {
	return persistence.Reservation{
		ID:        f.ID,
		Name:      f.Name,
		RoomID:    f.RoomID,
		Guests:    f.Guests,
		StartDate: f.StartDate,
		EndDate:   f.EndDate,
		UserID:    f.UserID,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Input returns the fixture as the raw form values a user would submit.
func (f ReservationFixture) Input() application.ReservationInput {
	return application.ReservationInput{
		Name:      f.Name,
		RoomID:    f.RoomID,
		Guests:    fmt.Sprint(f.Guests),
		StartDate: f.StartDate.Format("2006-01-02"),
		EndDate:   f.EndDate.Format("2006-01-02"),
	}
}

// ---------------------------- Session fixtures ----------------------------

// SessionFixture represents a deterministic session record.
type SessionFixture struct {
	ID          string
	UserID      string
	Token       string
	Fingerprint string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	RevokedAt   *time.Time
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a session valid for a day after ReferenceTime.
func NewSessionFixture(opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	fixture := SessionFixture{
		ID:          fmt.Sprintf("session-%03d", idx),
		UserID:      "user-001",
		Token:       fmt.Sprintf("token-%03d", idx),
		Fingerprint: "Mozilla/5.0",
		ExpiresAt:   referenceTime.Add(24 * time.Hour),
		CreatedAt:   referenceTime,
		UpdatedAt:   referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionUser sets the owning user.
func WithSessionUser(userID string) SessionOption {
	return func(f *SessionFixture) {
		f.UserID = userID
	}
}

// WithSessionToken overrides the token.
func WithSessionToken(token string) SessionOption {
	return func(f *SessionFixture) {
		f.Token = token
	}
}

// WithSessionExpiry overrides the expiry.
func WithSessionExpiry(expiresAt time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.ExpiresAt = expiresAt
	}
}

// WithSessionRevokedAt marks the session revoked.
func WithSessionRevokedAt(revokedAt time.Time) SessionOption {
	return func(f *SessionFixture) {
		value := revokedAt
		f.RevokedAt = &value
	}
}

// Application returns the fixture as an application.Session value.
func (f SessionFixture) Application() application.Session {
	return application.Session{
		ID:          f.ID,
		UserID:      f.UserID,
		Token:       f.Token,
		Fingerprint: f.Fingerprint,
		ExpiresAt:   f.ExpiresAt,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
		RevokedAt:   copyTimePtr(f.RevokedAt),
	}
}

// Persistence returns the fixture as a persistence.Session value.
func (f SessionFixture) Persistence() persistence.Session {
	return persistence.Session{
		ID:          f.ID,
		UserID:      f.UserID,
		Token:       f.Token,
		Fingerprint: f.Fingerprint,
		ExpiresAt:   f.ExpiresAt,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
		RevokedAt:   copyTimePtr(f.RevokedAt),
	}
}

func copyTimePtr(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}
