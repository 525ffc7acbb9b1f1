package application

import "time"

// Principal represents the caller of a service method. The zero value is an
// anonymous visitor.
type Principal struct {
	UserID   string
	Username string
	IsAdmin  bool
}

// Authenticated reports whether the principal belongs to a signed-in user.
func (p Principal) Authenticated() bool {
	return p.UserID != ""
}

// Room represents a catalog entry. Price is in minor currency units.
type Room struct {
	ID       string
	Type     string
	Price    int64
	Capacity int
}

// User represents a guest or administrator account exposed by the services.
type User struct {
	ID          string
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	Nationality string
	Username    string
	IsAdmin     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UserCredentials models the authentication attributes persisted for a user.
type UserCredentials struct {
	User               User
	PasswordHash       string
	SecurityQuestion   string
	SecurityAnswerHash string
}

// Reservation is a booking of a room over the half-open range [StartDate, EndDate).
type Reservation struct {
	ID            string
	Name          string
	RoomID        string
	RoomType      string
	Guests        int
	StartDate     time.Time
	EndDate       time.Time
	UserID        string
	OwnerUsername string
	OwnerEmail    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Nights returns the number of nights covered by the reservation.
func (r Reservation) Nights() int {
	return int(r.EndDate.Sub(r.StartDate).Hours() / 24)
}

// ReservationInput carries the raw form values for a reservation. Dates use
// the YYYY-MM-DD layout.
type ReservationInput struct {
	Name      string
	RoomID    string
	Guests    string
	StartDate string
	EndDate   string
}

// CreateReservationParams wraps the data required to create a reservation.
type CreateReservationParams struct {
	Principal Principal
	Input     ReservationInput
}

// UpdateReservationParams wraps the data required to update a reservation.
type UpdateReservationParams struct {
	Principal     Principal
	ReservationID string
	Input         ReservationInput
}

// UserDetail bundles a user with their reservations for the admin view.
type UserDetail struct {
	User         User
	Reservations []Reservation
}

// SignUpInput carries the registration form.
type SignUpInput struct {
	FirstName            string
	LastName             string
	Email                string
	PhoneNumber          string
	Nationality          string
	Username             string
	Password             string
	PasswordConfirmation string
	SecurityQuestion     string
	SecurityAnswer       string
}

// ResetPasswordInput carries the forgot-password form.
type ResetPasswordInput struct {
	Identifier           string
	SecurityQuestion     string
	SecurityAnswer       string
	NewPassword          string
	PasswordConfirmation string
}

// Session represents an authenticated session issued to a user.
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

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Identifier  string
	Password    string
	Fingerprint string
}

// AuthenticateResult captures the outcome of a successful authentication attempt.
type AuthenticateResult struct {
	User    User
	Session Session
}
