package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/hotel-reservations/internal/application"
	"github.com/example/hotel-reservations/internal/booking"
	"github.com/example/hotel-reservations/internal/persistence"
)

// translateError maps persistence sentinels onto the application error
// taxonomy. Validator rejections raised inside a guard pass through so the
// reservation service can describe them.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var rejection *booking.Rejection
	if errors.As(err, &rejection) {
		return err
	}
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return application.ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return application.ErrAlreadyExists
	case errors.Is(err, persistence.ErrUnavailable):
		return fmt.Errorf("%w: %v", application.ErrStorageUnavailable, err)
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		return &application.ValidationError{FieldErrors: map[string]string{"room_id": "room does not exist"}}
	case errors.Is(err, persistence.ErrConstraintViolation):
		return &application.ValidationError{FieldErrors: map[string]string{"form": "the submitted values were rejected"}}
	}
	return err
}

type credentialStoreAdapter struct {
	repo persistence.UserRepository
}

func newCredentialStoreAdapter(repo persistence.UserRepository) *credentialStoreAdapter {
	return &credentialStoreAdapter{repo: repo}
}

func (a *credentialStoreAdapter) GetUserCredentials(ctx context.Context, identifier string) (application.UserCredentials, error) {
	stored, err := a.repo.GetUserByIdentifier(ctx, identifier)
	if err != nil {
		return application.UserCredentials{}, translateError(err)
	}
	return toApplicationCredentials(stored), nil
}

func (a *credentialStoreAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, translateError(err)
	}
	return toApplicationUser(stored), nil
}

type userStoreAdapter struct {
	*credentialStoreAdapter
}

func newUserStoreAdapter(repo persistence.UserRepository) *userStoreAdapter {
	return &userStoreAdapter{credentialStoreAdapter: newCredentialStoreAdapter(repo)}
}

func (a *userStoreAdapter) CreateUser(ctx context.Context, creds application.UserCredentials) (application.User, error) {
	if err := a.repo.CreateUser(ctx, toPersistenceUser(creds)); err != nil {
		return application.User{}, translateError(err)
	}
	stored, err := a.repo.GetUser(ctx, creds.User.ID)
	if err != nil {
		return application.User{}, translateError(err)
	}
	return toApplicationUser(stored), nil
}

func (a *userStoreAdapter) UpdatePasswordHash(ctx context.Context, userID, passwordHash string, updatedAt time.Time) error {
	return translateError(a.repo.UpdatePasswordHash(ctx, userID, passwordHash, updatedAt))
}

func (a *userStoreAdapter) ListUsers(ctx context.Context) ([]application.User, error) {
	models, err := a.repo.ListUsers(ctx)
	if err != nil {
		return nil, translateError(err)
	}
	if len(models) == 0 {
		return nil, nil
	}
	users := make([]application.User, 0, len(models))
	for _, model := range models {
		users = append(users, toApplicationUser(model))
	}
	return users, nil
}

type roomRepositoryAdapter struct {
	repo persistence.RoomRepository
}

func newRoomRepositoryAdapter(repo persistence.RoomRepository) *roomRepositoryAdapter {
	return &roomRepositoryAdapter{repo: repo}
}

func (a *roomRepositoryAdapter) GetRoom(ctx context.Context, id string) (application.Room, error) {
	stored, err := a.repo.GetRoom(ctx, id)
	if err != nil {
		return application.Room{}, translateError(err)
	}
	return toApplicationRoom(stored), nil
}

func (a *roomRepositoryAdapter) ListRooms(ctx context.Context) ([]application.Room, error) {
	models, err := a.repo.ListRooms(ctx)
	if err != nil {
		return nil, translateError(err)
	}
	if len(models) == 0 {
		return nil, nil
	}
	rooms := make([]application.Room, 0, len(models))
	for _, model := range models {
		rooms = append(rooms, toApplicationRoom(model))
	}
	return rooms, nil
}

type reservationRepositoryAdapter struct {
	repo persistence.ReservationRepository
}

func newReservationRepositoryAdapter(repo persistence.ReservationRepository) *reservationRepositoryAdapter {
	return &reservationRepositoryAdapter{repo: repo}
}

func (a *reservationRepositoryAdapter) CreateReservation(ctx context.Context, reservation application.Reservation, guard application.ReservationGuard) error {
	err := a.repo.CreateReservation(ctx, toPersistenceReservation(reservation), toOverlapGuard(guard))
	return a.translate(err, reservation.RoomID)
}

func (a *reservationRepositoryAdapter) UpdateReservation(ctx context.Context, reservation application.Reservation, guard application.ReservationGuard) error {
	err := a.repo.UpdateReservation(ctx, toPersistenceReservation(reservation), toOverlapGuard(guard))
	return a.translate(err, reservation.RoomID)
}

func (a *reservationRepositoryAdapter) DeleteReservation(ctx context.Context, id string) error {
	return translateError(a.repo.DeleteReservation(ctx, id))
}

func (a *reservationRepositoryAdapter) GetReservation(ctx context.Context, id string) (application.Reservation, error) {
	stored, err := a.repo.GetReservation(ctx, id)
	if err != nil {
		return application.Reservation{}, translateError(err)
	}
	return toApplicationReservation(persistence.ReservationWithOwner{Reservation: stored}), nil
}

func (a *reservationRepositoryAdapter) ListReservationsForUser(ctx context.Context, userID string) ([]application.Reservation, error) {
	models, err := a.repo.ListReservationsForUser(ctx, userID)
	if err != nil {
		return nil, translateError(err)
	}
	return toApplicationReservations(models), nil
}

func (a *reservationRepositoryAdapter) ListReservationsWithOwner(ctx context.Context) ([]application.Reservation, error) {
	models, err := a.repo.ListReservationsWithOwner(ctx)
	if err != nil {
		return nil, translateError(err)
	}
	return toApplicationReservations(models), nil
}

// translate reports a datastore level overlap as a conflict on the room.
// Only the PostgreSQL exclusion constraint raises it; the guard normally
// catches overlaps first.
func (a *reservationRepositoryAdapter) translate(err error, roomID string) error {
	if errors.Is(err, persistence.ErrOverlap) {
		return &application.ConflictError{RoomID: roomID}
	}
	return translateError(err)
}

func toOverlapGuard(guard application.ReservationGuard) persistence.OverlapGuard {
	if guard == nil {
		return nil
	}
	return func(existing []persistence.Reservation) error {
		intervals := make([]booking.Interval, 0, len(existing))
		for _, reservation := range existing {
			intervals = append(intervals, booking.Interval{
				ReservationID: reservation.ID,
				Start:         reservation.StartDate,
				End:           reservation.EndDate,
			})
		}
		return guard(intervals)
	}
}

type sessionRepositoryAdapter struct {
	repo persistence.SessionRepository
}

func newSessionRepositoryAdapter(repo persistence.SessionRepository) *sessionRepositoryAdapter {
	return &sessionRepositoryAdapter{repo: repo}
}

func (a *sessionRepositoryAdapter) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.CreateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, translateError(err)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) GetSession(ctx context.Context, token string) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, token)
	if err != nil {
		return application.Session{}, translateError(err)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (application.Session, error) {
	stored, err := a.repo.RevokeSession(ctx, token, revokedAt)
	if err != nil {
		return application.Session{}, translateError(err)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) RevokeUserSessions(ctx context.Context, userID string, revokedAt time.Time) error {
	return translateError(a.repo.RevokeUserSessions(ctx, userID, revokedAt))
}

func (a *sessionRepositoryAdapter) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return translateError(a.repo.DeleteExpiredSessions(ctx, reference))
}

func toApplicationUser(model persistence.User) application.User {
	return application.User{
		ID:          model.ID,
		FirstName:   model.FirstName,
		LastName:    model.LastName,
		Email:       model.Email,
		PhoneNumber: model.PhoneNumber,
		Nationality: model.Nationality,
		Username:    model.Username,
		IsAdmin:     model.IsAdmin,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func toApplicationCredentials(model persistence.User) application.UserCredentials {
	return application.UserCredentials{
		User:               toApplicationUser(model),
		PasswordHash:       model.PasswordHash,
		SecurityQuestion:   model.SecurityQuestion,
		SecurityAnswerHash: model.SecurityAnswerHash,
	}
}

func toPersistenceUser(creds application.UserCredentials) persistence.User {
	user := creds.User
	return persistence.User{
		ID:                 user.ID,
		FirstName:          user.FirstName,
		LastName:           user.LastName,
		Email:              user.Email,
		PhoneNumber:        user.PhoneNumber,
		Nationality:        user.Nationality,
		Username:           user.Username,
		PasswordHash:       creds.PasswordHash,
		SecurityQuestion:   creds.SecurityQuestion,
		SecurityAnswerHash: creds.SecurityAnswerHash,
		IsAdmin:            user.IsAdmin,
		CreatedAt:          user.CreatedAt,
		UpdatedAt:          user.UpdatedAt,
	}
}

func toApplicationRoom(model persistence.Room) application.Room {
	return application.Room{
		ID:       model.ID,
		Type:     model.Type,
		Price:    model.Price,
		Capacity: model.Capacity,
	}
}

func toApplicationReservation(model persistence.ReservationWithOwner) application.Reservation {
	return application.Reservation{
		ID:            model.ID,
		Name:          model.Name,
		RoomID:        model.RoomID,
		RoomType:      model.RoomType,
		Guests:        model.Guests,
		StartDate:     model.StartDate,
		EndDate:       model.EndDate,
		UserID:        model.UserID,
		OwnerUsername: model.OwnerUsername,
		OwnerEmail:    model.OwnerEmail,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}

func toApplicationReservations(models []persistence.ReservationWithOwner) []application.Reservation {
	if len(models) == 0 {
		return nil
	}
	reservations := make([]application.Reservation, 0, len(models))
	for _, model := range models {
		reservations = append(reservations, toApplicationReservation(model))
	}
	return reservations
}

func toPersistenceReservation(reservation application.Reservation) persistence.Reservation {
	return persistence.Reservation{
		ID:        reservation.ID,
		Name:      reservation.Name,
		RoomID:    reservation.RoomID,
		Guests:    reservation.Guests,
		StartDate: reservation.StartDate,
		EndDate:   reservation.EndDate,
		UserID:    reservation.UserID,
		CreatedAt: reservation.CreatedAt,
		UpdatedAt: reservation.UpdatedAt,
	}
}

func toApplicationSession(model persistence.Session) application.Session {
	return application.Session{
		ID:          model.ID,
		UserID:      model.UserID,
		Token:       model.Token,
		Fingerprint: model.Fingerprint,
		ExpiresAt:   model.ExpiresAt,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
		RevokedAt:   model.RevokedAt,
	}
}

func toPersistenceSession(session application.Session) persistence.Session {
	return persistence.Session{
		ID:          session.ID,
		UserID:      session.UserID,
		Token:       session.Token,
		Fingerprint: session.Fingerprint,
		ExpiresAt:   session.ExpiresAt,
		CreatedAt:   session.CreatedAt,
		UpdatedAt:   session.UpdatedAt,
		RevokedAt:   session.RevokedAt,
	}
}
