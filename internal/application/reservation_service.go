package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/example/hotel-reservations/internal/booking"
)

const maxReservationNameLength = 100

// ReservationGuard inspects the reservations already held for a room and
// returns an error to abort the write it guards.
type ReservationGuard func(existing []booking.Interval) error

// ReservationRepository captures the persistence operations needed by the service.
// Create and update must run the guard and the write atomically with respect
// to other writers of the same room.
type ReservationRepository interface {
	CreateReservation(ctx context.Context, reservation Reservation, guard ReservationGuard) error
	UpdateReservation(ctx context.Context, reservation Reservation, guard ReservationGuard) error
	DeleteReservation(ctx context.Context, id string) error
	GetReservation(ctx context.Context, id string) (Reservation, error)
	ListReservationsForUser(ctx context.Context, userID string) ([]Reservation, error)
	ListReservationsWithOwner(ctx context.Context) ([]Reservation, error)
}

// RoomLookup resolves a room by identifier.
type RoomLookup interface {
	GetRoom(ctx context.Context, id string) (Room, error)
}

// ReservationService validates and stores reservations on behalf of a principal.
type ReservationService struct {
	reservations ReservationRepository
	rooms        RoomLookup
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewReservationService constructs a reservation service with the provided dependencies.
func NewReservationService(reservations ReservationRepository, rooms RoomLookup, idGenerator func() string, now func() time.Time) *ReservationService {
	return NewReservationServiceWithLogger(reservations, rooms, idGenerator, now, nil)
}

// NewReservationServiceWithLogger constructs a reservation service with a specified logger.
func NewReservationServiceWithLogger(reservations ReservationRepository, rooms RoomLookup, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ReservationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ReservationService{
		reservations: reservations,
		rooms:        rooms,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *ReservationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ReservationService", operation, attrs...)
}

func (s *ReservationService) configured() error {
	if s == nil {
		return fmt.Errorf("ReservationService is nil")
	}
	if s.reservations == nil || s.rooms == nil {
		return fmt.Errorf("reservation service not configured")
	}
	return nil
}

// Create validates the input and stores a reservation owned by the principal.
func (s *ReservationService) Create(ctx context.Context, params CreateReservationParams) (reservation Reservation, err error) {
	if err = s.configured(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "Create",
		"principal_id", params.Principal.UserID,
		"room_id", strings.TrimSpace(params.Input.RoomID),
	)
	defer func() {
		logOutcome(ctx, logger, err, "reservation created", "reservation_id", reservation.ID)
	}()

	if !params.Principal.Authenticated() {
		err = ErrUnauthorized
		return
	}

	var candidate booking.Candidate
	reservation, candidate, err = s.prepare(ctx, params.Input)
	if err != nil {
		return
	}

	now := s.now()
	reservation.ID = s.idGenerator()
	reservation.UserID = params.Principal.UserID
	reservation.CreatedAt = now
	reservation.UpdatedAt = now

	err = s.reservations.CreateReservation(ctx, reservation, guardFor(candidate))
	if err != nil {
		err = translateRejection(err, candidate)
		reservation = Reservation{}
	}
	return
}

// Update replaces the editable fields of a reservation. Only the owner or an
// administrator may update it; the owner never changes.
func (s *ReservationService) Update(ctx context.Context, params UpdateReservationParams) (reservation Reservation, err error) {
	if err = s.configured(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "Update",
		"principal_id", params.Principal.UserID,
		"reservation_id", params.ReservationID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "reservation updated", "room_id", reservation.RoomID)
	}()

	var existing Reservation
	existing, err = s.authorizedReservation(ctx, params.Principal, params.ReservationID)
	if err != nil {
		return
	}

	var candidate booking.Candidate
	reservation, candidate, err = s.prepare(ctx, params.Input)
	if err != nil {
		return
	}

	reservation.ID = existing.ID
	reservation.UserID = existing.UserID
	reservation.CreatedAt = existing.CreatedAt
	reservation.UpdatedAt = s.now()

	err = s.reservations.UpdateReservation(ctx, reservation, guardFor(candidate))
	if err != nil {
		err = translateRejection(err, candidate)
		reservation = Reservation{}
	}
	return
}

// Cancel deletes a reservation owned by the principal, or any reservation for
// an administrator.
func (s *ReservationService) Cancel(ctx context.Context, principal Principal, id string) (err error) {
	if err = s.configured(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "Cancel", "principal_id", principal.UserID, "reservation_id", id)
	defer func() {
		logOutcome(ctx, logger, err, "reservation cancelled")
	}()

	if _, err = s.authorizedReservation(ctx, principal, id); err != nil {
		return
	}
	err = s.reservations.DeleteReservation(ctx, strings.TrimSpace(id))
	return
}

// Get returns a reservation visible to the principal.
func (s *ReservationService) Get(ctx context.Context, principal Principal, id string) (Reservation, error) {
	if err := s.configured(); err != nil {
		return Reservation{}, err
	}
	reservation, err := s.authorizedReservation(ctx, principal, id)
	if err != nil {
		s.loggerWith(ctx, "Get", "principal_id", principal.UserID, "reservation_id", id).
			Log(ctx, levelFor(err), "failed to load reservation", "error", err, "error_kind", ErrorKind(err))
		return Reservation{}, err
	}
	return reservation, nil
}

// ListForUser returns the principal's own reservations ordered by start date.
func (s *ReservationService) ListForUser(ctx context.Context, principal Principal) ([]Reservation, error) {
	if err := s.configured(); err != nil {
		return nil, err
	}
	if !principal.Authenticated() {
		return nil, ErrUnauthorized
	}
	reservations, err := s.reservations.ListReservationsForUser(ctx, principal.UserID)
	if err != nil {
		s.loggerWith(ctx, "ListForUser", "principal_id", principal.UserID).
			ErrorContext(ctx, "failed to list reservations", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	return reservations, nil
}

// ListAll returns every reservation with its owner. Administrators only.
func (s *ReservationService) ListAll(ctx context.Context, principal Principal) ([]Reservation, error) {
	if err := s.configured(); err != nil {
		return nil, err
	}
	if !principal.IsAdmin {
		return nil, ErrUnauthorized
	}
	reservations, err := s.reservations.ListReservationsWithOwner(ctx)
	if err != nil {
		s.loggerWith(ctx, "ListAll", "principal_id", principal.UserID).
			ErrorContext(ctx, "failed to list reservations", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	return reservations, nil
}

func (s *ReservationService) authorizedReservation(ctx context.Context, principal Principal, id string) (Reservation, error) {
	if !principal.Authenticated() {
		return Reservation{}, ErrUnauthorized
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Reservation{}, ErrNotFound
	}
	reservation, err := s.reservations.GetReservation(ctx, id)
	if err != nil {
		return Reservation{}, err
	}
	if reservation.UserID != principal.UserID && !principal.IsAdmin {
		return Reservation{}, ErrUnauthorized
	}
	return reservation, nil
}

// prepare parses the form, resolves the room and runs the validator against an
// empty history so that input errors are reported before any write is attempted.
func (s *ReservationService) prepare(ctx context.Context, input ReservationInput) (Reservation, booking.Candidate, error) {
	reservation, vErr := parseReservationInput(input)
	if vErr.HasErrors() {
		return Reservation{}, booking.Candidate{}, vErr
	}

	room, err := s.rooms.GetRoom(ctx, reservation.RoomID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			vErr.add("room_id", "room does not exist")
			return Reservation{}, booking.Candidate{}, vErr
		}
		return Reservation{}, booking.Candidate{}, err
	}
	reservation.RoomType = room.Type

	candidate := booking.Candidate{
		RoomID:   room.ID,
		Guests:   reservation.Guests,
		Start:    reservation.StartDate,
		End:      reservation.EndDate,
		Today:    booking.DateOf(s.now()),
		Capacity: room.Capacity,
	}
	if err := booking.Validate(candidate, nil); err != nil {
		return Reservation{}, booking.Candidate{}, translateRejection(err, candidate)
	}
	return reservation, candidate, nil
}

func guardFor(candidate booking.Candidate) ReservationGuard {
	return func(existing []booking.Interval) error {
		return booking.Validate(candidate, existing)
	}
}

func parseReservationInput(input ReservationInput) (Reservation, *ValidationError) {
	vErr := &ValidationError{}
	var reservation Reservation

	reservation.Name = strings.TrimSpace(input.Name)
	switch {
	case reservation.Name == "":
		vErr.add("name", "name is required")
	case len(reservation.Name) > maxReservationNameLength:
		vErr.add("name", fmt.Sprintf("name must be at most %d characters", maxReservationNameLength))
	}

	reservation.RoomID = strings.TrimSpace(input.RoomID)
	if reservation.RoomID == "" {
		vErr.add("room_id", "room is required")
	}

	guests := strings.TrimSpace(input.Guests)
	if guests == "" {
		vErr.add("guests", "number of guests is required")
	} else if n, err := strconv.Atoi(guests); err != nil {
		vErr.add("guests", "number of guests must be a whole number")
	} else {
		reservation.Guests = n
	}

	if start, ok := parseFormDate(vErr, "start_date", "start date", input.StartDate); ok {
		reservation.StartDate = start
	}
	if end, ok := parseFormDate(vErr, "end_date", "end date", input.EndDate); ok {
		reservation.EndDate = end
	}

	return reservation, vErr
}

func parseFormDate(vErr *ValidationError, field, label, value string) (time.Time, bool) {
	if strings.TrimSpace(value) == "" {
		vErr.add(field, label+" is required")
		return time.Time{}, false
	}
	date, err := booking.ParseDate(value)
	if err != nil {
		vErr.add(field, label+" must use the YYYY-MM-DD format")
		return time.Time{}, false
	}
	return date, true
}

// translateRejection converts a validator rejection into the service error
// taxonomy. Other errors are returned unchanged.
func translateRejection(err error, candidate booking.Candidate) error {
	var rejection *booking.Rejection
	if !errors.As(err, &rejection) {
		return err
	}

	vErr := &ValidationError{}
	switch rejection.Reason {
	case booking.ReasonUnavailable:
		conflict := &ConflictError{RoomID: candidate.RoomID}
		for _, c := range rejection.Conflicts {
			conflict.Conflicts = append(conflict.Conflicts, DateRange{Start: c.Start, End: c.End})
		}
		return conflict
	case booking.ReasonStartInPast:
		vErr.add("start_date", "start date cannot be in the past")
	case booking.ReasonOverCapacity:
		vErr.add("guests", "number of guests exceeds the room capacity")
	default:
		if candidate.Guests < 1 {
			vErr.add("guests", "at least one guest is required")
		} else {
			vErr.add("end_date", "end date must be after the start date")
		}
	}
	return vErr
}
