package persistence_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/hotel-reservations/internal/booking"
	"github.com/example/hotel-reservations/internal/persistence"
	"github.com/example/hotel-reservations/internal/testfixtures"
)

// validatorGuard runs the booking validator against the reservations the
// repository loads inside its transaction.
func validatorGuard(r persistence.Reservation, today time.Time, capacity int) persistence.OverlapGuard {
	return func(existing []persistence.Reservation) error {
		intervals := make([]booking.Interval, 0, len(existing))
		for _, e := range existing {
			intervals = append(intervals, booking.Interval{ReservationID: e.ID, Start: e.StartDate, End: e.EndDate})
		}
		return booking.Validate(booking.Candidate{
			RoomID:   r.RoomID,
			Guests:   r.Guests,
			Start:    r.StartDate,
			End:      r.EndDate,
			Today:    today,
			Capacity: capacity,
		}, intervals)
	}
}

func TestSeededRoomCatalog(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)
	rooms, err := harness.Rooms.ListRooms(context.Background())
	if err != nil {
		t.Fatalf("ListRooms failed: %v", err)
	}

	want := testfixtures.SeededRooms()
	if len(rooms) != len(want) {
		t.Fatalf("expected %d rooms, got %d", len(want), len(rooms))
	}
	byID := make(map[string]persistence.Room, len(rooms))
	for _, room := range rooms {
		byID[room.ID] = room
	}
	for _, expected := range want {
		if got := byID[expected.ID]; got != expected {
			t.Fatalf("room %s: expected %+v, got %+v", expected.ID, expected, got)
		}
	}
}

func TestReservationRepositoryWithValidatorGuard(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	today := testfixtures.Date(2025, time.May, 20)

	harness := testfixtures.NewSQLiteHarness(t)
	owner := harness.SeedUser(t, testfixtures.NewUserFixture())

	existing := testfixtures.NewReservationFixture(
		testfixtures.WithReservationOwner(owner.ID),
		testfixtures.WithReservationRoom("102"),
		testfixtures.WithReservationDates(testfixtures.Date(2025, time.June, 1), testfixtures.Date(2025, time.June, 5)),
	).Persistence()
	if err := harness.Reservations.CreateReservation(ctx, existing, validatorGuard(existing, today, 2)); err != nil {
		t.Fatalf("seed reservation: %v", err)
	}

	tests := []struct {
		name   string
		start  time.Time
		end    time.Time
		guests int
		reason booking.Reason
	}{
		{name: "back-to-back stay is accepted", start: testfixtures.Date(2025, time.June, 5), end: testfixtures.Date(2025, time.June, 8), guests: 2},
		{name: "overlapping stay is rejected", start: testfixtures.Date(2025, time.June, 3), end: testfixtures.Date(2025, time.June, 10), guests: 1, reason: booking.ReasonUnavailable},
		{name: "zero guests is rejected regardless of dates", start: testfixtures.Date(2025, time.July, 1), end: testfixtures.Date(2025, time.July, 3), guests: 0, reason: booking.ReasonInvalidRange},
	}

	for _, tc := range tests {
		candidate := testfixtures.NewReservationFixture(
			testfixtures.WithReservationOwner(owner.ID),
			testfixtures.WithReservationRoom("102"),
			testfixtures.WithReservationGuests(tc.guests),
			testfixtures.WithReservationDates(tc.start, tc.end),
		).Persistence()

		err := harness.Reservations.CreateReservation(ctx, candidate, validatorGuard(candidate, today, 2))
		if tc.reason == "" {
			if err != nil {
				t.Fatalf("%s: expected acceptance, got %v", tc.name, err)
			}
			continue
		}

		var rejection *booking.Rejection
		if !errors.As(err, &rejection) || rejection.Reason != tc.reason {
			t.Fatalf("%s: expected %q rejection, got %v", tc.name, tc.reason, err)
		}
		if _, getErr := harness.Reservations.GetReservation(ctx, candidate.ID); !errors.Is(getErr, persistence.ErrNotFound) {
			t.Fatalf("%s: rejected reservation must not be stored, got %v", tc.name, getErr)
		}
	}

	listed, err := harness.Reservations.ListReservationsForUser(ctx, owner.ID)
	if err != nil {
		t.Fatalf("ListReservationsForUser failed: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected the seed and the back-to-back stay, got %d reservations", len(listed))
	}
	if listed[0].RoomType != "Double" || !listed[0].StartDate.Before(listed[1].StartDate) {
		t.Fatalf("expected listings ordered by start with room type, got %+v", listed)
	}
}

func TestDeleteMissingReservation(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)
	err := harness.Reservations.DeleteReservation(context.Background(), "does-not-exist")
	if !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected persistence.ErrNotFound, got %v", err)
	}
}

func TestSessionsFollowTheirUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	harness := testfixtures.NewSQLiteHarness(t)
	owner := harness.SeedUser(t, testfixtures.NewUserFixture())
	other := harness.SeedUser(t, testfixtures.NewUserFixture())

	mine := testfixtures.NewSessionFixture(testfixtures.WithSessionUser(owner.ID)).Persistence()
	theirs := testfixtures.NewSessionFixture(testfixtures.WithSessionUser(other.ID)).Persistence()
	for _, session := range []persistence.Session{mine, theirs} {
		if _, err := harness.Sessions.CreateSession(ctx, session); err != nil {
			t.Fatalf("CreateSession failed: %v", err)
		}
	}

	revokedAt := testfixtures.ReferenceTime().Add(time.Minute)
	if err := harness.Sessions.RevokeUserSessions(ctx, owner.ID, revokedAt); err != nil {
		t.Fatalf("RevokeUserSessions failed: %v", err)
	}

	got, err := harness.Sessions.GetSession(ctx, mine.Token)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.RevokedAt == nil || !got.RevokedAt.Equal(revokedAt) {
		t.Fatalf("expected session revoked at %v, got %v", revokedAt, got.RevokedAt)
	}

	got, err = harness.Sessions.GetSession(ctx, theirs.Token)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.RevokedAt != nil {
		t.Fatalf("expected the other user's session to stay active")
	}
}
