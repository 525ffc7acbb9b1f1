package application

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/example/hotel-reservations/internal/booking"
)

var (
	testToday = time.Date(2030, 6, 10, 15, 30, 0, 0, time.UTC)
	alice     = Principal{UserID: "alice", Username: "alice"}
	bob       = Principal{UserID: "bob", Username: "bob"}
	admin     = Principal{UserID: "admin", Username: "admin", IsAdmin: true}
)

func june(day int) time.Time {
	return time.Date(2030, 6, day, 0, 0, 0, 0, time.UTC)
}

func reservationInput(room, guests, start, end string) ReservationInput {
	return ReservationInput{Name: "Guest", RoomID: room, Guests: guests, StartDate: start, EndDate: end}
}

func newReservationServiceForTest(repo *reservationRepositoryStub) *ReservationService {
	rooms := &roomRepositoryStub{rooms: []Room{
		{ID: "101", Type: "Single", Price: 8000, Capacity: 1},
		{ID: "201", Type: "Double", Price: 12000, Capacity: 2},
	}}
	return NewReservationService(repo, rooms, sequence("r1", "r2", "r3", "r4"), func() time.Time { return testToday })
}

func TestReservationService_Create(t *testing.T) {
	t.Parallel()

	t.Run("stores an accepted reservation", func(t *testing.T) {
		t.Parallel()

		repo := newReservationRepositoryStub()
		svc := newReservationServiceForTest(repo)

		got, err := svc.Create(context.Background(), CreateReservationParams{
			Principal: alice,
			Input:     reservationInput("201", "2", "2030-06-10", "2030-06-12"),
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if got.ID != "r1" || got.UserID != "alice" || got.RoomType != "Double" || got.Nights() != 2 {
			t.Fatalf("unexpected reservation: %#v", got)
		}
		if _, ok := repo.byID["r1"]; !ok {
			t.Fatalf("expected reservation to be persisted")
		}
	})

	t.Run("requires a signed-in principal", func(t *testing.T) {
		t.Parallel()

		svc := newReservationServiceForTest(newReservationRepositoryStub())
		_, err := svc.Create(context.Background(), CreateReservationParams{Input: reservationInput("101", "1", "2030-06-11", "2030-06-12")})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	rejections := []struct {
		name  string
		input ReservationInput
		field string
	}{
		{name: "start in the past", input: reservationInput("101", "1", "2030-06-09", "2030-06-11"), field: "start_date"},
		{name: "zero guests", input: reservationInput("101", "0", "2030-06-11", "2030-06-12"), field: "guests"},
		{name: "end equals start", input: reservationInput("101", "1", "2030-06-11", "2030-06-11"), field: "end_date"},
		{name: "end before start", input: reservationInput("101", "1", "2030-06-12", "2030-06-11"), field: "end_date"},
		{name: "over capacity", input: reservationInput("101", "2", "2030-06-11", "2030-06-12"), field: "guests"},
		{name: "unknown room", input: reservationInput("999", "1", "2030-06-11", "2030-06-12"), field: "room_id"},
		{name: "malformed date", input: reservationInput("101", "1", "11/06/2030", "2030-06-12"), field: "start_date"},
		{name: "non-numeric guests", input: reservationInput("101", "two", "2030-06-11", "2030-06-12"), field: "guests"},
		{name: "missing name", input: ReservationInput{RoomID: "101", Guests: "1", StartDate: "2030-06-11", EndDate: "2030-06-12"}, field: "name"},
	}
	for _, tc := range rejections {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo := newReservationRepositoryStub()
			_, err := newReservationServiceForTest(repo).Create(context.Background(), CreateReservationParams{Principal: alice, Input: tc.input})

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := vErr.FieldErrors[tc.field]; !ok {
				t.Fatalf("expected error on %s, got %#v", tc.field, vErr.FieldErrors)
			}
			if len(repo.byID) != 0 || repo.writes != 0 {
				t.Fatalf("expected no write on rejection")
			}
		})
	}

	t.Run("reports overlapping bookings as conflicts", func(t *testing.T) {
		t.Parallel()

		repo := newReservationRepositoryStub()
		repo.seed(Reservation{ID: "existing", RoomID: "201", UserID: "bob", Guests: 1, StartDate: june(12), EndDate: june(15)})
		svc := newReservationServiceForTest(repo)

		_, err := svc.Create(context.Background(), CreateReservationParams{
			Principal: alice,
			Input:     reservationInput("201", "1", "2030-06-14", "2030-06-16"),
		})
		var cErr *ConflictError
		if !errors.As(err, &cErr) {
			t.Fatalf("expected ConflictError, got %v", err)
		}
		if cErr.RoomID != "201" || len(cErr.Conflicts) != 1 || !cErr.Conflicts[0].Start.Equal(june(12)) {
			t.Fatalf("unexpected conflict: %#v", cErr)
		}
		if len(repo.byID) != 1 {
			t.Fatalf("expected no new reservation, got %d", len(repo.byID))
		}
	})

	t.Run("accepts back-to-back bookings", func(t *testing.T) {
		t.Parallel()

		repo := newReservationRepositoryStub()
		repo.seed(Reservation{ID: "existing", RoomID: "201", UserID: "bob", Guests: 1, StartDate: june(12), EndDate: june(15)})
		svc := newReservationServiceForTest(repo)

		if _, err := svc.Create(context.Background(), CreateReservationParams{Principal: alice, Input: reservationInput("201", "1", "2030-06-15", "2030-06-17")}); err != nil {
			t.Fatalf("expected booking starting on checkout day to succeed, got %v", err)
		}
		if _, err := svc.Create(context.Background(), CreateReservationParams{Principal: alice, Input: reservationInput("201", "1", "2030-06-10", "2030-06-12")}); err != nil {
			t.Fatalf("expected booking ending on check-in day to succeed, got %v", err)
		}
	})

	t.Run("ignores other rooms", func(t *testing.T) {
		t.Parallel()

		repo := newReservationRepositoryStub()
		repo.seed(Reservation{ID: "existing", RoomID: "101", UserID: "bob", Guests: 1, StartDate: june(12), EndDate: june(15)})

		if _, err := newReservationServiceForTest(repo).Create(context.Background(), CreateReservationParams{Principal: alice, Input: reservationInput("201", "1", "2030-06-12", "2030-06-15")}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	})

	t.Run("admits one of two concurrent overlapping bookings", func(t *testing.T) {
		t.Parallel()

		repo := newReservationRepositoryStub()
		svc := newReservationServiceForTest(repo)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = svc.Create(context.Background(), CreateReservationParams{Principal: alice, Input: reservationInput("201", "1", "2030-06-20", "2030-06-22")})
			}(i)
		}
		wg.Wait()

		var accepted, conflicts int
		for _, err := range errs {
			var cErr *ConflictError
			switch {
			case err == nil:
				accepted++
			case errors.As(err, &cErr):
				conflicts++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if accepted != 1 || conflicts != 1 {
			t.Fatalf("expected one success and one conflict, got %d/%d", accepted, conflicts)
		}
	})

	t.Run("propagates storage failures", func(t *testing.T) {
		t.Parallel()

		repo := newReservationRepositoryStub()
		repo.writeErr = ErrStorageUnavailable
		_, err := newReservationServiceForTest(repo).Create(context.Background(), CreateReservationParams{Principal: alice, Input: reservationInput("101", "1", "2030-06-11", "2030-06-12")})
		if !errors.Is(err, ErrStorageUnavailable) {
			t.Fatalf("expected ErrStorageUnavailable, got %v", err)
		}
	})
}

func TestReservationService_Update(t *testing.T) {
	t.Parallel()

	seeded := func() *reservationRepositoryStub {
		repo := newReservationRepositoryStub()
		created := time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC)
		repo.seed(Reservation{ID: "mine", Name: "Alice", RoomID: "201", UserID: "alice", Guests: 1, StartDate: june(12), EndDate: june(15), CreatedAt: created})
		repo.seed(Reservation{ID: "theirs", Name: "Bob", RoomID: "201", UserID: "bob", Guests: 1, StartDate: june(20), EndDate: june(22)})
		return repo
	}

	t.Run("owner can extend without conflicting with itself", func(t *testing.T) {
		t.Parallel()

		repo := seeded()
		got, err := newReservationServiceForTest(repo).Update(context.Background(), UpdateReservationParams{
			Principal:     alice,
			ReservationID: "mine",
			Input:         reservationInput("201", "2", "2030-06-12", "2030-06-18"),
		})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		stored := repo.byID["mine"]
		if stored.Guests != 2 || !stored.EndDate.Equal(june(18)) || stored.UserID != "alice" {
			t.Fatalf("unexpected stored reservation: %#v", stored)
		}
		if !got.CreatedAt.Equal(time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC)) || !got.UpdatedAt.Equal(testToday) {
			t.Fatalf("unexpected timestamps: %#v", got)
		}
	})

	t.Run("rejects overlap with another booking", func(t *testing.T) {
		t.Parallel()

		repo := seeded()
		_, err := newReservationServiceForTest(repo).Update(context.Background(), UpdateReservationParams{
			Principal:     alice,
			ReservationID: "mine",
			Input:         reservationInput("201", "1", "2030-06-12", "2030-06-21"),
		})
		var cErr *ConflictError
		if !errors.As(err, &cErr) {
			t.Fatalf("expected ConflictError, got %v", err)
		}
		if !repo.byID["mine"].EndDate.Equal(june(15)) {
			t.Fatalf("expected stored reservation to be unchanged")
		}
	})

	t.Run("other users are unauthorized", func(t *testing.T) {
		t.Parallel()

		_, err := newReservationServiceForTest(seeded()).Update(context.Background(), UpdateReservationParams{
			Principal:     bob,
			ReservationID: "mine",
			Input:         reservationInput("201", "1", "2030-06-12", "2030-06-13"),
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("admin may edit any reservation and keeps the owner", func(t *testing.T) {
		t.Parallel()

		repo := seeded()
		if _, err := newReservationServiceForTest(repo).Update(context.Background(), UpdateReservationParams{
			Principal:     admin,
			ReservationID: "mine",
			Input:         reservationInput("101", "1", "2030-06-12", "2030-06-13"),
		}); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if stored := repo.byID["mine"]; stored.UserID != "alice" || stored.RoomID != "101" {
			t.Fatalf("unexpected stored reservation: %#v", stored)
		}
	})

	t.Run("missing reservation", func(t *testing.T) {
		t.Parallel()

		_, err := newReservationServiceForTest(seeded()).Update(context.Background(), UpdateReservationParams{
			Principal:     alice,
			ReservationID: "nope",
			Input:         reservationInput("201", "1", "2030-06-12", "2030-06-13"),
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestReservationService_Cancel(t *testing.T) {
	t.Parallel()

	seeded := func() *reservationRepositoryStub {
		repo := newReservationRepositoryStub()
		repo.seed(Reservation{ID: "mine", RoomID: "201", UserID: "alice", Guests: 1, StartDate: june(12), EndDate: june(15)})
		return repo
	}

	tests := []struct {
		name      string
		principal Principal
		id        string
		wantErr   error
		remaining int
	}{
		{name: "owner", principal: alice, id: "mine", remaining: 0},
		{name: "admin", principal: admin, id: "mine", remaining: 0},
		{name: "other user", principal: bob, id: "mine", wantErr: ErrUnauthorized, remaining: 1},
		{name: "anonymous", principal: Principal{}, id: "mine", wantErr: ErrUnauthorized, remaining: 1},
		{name: "missing", principal: alice, id: "gone", wantErr: ErrNotFound, remaining: 1},
		{name: "blank id", principal: alice, id: " ", wantErr: ErrNotFound, remaining: 1},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo := seeded()
			err := newReservationServiceForTest(repo).Cancel(context.Background(), tc.principal, tc.id)
			if tc.wantErr == nil && err != nil {
				t.Fatalf("Cancel failed: %v", err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if len(repo.byID) != tc.remaining {
				t.Fatalf("expected %d reservations left, got %d", tc.remaining, len(repo.byID))
			}
		})
	}
}

func TestReservationService_Listings(t *testing.T) {
	t.Parallel()

	repo := newReservationRepositoryStub()
	repo.seed(Reservation{ID: "a2", RoomID: "201", UserID: "alice", StartDate: june(20), EndDate: june(21)})
	repo.seed(Reservation{ID: "a1", RoomID: "101", UserID: "alice", StartDate: june(12), EndDate: june(13)})
	repo.seed(Reservation{ID: "b1", RoomID: "101", UserID: "bob", StartDate: june(14), EndDate: june(15)})
	svc := newReservationServiceForTest(repo)

	mine, err := svc.ListForUser(context.Background(), alice)
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if len(mine) != 2 || mine[0].ID != "a1" || mine[1].ID != "a2" {
		t.Fatalf("unexpected reservations: %#v", mine)
	}

	if _, err := svc.ListForUser(context.Background(), Principal{}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for anonymous, got %v", err)
	}

	if _, err := svc.ListAll(context.Background(), alice); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for non-admin, got %v", err)
	}
	all, err := svc.ListAll(context.Background(), admin)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 reservations, got %d", len(all))
	}

	if _, err := svc.Get(context.Background(), bob, "a1"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for another user's reservation, got %v", err)
	}
	if got, err := svc.Get(context.Background(), admin, "a1"); err != nil || got.ID != "a1" {
		t.Fatalf("expected admin to read any reservation, got %#v, %v", got, err)
	}
}

// reservationRepositoryStub keeps reservations in memory and serialises
// guarded writes with a mutex, mirroring the transactional repositories.
type reservationRepositoryStub struct {
	mu       sync.Mutex
	byID     map[string]Reservation
	writeErr error
	writes   int
}

func newReservationRepositoryStub() *reservationRepositoryStub {
	return &reservationRepositoryStub{byID: make(map[string]Reservation)}
}

func (r *reservationRepositoryStub) seed(reservation Reservation) {
	r.byID[reservation.ID] = reservation
}

func (r *reservationRepositoryStub) intervals(roomID, excludeID string) []booking.Interval {
	var out []booking.Interval
	for _, res := range r.byID {
		if res.RoomID == roomID && res.ID != excludeID {
			out = append(out, booking.Interval{ReservationID: res.ID, Start: res.StartDate, End: res.EndDate})
		}
	}
	return out
}

func (r *reservationRepositoryStub) CreateReservation(ctx context.Context, reservation Reservation, guard ReservationGuard) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writeErr != nil {
		return r.writeErr
	}
	if err := guard(r.intervals(reservation.RoomID, "")); err != nil {
		return err
	}
	r.writes++
	r.byID[reservation.ID] = reservation
	return nil
}

func (r *reservationRepositoryStub) UpdateReservation(ctx context.Context, reservation Reservation, guard ReservationGuard) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writeErr != nil {
		return r.writeErr
	}
	if _, ok := r.byID[reservation.ID]; !ok {
		return ErrNotFound
	}
	if err := guard(r.intervals(reservation.RoomID, reservation.ID)); err != nil {
		return err
	}
	r.writes++
	r.byID[reservation.ID] = reservation
	return nil
}

func (r *reservationRepositoryStub) DeleteReservation(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *reservationRepositoryStub) GetReservation(ctx context.Context, id string) (Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.byID[id]
	if !ok {
		return Reservation{}, ErrNotFound
	}
	return res, nil
}

func (r *reservationRepositoryStub) ListReservationsForUser(ctx context.Context, userID string) ([]Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Reservation
	for _, res := range r.byID {
		if res.UserID == userID {
			out = append(out, res)
		}
	}
	sortByStart(out)
	return out, nil
}

func (r *reservationRepositoryStub) ListReservationsWithOwner(ctx context.Context) ([]Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Reservation, 0, len(r.byID))
	for _, res := range r.byID {
		out = append(out, res)
	}
	sortByStart(out)
	return out, nil
}

func sortByStart(reservations []Reservation) {
	sort.Slice(reservations, func(i, j int) bool {
		if !reservations[i].StartDate.Equal(reservations[j].StartDate) {
			return reservations[i].StartDate.Before(reservations[j].StartDate)
		}
		return reservations[i].ID < reservations[j].ID
	})
}
