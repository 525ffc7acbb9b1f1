package application

import (
	"context"
	"errors"
	"testing"
)

func TestRoomService_ListRooms(t *testing.T) {
	t.Parallel()

	t.Run("orders by price then type", func(t *testing.T) {
		t.Parallel()

		repo := &roomRepositoryStub{rooms: []Room{
			{ID: "301", Type: "Suite", Price: 30000, Capacity: 4},
			{ID: "202", Type: "twin", Price: 12000, Capacity: 2},
			{ID: "201", Type: "Double", Price: 12000, Capacity: 2},
			{ID: "101", Type: "Single", Price: 8000, Capacity: 1},
		}}
		svc := NewRoomService(repo)

		rooms, err := svc.ListRooms(context.Background())
		if err != nil {
			t.Fatalf("ListRooms failed: %v", err)
		}

		want := []string{"101", "201", "202", "301"}
		if len(rooms) != len(want) {
			t.Fatalf("expected %d rooms, got %d", len(want), len(rooms))
		}
		for i, id := range want {
			if rooms[i].ID != id {
				t.Fatalf("position %d: expected %s, got %s", i, id, rooms[i].ID)
			}
		}
		if repo.rooms[0].ID != "301" {
			t.Fatalf("expected repository slice to be left untouched")
		}
	})

	t.Run("propagates repository errors", func(t *testing.T) {
		t.Parallel()

		svc := NewRoomService(&roomRepositoryStub{err: ErrStorageUnavailable})
		if _, err := svc.ListRooms(context.Background()); !errors.Is(err, ErrStorageUnavailable) {
			t.Fatalf("expected ErrStorageUnavailable, got %v", err)
		}
	})

	t.Run("tolerates a missing repository", func(t *testing.T) {
		t.Parallel()

		rooms, err := NewRoomService(nil).ListRooms(context.Background())
		if err != nil || rooms != nil {
			t.Fatalf("expected empty result, got %#v, %v", rooms, err)
		}
	})
}

func TestRoomService_GetRoom(t *testing.T) {
	t.Parallel()

	svc := NewRoomService(&roomRepositoryStub{rooms: []Room{{ID: "101", Type: "Single"}}})

	room, err := svc.GetRoom(context.Background(), " 101 ")
	if err != nil || room.Type != "Single" {
		t.Fatalf("unexpected result %#v, %v", room, err)
	}
	if _, err := svc.GetRoom(context.Background(), "999"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.GetRoom(context.Background(), ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for blank id, got %v", err)
	}
}

// roomRepositoryStub implements RoomRepository and RoomLookup for tests.
type roomRepositoryStub struct {
	rooms []Room
	err   error
}

func (r *roomRepositoryStub) ListRooms(ctx context.Context) ([]Room, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.rooms, nil
}

func (r *roomRepositoryStub) GetRoom(ctx context.Context, id string) (Room, error) {
	if r.err != nil {
		return Room{}, r.err
	}
	for _, room := range r.rooms {
		if room.ID == id {
			return room, nil
		}
	}
	return Room{}, ErrNotFound
}
