package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/hotel-reservations/internal/persistence"
)

func TestSessionRepository_Lifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedUser(t, store, "user1", "ada")

	expires := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	created, err := store.CreateSession(ctx, persistence.Session{
		ID:          "sess1",
		UserID:      "user1",
		Token:       " token-1 ",
		Fingerprint: "ua",
		ExpiresAt:   expires,
	})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if created.Token != "token-1" || created.CreatedAt.IsZero() {
		t.Fatalf("unexpected created session: %#v", created)
	}

	got, err := store.GetSession(ctx, "token-1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.UserID != "user1" || !got.ExpiresAt.Equal(expires) || got.RevokedAt != nil {
		t.Fatalf("unexpected session: %#v", got)
	}

	revokedAt := time.Date(2029, 12, 31, 0, 0, 0, 0, time.UTC)
	revoked, err := store.RevokeSession(ctx, "token-1", revokedAt)
	if err != nil {
		t.Fatalf("RevokeSession failed: %v", err)
	}
	if revoked.RevokedAt == nil || !revoked.RevokedAt.Equal(revokedAt) {
		t.Fatalf("unexpected revocation: %#v", revoked.RevokedAt)
	}

	again, err := store.RevokeSession(ctx, "token-1", revokedAt.Add(time.Hour))
	if err != nil {
		t.Fatalf("second RevokeSession failed: %v", err)
	}
	if !again.RevokedAt.Equal(revokedAt) {
		t.Errorf("revocation time changed to %v", again.RevokedAt)
	}

	if _, err := store.RevokeSession(ctx, "missing", revokedAt); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionRepository_CreateValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedUser(t, store, "user1", "ada")

	tests := []struct {
		name    string
		session persistence.Session
		want    error
	}{
		{name: "missing id", session: persistence.Session{UserID: "user1", Token: "t"}, want: persistence.ErrConstraintViolation},
		{name: "blank token", session: persistence.Session{ID: "s", UserID: "user1", Token: "  "}, want: persistence.ErrConstraintViolation},
		{name: "missing user", session: persistence.Session{ID: "s", Token: "t"}, want: persistence.ErrConstraintViolation},
		{name: "unknown user", session: persistence.Session{ID: "s", UserID: "ghost", Token: "t"}, want: persistence.ErrForeignKeyViolation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.CreateSession(ctx, tt.session)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSessionRepository_RevokeUserSessions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedUser(t, store, "user1", "ada")
	seedUser(t, store, "user2", "bob")

	expires := time.Now().Add(time.Hour)
	for _, s := range []persistence.Session{
		{ID: "s1", UserID: "user1", Token: "t1", ExpiresAt: expires},
		{ID: "s2", UserID: "user1", Token: "t2", ExpiresAt: expires},
		{ID: "s3", UserID: "user2", Token: "t3", ExpiresAt: expires},
	} {
		if _, err := store.CreateSession(ctx, s); err != nil {
			t.Fatalf("CreateSession %s: %v", s.ID, err)
		}
	}

	if err := store.RevokeUserSessions(ctx, "user1", time.Now()); err != nil {
		t.Fatalf("RevokeUserSessions failed: %v", err)
	}

	for token, wantRevoked := range map[string]bool{"t1": true, "t2": true, "t3": false} {
		s, err := store.GetSession(ctx, token)
		if err != nil {
			t.Fatalf("GetSession %s: %v", token, err)
		}
		if (s.RevokedAt != nil) != wantRevoked {
			t.Errorf("session %s revoked=%v, want %v", token, s.RevokedAt != nil, wantRevoked)
		}
	}
}

func TestSessionRepository_DeleteExpiredSessions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedUser(t, store, "user1", "ada")

	reference := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, s := range []persistence.Session{
		{ID: "old", UserID: "user1", Token: "old", ExpiresAt: reference.Add(-time.Second)},
		{ID: "edge", UserID: "user1", Token: "edge", ExpiresAt: reference},
		{ID: "live", UserID: "user1", Token: "live", ExpiresAt: reference.Add(time.Millisecond)},
	} {
		if _, err := store.CreateSession(ctx, s); err != nil {
			t.Fatalf("CreateSession %s: %v", s.ID, err)
		}
	}

	if err := store.DeleteExpiredSessions(ctx, reference); err != nil {
		t.Fatalf("DeleteExpiredSessions failed: %v", err)
	}

	for _, token := range []string{"old", "edge"} {
		if _, err := store.GetSession(ctx, token); !errors.Is(err, persistence.ErrNotFound) {
			t.Errorf("expected %s to be deleted, got %v", token, err)
		}
	}
	if _, err := store.GetSession(ctx, "live"); err != nil {
		t.Errorf("live session removed: %v", err)
	}
}
