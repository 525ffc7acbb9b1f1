// Package redis keeps authentication sessions in Redis so several web
// processes can share them while reservations stay in the SQL store.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/hotel-reservations/internal/persistence"
)

var _ persistence.SessionRepository = (*SessionStore)(nil)

const (
	sessionKeyPrefix     = "session:"
	userSessionKeyPrefix = "user_sessions:"
)

// SessionStore implements persistence.SessionRepository on Redis. Each session
// is a JSON document whose key expires together with the session; a set per
// user indexes the tokens for bulk revocation and is pruned by
// DeleteExpiredSessions.
type SessionStore struct {
	rdb    *redis.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewClient parses url, connects and verifies the connection.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%w: failed to connect to redis: %v", persistence.ErrUnavailable, err)
	}
	return rdb, nil
}

// NewSessionStore wraps an existing client.
func NewSessionStore(rdb *redis.Client, logger *slog.Logger) *SessionStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionStore{rdb: rdb, logger: logger.With("component", "redis_sessions"), now: time.Now}
}

// record is the stored JSON form of a session.
type record struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Token       string     `json:"token"`
	Fingerprint string     `json:"fingerprint,omitempty"`
	ExpiresAt   time.Time  `json:"expires_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
}

func toRecord(s persistence.Session) record {
	return record{
		ID:          s.ID,
		UserID:      s.UserID,
		Token:       s.Token,
		Fingerprint: s.Fingerprint,
		ExpiresAt:   s.ExpiresAt.UTC(),
		CreatedAt:   s.CreatedAt.UTC(),
		UpdatedAt:   s.UpdatedAt.UTC(),
		RevokedAt:   utcPtr(s.RevokedAt),
	}
}

func (r record) session() persistence.Session {
	return persistence.Session{
		ID:          r.ID,
		UserID:      r.UserID,
		Token:       r.Token,
		Fingerprint: r.Fingerprint,
		ExpiresAt:   r.ExpiresAt,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		RevokedAt:   utcPtr(r.RevokedAt),
	}
}

// CreateSession stores a session keyed by token. Tokens are unique.
func (s *SessionStore) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	session.Token = strings.TrimSpace(session.Token)
	if session.ID == "" || session.UserID == "" || session.Token == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}
	now := s.now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = session.CreatedAt

	ttl := sessionTTL(session.ExpiresAt, now)
	if ttl <= 0 {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}

	data, err := json.Marshal(toRecord(session))
	if err != nil {
		return persistence.Session{}, fmt.Errorf("failed to marshal session: %w", err)
	}

	created, err := s.rdb.SetNX(ctx, sessionKey(session.Token), data, ttl).Result()
	if err != nil {
		return persistence.Session{}, mapError(err)
	}
	if !created {
		return persistence.Session{}, persistence.ErrDuplicate
	}

	if err := s.rdb.SAdd(ctx, userSessionKey(session.UserID), session.Token).Err(); err != nil {
		return persistence.Session{}, fmt.Errorf("failed to index session: %w", mapError(err))
	}

	return toRecord(session).session(), nil
}

// GetSession retrieves a session by token.
func (s *SessionStore) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}
	rec, err := s.load(ctx, s.rdb, token)
	if err != nil {
		return persistence.Session{}, err
	}
	return rec.session(), nil
}

// RevokeSession marks the session revoked, keeping any earlier revocation time.
func (s *SessionStore) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}

	var result record
	key := sessionKey(token)
	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		rec, err := s.load(ctx, tx, token)
		if err != nil {
			return err
		}
		if rec.RevokedAt == nil {
			rec = markRevoked(rec, revokedAt)
		}
		result = rec

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, redis.KeepTTL)
			return nil
		})
		return err
	}, key)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.Session{}, err
		}
		return persistence.Session{}, mapError(err)
	}
	return result.session(), nil
}

// RevokeUserSessions revokes every session indexed for userID.
func (s *SessionStore) RevokeUserSessions(ctx context.Context, userID string, revokedAt time.Time) error {
	if userID == "" {
		return persistence.ErrNotFound
	}
	tokens, err := s.rdb.SMembers(ctx, userSessionKey(userID)).Result()
	if err != nil {
		return mapError(err)
	}
	for _, token := range tokens {
		if _, err := s.RevokeSession(ctx, token, revokedAt); err != nil && !errors.Is(err, persistence.ErrNotFound) {
			return err
		}
	}
	return nil
}

// DeleteExpiredSessions drops index entries whose session keys have expired.
// Redis removes the session documents themselves through key expiry.
func (s *SessionStore) DeleteExpiredSessions(ctx context.Context, _ time.Time) error {
	var cursor uint64
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, userSessionKeyPrefix+"*", 100).Result()
		if err != nil {
			return mapError(err)
		}
		for _, userKey := range keys {
			if err := s.pruneIndex(ctx, userKey); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Ping checks connectivity.
func (s *SessionStore) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", persistence.ErrUnavailable, err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *SessionStore) Close() error {
	return s.rdb.Close()
}

func (s *SessionStore) pruneIndex(ctx context.Context, userKey string) error {
	tokens, err := s.rdb.SMembers(ctx, userKey).Result()
	if err != nil {
		return mapError(err)
	}
	var stale []any
	for _, token := range tokens {
		exists, err := s.rdb.Exists(ctx, sessionKey(token)).Result()
		if err != nil {
			return mapError(err)
		}
		if exists == 0 {
			stale = append(stale, token)
		}
	}
	if len(stale) == 0 {
		return nil
	}
	if err := s.rdb.SRem(ctx, userKey, stale...).Err(); err != nil {
		return mapError(err)
	}
	s.logger.DebugContext(ctx, "pruned expired sessions", "key", userKey, "count", len(stale))
	return nil
}

func (s *SessionStore) load(ctx context.Context, c redis.Cmdable, token string) (record, error) {
	data, err := c.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return record{}, persistence.ErrNotFound
		}
		return record{}, mapError(err)
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return record{}, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return rec, nil
}

func markRevoked(rec record, revokedAt time.Time) record {
	at := revokedAt.UTC()
	rec.RevokedAt = &at
	rec.UpdatedAt = at
	return rec
}

func sessionTTL(expiresAt, now time.Time) time.Duration {
	return expiresAt.Sub(now)
}

func sessionKey(token string) string {
	return sessionKeyPrefix + token
}

func userSessionKey(userID string) string {
	return userSessionKeyPrefix + userID
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.Nil) {
		return persistence.ErrNotFound
	}
	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("%w: concurrent session update: %v", persistence.ErrUnavailable, err)
	}
	return fmt.Errorf("%w: %v", persistence.ErrUnavailable, err)
}
