// Package sqlite implements the persistence repositories on top of SQLite
// using the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/hotel-reservations/internal/persistence"
	"github.com/example/hotel-reservations/internal/persistence/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Timestamps are stored in UTC with a fixed width so text comparison orders them.
const (
	timestampLayout = "2006-01-02T15:04:05.000000000Z"
	dateLayout      = "2006-01-02"
)

var _ persistence.Store = (*Store)(nil)

// Store bundles the SQLite repositories that share one connection pool.
type Store struct {
	*RoomRepository
	*UserRepository
	*ReservationRepository
	*SessionRepository

	pool   *ConnectionPool
	logger *slog.Logger
}

// Open creates the connection pool and the repositories. Call Migrate before use.
func Open(config migration.SQLiteConfig, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pool, err := NewConnectionPool(config)
	if err != nil {
		return nil, err
	}
	return &Store{
		RoomRepository:        NewRoomRepository(pool),
		UserRepository:        NewUserRepository(pool),
		ReservationRepository: NewReservationRepository(pool),
		SessionRepository:     NewSessionRepository(pool),
		pool:                  pool,
		logger:                logger,
	}, nil
}

// Migrate applies the embedded schema migrations.
func (s *Store) Migrate(ctx context.Context) error {
	manager := migration.NewManager(
		migration.NewScanner(migrationFiles, "migrations"),
		migration.NewSQLExecutor(s.pool.DB()),
		s.logger,
	)
	if err := manager.RunMigrations(ctx); err != nil {
		return fmt.Errorf("sqlite migrate: %w", err)
	}
	return nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", persistence.ErrUnavailable, err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(value string) (time.Time, error) {
	return time.ParseInLocation(timestampLayout, value, time.UTC)
}

// formatDate keeps the civil date of t in its own location.
func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func parseDate(value string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, value, time.UTC)
}
