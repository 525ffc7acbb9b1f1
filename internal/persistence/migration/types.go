package migration

import (
	"context"
	"time"
)

// Migration represents a database migration with its metadata and SQL content.
type Migration struct {
	Version     string
	Description string
	SQL         string
	FilePath    string
	Checksum    string
}

// AppliedMigration represents a migration that has been recorded in schema_migrations.
type AppliedMigration struct {
	Version       string
	AppliedAt     time.Time
	ExecutionTime time.Duration
	Checksum      string
}

// Status summarises applied and pending migrations.
type Status struct {
	CurrentVersion string
	Applied        []AppliedMigration
	Pending        []Migration
}

// Executor runs migrations against a concrete datastore.
type Executor interface {
	// InitializeVersionTable creates the schema_migrations table if it does not exist.
	InitializeVersionTable(ctx context.Context) error
	// AppliedMigrations returns the recorded migrations ordered by version.
	AppliedMigrations(ctx context.Context) ([]AppliedMigration, error)
	// ExecuteMigration runs the statements and records the migration in one transaction.
	ExecuteMigration(ctx context.Context, migration Migration, statements []string) error
}
