package migration

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"
)

// Manager orchestrates scanning, verification and execution of migrations.
type Manager struct {
	scanner  *Scanner
	executor Executor
	logger   *slog.Logger
}

// NewManager wires a scanner and executor together.
func NewManager(scanner *Scanner, executor Executor, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{scanner: scanner, executor: executor, logger: logger.With("component", "migration")}
}

// RunMigrations applies every pending migration in version order. Applied
// migrations whose file content changed since they ran abort the run.
func (m *Manager) RunMigrations(ctx context.Context) error {
	start := time.Now()

	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		m.logger.ErrorContext(ctx, "failed to initialize version table", "error", err)
		return fmt.Errorf("initialize version table: %w", err)
	}

	status, err := m.Status(ctx)
	if err != nil {
		return err
	}

	m.logger.InfoContext(ctx, "schema version",
		"current_version", status.CurrentVersion,
		"pending", len(status.Pending),
	)
	if len(status.Pending) == 0 {
		return nil
	}

	for i, migration := range status.Pending {
		logger := m.logger.With(
			"version", migration.Version,
			"description", migration.Description,
			"file", migration.FilePath,
		)
		migrationStart := time.Now()

		if err := m.executor.ExecuteMigration(ctx, migration, SplitStatements(migration.SQL)); err != nil {
			logger.ErrorContext(ctx, "migration failed", "error", err)
			return newMigrationError(migration, "execute", fmt.Errorf("%w: %v", ErrMigrationFailed, err))
		}

		logger.InfoContext(ctx, "migration applied",
			"position", fmt.Sprintf("%d/%d", i+1, len(status.Pending)),
			"duration", time.Since(migrationStart),
		)
	}

	m.logger.InfoContext(ctx, "migrations completed",
		"applied", len(status.Pending),
		"duration", time.Since(start),
	)
	return nil
}

// Status compares the scanned files with the recorded migrations.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	available, err := m.scanner.ScanMigrations()
	if err != nil {
		return Status{}, err
	}

	applied, err := m.executor.AppliedMigrations(ctx)
	if err != nil {
		return Status{}, err
	}
	sortApplied(applied)

	byVersion := make(map[string]Migration, len(available))
	for _, migration := range available {
		byVersion[migration.Version] = migration
	}

	recorded := make(map[string]bool, len(applied))
	status := Status{Applied: applied}
	for _, a := range applied {
		recorded[a.Version] = true
		status.CurrentVersion = a.Version
		if migration, ok := byVersion[a.Version]; ok && a.Checksum != "" && migration.Checksum != a.Checksum {
			return Status{}, newMigrationError(migration, "verify", ErrChecksumMismatch)
		}
	}

	for _, migration := range available {
		if !recorded[migration.Version] {
			status.Pending = append(status.Pending, migration)
		}
	}
	return status, nil
}

func sortApplied(applied []AppliedMigration) {
	sort.Slice(applied, func(i, j int) bool {
		return versionLess(applied[i].Version, applied[j].Version)
	})
}
