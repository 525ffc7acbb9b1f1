// Package migration applies versioned SQL migrations and records them in a
// schema_migrations table.
//
// Migration files are read from an fs.FS (usually an embedded directory) and
// follow the naming convention {version}_{description}.sql, for example
// "001_create_core_tables.sql". Each migration runs in its own transaction
// together with the row that records it, so a failed migration leaves no
// partial schema behind.
//
// The Executor interface is storage agnostic: SQLExecutor serves database/sql
// drivers such as SQLite, and other backends provide their own implementation.
//
//	scanner := NewScanner(migrationsFS, "migrations")
//	manager := NewManager(scanner, NewSQLExecutor(db), logger)
//	if err := manager.RunMigrations(ctx); err != nil {
//		return err
//	}
package migration
