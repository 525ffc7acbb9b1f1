package migration

import (
	"errors"
	"testing"
	"testing/fstest"
)

func TestScanner_ScanMigrations(t *testing.T) {
	t.Parallel()

	t.Run("orders migrations by numeric version", func(t *testing.T) {
		t.Parallel()

		fsys := fstest.MapFS{
			"migrations/010_add_index.sql": {Data: []byte("CREATE INDEX idx ON t (a);")},
			"migrations/002_seed.sql":      {Data: []byte("INSERT INTO t (a) VALUES (1);")},
			"migrations/001_create_t.sql":  {Data: []byte("-- table\nCREATE TABLE t (a INTEGER);")},
			"migrations/README.md":         {Data: []byte("ignored")},
		}

		migrations, err := NewScanner(fsys, "migrations").ScanMigrations()
		if err != nil {
			t.Fatalf("ScanMigrations failed: %v", err)
		}

		var versions []string
		for _, m := range migrations {
			versions = append(versions, m.Version)
		}
		if len(versions) != 3 || versions[0] != "001" || versions[1] != "002" || versions[2] != "010" {
			t.Fatalf("unexpected order: %v", versions)
		}
		if migrations[0].Description != "create t" {
			t.Fatalf("unexpected description: %q", migrations[0].Description)
		}
		if migrations[0].Checksum == "" || migrations[0].Checksum == migrations[1].Checksum {
			t.Fatalf("expected distinct checksums, got %q and %q", migrations[0].Checksum, migrations[1].Checksum)
		}
	})

	t.Run("rejects malformed file names", func(t *testing.T) {
		t.Parallel()

		fsys := fstest.MapFS{"migrations/create.sql": {Data: []byte("SELECT 1;")}}
		_, err := NewScanner(fsys, "migrations").ScanMigrations()
		if !errors.Is(err, ErrInvalidFileName) {
			t.Fatalf("expected ErrInvalidFileName, got %v", err)
		}
	})

	t.Run("rejects duplicate versions", func(t *testing.T) {
		t.Parallel()

		fsys := fstest.MapFS{
			"migrations/001_a.sql": {Data: []byte("SELECT 1;")},
			"migrations/1_b.sql":   {Data: []byte("SELECT 2;")},
		}
		_, err := NewScanner(fsys, "migrations").ScanMigrations()
		if !errors.Is(err, ErrDuplicateVersion) {
			t.Fatalf("expected ErrDuplicateVersion for 001 and 1, got %v", err)
		}
	})

	t.Run("rejects comment-only migrations", func(t *testing.T) {
		t.Parallel()

		fsys := fstest.MapFS{"migrations/001_empty.sql": {Data: []byte("-- nothing here\n")}}
		_, err := NewScanner(fsys, "migrations").ScanMigrations()
		if !errors.Is(err, ErrEmptyMigration) {
			t.Fatalf("expected ErrEmptyMigration, got %v", err)
		}
	})
}

func TestSplitStatements(t *testing.T) {
	t.Parallel()

	sql := `
-- header comment
CREATE TABLE a (id TEXT);
   -- indented comment
CREATE TABLE b (
	id TEXT
);
`
	statements := SplitStatements(sql)
	if len(statements) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(statements), statements)
	}
	if statements[1] != "CREATE TABLE b (\nid TEXT\n)" {
		t.Fatalf("unexpected second statement: %q", statements[1])
	}
}

func TestValidateFileName(t *testing.T) {
	t.Parallel()

	if err := ValidateFileName("003_add-rooms.sql"); err != nil {
		t.Fatalf("expected valid name, got %v", err)
	}
	for _, name := range []string{"add_rooms.sql", "003-add.sql", "003_add.txt", "003_.sql"} {
		if err := ValidateFileName(name); !errors.Is(err, ErrInvalidFileName) {
			t.Fatalf("expected %q to be rejected, got %v", name, err)
		}
	}
}
