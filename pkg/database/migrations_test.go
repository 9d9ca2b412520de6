package database

import (
	"os"
	"path/filepath"
	"testing"
)

func writeMigration(t *testing.T, dir, filename, sql string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(sql), 0644); err != nil {
		t.Fatalf("write %s: %v", filename, err)
	}
}

func TestLoadMigrationsSortedByVersion(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "002_add_indexes.sql", "CREATE INDEX idx ON t(a);")
	writeMigration(t, dir, "001_initial_schema.sql", "CREATE TABLE t (a TEXT);")
	writeMigration(t, dir, "010_late_change.sql", "ALTER TABLE t ADD COLUMN b TEXT;")
	writeMigration(t, dir, "README.txt", "not a migration")

	migrations, err := loadMigrations(dir)
	if err != nil {
		t.Fatalf("loadMigrations: %v", err)
	}

	if len(migrations) != 3 {
		t.Fatalf("got %d migrations, want 3", len(migrations))
	}
	wantVersions := []int{1, 2, 10}
	wantNames := []string{"initial_schema", "add_indexes", "late_change"}
	for i, m := range migrations {
		if m.Version != wantVersions[i] {
			t.Errorf("migration %d version = %d, want %d", i, m.Version, wantVersions[i])
		}
		if m.Name != wantNames[i] {
			t.Errorf("migration %d name = %q, want %q", i, m.Name, wantNames[i])
		}
		if m.SQL == "" {
			t.Errorf("migration %d has empty SQL", i)
		}
	}
}

func TestLoadMigrationsRejectsUnversionedFilename(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "initial.sql", "CREATE TABLE t (a TEXT);")

	if _, err := loadMigrations(dir); err == nil {
		t.Error("expected error for filename without a numeric prefix")
	}
}
