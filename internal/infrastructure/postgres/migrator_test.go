package postgres

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindMigrations(t *testing.T) {
	path, err := FindMigrations()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range []string{"000001_create_accounts.up.sql", "000002_create_transactions.up.sql"} {
		if _, err := os.Stat(filepath.Join(path, name)); err != nil {
			t.Fatalf("expected %s in %s: %v", name, path, err)
		}
	}
}

func TestRunMigrationsBadSource(t *testing.T) {
	err := RunMigrations("postgres://localhost:1/db?sslmode=disable", filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatalf("expected error for missing migrations directory")
	}
}
