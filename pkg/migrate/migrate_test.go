package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeMigration(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

const validMigration = `-- +goose Up
CREATE TABLE demo (id TEXT PRIMARY KEY);

-- +goose Down
DROP TABLE demo;
`

func TestValidateDirAcceptsWellFormedMigrations(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "20250101120000_first.sql", validMigration)
	writeMigration(t, dir, "20250102120000_second.sql", validMigration)
	writeMigration(t, dir, "README.md", "not a migration")

	if err := ValidateDir(dir); err != nil {
		t.Fatalf("expected valid dir, got %v", err)
	}
}

func TestValidateDirRejectsBadFilename(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "001_first.sql", validMigration)

	err := ValidateDir(dir)
	if err == nil {
		t.Fatal("expected error for short version prefix")
	}
	if !strings.Contains(err.Error(), "invalid migration filename") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestValidateDirRejectsDuplicateVersions(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "20250101120000_first.sql", validMigration)
	writeMigration(t, dir, "20250101120000_second.sql", validMigration)

	err := ValidateDir(dir)
	if err == nil {
		t.Fatal("expected error for duplicate versions")
	}
	if !strings.Contains(err.Error(), "duplicate migration version") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestValidateDirRequiresGooseHeaders(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "20250101120000_first.sql", "CREATE TABLE demo (id TEXT);")

	err := ValidateDir(dir)
	if err == nil {
		t.Fatal("expected error for missing goose headers")
	}
	if !strings.Contains(err.Error(), "+goose Up") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestCreateSQLMigrationSanitizesName(t *testing.T) {
	dir := t.TempDir()

	path, err := CreateSQLMigration(dir, "Add Expiry  Index!")
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	base := filepath.Base(path)
	if !strings.HasSuffix(base, "_add_expiry_index.sql") {
		t.Fatalf("unexpected filename %s", base)
	}
	if !sqlFileRe.MatchString(base) {
		t.Fatalf("generated filename %s fails its own validation", base)
	}

	// The generated file must pass validation.
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("generated migration invalid: %v", err)
	}
}

func TestCreateSQLMigrationRejectsEmptyInput(t *testing.T) {
	if _, err := CreateSQLMigration("", "name"); err == nil {
		t.Fatal("expected error without dir")
	}
	if _, err := CreateSQLMigration(t.TempDir(), ""); err == nil {
		t.Fatal("expected error without name")
	}
	if _, err := CreateSQLMigration(t.TempDir(), "!!!"); err == nil {
		t.Fatal("expected error for a name that sanitizes to nothing")
	}
}

// The shipped migrations must always pass their own validation.
func TestShippedMigrationsAreValid(t *testing.T) {
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("shipped migrations invalid: %v", err)
	}
}
