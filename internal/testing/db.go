// Package testing provides testing utilities and helpers for the yieldfolio project.
package testing

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/aristath/yieldfolio/internal/database"
	_ "github.com/mattn/go-sqlite3"
)

// NewTestDB creates a migrated file-backed database in a per-test temp directory.
// The database is closed when the test finishes.
func NewTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(database.Config{
		Path: filepath.Join(t.TempDir(), "test.db"),
		Name: "test",
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database: %v", err)
		}
	})

	if err := db.Migrate(); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

// NewMemoryDB creates an in-memory SQLite database with the application schema applied.
// The pool is pinned to one connection because every :memory: connection is a separate database.
func NewMemoryDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.Exec(database.Schema()); err != nil {
		t.Fatalf("Failed to apply schema: %v", err)
	}

	return db
}
