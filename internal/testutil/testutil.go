package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

// NewTestDB opens an in-memory SQLite database for repository tests. The
// caller applies the embedded migrations before use.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON;"); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}

	// A single connection keeps the in-memory database alive across queries
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return db
}

// CleanupDB closes the test database
func CleanupDB(db *sql.DB) {
	db.Close()
}
