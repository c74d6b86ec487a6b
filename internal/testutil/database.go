package testutil

import (
	"testing"

	"feedgrid/internal/database"
	"feedgrid/internal/planner"
)

// NewTestDatabase creates a new in-memory SQLite database with the schema
// migrated. The database is automatically closed when the test completes.
func NewTestDatabase(t *testing.T) planner.Database {
	t.Helper()

	db, err := database.NewSQLiteDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}
