package testutil

import (
	"testing"

	"feedgrid/internal/imagestore"
)

// NewTestImageStore creates a new in-memory SQLite image store with the
// schema migrated. The store is automatically closed when the test completes.
func NewTestImageStore(t *testing.T) *imagestore.SQLiteStore {
	t.Helper()

	store, err := imagestore.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create image store: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
	})

	return store
}
