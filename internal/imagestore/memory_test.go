package imagestore_test

import (
	"testing"

	"feedgrid/internal/imagestore"
	"feedgrid/internal/testutil"
)

func TestMemoryStore(t *testing.T) {
	t.Run("deduplicates identical content", func(t *testing.T) {
		store := imagestore.NewMemoryStore()
		src := testutil.MakePNG(t, 40, 40, 1)

		first, err := store.Save(src)
		if err != nil {
			t.Fatalf("first Save() error = %v", err)
		}
		second, err := store.Save(src)
		if err != nil {
			t.Fatalf("second Save() error = %v", err)
		}
		if first != second {
			t.Errorf("keys differ: %q vs %q", first, second)
		}

		entries, err := store.ListAll()
		if err != nil {
			t.Fatalf("ListAll() error = %v", err)
		}
		if len(entries) != 1 {
			t.Errorf("stored %d entries, want 1", len(entries))
		}
	})

	t.Run("resolve and delete round-trip", func(t *testing.T) {
		store := imagestore.NewMemoryStore()
		key, err := store.Save(testutil.MakePNG(t, 40, 40, 2))
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		handle, err := store.Resolve(key)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if handle == "" {
			t.Fatal("Resolve() returned an empty handle for a stored key")
		}

		existed, err := store.Delete(key)
		if err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if !existed {
			t.Error("Delete() = false for a stored key")
		}
		if _, ok := store.Handles().Open(handle); ok {
			t.Error("handle survived deletion")
		}

		resolved, err := store.Resolve(key)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if resolved != "" {
			t.Error("deleted key still resolves")
		}
	})

	t.Run("rejects undecodable bytes", func(t *testing.T) {
		store := imagestore.NewMemoryStore()
		if _, err := store.Save([]byte("not an image")); err == nil {
			t.Fatal("Save() expected error for undecodable bytes")
		}
	})
}
