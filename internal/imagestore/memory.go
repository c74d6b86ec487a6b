package imagestore

import (
	"sync"

	"feedgrid/internal/imaging"
	"feedgrid/internal/planner"
)

// MemoryStore is an in-memory implementation of planner.ImageStore.
// It keeps all blobs in a map, making it useful for testing.
// This implementation is safe for concurrent use.
type MemoryStore struct {
	mu      sync.Mutex
	blobs   map[string][]byte // key -> storage blob
	handles *HandleRegistry
}

// NewMemoryStore creates a new in-memory image store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs:   make(map[string][]byte),
		handles: NewHandleRegistry(),
	}
}

// Save stores the normalized form of src under its content hash.
// Saving identical bytes twice keeps the first blob.
func (m *MemoryStore) Save(src []byte) (string, error) {
	key := imaging.Hash(src)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.blobs[key]; ok {
		return key, nil
	}

	blob, _, _, err := imaging.Downscale(src)
	if err != nil {
		return "", err
	}

	m.blobs[key] = blob
	return key, nil
}

// Resolve returns a handle for the stored blob, or "" if absent.
func (m *MemoryStore) Resolve(key string) (string, error) {
	m.mu.Lock()
	blob, ok := m.blobs[key]
	m.mu.Unlock()
	if !ok {
		return "", nil
	}
	return m.handles.Register(key, blob), nil
}

// Delete removes the entry and revokes its handles.
func (m *MemoryStore) Delete(key string) (bool, error) {
	m.mu.Lock()
	_, ok := m.blobs[key]
	delete(m.blobs, key)
	m.mu.Unlock()
	m.handles.RevokeKey(key)
	return ok, nil
}

// ListAll returns every stored entry with a fresh handle.
func (m *MemoryStore) ListAll() ([]planner.ImageEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := make([]planner.ImageEntry, 0, len(m.blobs))
	for key, blob := range m.blobs {
		entries = append(entries, planner.ImageEntry{
			Key:    key,
			Handle: m.handles.Register(key, blob),
		})
	}
	return entries, nil
}

// Handles exposes the registry so callers can open and revoke handles.
func (m *MemoryStore) Handles() *HandleRegistry {
	return m.handles
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error { return nil }

// Compile-time check that MemoryStore implements planner.ImageStore.
var _ planner.ImageStore = (*MemoryStore)(nil)
