package imagestore

import (
	"sync"

	"github.com/google/uuid"
)

// HandleRegistry mints process-local, revocable blob handles: opaque
// references usable to read binary data without copying it into every
// caller. Handles that are never revoked live until the process exits,
// which is acceptable for a single session.
type HandleRegistry struct {
	mu    sync.Mutex
	blobs map[string][]byte   // handle -> blob
	byKey map[string][]string // store key -> handles minted for it
}

// NewHandleRegistry creates an empty registry.
func NewHandleRegistry() *HandleRegistry {
	return &HandleRegistry{
		blobs: make(map[string][]byte),
		byKey: make(map[string][]string),
	}
}

// Register mints a new handle for the blob stored under key.
func (r *HandleRegistry) Register(key string, blob []byte) string {
	handle := "blob:" + uuid.New().String()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.blobs[handle] = blob
	r.byKey[key] = append(r.byKey[key], handle)
	return handle
}

// Open returns the blob behind a handle, or false if the handle is unknown
// or has been revoked.
func (r *HandleRegistry) Open(handle string) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	blob, ok := r.blobs[handle]
	return blob, ok
}

// Revoke invalidates a single handle. Returns whether it existed.
func (r *HandleRegistry) Revoke(handle string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.blobs[handle]; !ok {
		return false
	}
	delete(r.blobs, handle)
	for key, handles := range r.byKey {
		for i, h := range handles {
			if h == handle {
				r.byKey[key] = append(handles[:i], handles[i+1:]...)
				if len(r.byKey[key]) == 0 {
					delete(r.byKey, key)
				}
				return true
			}
		}
	}
	return true
}

// RevokeKey invalidates every handle minted for a store key. Returns the
// number of handles revoked. Called when the underlying entry is deleted.
func (r *HandleRegistry) RevokeKey(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	handles := r.byKey[key]
	for _, h := range handles {
		delete(r.blobs, h)
	}
	delete(r.byKey, key)
	return len(handles)
}

// Len returns the number of live handles.
func (r *HandleRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.blobs)
}
