package planner

// ImageStore provides an interface for content-addressed image storage.
// Keys are lowercase hex SHA-256 digests of the original image bytes, so
// identical source images always map to a single stored entry.
type ImageStore interface {
	// Save normalizes the source bytes (hash, downscale, re-encode) and
	// stores the result under its content hash. Saving bytes whose hash is
	// already present performs no second physical write. Returns the key.
	Save(src []byte) (string, error)

	// Resolve returns a process-local blob handle for the stored image,
	// or an empty string if the key is absent. A missing key is not an error.
	Resolve(key string) (string, error)

	// Delete removes the entry and revokes any handles minted for it.
	// Returns whether the entry existed. It does not consult referencing posts.
	Delete(key string) (bool, error)

	// ListAll returns every stored entry with a freshly minted handle.
	ListAll() ([]ImageEntry, error)

	// Close closes the store.
	Close() error
}

// ImageEntry is a stored image key paired with a resolvable handle.
type ImageEntry struct {
	Key    string
	Handle string
}

// Loader reads raw image bytes from a source reference (a file path in the
// CLI; tests supply in-memory sources). Failures are reported as
// *imaging.LoadError so callers can distinguish them from encode failures.
type Loader interface {
	Load(sourceRef string) ([]byte, error)
}
