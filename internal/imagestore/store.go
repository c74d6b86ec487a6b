// Package imagestore implements the content-addressed image store: a
// key-value store keyed by the SHA-256 of the original image bytes, holding
// the downscaled storage representation produced by the imaging package.
package imagestore

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"feedgrid/internal/imagestore/migrations"
	"feedgrid/internal/imaging"
	"feedgrid/internal/planner"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore implements planner.ImageStore on a dedicated SQLite database,
// kept separate from the planner metadata database.
type SQLiteStore struct {
	db      *sql.DB
	handles *HandleRegistry
	clock   planner.Clock

	// mu makes the check-then-insert in Save atomic with respect to
	// concurrent saves of the same content within this process.
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the image store at path and migrates
// its schema. path can be ":memory:" for tests. A migration failure is
// fatal for the store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating image store: %w", err)
	}

	return &SQLiteStore{
		db:      db,
		handles: NewHandleRegistry(),
		clock:   planner.RealClock{},
	}, nil
}

// OpenConnection opens a SQLite connection configured for the image store.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image store: %w", err)
	}

	// A single connection serializes writers and keeps :memory: databases
	// from silently splitting across pooled connections.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// Save stores the normalized form of src under its content hash and returns
// the key. The hash is computed before any encoding, and the existence
// check and conditional insert happen inside one transaction, so saving
// byte-identical content twice performs at most one physical write and the
// second call never needs to re-encode.
func (s *SQLiteStore) Save(src []byte) (string, error) {
	key := imaging.Hash(src)

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	var one int
	err = tx.QueryRow("SELECT 1 FROM images WHERE key = ?", key).Scan(&one)
	if err == nil {
		// Already stored; deduplicated.
		if err := tx.Commit(); err != nil {
			return "", fmt.Errorf("committing transaction: %w", err)
		}
		return key, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("checking for existing image: %w", err)
	}

	blob, _, _, err := imaging.Downscale(src)
	if err != nil {
		// LoadError or EncodeError: abort, no partial entry is written.
		return "", err
	}

	if _, err := tx.Exec(
		"INSERT INTO images (key, blob, created_at) VALUES (?, ?, ?)",
		key, blob, s.clock.Now(),
	); err != nil {
		return "", fmt.Errorf("inserting image: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing transaction: %w", err)
	}

	return key, nil
}

// Resolve returns a fresh handle for the stored blob, or an empty string if
// the key is absent. Absence is not an error.
func (s *SQLiteStore) Resolve(key string) (string, error) {
	var blob []byte
	err := s.db.QueryRow("SELECT blob FROM images WHERE key = ?", key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("resolving image: %w", err)
	}
	return s.handles.Register(key, blob), nil
}

// Delete removes the entry and revokes its handles. Returns whether the
// entry existed.
func (s *SQLiteStore) Delete(key string) (bool, error) {
	res, err := s.db.Exec("DELETE FROM images WHERE key = ?", key)
	if err != nil {
		return false, fmt.Errorf("deleting image: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting image: %w", err)
	}
	s.handles.RevokeKey(key)
	return n > 0, nil
}

// ListAll returns every stored entry with a freshly minted handle.
// Diagnostic and export path.
func (s *SQLiteStore) ListAll() ([]planner.ImageEntry, error) {
	rows, err := s.db.Query("SELECT key, blob FROM images ORDER BY created_at, key")
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}
	defer rows.Close()

	var entries []planner.ImageEntry
	for rows.Next() {
		var key string
		var blob []byte
		if err := rows.Scan(&key, &blob); err != nil {
			return nil, fmt.Errorf("scanning image row: %w", err)
		}
		entries = append(entries, planner.ImageEntry{
			Key:    key,
			Handle: s.handles.Register(key, blob),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}
	return entries, nil
}

// Handles exposes the registry so callers can open and revoke handles.
func (s *SQLiteStore) Handles() *HandleRegistry {
	return s.handles
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteStore implements planner.ImageStore.
var _ planner.ImageStore = (*SQLiteStore)(nil)
