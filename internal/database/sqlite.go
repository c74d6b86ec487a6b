package database

import (
	"database/sql"
	"errors"
	"fmt"

	"feedgrid/internal/database/migrations"
	"feedgrid/internal/planner"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// MigrationError reports a schema setup failure. Initialization cannot
// proceed past it.
type MigrationError struct {
	Err error
}

func (e *MigrationError) Error() string { return fmt.Sprintf("migrating database: %v", e.Err) }

func (e *MigrationError) Unwrap() error { return e.Err }

// SQLiteDatabase implements the planner.Database interface using SQLite.
type SQLiteDatabase struct {
	db   *sql.DB
	path string
}

// NewSQLiteDatabase opens a SQLite database and lazily migrates its schema.
// path can be a file path or ":memory:" for an in-memory database.
// A migration failure is returned as *MigrationError and is fatal.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, &MigrationError{Err: err}
	}

	return &SQLiteDatabase{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite connection with appropriate
// PRAGMAs. Exported for tools and tests that need a raw connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection serializes writers and keeps :memory: databases
	// from silently splitting across pooled connections.
	db.SetMaxOpenConns(1)

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// Feed operations

func (s *SQLiteDatabase) AddFeed(feed *planner.Feed) error {
	_, err := s.db.Exec(
		"INSERT INTO feeds (id, name, created_at) VALUES (?, ?, ?)",
		feed.ID, feed.Name, feed.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting feed: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) UpdateFeed(feed *planner.Feed) error {
	_, err := s.db.Exec(
		"INSERT INTO feeds (id, name, created_at) VALUES (?, ?, ?) "+
			"ON CONFLICT (id) DO UPDATE SET name = excluded.name, created_at = excluded.created_at",
		feed.ID, feed.Name, feed.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("updating feed: %w", err)
	}
	return nil
}

// DeleteFeedCascade deletes the feed row and every post row whose feed_id
// matches, in one atomic transaction.
func (s *SQLiteDatabase) DeleteFeedCascade(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM posts WHERE feed_id = ?", id); err != nil {
		return fmt.Errorf("deleting feed posts: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM feeds WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting feed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) GetFeed(id string) (*planner.Feed, error) {
	feed := &planner.Feed{}
	err := s.db.QueryRow(
		"SELECT id, name, created_at FROM feeds WHERE id = ?", id,
	).Scan(&feed.ID, &feed.Name, &feed.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, fmt.Errorf("finding feed: %w", err)
	}
	return feed, nil
}

func (s *SQLiteDatabase) GetAllFeeds() ([]*planner.Feed, error) {
	rows, err := s.db.Query("SELECT id, name, created_at FROM feeds ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("listing feeds: %w", err)
	}
	defer rows.Close()

	var feeds []*planner.Feed
	for rows.Next() {
		feed := &planner.Feed{}
		if err := rows.Scan(&feed.ID, &feed.Name, &feed.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning feed row: %w", err)
		}
		feeds = append(feeds, feed)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing feeds: %w", err)
	}
	return feeds, nil
}

// Post operations

const postColumns = "id, feed_id, position, is_locked, blob_key, crop_pos_x, crop_pos_y, crop_scale, crop_zoom"

func (s *SQLiteDatabase) AddPost(post *planner.Post) error {
	_, err := s.db.Exec(
		"INSERT INTO posts ("+postColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		postArgs(post)...,
	)
	if err != nil {
		return fmt.Errorf("inserting post: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) UpdatePost(post *planner.Post) error {
	return s.UpdatePostsBatch([]*planner.Post{post})
}

// UpdatePostsBatch upserts all given posts in a single transaction:
// either every record commits or none do.
func (s *SQLiteDatabase) UpdatePostsBatch(posts []*planner.Post) error {
	if len(posts) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		"INSERT INTO posts (" + postColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) " +
			"ON CONFLICT (id) DO UPDATE SET " +
			"feed_id = excluded.feed_id, position = excluded.position, is_locked = excluded.is_locked, " +
			"blob_key = excluded.blob_key, crop_pos_x = excluded.crop_pos_x, crop_pos_y = excluded.crop_pos_y, " +
			"crop_scale = excluded.crop_scale, crop_zoom = excluded.crop_zoom",
	)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, post := range posts {
		if _, err := stmt.Exec(postArgs(post)...); err != nil {
			return fmt.Errorf("upserting post %s: %w", post.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) DeletePost(id string) error {
	if _, err := s.db.Exec("DELETE FROM posts WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting post: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) GetPost(id string) (*planner.Post, error) {
	row := s.db.QueryRow("SELECT "+postColumns+" FROM posts WHERE id = ?", id)
	post, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, fmt.Errorf("finding post: %w", err)
	}
	return post, nil
}

func (s *SQLiteDatabase) GetAllPosts() ([]*planner.Post, error) {
	return s.queryPosts("SELECT " + postColumns + " FROM posts ORDER BY feed_id, position")
}

func (s *SQLiteDatabase) GetPostsByFeed(feedID string) ([]*planner.Post, error) {
	return s.queryPosts("SELECT "+postColumns+" FROM posts WHERE feed_id = ? ORDER BY position", feedID)
}

func (s *SQLiteDatabase) queryPosts(query string, args ...any) ([]*planner.Post, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	defer rows.Close()

	var posts []*planner.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning post row: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	return posts, nil
}

// postArgs flattens a post into the column order of postColumns.
// An empty BlobKey persists as NULL.
func postArgs(post *planner.Post) []any {
	blobKey := sql.NullString{String: post.BlobKey, Valid: post.BlobKey != ""}
	return []any{
		post.ID, post.FeedID, post.Position, post.IsLocked, blobKey,
		post.Crop.PosX, post.Crop.PosY, post.Crop.Scale, post.Crop.Zoom,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*planner.Post, error) {
	post := &planner.Post{}
	var blobKey sql.NullString
	err := row.Scan(
		&post.ID, &post.FeedID, &post.Position, &post.IsLocked, &blobKey,
		&post.Crop.PosX, &post.Crop.PosY, &post.Crop.Scale, &post.Crop.Zoom,
	)
	if err != nil {
		return nil, err
	}
	post.BlobKey = blobKey.String
	return post, nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteDatabase implements planner.Database.
var _ planner.Database = (*SQLiteDatabase)(nil)
