package planner

// Database provides an interface for feed/post metadata storage.
// Lookups return (nil, nil) when the record does not exist; callers treat
// missing records as a silent no-op rather than an error.
type Database interface {
	// Feed operations

	// AddFeed inserts a new feed. Fails if the id already exists.
	AddFeed(feed *Feed) error

	// UpdateFeed upserts a feed record.
	UpdateFeed(feed *Feed) error

	// DeleteFeedCascade deletes the feed and every post belonging to it
	// within a single transaction.
	DeleteFeedCascade(id string) error

	// GetFeed returns a feed by id, or nil if not found.
	GetFeed(id string) (*Feed, error)

	// GetAllFeeds returns all feeds.
	GetAllFeeds() ([]*Feed, error)

	// Post operations

	// AddPost inserts a new post. Fails if the id already exists.
	AddPost(post *Post) error

	// UpdatePost upserts a single post record (full record, no partial fields).
	UpdatePost(post *Post) error

	// UpdatePostsBatch upserts the given posts in one atomic transaction:
	// either every record commits or none do.
	UpdatePostsBatch(posts []*Post) error

	// DeletePost deletes a post by id. Deleting a missing post is not an error.
	DeletePost(id string) error

	// GetPost returns a post by id, or nil if not found.
	GetPost(id string) (*Post, error)

	// GetAllPosts returns every post across all feeds.
	GetAllPosts() ([]*Post, error)

	// GetPostsByFeed returns all posts belonging to a feed.
	GetPostsByFeed(feedID string) ([]*Post, error)

	// Close closes the database connection.
	Close() error
}
