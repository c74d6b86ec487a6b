package planner

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultFeedName is the name given to the feed auto-created when the
// store is empty, and to feeds added without an explicit name.
const DefaultFeedName = "My Feed"

// Service is the orchestration layer for the planner. It owns the in-memory
// feed and post collections, mirrors every mutation to the database through
// a fire-and-forget write queue, and resolves image handles from the image
// store on load.
//
// All mutation entry points are invoked from a single logical thread (one
// CLI command per process run), so the in-memory collections need no
// locking. Durability is asynchronous: memory
// and database may transiently diverge until Flush.
type Service struct {
	db     Database
	images ImageStore
	loader Loader
	logger Logger
	clock  Clock
	idgen  IDGenerator
	queue  *writeQueue

	initialized bool
	feeds       []*Feed
	selected    string  // id of the selected feed
	posts       []*Post // posts of the selected feed
}

// NewService creates a Service with the provided dependencies.
func NewService(db Database, images ImageStore, loader Loader, logger Logger, clock Clock, idgen IDGenerator) *Service {
	return &Service{
		db:     db,
		images: images,
		loader: loader,
		logger: logger,
		clock:  clock,
		idgen:  idgen,
		queue:  newWriteQueue(logger),
	}
}

// Initialize loads feeds and the selected feed's posts from the database.
// If the store is empty a default feed is created. Calling Initialize on an
// already-initialized service is a no-op.
func (s *Service) Initialize() error {
	if s.initialized {
		return nil
	}

	feeds, err := s.db.GetAllFeeds()
	if err != nil {
		return fmt.Errorf("loading feeds: %w", err)
	}

	if len(feeds) == 0 {
		feed := &Feed{ID: s.idgen.New(), Name: DefaultFeedName, CreatedAt: s.clock.Now()}
		if err := s.db.AddFeed(feed); err != nil {
			return fmt.Errorf("creating default feed: %w", err)
		}
		feeds = []*Feed{feed}
		s.logger.Info("created default feed", "id", feed.ID)
	}

	sort.SliceStable(feeds, func(i, j int) bool {
		return feeds[i].CreatedAt.Before(feeds[j].CreatedAt)
	})
	s.feeds = feeds

	if err := s.loadPosts(feeds[0].ID); err != nil {
		return err
	}

	s.initialized = true
	return nil
}

// loadPosts reads a feed's posts from the database, sorts them by position,
// and resolves a display handle for every post carrying an image key.
// A key that no longer resolves keeps its BlobKey but gets no handle.
func (s *Service) loadPosts(feedID string) error {
	posts, err := s.db.GetPostsByFeed(feedID)
	if err != nil {
		return fmt.Errorf("loading posts: %w", err)
	}

	sort.Slice(posts, func(i, j int) bool { return posts[i].Position < posts[j].Position })

	for _, post := range posts {
		if post.BlobKey == "" {
			continue
		}
		handle, err := s.images.Resolve(post.BlobKey)
		if err != nil {
			s.logger.Warn("resolving image handle", "post", post.ID, "key", post.BlobKey, "error", err)
			continue
		}
		if handle == "" {
			s.logger.Debug("image key no longer resolves", "post", post.ID, "key", post.BlobKey)
		}
		post.Handle = handle
	}

	s.selected = feedID
	s.posts = posts
	return nil
}

// Feeds returns the in-memory feeds ordered by creation time.
func (s *Service) Feeds() []*Feed {
	out := make([]*Feed, len(s.feeds))
	copy(out, s.feeds)
	return out
}

// SelectedFeed returns the currently selected feed, or nil before Initialize.
func (s *Service) SelectedFeed() *Feed {
	return s.findFeed(s.selected)
}

// SelectFeed switches the selected feed and loads its posts. Selecting an
// unknown feed, or the feed that is already selected, is a no-op.
func (s *Service) SelectFeed(id string) error {
	if id == s.selected || s.findFeed(id) == nil {
		return nil
	}
	// Pending writes for this feed's posts must land before we read them back.
	s.queue.flush()
	return s.loadPosts(id)
}

// AddFeed creates a new feed, selects it, and schedules the insert.
// A blank name falls back to DefaultFeedName.
func (s *Service) AddFeed(name string) *Feed {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultFeedName
	}

	feed := &Feed{ID: s.idgen.New(), Name: name, CreatedAt: s.clock.Now()}
	s.feeds = append(s.feeds, feed)

	snapshot := *feed
	s.queue.enqueue("AddFeed", func() error { return s.db.AddFeed(&snapshot) })

	// A brand new feed has no posts; no database read is needed.
	s.selected = feed.ID
	s.posts = nil

	s.logger.Info("feed added", "id", feed.ID, "name", feed.Name)
	return feed
}

// RenameFeed updates a feed's name. Blank names and unknown ids are no-ops.
func (s *Service) RenameFeed(id, name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	feed := s.findFeed(id)
	if feed == nil {
		return
	}

	feed.Name = name

	snapshot := *feed
	s.queue.enqueue("RenameFeed", func() error { return s.db.UpdateFeed(&snapshot) })
}

// DeleteFeed removes a feed and all of its posts. If the deleted feed was
// selected, selection moves to the oldest remaining feed; when no feed is
// left a fresh default feed is created. Unknown ids are a no-op.
func (s *Service) DeleteFeed(id string) error {
	idx := -1
	for i, f := range s.feeds {
		if f.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil
	}

	s.feeds = append(s.feeds[:idx], s.feeds[idx+1:]...)
	s.queue.enqueue("DeleteFeed", func() error { return s.db.DeleteFeedCascade(id) })
	s.logger.Info("feed deleted", "id", id)

	if s.selected != id {
		return nil
	}
	s.posts = nil
	s.selected = ""

	if len(s.feeds) == 0 {
		feed := &Feed{ID: s.idgen.New(), Name: DefaultFeedName, CreatedAt: s.clock.Now()}
		s.feeds = append(s.feeds, feed)
		snapshot := *feed
		s.queue.enqueue("AddFeed", func() error { return s.db.AddFeed(&snapshot) })
		s.selected = feed.ID
		return nil
	}

	s.queue.flush()
	return s.loadPosts(s.feeds[0].ID)
}

// Flush blocks until every pending persistence write has committed.
func (s *Service) Flush() {
	s.queue.flush()
}

// Close drains the write queue and stops it. The database and image store
// are owned by the caller and stay open.
func (s *Service) Close() {
	s.queue.close()
}

func (s *Service) findFeed(id string) *Feed {
	for _, f := range s.feeds {
		if f.ID == id {
			return f
		}
	}
	return nil
}
