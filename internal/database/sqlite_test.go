package database_test

import (
	"testing"
	"time"

	"feedgrid/internal/database"
	"feedgrid/internal/planner"
)

func newTestDB(t *testing.T) *database.SQLiteDatabase {
	t.Helper()
	db, err := database.NewSQLiteDatabase(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteDatabase() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func addFeed(t *testing.T, db *database.SQLiteDatabase, id, name string) *planner.Feed {
	t.Helper()
	feed := &planner.Feed{ID: id, Name: name, CreatedAt: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)}
	if err := db.AddFeed(feed); err != nil {
		t.Fatalf("AddFeed() error = %v", err)
	}
	return feed
}

func TestSQLiteDatabase_Feeds(t *testing.T) {
	t.Run("add and get round-trip", func(t *testing.T) {
		db := newTestDB(t)
		feed := addFeed(t, db, "feed-1", "My Feed")

		got, err := db.GetFeed("feed-1")
		if err != nil {
			t.Fatalf("GetFeed() error = %v", err)
		}
		if got == nil {
			t.Fatal("GetFeed() = nil for a stored feed")
		}
		if got.Name != feed.Name {
			t.Errorf("Name = %q, want %q", got.Name, feed.Name)
		}
		if !got.CreatedAt.Equal(feed.CreatedAt) {
			t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, feed.CreatedAt)
		}
	})

	t.Run("get returns nil for unknown id", func(t *testing.T) {
		db := newTestDB(t)

		got, err := db.GetFeed("no-such-feed")
		if err != nil {
			t.Fatalf("GetFeed() error = %v", err)
		}
		if got != nil {
			t.Errorf("GetFeed() = %+v for an unknown id, want nil", got)
		}
	})

	t.Run("duplicate id fails", func(t *testing.T) {
		db := newTestDB(t)
		feed := addFeed(t, db, "feed-1", "My Feed")

		if err := db.AddFeed(feed); err == nil {
			t.Error("AddFeed() expected error for a duplicate id")
		}
	})

	t.Run("update changes the name", func(t *testing.T) {
		db := newTestDB(t)
		feed := addFeed(t, db, "feed-1", "My Feed")

		feed.Name = "Renamed"
		if err := db.UpdateFeed(feed); err != nil {
			t.Fatalf("UpdateFeed() error = %v", err)
		}

		got, err := db.GetFeed("feed-1")
		if err != nil {
			t.Fatalf("GetFeed() error = %v", err)
		}
		if got.Name != "Renamed" {
			t.Errorf("Name = %q, want %q", got.Name, "Renamed")
		}
	})

	t.Run("get all orders by creation time", func(t *testing.T) {
		db := newTestDB(t)
		older := &planner.Feed{ID: "feed-old", Name: "Older", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
		newer := &planner.Feed{ID: "feed-new", Name: "Newer", CreatedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)}
		for _, f := range []*planner.Feed{newer, older} {
			if err := db.AddFeed(f); err != nil {
				t.Fatalf("AddFeed() error = %v", err)
			}
		}

		feeds, err := db.GetAllFeeds()
		if err != nil {
			t.Fatalf("GetAllFeeds() error = %v", err)
		}
		if len(feeds) != 2 || feeds[0].ID != "feed-old" || feeds[1].ID != "feed-new" {
			t.Errorf("GetAllFeeds() order wrong: %+v", feeds)
		}
	})
}

func TestSQLiteDatabase_DeleteFeedCascade(t *testing.T) {
	db := newTestDB(t)
	addFeed(t, db, "feed-1", "Doomed")
	addFeed(t, db, "feed-2", "Survivor")

	for i, feedID := range []string{"feed-1", "feed-1", "feed-2"} {
		post := &planner.Post{ID: "post-" + string(rune('a'+i)), FeedID: feedID, Position: 1}
		if err := db.AddPost(post); err != nil {
			t.Fatalf("AddPost() error = %v", err)
		}
	}

	if err := db.DeleteFeedCascade("feed-1"); err != nil {
		t.Fatalf("DeleteFeedCascade() error = %v", err)
	}

	feed, err := db.GetFeed("feed-1")
	if err != nil {
		t.Fatalf("GetFeed() error = %v", err)
	}
	if feed != nil {
		t.Error("deleted feed still present")
	}

	orphans, err := db.GetPostsByFeed("feed-1")
	if err != nil {
		t.Fatalf("GetPostsByFeed() error = %v", err)
	}
	if len(orphans) != 0 {
		t.Errorf("deleted feed still has %d posts", len(orphans))
	}

	survivors, err := db.GetPostsByFeed("feed-2")
	if err != nil {
		t.Fatalf("GetPostsByFeed() error = %v", err)
	}
	if len(survivors) != 1 {
		t.Errorf("other feed's posts = %d, want 1", len(survivors))
	}
}

func TestSQLiteDatabase_Posts(t *testing.T) {
	t.Run("add and get round-trip", func(t *testing.T) {
		db := newTestDB(t)
		addFeed(t, db, "feed-1", "My Feed")

		post := &planner.Post{
			ID:       "post-1",
			FeedID:   "feed-1",
			Position: 3,
			IsLocked: true,
			BlobKey:  "abc123",
			Crop:     planner.CropData{PosX: 1.5, PosY: -2, Scale: 0.5, Zoom: 2},
		}
		if err := db.AddPost(post); err != nil {
			t.Fatalf("AddPost() error = %v", err)
		}

		got, err := db.GetPost("post-1")
		if err != nil {
			t.Fatalf("GetPost() error = %v", err)
		}
		if got == nil {
			t.Fatal("GetPost() = nil for a stored post")
		}
		if got.FeedID != post.FeedID || got.Position != post.Position || !got.IsLocked {
			t.Errorf("GetPost() = %+v, want %+v", got, post)
		}
		if got.BlobKey != "abc123" {
			t.Errorf("BlobKey = %q, want %q", got.BlobKey, "abc123")
		}
		if got.Crop != post.Crop {
			t.Errorf("Crop = %+v, want %+v", got.Crop, post.Crop)
		}
	})

	t.Run("get returns nil for unknown id", func(t *testing.T) {
		db := newTestDB(t)

		got, err := db.GetPost("no-such-post")
		if err != nil {
			t.Fatalf("GetPost() error = %v", err)
		}
		if got != nil {
			t.Errorf("GetPost() = %+v for an unknown id, want nil", got)
		}
	})

	t.Run("empty blob key round-trips as empty", func(t *testing.T) {
		db := newTestDB(t)
		addFeed(t, db, "feed-1", "My Feed")

		post := &planner.Post{ID: "post-1", FeedID: "feed-1", Position: 1}
		if err := db.AddPost(post); err != nil {
			t.Fatalf("AddPost() error = %v", err)
		}

		got, err := db.GetPost("post-1")
		if err != nil {
			t.Fatalf("GetPost() error = %v", err)
		}
		if got.BlobKey != "" {
			t.Errorf("BlobKey = %q, want empty", got.BlobKey)
		}
	})

	t.Run("handle is never persisted", func(t *testing.T) {
		db := newTestDB(t)
		addFeed(t, db, "feed-1", "My Feed")

		post := &planner.Post{ID: "post-1", FeedID: "feed-1", Position: 1, Handle: "blob:ephemeral"}
		if err := db.AddPost(post); err != nil {
			t.Fatalf("AddPost() error = %v", err)
		}

		got, err := db.GetPost("post-1")
		if err != nil {
			t.Fatalf("GetPost() error = %v", err)
		}
		if got.Handle != "" {
			t.Errorf("Handle = %q after a round-trip, want empty", got.Handle)
		}
	})

	t.Run("delete removes the row", func(t *testing.T) {
		db := newTestDB(t)
		addFeed(t, db, "feed-1", "My Feed")
		if err := db.AddPost(&planner.Post{ID: "post-1", FeedID: "feed-1", Position: 1}); err != nil {
			t.Fatalf("AddPost() error = %v", err)
		}

		if err := db.DeletePost("post-1"); err != nil {
			t.Fatalf("DeletePost() error = %v", err)
		}
		got, err := db.GetPost("post-1")
		if err != nil {
			t.Fatalf("GetPost() error = %v", err)
		}
		if got != nil {
			t.Error("deleted post still present")
		}
	})

	t.Run("get by feed orders by position", func(t *testing.T) {
		db := newTestDB(t)
		addFeed(t, db, "feed-1", "My Feed")
		for i, id := range []string{"post-c", "post-a", "post-b"} {
			post := &planner.Post{ID: id, FeedID: "feed-1", Position: uint(3 - i)}
			if err := db.AddPost(post); err != nil {
				t.Fatalf("AddPost() error = %v", err)
			}
		}

		posts, err := db.GetPostsByFeed("feed-1")
		if err != nil {
			t.Fatalf("GetPostsByFeed() error = %v", err)
		}
		want := []string{"post-b", "post-a", "post-c"}
		for i, p := range posts {
			if p.ID != want[i] {
				t.Errorf("slot %d = %s, want %s", i+1, p.ID, want[i])
			}
		}
	})
}

func TestSQLiteDatabase_UpdatePostsBatch(t *testing.T) {
	t.Run("updates every record", func(t *testing.T) {
		db := newTestDB(t)
		addFeed(t, db, "feed-1", "My Feed")

		var posts []*planner.Post
		for i := 1; i <= 3; i++ {
			post := &planner.Post{ID: "post-" + string(rune('0'+i)), FeedID: "feed-1", Position: uint(i)}
			if err := db.AddPost(post); err != nil {
				t.Fatalf("AddPost() error = %v", err)
			}
			posts = append(posts, post)
		}

		// Rotate positions.
		posts[0].Position, posts[1].Position, posts[2].Position = 2, 3, 1
		if err := db.UpdatePostsBatch(posts); err != nil {
			t.Fatalf("UpdatePostsBatch() error = %v", err)
		}

		got, err := db.GetPostsByFeed("feed-1")
		if err != nil {
			t.Fatalf("GetPostsByFeed() error = %v", err)
		}
		want := []string{"post-3", "post-1", "post-2"}
		for i, p := range got {
			if p.ID != want[i] {
				t.Errorf("slot %d = %s, want %s", i+1, p.ID, want[i])
			}
		}
	})

	t.Run("upserts records that do not exist yet", func(t *testing.T) {
		db := newTestDB(t)
		addFeed(t, db, "feed-1", "My Feed")

		fresh := &planner.Post{ID: "post-1", FeedID: "feed-1", Position: 1}
		if err := db.UpdatePostsBatch([]*planner.Post{fresh}); err != nil {
			t.Fatalf("UpdatePostsBatch() error = %v", err)
		}

		got, err := db.GetPost("post-1")
		if err != nil {
			t.Fatalf("GetPost() error = %v", err)
		}
		if got == nil {
			t.Error("upserted post not found")
		}
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		db := newTestDB(t)
		if err := db.UpdatePostsBatch(nil); err != nil {
			t.Fatalf("UpdatePostsBatch(nil) error = %v", err)
		}
	})

	t.Run("a failing record rolls back the whole batch", func(t *testing.T) {
		db := newTestDB(t)
		addFeed(t, db, "feed-1", "My Feed")

		valid := &planner.Post{ID: "post-1", FeedID: "feed-1", Position: 1}
		invalid := &planner.Post{ID: "post-2", FeedID: "no-such-feed", Position: 2}

		err := db.UpdatePostsBatch([]*planner.Post{valid, invalid})
		if err == nil {
			t.Fatal("UpdatePostsBatch() expected error for a post referencing an unknown feed")
		}

		// The valid record preceding the failure must not have committed.
		got, err := db.GetPost("post-1")
		if err != nil {
			t.Fatalf("GetPost() error = %v", err)
		}
		if got != nil {
			t.Error("record from a failed batch was committed")
		}
	})
}
