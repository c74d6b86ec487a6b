package planner

import (
	"fmt"
	"sort"
)

// Posts returns the selected feed's posts ordered by position.
func (s *Service) Posts() []*Post {
	out := make([]*Post, len(s.posts))
	copy(out, s.posts)
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// AddEmptyPost appends a new post at the end of the selected feed and
// schedules the insert.
func (s *Service) AddEmptyPost() *Post {
	position := uint(1)
	for _, p := range s.posts {
		if p.Position >= position {
			position = p.Position + 1
		}
	}

	post := &Post{ID: s.idgen.New(), FeedID: s.selected, Position: position}
	s.posts = append(s.posts, post)

	snapshot := post.Clone()
	s.queue.enqueue("AddPost", func() error { return s.db.AddPost(snapshot) })

	return post
}

// DeletePost removes a post and closes the gap: every post at a higher
// position shifts down by one, restoring the contiguous 1..N invariant.
// The delete and the shifted records persist as a single queue job.
// Unknown ids are a no-op.
func (s *Service) DeletePost(id string) {
	post := s.findPost(id)
	if post == nil {
		return
	}

	var changed []*Post
	for _, p := range s.posts {
		if p.Position > post.Position {
			p.Position--
			changed = append(changed, p.Clone())
		}
	}

	for i, p := range s.posts {
		if p.ID == id {
			s.posts = append(s.posts[:i], s.posts[i+1:]...)
			break
		}
	}

	s.queue.enqueue("DeletePost", func() error {
		if err := s.db.DeletePost(id); err != nil {
			return err
		}
		if len(changed) == 0 {
			return nil
		}
		return s.db.UpdatePostsBatch(changed)
	})
}

// SwapPosts exchanges the positions of two posts. No other post is touched.
// The swap is a no-op when either id is unknown or either post is locked.
func (s *Service) SwapPosts(idA, idB string) {
	a := s.findPost(idA)
	b := s.findPost(idB)
	if a == nil || b == nil || a == b {
		return
	}
	if a.IsLocked || b.IsLocked {
		return
	}

	a.Position, b.Position = b.Position, a.Position

	batch := []*Post{a.Clone(), b.Clone()}
	s.queue.enqueue("SwapPosts", func() error { return s.db.UpdatePostsBatch(batch) })
}

// MovePost removes a post from its slot and inserts it at the target post's
// position, shifting the posts in between by one to close the gap. This is
// a single-slot shift, not a swap. The move is a no-op when either id is
// unknown, the positions are equal, or either endpoint is locked.
func (s *Service) MovePost(movedID, targetID string) {
	moved := s.findPost(movedID)
	target := s.findPost(targetID)
	if moved == nil || target == nil || moved == target {
		return
	}
	if moved.IsLocked || target.IsLocked {
		return
	}

	targetPosition := target.Position
	if moved.Position == targetPosition {
		return
	}

	var changed []*Post
	if moved.Position < targetPosition {
		for _, p := range s.posts {
			if p.Position > moved.Position && p.Position <= targetPosition {
				p.Position--
				changed = append(changed, p.Clone())
			}
		}
	} else {
		for _, p := range s.posts {
			if p.Position < moved.Position && p.Position >= targetPosition {
				p.Position++
				changed = append(changed, p.Clone())
			}
		}
	}

	moved.Position = targetPosition
	changed = append(changed, moved.Clone())

	s.queue.enqueue("MovePost", func() error { return s.db.UpdatePostsBatch(changed) })
}

// SetImage loads the source, stores it in the content-addressed image store,
// and points the post at the resulting key with a fresh display handle.
// Setting a new image resets the crop. Load and encode failures abort the
// operation and leave the post untouched. Unknown ids are a no-op.
func (s *Service) SetImage(id, sourceRef string) error {
	post := s.findPost(id)
	if post == nil {
		return nil
	}

	src, err := s.loader.Load(sourceRef)
	if err != nil {
		return fmt.Errorf("loading image: %w", err)
	}

	key, err := s.images.Save(src)
	if err != nil {
		return fmt.Errorf("saving image: %w", err)
	}

	handle, err := s.images.Resolve(key)
	if err != nil {
		s.logger.Warn("resolving image handle", "post", post.ID, "key", key, "error", err)
	}

	post.BlobKey = key
	post.Handle = handle
	post.Crop = CropData{}

	snapshot := post.Clone()
	s.queue.enqueue("SetImage", func() error { return s.db.UpdatePost(snapshot) })

	s.logger.Debug("image set", "post", post.ID, "key", key)
	return nil
}

// SetCropData replaces the post's crop state wholesale.
// Unknown ids are a no-op.
func (s *Service) SetCropData(id string, crop CropData) {
	post := s.findPost(id)
	if post == nil {
		return
	}

	post.Crop = crop

	snapshot := post.Clone()
	s.queue.enqueue("SetCropData", func() error { return s.db.UpdatePost(snapshot) })
}

// ToggleLock flips a post's lock flag. Locked posts are frozen with respect
// to swap and move. Unknown ids are a no-op.
func (s *Service) ToggleLock(id string) {
	post := s.findPost(id)
	if post == nil {
		return
	}

	post.IsLocked = !post.IsLocked

	snapshot := post.Clone()
	s.queue.enqueue("ToggleLock", func() error { return s.db.UpdatePost(snapshot) })
}

func (s *Service) findPost(id string) *Post {
	for _, p := range s.posts {
		if p.ID == id {
			return p
		}
	}
	return nil
}
