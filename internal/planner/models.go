package planner

import "time"

// Feed is a named, ordered collection of posts.
type Feed struct {
	ID        string // UUID
	Name      string
	CreatedAt time.Time
}

// Post is a single slot in a feed's grid.
// Position is a 1-based dense rank: within a feed the set of positions is
// always exactly {1..N} between operations.
type Post struct {
	ID       string // UUID
	FeedID   string // Foreign key to Feed
	Position uint
	IsLocked bool
	BlobKey  string // Image store key (sha256 hex); empty means no image
	Crop     CropData

	// Handle is a process-local blob handle resolved from the image store.
	// It is never persisted; a post whose BlobKey no longer resolves keeps
	// the key but has an empty handle.
	Handle string
}

// CropData is the crop state of a post's image.
// Scale == 0 means no crop has been set.
type CropData struct {
	PosX  float64
	PosY  float64
	Scale float64
	Zoom  float64
}

// IsSet reports whether a crop has been applied.
func (c CropData) IsSet() bool { return c.Scale != 0 }

// Clone returns a copy of the post safe to hand to the write queue while
// the in-memory original keeps mutating.
func (p *Post) Clone() *Post {
	cp := *p
	return &cp
}
