package app

import (
	"fmt"
	"os"
	"path/filepath"

	"feedgrid/internal/config"
	"feedgrid/internal/database"
	"feedgrid/internal/imagestore"
	"feedgrid/internal/imaging"
	"feedgrid/internal/planner"
)

// PlannerApp is the application layer between the CLI and the planner
// Service. It constructs all dependencies from config, exposes high-level
// operations that accept raw CLI inputs, and manages lifecycles on Close.
type PlannerApp struct {
	cfg     *config.Config
	db      planner.Database
	images  planner.ImageStore
	service *planner.Service
	logFile *os.File
}

// NewPlannerApp creates a fully wired PlannerApp from the given config and
// initializes the service (loading feeds and the selected feed's posts).
// The caller must call Close when done.
func NewPlannerApp(cfg *config.Config) (*PlannerApp, error) {
	db, err := database.NewDatabaseFromConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	images, err := imagestore.NewStoreFromConfig(cfg.ImageStore)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating image store: %w", err)
	}

	logger, logFile, err := newLogger(cfg.LogDir)
	if err != nil {
		db.Close()
		images.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	svc := planner.NewService(db, images, imaging.NewOSLoader(), &slogAdapter{l: logger}, planner.RealClock{}, planner.UUIDGenerator{})
	if err := svc.Initialize(); err != nil {
		svc.Close()
		db.Close()
		images.Close()
		logFile.Close()
		return nil, fmt.Errorf("initializing planner: %w", err)
	}

	return &PlannerApp{
		cfg:     cfg,
		db:      db,
		images:  images,
		service: svc,
		logFile: logFile,
	}, nil
}

// Feeds returns all feeds ordered by creation time.
func (a *PlannerApp) Feeds() []*planner.Feed { return a.service.Feeds() }

// SelectedFeed returns the currently selected feed.
func (a *PlannerApp) SelectedFeed() *planner.Feed { return a.service.SelectedFeed() }

// SelectFeed switches the selected feed.
func (a *PlannerApp) SelectFeed(id string) error { return a.service.SelectFeed(id) }

// AddFeed creates and selects a new feed.
func (a *PlannerApp) AddFeed(name string) *planner.Feed { return a.service.AddFeed(name) }

// RenameFeed renames a feed.
func (a *PlannerApp) RenameFeed(id, name string) { a.service.RenameFeed(id, name) }

// DeleteFeed deletes a feed and all of its posts.
func (a *PlannerApp) DeleteFeed(id string) error { return a.service.DeleteFeed(id) }

// Posts returns the selected feed's posts ordered by position.
func (a *PlannerApp) Posts() []*planner.Post { return a.service.Posts() }

// AddEmptyPost appends a new empty post to the selected feed.
func (a *PlannerApp) AddEmptyPost() *planner.Post { return a.service.AddEmptyPost() }

// DeletePost deletes a post and compacts the remaining positions.
func (a *PlannerApp) DeletePost(id string) { a.service.DeletePost(id) }

// SwapPosts exchanges the positions of two posts.
func (a *PlannerApp) SwapPosts(idA, idB string) { a.service.SwapPosts(idA, idB) }

// MovePost moves a post to another post's slot, shifting the gap closed.
func (a *PlannerApp) MovePost(movedID, targetID string) { a.service.MovePost(movedID, targetID) }

// ToggleLock flips a post's lock flag.
func (a *PlannerApp) ToggleLock(id string) { a.service.ToggleLock(id) }

// SetCropData replaces a post's crop state.
func (a *PlannerApp) SetCropData(id string, crop planner.CropData) { a.service.SetCropData(id, crop) }

// SetImage resolves the given path and attaches the image to a post.
func (a *PlannerApp) SetImage(postID, rawPath string) error {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}
	return a.service.SetImage(postID, absPath)
}

// Images returns every stored image with a resolvable handle.
func (a *PlannerApp) Images() ([]planner.ImageEntry, error) { return a.images.ListAll() }

// DeleteImage removes an image from the store. Posts referencing the key
// keep it; the key simply stops resolving.
func (a *PlannerApp) DeleteImage(key string) (bool, error) { return a.images.Delete(key) }

// Close flushes pending writes and releases all resources.
func (a *PlannerApp) Close() error {
	var firstErr error

	a.service.Flush()
	a.service.Close()

	if err := a.db.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}
	if err := a.images.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing image store: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
