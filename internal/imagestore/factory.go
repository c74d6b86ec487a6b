package imagestore

import (
	"fmt"
	"os"
	"path/filepath"

	"feedgrid/internal/config"
	"feedgrid/internal/planner"
)

// NewStoreFromConfig creates an ImageStore implementation based on the
// image store config type.
func NewStoreFromConfig(cfg config.ImageStoreConfig) (planner.ImageStore, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite image store")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		return NewSQLiteStore(filepath.Join(cfg.DataDir, "images.db"))
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown image store type: %s", cfg.Type)
	}
}
