package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		BaseDir:    "/home/user/.local/share/feedgrid",
		LogDir:     "/home/user/.local/share/feedgrid/log",
		Database:   DatabaseConfig{Type: "sqlite", DataDir: "/home/user/.local/share/feedgrid/data"},
		ImageStore: ImageStoreConfig{Type: "memory"},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.BaseDir != original.BaseDir {
		t.Errorf("BaseDir = %q, want %q", got.BaseDir, original.BaseDir)
	}
	if got.LogDir != original.LogDir {
		t.Errorf("LogDir = %q, want %q", got.LogDir, original.LogDir)
	}
	if got.Database.Type != "sqlite" {
		t.Errorf("Database.Type = %q, want %q", got.Database.Type, "sqlite")
	}
	if got.Database.DataDir != original.Database.DataDir {
		t.Errorf("Database.DataDir = %q, want %q", got.Database.DataDir, original.Database.DataDir)
	}
	if got.ImageStore.Type != "memory" {
		t.Errorf("ImageStore.Type = %q, want %q", got.ImageStore.Type, "memory")
	}
	if got.ImageStore.DataDir != "" {
		t.Errorf("ImageStore.DataDir = %q, want empty", got.ImageStore.DataDir)
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("/data/feedgrid")

	if cfg.BaseDir != "/data/feedgrid" {
		t.Errorf("BaseDir = %q, want %q", cfg.BaseDir, "/data/feedgrid")
	}
	if cfg.LogDir != "/data/feedgrid/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/feedgrid/log")
	}
	if cfg.Database.Type != "sqlite" {
		t.Errorf("Database.Type = %q, want %q", cfg.Database.Type, "sqlite")
	}
	if cfg.Database.DataDir != "/data/feedgrid/data" {
		t.Errorf("Database.DataDir = %q, want %q", cfg.Database.DataDir, "/data/feedgrid/data")
	}
	if cfg.ImageStore.Type != "sqlite" {
		t.Errorf("ImageStore.Type = %q, want %q", cfg.ImageStore.Type, "sqlite")
	}
	if cfg.ImageStore.DataDir != "/data/feedgrid/data" {
		t.Errorf("ImageStore.DataDir = %q, want %q", cfg.ImageStore.DataDir, "/data/feedgrid/data")
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "feedgrid.toml")
		cfg := NewConfig(dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "feedgrid.toml")
		cfg := NewConfig(dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		err := Init(path, cfg)
		if err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "feedgrid.toml")
		cfg := NewConfig(dir)
		cfg.Database = DatabaseConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.Database.Type != "memory" {
			t.Errorf("Database.Type = %q, want %q", got.Database.Type, "memory")
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		_, err := ReadFromFile("/nonexistent/path/feedgrid.toml")
		if err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
