package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		LibraryPath:    "/home/user/Pictures/Photos Library.photoslibrary",
		LogDir:         "/home/user/.local/share/plib/log",
		IncludeHidden:  true,
		IncludeTrashed: false,
		StrictSchema:   true,
		Exports: []ExportConfig{
			{Type: "filesystem", Name: "local", FSExportRoot: "/export/photos"},
			{Type: "s3", Name: "offsite", S3Bucket: "my-photos", S3Prefix: "plib", S3Region: "eu-west-1"},
		},
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

	if got.LibraryPath != original.LibraryPath {
		t.Errorf("LibraryPath = %q, want %q", got.LibraryPath, original.LibraryPath)
	}
	if got.LogDir != original.LogDir {
		t.Errorf("LogDir = %q, want %q", got.LogDir, original.LogDir)
	}
	if !got.IncludeHidden {
		t.Error("IncludeHidden = false, want true")
	}
	if got.IncludeTrashed {
		t.Error("IncludeTrashed = true, want false")
	}
	if !got.StrictSchema {
		t.Error("StrictSchema = false, want true")
	}
	if len(got.Exports) != 2 {
		t.Fatalf("len(Exports) = %d, want 2", len(got.Exports))
	}
	if got.Exports[0].Type != "filesystem" {
		t.Errorf("Exports[0].Type = %q, want %q", got.Exports[0].Type, "filesystem")
	}
	if got.Exports[0].FSExportRoot != "/export/photos" {
		t.Errorf("Exports[0].FSExportRoot = %q, want %q", got.Exports[0].FSExportRoot, "/export/photos")
	}
	if got.Exports[1].S3Bucket != "my-photos" {
		t.Errorf("Exports[1].S3Bucket = %q, want %q", got.Exports[1].S3Bucket, "my-photos")
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("/photos/library", "/data/plib")

	if cfg.LibraryPath != "/photos/library" {
		t.Errorf("LibraryPath = %q, want %q", cfg.LibraryPath, "/photos/library")
	}
	if cfg.LogDir != "/data/plib/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/plib/log")
	}
	if cfg.IncludeHidden || cfg.IncludeTrashed || cfg.StrictSchema {
		t.Error("include/strict flags should default to false")
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "plib.toml")
		cfg := NewConfig("/photos/library", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "plib.toml")
		cfg := NewConfig("/photos/library", dir)

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
		path := filepath.Join(dir, "plib.toml")
		cfg := NewConfig("/photos/read-test", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.LibraryPath != "/photos/read-test" {
			t.Errorf("LibraryPath = %q, want %q", got.LibraryPath, "/photos/read-test")
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		_, err := ReadFromFile("/nonexistent/path/plib.toml")
		if err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
