package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"plib-go/internal/photolib"
)

// FileSystemTarget stores exported files under a root directory. Writes
// are atomic: content goes to a temp file first and is renamed into place.
type FileSystemTarget struct {
	root string
}

// NewFileSystemTarget creates the root directory if needed.
func NewFileSystemTarget(root string) (*FileSystemTarget, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}
	return &FileSystemTarget{root: root}, nil
}

func (t *FileSystemTarget) Put(key string, r io.Reader, size int64) error {
	destPath := filepath.Join(t.root, key)
	if dir := filepath.Dir(destPath); dir != t.root {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if written != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// Compile-time check that FileSystemTarget implements photolib.ExportTarget
var _ photolib.ExportTarget = (*FileSystemTarget)(nil)
