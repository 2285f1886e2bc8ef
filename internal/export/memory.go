package export

import (
	"fmt"
	"io"
	"sync"

	"plib-go/internal/photolib"
)

// MemoryTarget keeps exported content in memory. Use in tests.
type MemoryTarget struct {
	mu    sync.Mutex
	files map[string][]byte
}

func NewMemoryTarget() *MemoryTarget {
	return &MemoryTarget{files: make(map[string][]byte)}
}

func (t *MemoryTarget) Put(key string, r io.Reader, size int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read content: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.files[key] = data
	return nil
}

// Get returns the stored content for key, or false when absent.
func (t *MemoryTarget) Get(key string) ([]byte, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	data, ok := t.files[key]
	return data, ok
}

// Len returns the number of stored files.
func (t *MemoryTarget) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.files)
}

// Compile-time check that MemoryTarget implements photolib.ExportTarget
var _ photolib.ExportTarget = (*MemoryTarget)(nil)
