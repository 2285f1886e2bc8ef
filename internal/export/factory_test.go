package export

import (
	"context"
	"path/filepath"
	"testing"

	"plib-go/internal/config"
)

func TestNewTargetFromConfig(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		target, err := NewTargetFromConfig(ctx, config.ExportConfig{Type: "memory", Name: "mem"})
		if err != nil {
			t.Fatalf("NewTargetFromConfig() error = %v", err)
		}
		if _, ok := target.(*MemoryTarget); !ok {
			t.Errorf("target = %T, want *MemoryTarget", target)
		}
	})

	t.Run("filesystem", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "exports")
		target, err := NewTargetFromConfig(ctx, config.ExportConfig{
			Type: "filesystem", Name: "local", FSExportRoot: root,
		})
		if err != nil {
			t.Fatalf("NewTargetFromConfig() error = %v", err)
		}
		if _, ok := target.(*FileSystemTarget); !ok {
			t.Errorf("target = %T, want *FileSystemTarget", target)
		}
	})

	t.Run("filesystem without root", func(t *testing.T) {
		if _, err := NewTargetFromConfig(ctx, config.ExportConfig{Type: "filesystem", Name: "local"}); err == nil {
			t.Fatal("missing fs_export_root accepted")
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		if _, err := NewTargetFromConfig(ctx, config.ExportConfig{Type: "ftp", Name: "x"}); err == nil {
			t.Fatal("unknown target type accepted")
		}
	})
}
