package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"plib-go/internal/photolib"
	"plib-go/internal/testutil"
)

func TestFileSystemTarget(t *testing.T) {
	t.Run("stores content under key", func(t *testing.T) {
		root := t.TempDir()
		target, err := NewFileSystemTarget(root)
		if err != nil {
			t.Fatalf("NewFileSystemTarget() error = %v", err)
		}

		content := []byte("jpeg bytes")
		if err := target.Put("ABC.jpeg", bytes.NewReader(content), int64(len(content))); err != nil {
			t.Fatalf("Put() error = %v", err)
		}

		got, err := os.ReadFile(filepath.Join(root, "ABC.jpeg"))
		if err != nil {
			t.Fatalf("reading exported file: %v", err)
		}
		if !bytes.Equal(got, content) {
			t.Errorf("content = %q, want %q", got, content)
		}
	})

	t.Run("size mismatch leaves no file behind", func(t *testing.T) {
		root := t.TempDir()
		target, err := NewFileSystemTarget(root)
		if err != nil {
			t.Fatalf("NewFileSystemTarget() error = %v", err)
		}

		err = target.Put("short.jpeg", strings.NewReader("abc"), 99)
		if err == nil {
			t.Fatal("Put() with wrong size succeeded")
		}
		if _, statErr := os.Stat(filepath.Join(root, "short.jpeg")); statErr == nil {
			t.Error("partial file left behind after failed Put")
		}
		entries, readErr := os.ReadDir(root)
		if readErr != nil {
			t.Fatalf("reading export dir: %v", readErr)
		}
		if len(entries) != 0 {
			t.Errorf("leftover entries after failed Put: %v", entries)
		}
	})

	t.Run("overwrites an existing key", func(t *testing.T) {
		root := t.TempDir()
		target, err := NewFileSystemTarget(root)
		if err != nil {
			t.Fatalf("NewFileSystemTarget() error = %v", err)
		}

		if err := target.Put("k.jpeg", strings.NewReader("old"), 3); err != nil {
			t.Fatalf("first Put() error = %v", err)
		}
		if err := target.Put("k.jpeg", strings.NewReader("newer"), 5); err != nil {
			t.Fatalf("second Put() error = %v", err)
		}
		got, err := os.ReadFile(filepath.Join(root, "k.jpeg"))
		if err != nil {
			t.Fatalf("reading exported file: %v", err)
		}
		if string(got) != "newer" {
			t.Errorf("content = %q, want %q", got, "newer")
		}
	})
}

func TestMemoryTarget(t *testing.T) {
	target := NewMemoryTarget()

	if err := target.Put("a", strings.NewReader("one"), 3); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if got, ok := target.Get("a"); !ok || string(got) != "one" {
		t.Errorf("Get(a) = %q, %v", got, ok)
	}
	if _, ok := target.Get("b"); ok {
		t.Error("Get(b) found a missing key")
	}
	if target.Len() != 1 {
		t.Errorf("Len() = %d, want 1", target.Len())
	}
	if err := target.Put("a", strings.NewReader("bad"), 99); err == nil {
		t.Error("Put() with wrong size succeeded")
	}
}

func TestExportAssets(t *testing.T) {
	newSession := func(t *testing.T, b *testutil.Bundle) *photolib.Session {
		t.Helper()
		s, err := photolib.Open(b.Root, photolib.Options{}, nil)
		if err != nil {
			t.Fatalf("opening bundle: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	}

	t.Run("exports primary originals", func(t *testing.T) {
		b := testutil.NewBundle(t, testutil.BundleConfig{})
		pk1 := b.AddAsset("ZASSET", testutil.AssetSpec{UUID: "E-1", CreatedAt: 100, Filename: "a.jpeg"})
		pk2 := b.AddAsset("ZASSET", testutil.AssetSpec{UUID: "E-2", CreatedAt: 200, Filename: "b.heic"})
		b.AddResource(pk1, 0, "public.jpeg", 3, nil)
		b.AddResource(pk2, 0, "public.heic", 4, nil)
		b.WriteOriginal("E-1", ".jpeg", []byte("one"))
		b.WriteOriginal("E-2", ".heic", []byte("four"))

		s := newSession(t, b)
		target := NewMemoryTarget()
		exporter := photolib.NewExporter(s, target, nil)

		assets, _, err := s.ListAssets()
		if err != nil {
			t.Fatalf("listing assets: %v", err)
		}
		count, warnings, err := exporter.ExportAssets(assets)
		if err != nil {
			t.Fatalf("ExportAssets() error = %v", err)
		}
		if count != 2 {
			t.Errorf("count = %d, want 2", count)
		}
		if len(warnings) != 0 {
			t.Errorf("warnings = %v", warnings)
		}
		if got, ok := target.Get("E-1.jpeg"); !ok || string(got) != "one" {
			t.Errorf("E-1.jpeg = %q, %v", got, ok)
		}
		if got, ok := target.Get("E-2.heic"); !ok || string(got) != "four" {
			t.Errorf("E-2.heic = %q, %v", got, ok)
		}
	})

	t.Run("missing file warns and continues", func(t *testing.T) {
		b := testutil.NewBundle(t, testutil.BundleConfig{})
		pk1 := b.AddAsset("ZASSET", testutil.AssetSpec{UUID: "E-3", CreatedAt: 100, Filename: "a.jpeg"})
		b.AddAsset("ZASSET", testutil.AssetSpec{UUID: "E-4", CreatedAt: 200, Filename: "gone.jpeg"})
		b.AddResource(pk1, 0, "public.jpeg", 3, nil)
		b.WriteOriginal("E-3", ".jpeg", []byte("one"))

		s := newSession(t, b)
		target := NewMemoryTarget()
		exporter := photolib.NewExporter(s, target, nil)

		assets, _, err := s.ListAssets()
		if err != nil {
			t.Fatalf("listing assets: %v", err)
		}
		count, warnings, err := exporter.ExportAssets(assets)
		if err != nil {
			t.Fatalf("ExportAssets() error = %v", err)
		}
		if count != 1 {
			t.Errorf("count = %d, want 1", count)
		}
		if len(warnings) != 1 {
			t.Errorf("warnings = %v, want one", warnings)
		}
		if target.Len() != 1 {
			t.Errorf("stored files = %d, want 1", target.Len())
		}
	})

	t.Run("asset without resource rows exports the original", func(t *testing.T) {
		b := testutil.NewBundle(t, testutil.BundleConfig{})
		b.AddAsset("ZASSET", testutil.AssetSpec{UUID: "E-5", Filename: "raw.png"})
		b.WriteOriginal("E-5", ".png", []byte("png"))

		s := newSession(t, b)
		target := NewMemoryTarget()
		exporter := photolib.NewExporter(s, target, nil)

		assets, _, err := s.ListAssets()
		if err != nil {
			t.Fatalf("listing assets: %v", err)
		}
		count, warnings, err := exporter.ExportAssets(assets)
		if err != nil {
			t.Fatalf("ExportAssets() error = %v", err)
		}
		if count != 1 || len(warnings) != 0 {
			t.Fatalf("count = %d, warnings = %v", count, warnings)
		}
		if _, ok := target.Get("E-5.png"); !ok {
			t.Error("E-5.png not stored")
		}
	})

	t.Run("filesystem end to end", func(t *testing.T) {
		b := testutil.NewBundle(t, testutil.BundleConfig{})
		pk := b.AddAsset("ZASSET", testutil.AssetSpec{UUID: "E-6", Filename: "a.jpeg"})
		b.AddResource(pk, 0, "public.jpeg", 5, nil)
		b.WriteOriginal("E-6", ".jpeg", []byte("bytes"))

		s := newSession(t, b)
		dest := t.TempDir()
		target, err := NewFileSystemTarget(filepath.Join(dest, "out"))
		if err != nil {
			t.Fatalf("NewFileSystemTarget() error = %v", err)
		}
		exporter := photolib.NewExporter(s, target, nil)

		assets, _, err := s.ListAssets()
		if err != nil {
			t.Fatalf("listing assets: %v", err)
		}
		count, _, err := exporter.ExportAssets(assets)
		if err != nil {
			t.Fatalf("ExportAssets() error = %v", err)
		}
		if count != 1 {
			t.Fatalf("count = %d, want 1", count)
		}
		got, err := os.ReadFile(filepath.Join(dest, "out", "E-6.jpeg"))
		if err != nil {
			t.Fatalf("reading exported file: %v", err)
		}
		if string(got) != "bytes" {
			t.Errorf("content = %q", got)
		}
	})
}
