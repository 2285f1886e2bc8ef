package photolib

import (
	"errors"
	"testing"

	"plib-go/internal/testutil"
)

func TestOpen(t *testing.T) {
	t.Run("modern bundle", func(t *testing.T) {
		b := testutil.NewBundle(t, testutil.BundleConfig{ModelVersion: 17123})
		b.AddAsset("ZASSET", testutil.AssetSpec{UUID: "S-1", CreatedAt: 100})

		s, err := Open(b.Root, Options{}, nil)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer s.Close()

		if s.Profile().Label != "Photos 9" {
			t.Errorf("profile = %s", s.Profile())
		}
		assets, _, err := s.ListAssets()
		if err != nil {
			t.Fatalf("ListAssets() error = %v", err)
		}
		if len(assets) != 1 || assets[0].UUID != "S-1" {
			t.Errorf("assets = %v", uuids(assets))
		}
	})

	t.Run("session options filter listings", func(t *testing.T) {
		b := testutil.NewBundle(t, testutil.BundleConfig{})
		b.AddAsset("ZASSET", testutil.AssetSpec{UUID: "VIS", CreatedAt: 100})
		b.AddAsset("ZASSET", testutil.AssetSpec{UUID: "HID", CreatedAt: 200, Hidden: true})

		s, err := Open(b.Root, Options{IncludeHidden: true}, nil)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer s.Close()

		assets, _, err := s.ListAssets()
		if err != nil {
			t.Fatalf("ListAssets() error = %v", err)
		}
		if len(assets) != 2 {
			t.Errorf("assets = %v, want both", uuids(assets))
		}
	})

	t.Run("missing bundle", func(t *testing.T) {
		_, err := Open(t.TempDir()+"/nope", Options{}, nil)
		if !errors.Is(err, ErrBundleUnreadable) {
			t.Fatalf("error = %v, want ErrBundleUnreadable", err)
		}
	})

	t.Run("directory without databases", func(t *testing.T) {
		_, err := Open(t.TempDir(), Options{}, nil)
		if !errors.Is(err, ErrBundleUnreadable) {
			t.Fatalf("error = %v, want ErrBundleUnreadable", err)
		}
	})

	t.Run("strict schema aborts on degraded bundle", func(t *testing.T) {
		b := testutil.NewBundle(t, testutil.BundleConfig{})
		b.Exec("DROP TABLE ZDETECTEDFACE")

		if _, err := Open(b.Root, Options{StrictSchema: true}, nil); err == nil {
			t.Fatal("Open() with strict schema succeeded on a degraded bundle")
		}

		// Without strict mode the same bundle opens fine.
		s, err := Open(b.Root, Options{}, nil)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		s.Close()
	})

	t.Run("close is idempotent", func(t *testing.T) {
		b := testutil.NewBundle(t, testutil.BundleConfig{})
		s, err := Open(b.Root, Options{}, nil)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		if err := s.Close(); err != nil {
			t.Errorf("first Close() error = %v", err)
		}
		if err := s.Close(); err != nil {
			t.Errorf("second Close() error = %v", err)
		}
	})
}

func TestOpenOlderGeneration(t *testing.T) {
	// An older bundle with the pre-rename asset table, an album join
	// surrounded by decoy join tables, and a keyword link, exercised
	// end to end through one session.
	b := testutil.NewBundle(t, testutil.BundleConfig{
		ModelVersion: 13123,
		AssetTable:   "ZGENERICASSET",
		ExtraDDL: []string{
			"CREATE TABLE Z_12SUGGESTIONSASSETS (Z_12SUGGESTIONS INTEGER, Z_3ASSETS INTEGER)",
			"CREATE TABLE Z_13MEMORIESASSETS (Z_13MEMORIES INTEGER, Z_3ASSETS INTEGER)",
		},
	})
	first := b.AddAsset("ZGENERICASSET", testutil.AssetSpec{UUID: "G-1", CreatedAt: 200})
	b.AddAsset("ZGENERICASSET", testutil.AssetSpec{UUID: "G-2", CreatedAt: 100})
	album := b.AddAlbum("AL-1", "Trip", 0)
	b.LinkAlbumAsset(album, first, 1)
	attrs := b.AddAttributes(first, nil, nil)
	b.LinkKeyword(attrs, b.AddKeyword("beach"))

	s, err := Open(b.Root, Options{}, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	if s.Profile().Label != "Photos 5" {
		t.Errorf("profile = %s", s.Profile())
	}
	if s.Schema().AssetTable.Name != "ZGENERICASSET" {
		t.Errorf("asset table = %q, want ZGENERICASSET", s.Schema().AssetTable.Name)
	}
	if s.Schema().AlbumJoinTable.Name != testutil.DefaultAlbumJoinTable {
		t.Errorf("album join table = %q, want %q", s.Schema().AlbumJoinTable.Name, testutil.DefaultAlbumJoinTable)
	}
	if len(s.Schema().Warnings) != 0 {
		t.Errorf("unexpected schema warnings: %v", s.Schema().Warnings)
	}

	assets, _, err := s.ListAssets()
	if err != nil {
		t.Fatalf("ListAssets() error = %v", err)
	}
	if got := uuids(assets); len(got) != 2 || got[0] != "G-1" || got[1] != "G-2" {
		t.Fatalf("assets = %v, want [G-1 G-2]", got)
	}

	albums, err := s.Repository().GetAlbumsForAsset(assets[0])
	if err != nil {
		t.Fatalf("GetAlbumsForAsset() error = %v", err)
	}
	if len(albums) != 1 || albums[0].Title != "Trip" {
		t.Errorf("albums for G-1 = %v", albums)
	}
	albums, err = s.Repository().GetAlbumsForAsset(assets[1])
	if err != nil {
		t.Fatalf("GetAlbumsForAsset() error = %v", err)
	}
	if len(albums) != 0 {
		t.Errorf("albums for G-2 = %v, want none", albums)
	}

	keywords, err := s.Repository().GetKeywordsForAsset(assets[0])
	if err != nil {
		t.Fatalf("GetKeywordsForAsset() error = %v", err)
	}
	if len(keywords) != 1 || keywords[0] != "beach" {
		t.Errorf("keywords for G-1 = %v, want [beach]", keywords)
	}
}

func TestFindExistingPath(t *testing.T) {
	b := testutil.NewBundle(t, testutil.BundleConfig{})
	b.AddAsset("ZASSET", testutil.AssetSpec{UUID: "FP-1", Filename: "IMG_1.HEIC"})

	s, err := Open(b.Root, Options{}, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	asset := &Asset{UUID: "FP-1", OriginalFilename: "IMG_1.HEIC"}
	res := &Resource{Role: RoleOriginal, UTI: "public.heic"}

	t.Run("nothing on disk", func(t *testing.T) {
		_, err := s.FindExistingPath(asset, res)
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("derivative fallback when the original is gone", func(t *testing.T) {
		want := b.WriteDerivative("FP-1", "_1_105_c.jpeg", []byte("jpeg bytes"))
		got, err := s.FindExistingPath(asset, res)
		if err != nil {
			t.Fatalf("FindExistingPath() error = %v", err)
		}
		if got != want {
			t.Errorf("path = %q, want %q", got, want)
		}
	})

	t.Run("original preferred once present", func(t *testing.T) {
		want := b.WriteOriginal("FP-1", ".heic", []byte("heic bytes"))
		got, err := s.FindExistingPath(asset, res)
		if err != nil {
			t.Fatalf("FindExistingPath() error = %v", err)
		}
		if got != want {
			t.Errorf("path = %q, want %q", got, want)
		}
	})
}
