package database

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) (string, *Catalog) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.sqlite")
	db, err := OpenReadWrite(path)
	if err != nil {
		t.Fatalf("creating test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	stmts := []string{
		"CREATE TABLE ZASSET (Z_PK INTEGER PRIMARY KEY, ZUUID TEXT, ZDATECREATED REAL)",
		"CREATE TABLE Z_28ASSETS (Z_28ALBUMS INTEGER, Z_3ASSETS INTEGER)",
		"CREATE TABLE ZUNTYPED (ZBLOB)",
		"CREATE INDEX idx_uuid ON ZASSET (ZUUID)",
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}

	cat, err := LoadCatalog(db)
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}
	return path, cat
}

func TestCatalog(t *testing.T) {
	_, cat := newTestDB(t)

	t.Run("tables are sorted and exclude indexes", func(t *testing.T) {
		got := cat.Tables()
		want := []string{"ZASSET", "ZUNTYPED", "Z_28ASSETS"}
		if len(got) != len(want) {
			t.Fatalf("Tables() = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("Tables()[%d] = %q, want %q", i, got[i], want[i])
			}
		}
	})

	t.Run("has table", func(t *testing.T) {
		if !cat.HasTable("ZASSET") {
			t.Error("HasTable(ZASSET) = false")
		}
		if cat.HasTable("ZNOPE") {
			t.Error("HasTable(ZNOPE) = true")
		}
		if cat.HasTable("zasset") {
			t.Error("HasTable is not case sensitive")
		}
	})

	t.Run("columns in table order", func(t *testing.T) {
		got := cat.Columns("ZASSET")
		want := []string{"Z_PK", "ZUUID", "ZDATECREATED"}
		if len(got) != len(want) {
			t.Fatalf("Columns(ZASSET) = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("Columns(ZASSET)[%d] = %q, want %q", i, got[i], want[i])
			}
		}
	})

	t.Run("untyped columns are cataloged", func(t *testing.T) {
		if !cat.HasColumn("ZUNTYPED", "ZBLOB") {
			t.Error("HasColumn(ZUNTYPED, ZBLOB) = false")
		}
	})

	t.Run("has column", func(t *testing.T) {
		if !cat.HasColumn("Z_28ASSETS", "Z_3ASSETS") {
			t.Error("HasColumn(Z_28ASSETS, Z_3ASSETS) = false")
		}
		if cat.HasColumn("ZASSET", "ZNOPE") {
			t.Error("HasColumn(ZASSET, ZNOPE) = true")
		}
		if cat.HasColumn("ZNOPE", "ZUUID") {
			t.Error("HasColumn against unknown table = true")
		}
	})

	t.Run("unknown table has nil columns", func(t *testing.T) {
		if cols := cat.Columns("ZNOPE"); cols != nil {
			t.Errorf("Columns(ZNOPE) = %v, want nil", cols)
		}
	})
}

func TestOpenReadOnly(t *testing.T) {
	t.Run("rejects writes", func(t *testing.T) {
		path, _ := newTestDB(t)
		ro, err := OpenReadOnly(path)
		if err != nil {
			t.Fatalf("OpenReadOnly() error = %v", err)
		}
		defer ro.Close()

		var n int
		if err := ro.QueryRow("SELECT COUNT(*) FROM ZASSET").Scan(&n); err != nil {
			t.Fatalf("querying read-only handle: %v", err)
		}
		if _, err := ro.Exec("INSERT INTO ZASSET (ZUUID) VALUES ('x')"); err == nil {
			t.Fatal("write through a read-only handle succeeded")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := OpenReadOnly(filepath.Join(t.TempDir(), "absent.sqlite")); err == nil {
			t.Fatal("OpenReadOnly() succeeded on a missing file")
		}
	})

	t.Run("path with query metacharacters", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "odd dir 100%")
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("creating dir: %v", err)
		}
		path := filepath.Join(dir, "photos.sqlite")
		rw, err := OpenReadWrite(path)
		if err != nil {
			t.Fatalf("OpenReadWrite() error = %v", err)
		}
		if _, err := rw.Exec("CREATE TABLE t (c INTEGER)"); err != nil {
			t.Fatalf("creating table: %v", err)
		}
		rw.Close()

		ro, err := OpenReadOnly(path)
		if err != nil {
			t.Fatalf("OpenReadOnly() error = %v", err)
		}
		defer ro.Close()
		if _, err := LoadCatalog(ro); err != nil {
			t.Errorf("LoadCatalog() error = %v", err)
		}
	})
}
