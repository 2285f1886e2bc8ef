package testutil

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"howett.net/plist"

	"plib-go/internal/database"
)

// Default identifiers used by fixture bundles. The numeric infixes are
// arbitrary; resolution must discover them, never assume them.
const (
	DefaultAlbumJoinTable = "Z_28ASSETS"
	DefaultAlbumJoinAlbum = "Z_28ALBUMS"
	DefaultAlbumJoinAsset = "Z_3ASSETS"
	DefaultAlbumJoinSort  = "Z_FOK_3ASSETS"
	DefaultKeywordJoinCol = "Z_38KEYWORDS"
)

// BundleConfig controls the shape of a synthetic library bundle. The
// zero value plus a model version produces a modern-layout bundle.
type BundleConfig struct {
	ModelVersion int64
	AssetTable   string // default ZASSET
	LegacyFaces  bool   // use the pre-rename face foreign keys
	NoSortColumn bool   // omit the album join sort column
	ExtraDDL     []string
}

// Bundle is a synthetic library bundle in a temp directory, with a
// writable handle for inserting fixture rows. The resolver under test
// opens its own read-only handle against the same files.
type Bundle struct {
	Root string
	DB   *sql.DB

	t      *testing.T
	nextPK int64
}

// NewBundle creates a modern-layout bundle according to cfg.
func NewBundle(t *testing.T, cfg BundleConfig) *Bundle {
	t.Helper()

	if cfg.AssetTable == "" {
		cfg.AssetTable = "ZASSET"
	}
	if cfg.ModelVersion == 0 {
		cfg.ModelVersion = 17123
	}

	root := t.TempDir()
	dbDir := filepath.Join(root, "database")
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		t.Fatalf("creating database dir: %v", err)
	}

	db, err := database.OpenReadWrite(filepath.Join(dbDir, "Photos.sqlite"))
	if err != nil {
		t.Fatalf("creating fixture database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	b := &Bundle{Root: root, DB: db, t: t}
	b.applySchema(cfg)
	b.insertMetadata(cfg.ModelVersion)
	return b
}

// NewLegacyFlatBundle creates a bundle with only the legacy flat
// database and its key/value globals table.
func NewLegacyFlatBundle(t *testing.T, version int64) *Bundle {
	t.Helper()

	root := t.TempDir()
	dbDir := filepath.Join(root, "database")
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		t.Fatalf("creating database dir: %v", err)
	}

	db, err := database.OpenReadWrite(filepath.Join(dbDir, "photos.db"))
	if err != nil {
		t.Fatalf("creating fixture database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	b := &Bundle{Root: root, DB: db, t: t}
	b.Exec("CREATE TABLE LiGlobals (keyPath TEXT PRIMARY KEY, value TEXT)")
	b.Exec("INSERT INTO LiGlobals (keyPath, value) VALUES ('libraryVersion', ?)", version)
	return b
}

// Exec runs a statement against the fixture database, failing the test
// on error.
func (b *Bundle) Exec(query string, args ...any) {
	b.t.Helper()
	if _, err := b.DB.Exec(query, args...); err != nil {
		b.t.Fatalf("fixture exec %q: %v", query, err)
	}
}

func (b *Bundle) pk() int64 {
	b.nextPK++
	return b.nextPK
}

func (b *Bundle) applySchema(cfg BundleConfig) {
	b.Exec("CREATE TABLE Z_METADATA (Z_VERSION INTEGER, Z_UUID TEXT, Z_PLIST BLOB)")

	b.Exec("CREATE TABLE " + cfg.AssetTable + ` (
		Z_PK INTEGER PRIMARY KEY,
		ZUUID TEXT,
		ZKIND INTEGER,
		ZKINDSUBTYPE INTEGER,
		ZDATECREATED REAL,
		ZMODIFICATIONDATE REAL,
		ZWIDTH INTEGER,
		ZHEIGHT INTEGER,
		ZLATITUDE REAL,
		ZLONGITUDE REAL,
		ZHIDDEN INTEGER DEFAULT 0,
		ZFAVORITE INTEGER DEFAULT 0,
		ZTRASHEDSTATE INTEGER DEFAULT 0,
		ZFILENAME TEXT,
		ZMOMENT INTEGER
	)`)

	b.Exec(`CREATE TABLE ZGENERICALBUM (
		Z_PK INTEGER PRIMARY KEY,
		ZUUID TEXT,
		ZTITLE TEXT,
		ZKIND INTEGER,
		ZPARENTFOLDER INTEGER,
		ZTRASHEDSTATE INTEGER DEFAULT 0
	)`)

	sortCol := ""
	if !cfg.NoSortColumn {
		sortCol = ", " + DefaultAlbumJoinSort + " INTEGER"
	}
	b.Exec("CREATE TABLE " + DefaultAlbumJoinTable + " (" +
		DefaultAlbumJoinAlbum + " INTEGER, " + DefaultAlbumJoinAsset + " INTEGER" + sortCol + ")")

	b.Exec("CREATE TABLE ZKEYWORD (Z_PK INTEGER PRIMARY KEY, ZUUID TEXT, ZTITLE TEXT)")
	// ZMASTERFINGERPRINT is deliberately untyped so fixtures can store
	// either encoding generation (text or integer).
	b.Exec(`CREATE TABLE ZADDITIONALASSETATTRIBUTES (
		Z_PK INTEGER PRIMARY KEY,
		ZASSET INTEGER,
		ZREVERSELOCATIONDATA BLOB,
		ZMASTERFINGERPRINT
	)`)
	b.Exec("CREATE TABLE Z_1KEYWORDS (Z_1ASSETATTRIBUTES INTEGER, " + DefaultKeywordJoinCol + " INTEGER)")

	faceAsset, facePerson := "ZASSETFORFACE", "ZPERSONFORFACE"
	if cfg.LegacyFaces {
		faceAsset, facePerson = "ZASSET", "ZPERSON"
	}
	b.Exec("CREATE TABLE ZDETECTEDFACE (Z_PK INTEGER PRIMARY KEY, " +
		faceAsset + " INTEGER, " + facePerson + " INTEGER, ZCENTERX REAL, ZCENTERY REAL)")
	b.Exec("CREATE TABLE ZPERSON (Z_PK INTEGER PRIMARY KEY, ZUUID TEXT, ZFULLNAME TEXT, ZFACECOUNT INTEGER)")

	b.Exec(`CREATE TABLE ZMOMENT (
		Z_PK INTEGER PRIMARY KEY,
		ZTITLE TEXT,
		ZSTARTDATE REAL,
		ZENDDATE REAL,
		ZAPPROXIMATELATITUDE REAL,
		ZAPPROXIMATELONGITUDE REAL
	)`)

	b.Exec(`CREATE TABLE ZINTERNALRESOURCE (
		Z_PK INTEGER PRIMARY KEY,
		ZASSET INTEGER,
		ZRESOURCETYPE INTEGER,
		ZUNIFORMTYPEIDENTIFIER TEXT,
		ZDATALENGTH INTEGER,
		ZLOCALAVAILABILITY INTEGER DEFAULT 1,
		ZREMOTEAVAILABILITY INTEGER DEFAULT 0,
		ZCHOICE INTEGER
	)`)

	b.Exec("CREATE TABLE ZUNMANAGEDADJUSTMENT (Z_PK INTEGER PRIMARY KEY, ZASSET INTEGER, ZADJUSTMENTSDATA BLOB)")

	for _, ddl := range cfg.ExtraDDL {
		b.Exec(ddl)
	}
}

func (b *Bundle) insertMetadata(modelVersion int64) {
	blob := MarshalPlist(b.t, map[string]interface{}{
		"PLModelVersion": modelVersion,
	})
	b.Exec("INSERT INTO Z_METADATA (Z_VERSION, Z_UUID, Z_PLIST) VALUES (1, 'fixture', ?)", blob)
}

// AssetSpec describes one fixture asset row. CreatedAt/ModifiedAt are in
// library seconds (the stored representation).
type AssetSpec struct {
	UUID       string
	Kind       int64
	Subtype    int64
	CreatedAt  float64
	ModifiedAt float64
	Width      int64
	Height     int64
	Latitude   float64 // default: the no-location sentinel
	Longitude  float64
	HasGeo     bool
	Hidden     bool
	Favorite   bool
	Trashed    bool
	Filename   string
	MomentPK   int64
}

// AddAsset inserts an asset row into the table named assetTable and
// returns its primary key.
func (b *Bundle) AddAsset(assetTable string, spec AssetSpec) int64 {
	b.t.Helper()
	pk := b.pk()
	lat, lon := -180.0, -180.0
	if spec.HasGeo {
		lat, lon = spec.Latitude, spec.Longitude
	}
	var moment any
	if spec.MomentPK != 0 {
		moment = spec.MomentPK
	}
	b.Exec("INSERT INTO "+assetTable+` (Z_PK, ZUUID, ZKIND, ZKINDSUBTYPE, ZDATECREATED,
		ZMODIFICATIONDATE, ZWIDTH, ZHEIGHT, ZLATITUDE, ZLONGITUDE, ZHIDDEN, ZFAVORITE,
		ZTRASHEDSTATE, ZFILENAME, ZMOMENT) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pk, spec.UUID, spec.Kind, spec.Subtype, spec.CreatedAt, spec.ModifiedAt,
		spec.Width, spec.Height, lat, lon, boolInt(spec.Hidden), boolInt(spec.Favorite),
		boolInt(spec.Trashed), spec.Filename, moment)
	return pk
}

// AddAttributes inserts an attributes row for an asset and returns its
// primary key. fingerprint may be a string, an integer or nil.
func (b *Bundle) AddAttributes(assetPK int64, reverseGeo []byte, fingerprint any) int64 {
	b.t.Helper()
	pk := b.pk()
	b.Exec("INSERT INTO ZADDITIONALASSETATTRIBUTES (Z_PK, ZASSET, ZREVERSELOCATIONDATA, ZMASTERFINGERPRINT) VALUES (?, ?, ?, ?)",
		pk, assetPK, reverseGeo, fingerprint)
	return pk
}

// AddAlbum inserts a plain album and returns its primary key.
func (b *Bundle) AddAlbum(uuid, title string, parentPK int64) int64 {
	return b.addAlbumRow(uuid, title, 2, parentPK)
}

// AddFolder inserts a folder and returns its primary key.
func (b *Bundle) AddFolder(uuid, title string, parentPK int64) int64 {
	return b.addAlbumRow(uuid, title, 4000, parentPK)
}

// AddRootFolder inserts the hierarchy root and returns its primary key.
func (b *Bundle) AddRootFolder() int64 {
	return b.addAlbumRow("root", "", 3999, 0)
}

func (b *Bundle) addAlbumRow(uuid, title string, kind, parentPK int64) int64 {
	b.t.Helper()
	pk := b.pk()
	var parent any
	if parentPK != 0 {
		parent = parentPK
	}
	b.Exec("INSERT INTO ZGENERICALBUM (Z_PK, ZUUID, ZTITLE, ZKIND, ZPARENTFOLDER) VALUES (?, ?, ?, ?, ?)",
		pk, uuid, title, kind, parent)
	return pk
}

// SetFolderParent rewires a folder's parent reference, for hierarchy
// corruption tests.
func (b *Bundle) SetFolderParent(folderPK, parentPK int64) {
	b.t.Helper()
	b.Exec("UPDATE ZGENERICALBUM SET ZPARENTFOLDER = ? WHERE Z_PK = ?", parentPK, folderPK)
}

// LinkAlbumAsset joins an asset into an album with a sort-order value.
func (b *Bundle) LinkAlbumAsset(albumPK, assetPK, sortOrder int64) {
	b.t.Helper()
	b.Exec("INSERT INTO "+DefaultAlbumJoinTable+" ("+DefaultAlbumJoinAlbum+", "+DefaultAlbumJoinAsset+", "+DefaultAlbumJoinSort+") VALUES (?, ?, ?)",
		albumPK, assetPK, sortOrder)
}

// AddKeyword inserts a keyword and returns its primary key.
func (b *Bundle) AddKeyword(title string) int64 {
	b.t.Helper()
	pk := b.pk()
	b.Exec("INSERT INTO ZKEYWORD (Z_PK, ZUUID, ZTITLE) VALUES (?, ?, ?)", pk, title+"-uuid", title)
	return pk
}

// LinkKeyword joins a keyword to an asset's attributes row.
func (b *Bundle) LinkKeyword(attributesPK, keywordPK int64) {
	b.t.Helper()
	b.Exec("INSERT INTO Z_1KEYWORDS (Z_1ASSETATTRIBUTES, "+DefaultKeywordJoinCol+") VALUES (?, ?)",
		attributesPK, keywordPK)
}

// AddPerson inserts a person and returns its primary key.
func (b *Bundle) AddPerson(uuid, name string, faceCount int64) int64 {
	b.t.Helper()
	pk := b.pk()
	b.Exec("INSERT INTO ZPERSON (Z_PK, ZUUID, ZFULLNAME, ZFACECOUNT) VALUES (?, ?, ?, ?)",
		pk, uuid, name, faceCount)
	return pk
}

// AddFace inserts a face detection. personPK zero means an unnamed
// detection. The column pair must match the bundle's face generation.
func (b *Bundle) AddFace(assetCol, personCol string, assetPK, personPK int64) int64 {
	b.t.Helper()
	pk := b.pk()
	var person any
	if personPK != 0 {
		person = personPK
	}
	b.Exec("INSERT INTO ZDETECTEDFACE (Z_PK, "+assetCol+", "+personCol+", ZCENTERX, ZCENTERY) VALUES (?, ?, ?, 0.5, 0.5)",
		pk, assetPK, person)
	return pk
}

// AddMoment inserts a moment and returns its primary key.
func (b *Bundle) AddMoment(title string, start, end float64) int64 {
	b.t.Helper()
	pk := b.pk()
	b.Exec("INSERT INTO ZMOMENT (Z_PK, ZTITLE, ZSTARTDATE, ZENDDATE, ZAPPROXIMATELATITUDE, ZAPPROXIMATELONGITUDE) VALUES (?, ?, ?, ?, -180.0, -180.0)",
		pk, title, start, end)
	return pk
}

// AddResource inserts a resource row for an asset. choice is the
// explicit primary flag; nil leaves it unset.
func (b *Bundle) AddResource(assetPK, role int64, uti string, length int64, choice any) int64 {
	b.t.Helper()
	pk := b.pk()
	b.Exec(`INSERT INTO ZINTERNALRESOURCE (Z_PK, ZASSET, ZRESOURCETYPE, ZUNIFORMTYPEIDENTIFIER,
		ZDATALENGTH, ZCHOICE) VALUES (?, ?, ?, ?, ?, ?)`,
		pk, assetPK, role, uti, length, choice)
	return pk
}

// AddAdjustment inserts an adjustment blob for an asset.
func (b *Bundle) AddAdjustment(assetPK int64, data []byte) {
	b.t.Helper()
	b.Exec("INSERT INTO ZUNMANAGEDADJUSTMENT (Z_PK, ZASSET, ZADJUSTMENTSDATA) VALUES (?, ?, ?)",
		b.pk(), assetPK, data)
}

// WriteOriginal places a media file in the sharded originals directory.
func (b *Bundle) WriteOriginal(uuid, ext string, content []byte) string {
	return b.writeMedia(filepath.Join("originals", shard(uuid)), uuid+ext, content)
}

// WriteDerivative places a media file in the sharded derivatives
// directory under the given suffix.
func (b *Bundle) WriteDerivative(uuid, suffix string, content []byte) string {
	return b.writeMedia(filepath.Join("resources", "derivatives", shard(uuid)), uuid+suffix, content)
}

func (b *Bundle) writeMedia(dir, name string, content []byte) string {
	b.t.Helper()
	full := filepath.Join(b.Root, dir)
	if err := os.MkdirAll(full, 0755); err != nil {
		b.t.Fatalf("creating media dir: %v", err)
	}
	path := filepath.Join(full, name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		b.t.Fatalf("writing media file: %v", err)
	}
	return path
}

func shard(uuid string) string {
	if uuid == "" {
		return ""
	}
	r := uuid[:1]
	if r[0] >= 'A' && r[0] <= 'Z' {
		return string(r[0] + 'a' - 'A')
	}
	return r
}

func boolInt(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

// MarshalPlist encodes v as a binary property list, failing the test on
// error.
func MarshalPlist(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := plist.Marshal(v, plist.BinaryFormat)
	if err != nil {
		t.Fatalf("marshaling property list: %v", err)
	}
	return data
}
