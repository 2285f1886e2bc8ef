package photolib

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"howett.net/plist"

	"plib-go/internal/database"
)

// Well-known file locations inside a library bundle, relative to its root.
const (
	ModernDatabasePath = "database/Photos.sqlite"
	LegacyDatabasePath = "database/photos.db"
	SearchIndexPath    = "database/search/psi.sqlite"
)

// modelVersionKey is the key of the integer generation marker inside the
// Z_METADATA property-list blob.
const modelVersionKey = "PLModelVersion"

// VersionProfile describes one known format generation of the bundle.
// Profiles are immutable; one is created per bundle open and threaded
// through schema resolution. An unknown marker yields a profile with
// Unknown set, carrying the raw marker so callers can attempt
// best-effort access instead of hard-failing.
type VersionProfile struct {
	Generation     int64 // raw marker as read from the bundle
	Label          string
	Platform       string
	AssetTableHint string // default asset table for this generation, may be empty
	Legacy         bool   // detected via the legacy flat database
	Unknown        bool
}

func (p *VersionProfile) String() string {
	if p.Unknown {
		return fmt.Sprintf("unknown generation (marker %d)", p.Generation)
	}
	return fmt.Sprintf("%s (%s, marker %d)", p.Label, p.Platform, p.Generation)
}

// versionRange maps an inclusive marker range to a profile. Ranges within
// one table never overlap.
type versionRange struct {
	low, high  int64
	label      string
	platform   string
	assetTable string
}

// Generation table for the modern structured database. Markers are the
// model versions recorded in the Z_METADATA property list.
// Mid-cycle point releases that bumped the model version get their own
// rows so the label reflects what actually wrote the bundle.
var modernVersions = []versionRange{
	{13000, 13999, "Photos 5", "macOS 10.15", "ZGENERICASSET"},
	{14000, 14299, "Photos 6", "macOS 11", "ZASSET"},
	{14300, 14999, "Photos 6.3", "macOS 11.3", "ZASSET"},
	{15000, 15999, "Photos 7", "macOS 12", "ZASSET"},
	{16000, 16599, "Photos 8", "macOS 13", "ZASSET"},
	{16600, 16999, "Photos 8.3", "macOS 13.3", "ZASSET"},
	{17000, 17999, "Photos 9", "macOS 14", "ZASSET"},
	{18000, 18999, "Photos 10", "macOS 15", "ZASSET"},
	{19000, 19999, "Photos 11", "macOS 26", "ZASSET"},
}

// Disjoint generation table for the legacy flat database layout, keyed by
// the integer library version stored in its key/value globals table.
var legacyVersions = []versionRange{
	{1000, 1999, "Photos 1", "macOS 10.10.3", ""},
	{2000, 2999, "Photos 2", "macOS 10.12", ""},
	{3000, 3999, "Photos 3", "macOS 10.13", ""},
	{4000, 4999, "Photos 4", "macOS 10.14", ""},
}

// profileForMarker maps a raw marker to a profile through the given range
// table. Markers outside all ranges yield an Unknown profile, not an error.
func profileForMarker(marker int64, table []versionRange, legacy bool) *VersionProfile {
	for _, r := range table {
		if marker >= r.low && marker <= r.high {
			return &VersionProfile{
				Generation:     marker,
				Label:          r.label,
				Platform:       r.platform,
				AssetTableHint: r.assetTable,
				Legacy:         legacy,
			}
		}
	}
	return &VersionProfile{Generation: marker, Legacy: legacy, Unknown: true}
}

// DetectVersion determines the format generation of the bundle at root.
// It prefers the modern structured database; when that file does not
// exist it falls back to the legacy flat database. Both paths converge on
// the same profile shape.
func DetectVersion(root string, logger Logger) (*VersionProfile, error) {
	modernPath := filepath.Join(root, filepath.FromSlash(ModernDatabasePath))
	if _, err := os.Stat(modernPath); err == nil {
		marker, err := readModernMarker(modernPath)
		if err != nil {
			return nil, err
		}
		p := profileForMarker(marker, modernVersions, false)
		if p.Unknown {
			logger.Warn("unknown library generation, proceeding best-effort", "marker", marker)
		} else {
			logger.Debug("library generation detected", "label", p.Label, "marker", marker)
		}
		return p, nil
	}

	legacyPath := filepath.Join(root, filepath.FromSlash(LegacyDatabasePath))
	if _, err := os.Stat(legacyPath); err != nil {
		return nil, fmt.Errorf("%w: no library database under %s", ErrBundleUnreadable, root)
	}
	marker, err := readLegacyMarker(legacyPath)
	if err != nil {
		return nil, err
	}
	p := profileForMarker(marker, legacyVersions, true)
	if p.Unknown {
		logger.Warn("unknown legacy library generation", "marker", marker)
	} else {
		logger.Debug("legacy library generation detected", "label", p.Label, "marker", marker)
	}
	return p, nil
}

// readModernMarker reads the single metadata record of the modern
// database and extracts the generation marker from its property-list blob.
func readModernMarker(dbPath string) (int64, error) {
	db, err := database.OpenReadOnly(dbPath)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBundleUnreadable, err)
	}
	defer db.Close()

	var blob []byte
	err = db.QueryRow("SELECT Z_PLIST FROM Z_METADATA LIMIT 1").Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: Z_METADATA is empty", ErrMetadataRecordMissing)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: reading Z_METADATA: %v", ErrMetadataRecordMissing, err)
	}

	var meta map[string]interface{}
	if _, err := plist.Unmarshal(blob, &meta); err != nil {
		return 0, fmt.Errorf("%w: metadata property list: %v", ErrDecodeFailure, err)
	}
	marker, ok := plistInt(meta[modelVersionKey])
	if !ok {
		return 0, fmt.Errorf("%w: %s missing from metadata property list", ErrDecodeFailure, modelVersionKey)
	}
	return marker, nil
}

// readLegacyMarker reads the integer library version from the key/value
// globals table of the legacy flat database.
func readLegacyMarker(dbPath string) (int64, error) {
	db, err := database.OpenReadOnly(dbPath)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBundleUnreadable, err)
	}
	defer db.Close()

	var value string
	err = db.QueryRow("SELECT value FROM LiGlobals WHERE keyPath = ?", "libraryVersion").Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: libraryVersion not in LiGlobals", ErrMetadataRecordMissing)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: reading LiGlobals: %v", ErrMetadataRecordMissing, err)
	}

	marker, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: libraryVersion %q is not an integer", ErrDecodeFailure, value)
	}
	return marker, nil
}

// plistInt extracts an integer from a decoded property-list value. The
// decoder may yield signed, unsigned or floating-point numbers for the
// same stored integer depending on the source format.
func plistInt(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
