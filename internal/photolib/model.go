package photolib

import "time"

// AssetKind distinguishes the two top-level media kinds.
type AssetKind int64

const (
	KindPhoto AssetKind = 0
	KindVideo AssetKind = 1
)

func (k AssetKind) String() string {
	switch k {
	case KindPhoto:
		return "photo"
	case KindVideo:
		return "video"
	default:
		return "unknown"
	}
}

// AssetSubtype is the enumerated variant of an asset. The raw numeric code
// is always preserved on the Asset; codes outside this mapping stay opaque.
type AssetSubtype int64

const (
	SubtypeNormal          AssetSubtype = 0
	SubtypePanorama        AssetSubtype = 1
	SubtypeLivePhoto       AssetSubtype = 2
	SubtypeHDR             AssetSubtype = 3
	SubtypeScreenshot      AssetSubtype = 10
	SubtypePortrait        AssetSubtype = 100
	SubtypeSlowMotion      AssetSubtype = 101
	SubtypeTimeLapse       AssetSubtype = 102
	SubtypeScreenRecording AssetSubtype = 103
)

func (s AssetSubtype) String() string {
	switch s {
	case SubtypeNormal:
		return "normal"
	case SubtypePanorama:
		return "panorama"
	case SubtypeLivePhoto:
		return "live-photo"
	case SubtypeHDR:
		return "hdr"
	case SubtypeScreenshot:
		return "screenshot"
	case SubtypePortrait:
		return "portrait"
	case SubtypeSlowMotion:
		return "slow-motion"
	case SubtypeTimeLapse:
		return "time-lapse"
	case SubtypeScreenRecording:
		return "screen-recording"
	default:
		return "unknown"
	}
}

// Location is a decoded coordinate pair. Absent locations are represented
// by a nil *Location, never by sentinel values.
type Location struct {
	Latitude  float64
	Longitude float64
}

// Asset is a read-only snapshot of one media item as it exists in the
// bundle at query time. PK is the row's internal primary key, needed for
// join queries; UUID is the stable external identifier.
type Asset struct {
	PK         int64
	UUID       string
	Kind       AssetKind
	Subtype    AssetSubtype
	RawSubtype int64 // undecoded subtype code as stored

	CreatedAt  time.Time
	ModifiedAt time.Time

	Width  int64
	Height int64

	Location *Location

	Hidden   bool
	Favorite bool
	Trashed  bool

	OriginalFilename string
}

// ResourceRole identifies what a file artifact is to its asset.
type ResourceRole int64

const (
	RoleOriginal     ResourceRole = 0 // the as-imported master
	RoleAlternate    ResourceRole = 1 // RAW counterpart of a RAW+JPEG pair
	RoleRender       ResourceRole = 2 // rendered edit
	RoleLiveVideo    ResourceRole = 3 // video half of a Live Photo
	RoleDerivative   ResourceRole = 4 // generated derivative
)

// Resource is a file artifact tied to an asset. At most one resource per
// (asset, role) pair carries the primary choice flag; when no resource of
// a role carries it, the original role is primary by default.
type Resource struct {
	AssetPK    int64
	Role       ResourceRole
	RawRole    int64 // undecoded role code as stored
	UTI        string
	DataLength int64

	LocalAvailable  bool
	RemoteAvailable bool
	Primary         bool
}

// Album is a named, ordered collection of assets.
type Album struct {
	PK      int64
	UUID    string
	Title   string
	Trashed bool
}

// Folder is a named container of albums and folders. Folders form a tree
// with exactly one root; the query layer rejects cyclic hierarchies.
type Folder struct {
	PK       int64
	UUID     string
	Title    string
	Children []*Folder
	Albums   []*Album
}

// Person aggregates zero or more face detections under a display name.
type Person struct {
	PK        int64
	UUID      string
	Name      string
	FaceCount int64
}

// Face is a single detection. AssetPK always resolves to an existing
// asset; PersonPK is zero for an unnamed detection.
type Face struct {
	PK       int64
	AssetPK  int64
	PersonPK int64 // 0 when the face is not linked to a person
	CenterX  float64
	CenterY  float64
}

// Moment is a time/location-bounded automatic grouping generated by the
// source system. Read-only; never reconstructed here.
type Moment struct {
	PK        int64
	Title     string
	StartDate time.Time
	EndDate   time.Time
	Location  *Location
}

// PlaceInfo is the decoded reverse-geocode payload for an asset. Fields
// beyond the stored list's length are empty, not errors.
type PlaceInfo struct {
	Country         string
	Region          string
	City            string
	SubLocality     string
	Street          string
	PointOfInterest string
}
