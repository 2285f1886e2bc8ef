package photolib

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"plib-go/internal/database"
)

// Album row kinds within the album table. Folders and the folder root
// share the table with plain albums.
const (
	kindAlbum      = 2
	kindRootFolder = 3999
	kindFolder     = 4000
)

// Repository exposes the stable entity API over one bundle, independent
// of the concrete identifiers the bundle's generation uses. Every query
// is built from the resolved schema; no identifier is interpolated that
// was not first verified against the catalog. Multi-table operations
// whose required schema field is unresolved return SchemaUnavailableError
// instead of emitting a query against a non-existent identifier.
type Repository struct {
	db     *sql.DB
	cat    *database.Catalog
	schema *ResolvedSchema
	logger Logger
}

// NewRepository creates a Repository over an open read-only handle.
func NewRepository(db *sql.DB, cat *database.Catalog, schema *ResolvedSchema, logger Logger) *Repository {
	return &Repository{db: db, cat: cat, schema: schema, logger: logger}
}

func (r *Repository) requireField(f ResolvedField, feature string) (string, error) {
	if !f.OK {
		return "", &SchemaUnavailableError{Feature: feature}
	}
	return f.Name, nil
}

func (r *Repository) requireTable(name, feature string) error {
	if !r.cat.HasTable(name) {
		return &SchemaUnavailableError{Feature: feature}
	}
	return nil
}

// assetColumns is the fixed column list selected for every asset row.
// These names are stable across all generations that have the asset
// table at all; only the table name varies.
const assetColumns = "Z_PK, ZUUID, ZKIND, ZKINDSUBTYPE, ZDATECREATED, ZMODIFICATIONDATE, " +
	"ZWIDTH, ZHEIGHT, ZLATITUDE, ZLONGITUDE, ZHIDDEN, ZFAVORITE, ZTRASHEDSTATE, ZFILENAME"

func scanAsset(scanner interface{ Scan(...any) error }) (*Asset, error) {
	var (
		a                    Asset
		kind, subtype        sql.NullInt64
		created, modified    sql.NullFloat64
		width, height        sql.NullInt64
		lat, lon             sql.NullFloat64
		hidden, fav, trashed sql.NullInt64
		filename             sql.NullString
	)
	err := scanner.Scan(&a.PK, &a.UUID, &kind, &subtype, &created, &modified,
		&width, &height, &lat, &lon, &hidden, &fav, &trashed, &filename)
	if err != nil {
		return nil, err
	}

	a.Kind = AssetKind(kind.Int64)
	a.RawSubtype = subtype.Int64
	a.Subtype = AssetSubtype(subtype.Int64)
	if created.Valid {
		a.CreatedAt = TimeFromLibrarySeconds(created.Float64)
	}
	if modified.Valid {
		a.ModifiedAt = TimeFromLibrarySeconds(modified.Float64)
	}
	a.Width = width.Int64
	a.Height = height.Int64
	if lat.Valid && lon.Valid {
		a.Location = DecodeLocation(lat.Float64, lon.Float64)
	}
	a.Hidden = hidden.Int64 != 0
	a.Favorite = fav.Int64 != 0
	a.Trashed = trashed.Int64 != 0
	a.OriginalFilename = filename.String
	return &a, nil
}

// ListAssets returns all assets ordered by creation time descending, ties
// broken by identifier ascending for determinism. The result is
// materialized, not streamed: it is bounded by the catalog's size and
// safe to hold. One undecodable row surfaces as a warning, never aborts
// the listing.
func (r *Repository) ListAssets(includeHidden, includeTrashed bool) ([]*Asset, []Warning, error) {
	table, err := r.requireField(r.schema.AssetTable, "asset table")
	if err != nil {
		return nil, nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s", assetColumns, table)
	var conds []string
	if !includeHidden {
		conds = append(conds, "ZHIDDEN = 0")
	}
	if !includeTrashed {
		conds = append(conds, "ZTRASHEDSTATE = 0")
	}
	for i, c := range conds {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY ZDATECREATED DESC, ZUUID ASC"

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, nil, fmt.Errorf("listing assets: %w", err)
	}
	defer rows.Close()

	var (
		assets   []*Asset
		warnings []Warning
	)
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			warnings = append(warnings, Warning{Context: "scan asset", Err: err})
			continue
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return assets, warnings, fmt.Errorf("listing assets: %w", err)
	}
	return assets, warnings, nil
}

// GetAsset looks up a single asset by its stable identifier.
func (r *Repository) GetAsset(uuid string) (*Asset, error) {
	table, err := r.requireField(r.schema.AssetTable, "asset table")
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE ZUUID = ?", assetColumns, table)
	a, err := scanAsset(r.db.QueryRow(query, uuid))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: asset %s", ErrNotFound, uuid)
	}
	if err != nil {
		return nil, fmt.Errorf("getting asset %s: %w", uuid, err)
	}
	return a, nil
}

// GetResourcesForAsset returns the file artifacts tied to an asset,
// unordered. When no resource carries the explicit primary choice flag,
// the original-role resource is marked primary by default.
func (r *Repository) GetResourcesForAsset(asset *Asset) ([]*Resource, error) {
	if err := r.requireTable(resourceTable, "resource table"); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT ZASSET, ZRESOURCETYPE, ZUNIFORMTYPEIDENTIFIER, ZDATALENGTH, "+
		"ZLOCALAVAILABILITY, ZREMOTEAVAILABILITY, ZCHOICE FROM %s WHERE ZASSET = ?", resourceTable)
	rows, err := r.db.Query(query, asset.PK)
	if err != nil {
		return nil, fmt.Errorf("listing resources for %s: %w", asset.UUID, err)
	}
	defer rows.Close()

	var (
		resources  []*Resource
		anyPrimary bool
	)
	for rows.Next() {
		var (
			res           Resource
			role          sql.NullInt64
			uti           sql.NullString
			length        sql.NullInt64
			local, remote sql.NullInt64
			choice        sql.NullInt64
		)
		if err := rows.Scan(&res.AssetPK, &role, &uti, &length, &local, &remote, &choice); err != nil {
			return nil, fmt.Errorf("scanning resource for %s: %w", asset.UUID, err)
		}
		res.RawRole = role.Int64
		res.Role = ResourceRole(role.Int64)
		res.UTI = uti.String
		res.DataLength = length.Int64
		res.LocalAvailable = local.Int64 != 0
		res.RemoteAvailable = remote.Int64 != 0
		res.Primary = choice.Valid && choice.Int64 != 0
		if res.Primary {
			anyPrimary = true
		}
		resources = append(resources, &res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing resources for %s: %w", asset.UUID, err)
	}

	if !anyPrimary {
		for _, res := range resources {
			if res.Role == RoleOriginal {
				res.Primary = true
				break
			}
		}
	}
	return resources, nil
}

func scanAlbum(scanner interface{ Scan(...any) error }) (*Album, error) {
	var (
		a       Album
		uuid    sql.NullString
		title   sql.NullString
		trashed sql.NullInt64
	)
	if err := scanner.Scan(&a.PK, &uuid, &title, &trashed); err != nil {
		return nil, err
	}
	a.UUID = uuid.String
	a.Title = title.String
	a.Trashed = trashed.Int64 != 0
	return &a, nil
}

// ListAlbums returns all plain (non-folder) albums.
func (r *Repository) ListAlbums() ([]*Album, error) {
	if err := r.requireTable(albumTable, "album table"); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT Z_PK, ZUUID, ZTITLE, ZTRASHEDSTATE FROM %s WHERE ZKIND = ? ORDER BY ZTITLE ASC", albumTable)
	rows, err := r.db.Query(query, kindAlbum)
	if err != nil {
		return nil, fmt.Errorf("listing albums: %w", err)
	}
	defer rows.Close()

	var albums []*Album
	for rows.Next() {
		a, err := scanAlbum(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning album: %w", err)
		}
		albums = append(albums, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing albums: %w", err)
	}
	return albums, nil
}

// GetAlbumsForAsset returns the albums containing the asset, resolved
// through the discovered join table.
func (r *Repository) GetAlbumsForAsset(asset *Asset) ([]*Album, error) {
	join, err := r.requireField(r.schema.AlbumJoinTable, "album join table")
	if err != nil {
		return nil, err
	}
	albumCol, err := r.requireField(r.schema.AlbumJoinAlbum, "album join album column")
	if err != nil {
		return nil, err
	}
	assetCol, err := r.requireField(r.schema.AlbumJoinAsset, "album join asset column")
	if err != nil {
		return nil, err
	}
	if err := r.requireTable(albumTable, "album table"); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT a.Z_PK, a.ZUUID, a.ZTITLE, a.ZTRASHEDSTATE FROM %s a "+
		"JOIN %s j ON j.%s = a.Z_PK WHERE j.%s = ? ORDER BY a.ZTITLE ASC",
		albumTable, join, albumCol, assetCol)
	rows, err := r.db.Query(query, asset.PK)
	if err != nil {
		return nil, fmt.Errorf("listing albums for %s: %w", asset.UUID, err)
	}
	defer rows.Close()

	var albums []*Album
	for rows.Next() {
		a, err := scanAlbum(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning album for %s: %w", asset.UUID, err)
		}
		albums = append(albums, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing albums for %s: %w", asset.UUID, err)
	}
	return albums, nil
}

// GetAssetsForAlbum returns an album's assets, honoring the discovered
// sort-order column when present and falling back to creation-time
// ordering otherwise.
func (r *Repository) GetAssetsForAlbum(album *Album) ([]*Asset, []Warning, error) {
	table, err := r.requireField(r.schema.AssetTable, "asset table")
	if err != nil {
		return nil, nil, err
	}
	join, err := r.requireField(r.schema.AlbumJoinTable, "album join table")
	if err != nil {
		return nil, nil, err
	}
	albumCol, err := r.requireField(r.schema.AlbumJoinAlbum, "album join album column")
	if err != nil {
		return nil, nil, err
	}
	assetCol, err := r.requireField(r.schema.AlbumJoinAsset, "album join asset column")
	if err != nil {
		return nil, nil, err
	}

	order := "t.ZDATECREATED DESC, t.ZUUID ASC"
	if r.schema.AlbumJoinSort.OK {
		order = fmt.Sprintf("j.%s ASC", r.schema.AlbumJoinSort.Name)
	}

	cols := prefixColumns("t", assetColumns)
	query := fmt.Sprintf("SELECT %s FROM %s t JOIN %s j ON j.%s = t.Z_PK WHERE j.%s = ? ORDER BY %s",
		cols, table, join, assetCol, albumCol, order)
	rows, err := r.db.Query(query, album.PK)
	if err != nil {
		return nil, nil, fmt.Errorf("listing assets for album %s: %w", album.UUID, err)
	}
	defer rows.Close()

	var (
		assets   []*Asset
		warnings []Warning
	)
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			warnings = append(warnings, Warning{Context: "scan asset", Item: album.UUID, Err: err})
			continue
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return assets, warnings, fmt.Errorf("listing assets for album %s: %w", album.UUID, err)
	}
	return assets, warnings, nil
}

// GetKeywordsForAsset returns the keyword titles attached to an asset.
func (r *Repository) GetKeywordsForAsset(asset *Asset) ([]string, error) {
	kwCol, err := r.requireField(r.schema.KeywordJoinKeyword, "keyword join column")
	if err != nil {
		return nil, err
	}
	attrCol, err := r.requireField(r.schema.KeywordJoinAsset, "keyword join asset column")
	if err != nil {
		return nil, err
	}
	if err := r.requireTable(keywordTable, "keyword table"); err != nil {
		return nil, err
	}
	if err := r.requireTable(attributesTable, "asset attributes table"); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT k.ZTITLE FROM %s k JOIN %s j ON j.%s = k.Z_PK "+
		"JOIN %s aa ON j.%s = aa.Z_PK WHERE aa.ZASSET = ? ORDER BY k.ZTITLE ASC",
		keywordTable, keywordJoinTable, kwCol, attributesTable, attrCol)
	rows, err := r.db.Query(query, asset.PK)
	if err != nil {
		return nil, fmt.Errorf("listing keywords for %s: %w", asset.UUID, err)
	}
	defer rows.Close()

	var keywords []string
	for rows.Next() {
		var title sql.NullString
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("scanning keyword for %s: %w", asset.UUID, err)
		}
		if title.Valid {
			keywords = append(keywords, title.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing keywords for %s: %w", asset.UUID, err)
	}
	return keywords, nil
}

// GetAssetsForKeyword returns all assets carrying a keyword title,
// ordered by creation time descending.
func (r *Repository) GetAssetsForKeyword(title string) ([]*Asset, []Warning, error) {
	table, err := r.requireField(r.schema.AssetTable, "asset table")
	if err != nil {
		return nil, nil, err
	}
	kwCol, err := r.requireField(r.schema.KeywordJoinKeyword, "keyword join column")
	if err != nil {
		return nil, nil, err
	}
	attrCol, err := r.requireField(r.schema.KeywordJoinAsset, "keyword join asset column")
	if err != nil {
		return nil, nil, err
	}
	if err := r.requireTable(keywordTable, "keyword table"); err != nil {
		return nil, nil, err
	}
	if err := r.requireTable(attributesTable, "asset attributes table"); err != nil {
		return nil, nil, err
	}

	cols := prefixColumns("t", assetColumns)
	query := fmt.Sprintf("SELECT %s FROM %s t JOIN %s aa ON aa.ZASSET = t.Z_PK "+
		"JOIN %s j ON j.%s = aa.Z_PK JOIN %s k ON j.%s = k.Z_PK "+
		"WHERE k.ZTITLE = ? ORDER BY t.ZDATECREATED DESC, t.ZUUID ASC",
		cols, table, attributesTable, keywordJoinTable, attrCol, keywordTable, kwCol)
	rows, err := r.db.Query(query, title)
	if err != nil {
		return nil, nil, fmt.Errorf("listing assets for keyword %q: %w", title, err)
	}
	defer rows.Close()

	var (
		assets   []*Asset
		warnings []Warning
	)
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			warnings = append(warnings, Warning{Context: "scan asset", Item: title, Err: err})
			continue
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return assets, warnings, fmt.Errorf("listing assets for keyword %q: %w", title, err)
	}
	return assets, warnings, nil
}

// GetFacesForAsset returns the face detections on an asset, including
// unlinked detections (PersonPK zero).
func (r *Repository) GetFacesForAsset(asset *Asset) ([]*Face, error) {
	assetCol, err := r.requireField(r.schema.FaceAsset, "face asset column")
	if err != nil {
		return nil, err
	}
	personCol, err := r.requireField(r.schema.FacePerson, "face person column")
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT Z_PK, %s, %s, ZCENTERX, ZCENTERY FROM %s WHERE %s = ?",
		assetCol, personCol, faceTable, assetCol)
	rows, err := r.db.Query(query, asset.PK)
	if err != nil {
		return nil, fmt.Errorf("listing faces for %s: %w", asset.UUID, err)
	}
	defer rows.Close()

	var faces []*Face
	for rows.Next() {
		var (
			f        Face
			personPK sql.NullInt64
			cx, cy   sql.NullFloat64
		)
		if err := rows.Scan(&f.PK, &f.AssetPK, &personPK, &cx, &cy); err != nil {
			return nil, fmt.Errorf("scanning face for %s: %w", asset.UUID, err)
		}
		f.PersonPK = personPK.Int64
		f.CenterX = cx.Float64
		f.CenterY = cy.Float64
		faces = append(faces, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing faces for %s: %w", asset.UUID, err)
	}
	return faces, nil
}

// GetPeopleForAsset returns the named people detected on an asset.
func (r *Repository) GetPeopleForAsset(asset *Asset) ([]*Person, error) {
	assetCol, err := r.requireField(r.schema.FaceAsset, "face asset column")
	if err != nil {
		return nil, err
	}
	personCol, err := r.requireField(r.schema.FacePerson, "face person column")
	if err != nil {
		return nil, err
	}
	if err := r.requireTable(personTable, "person table"); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT DISTINCT p.Z_PK, p.ZUUID, p.ZFULLNAME, p.ZFACECOUNT FROM %s p "+
		"JOIN %s f ON f.%s = p.Z_PK WHERE f.%s = ? ORDER BY p.ZFULLNAME ASC",
		personTable, faceTable, personCol, assetCol)
	rows, err := r.db.Query(query, asset.PK)
	if err != nil {
		return nil, fmt.Errorf("listing people for %s: %w", asset.UUID, err)
	}
	defer rows.Close()

	var people []*Person
	for rows.Next() {
		var (
			p          Person
			uuid, name sql.NullString
			count      sql.NullInt64
		)
		if err := rows.Scan(&p.PK, &uuid, &name, &count); err != nil {
			return nil, fmt.Errorf("scanning person for %s: %w", asset.UUID, err)
		}
		p.UUID = uuid.String
		p.Name = name.String
		p.FaceCount = count.Int64
		people = append(people, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing people for %s: %w", asset.UUID, err)
	}
	return people, nil
}

// ListMoments returns the automatic time/location groupings, newest first.
func (r *Repository) ListMoments() ([]*Moment, error) {
	if err := r.requireTable(momentTable, "moment table"); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT Z_PK, ZTITLE, ZSTARTDATE, ZENDDATE, "+
		"ZAPPROXIMATELATITUDE, ZAPPROXIMATELONGITUDE FROM %s ORDER BY ZSTARTDATE DESC", momentTable)
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("listing moments: %w", err)
	}
	defer rows.Close()

	var moments []*Moment
	for rows.Next() {
		m, err := scanMoment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning moment: %w", err)
		}
		moments = append(moments, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing moments: %w", err)
	}
	return moments, nil
}

// GetMomentForAsset returns the moment an asset belongs to, or NotFound
// when the asset is not grouped.
func (r *Repository) GetMomentForAsset(asset *Asset) (*Moment, error) {
	table, err := r.requireField(r.schema.AssetTable, "asset table")
	if err != nil {
		return nil, err
	}
	if err := r.requireTable(momentTable, "moment table"); err != nil {
		return nil, err
	}
	if !r.cat.HasColumn(table, "ZMOMENT") {
		return nil, &SchemaUnavailableError{Feature: "asset moment column"}
	}

	query := fmt.Sprintf("SELECT m.Z_PK, m.ZTITLE, m.ZSTARTDATE, m.ZENDDATE, "+
		"m.ZAPPROXIMATELATITUDE, m.ZAPPROXIMATELONGITUDE FROM %s m "+
		"JOIN %s t ON t.ZMOMENT = m.Z_PK WHERE t.Z_PK = ?", momentTable, table)
	m, err := scanMoment(r.db.QueryRow(query, asset.PK))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no moment for asset %s", ErrNotFound, asset.UUID)
	}
	if err != nil {
		return nil, fmt.Errorf("getting moment for %s: %w", asset.UUID, err)
	}
	return m, nil
}

func scanMoment(scanner interface{ Scan(...any) error }) (*Moment, error) {
	var (
		m          Moment
		title      sql.NullString
		start, end sql.NullFloat64
		lat, lon   sql.NullFloat64
	)
	if err := scanner.Scan(&m.PK, &title, &start, &end, &lat, &lon); err != nil {
		return nil, err
	}
	m.Title = title.String
	if start.Valid {
		m.StartDate = TimeFromLibrarySeconds(start.Float64)
	}
	if end.Valid {
		m.EndDate = TimeFromLibrarySeconds(end.Float64)
	}
	if lat.Valid && lon.Valid {
		m.Location = DecodeLocation(lat.Float64, lon.Float64)
	}
	return &m, nil
}

// GetPlaceForAsset decodes the asset's reverse-geocode blob. Returns
// (nil, nil) when no blob is stored; a malformed blob is a DecodeFailure
// the caller should treat as "place unavailable".
func (r *Repository) GetPlaceForAsset(asset *Asset) (*PlaceInfo, error) {
	if err := r.requireTable(attributesTable, "asset attributes table"); err != nil {
		return nil, err
	}

	var blob []byte
	query := fmt.Sprintf("SELECT ZREVERSELOCATIONDATA FROM %s WHERE ZASSET = ?", attributesTable)
	err := r.db.QueryRow(query, asset.PK).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading place data for %s: %w", asset.UUID, err)
	}
	if len(blob) == 0 {
		return nil, nil
	}
	return DecodeReverseGeocode(blob)
}

// GetAdjustmentForAsset decodes the asset's adjustment/edit blob.
// Returns (nil, nil) for an unedited asset.
func (r *Repository) GetAdjustmentForAsset(asset *Asset) (map[string]interface{}, error) {
	if err := r.requireTable(adjustmentTable, "adjustment table"); err != nil {
		return nil, err
	}

	var blob []byte
	query := fmt.Sprintf("SELECT ZADJUSTMENTSDATA FROM %s WHERE ZASSET = ?", adjustmentTable)
	err := r.db.QueryRow(query, asset.PK).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading adjustment data for %s: %w", asset.UUID, err)
	}
	if len(blob) == 0 {
		return nil, nil
	}
	return DecodeAdjustment(blob)
}

// GetFingerprintForAsset returns the asset's normalized fingerprint.
func (r *Repository) GetFingerprintForAsset(asset *Asset) (string, error) {
	if err := r.requireTable(attributesTable, "asset attributes table"); err != nil {
		return "", err
	}

	var raw interface{}
	query := fmt.Sprintf("SELECT ZMASTERFINGERPRINT FROM %s WHERE ZASSET = ?", attributesTable)
	err := r.db.QueryRow(query, asset.PK).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: no attributes for asset %s", ErrNotFound, asset.UUID)
	}
	if err != nil {
		return "", fmt.Errorf("reading fingerprint for %s: %w", asset.UUID, err)
	}
	return DecodeFingerprint(raw)
}

// GetFolderTree loads all folder rows, links them by parent reference and
// returns the single root with nested children and albums. Cycles in the
// parent chain are rejected with ErrMalformedHierarchy. An orphaned
// folder or album (dangling parent reference) attaches to the root with
// a warning.
func (r *Repository) GetFolderTree() (*Folder, []Warning, error) {
	if err := r.requireTable(albumTable, "album table"); err != nil {
		return nil, nil, err
	}

	query := fmt.Sprintf("SELECT Z_PK, ZUUID, ZTITLE, ZKIND, ZPARENTFOLDER FROM %s "+
		"WHERE ZKIND IN (?, ?, ?) ORDER BY Z_PK ASC", albumTable)
	rows, err := r.db.Query(query, kindAlbum, kindFolder, kindRootFolder)
	if err != nil {
		return nil, nil, fmt.Errorf("loading folder hierarchy: %w", err)
	}
	defer rows.Close()

	type row struct {
		pk     int64
		uuid   string
		title  string
		kind   int64
		parent int64 // 0 when NULL
	}
	var all []row
	for rows.Next() {
		var (
			rec         row
			uuid, title sql.NullString
			parent      sql.NullInt64
		)
		if err := rows.Scan(&rec.pk, &uuid, &title, &rec.kind, &parent); err != nil {
			return nil, nil, fmt.Errorf("scanning folder row: %w", err)
		}
		rec.uuid = uuid.String
		rec.title = title.String
		rec.parent = parent.Int64
		all = append(all, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("loading folder hierarchy: %w", err)
	}

	folders := make(map[int64]*Folder)
	parents := make(map[int64]int64)
	var root *Folder
	for _, rec := range all {
		switch rec.kind {
		case kindRootFolder:
			if root != nil {
				return nil, nil, fmt.Errorf("%w: multiple root folders", ErrMalformedHierarchy)
			}
			root = &Folder{PK: rec.pk, UUID: rec.uuid, Title: rec.title}
			folders[rec.pk] = root
		case kindFolder:
			folders[rec.pk] = &Folder{PK: rec.pk, UUID: rec.uuid, Title: rec.title}
			parents[rec.pk] = rec.parent
		}
	}
	if root == nil {
		if len(all) == 0 {
			// Empty library: synthesize an empty root.
			return &Folder{}, nil, nil
		}
		return nil, nil, fmt.Errorf("%w: no root folder", ErrMalformedHierarchy)
	}

	// Reject cycles before linking: every folder's parent chain must
	// terminate at the root within the folder count.
	for pk := range parents {
		seen := 0
		cur := pk
		for cur != 0 && cur != root.PK {
			next, ok := parents[cur]
			if !ok {
				break // dangling parent, handled below
			}
			cur = next
			seen++
			if seen > len(folders) {
				return nil, nil, fmt.Errorf("%w: cycle through folder %d", ErrMalformedHierarchy, pk)
			}
		}
	}

	// Link in row order so sibling order is stable across loads.
	var warnings []Warning
	for _, rec := range all {
		if rec.kind != kindFolder {
			continue
		}
		f := folders[rec.pk]
		parent := root
		if rec.parent != 0 {
			p, ok := folders[rec.parent]
			if !ok {
				warnings = append(warnings, Warning{
					Context: "link folder",
					Item:    f.UUID,
					Err:     fmt.Errorf("parent %d not found, attaching to root", rec.parent),
				})
			} else {
				parent = p
			}
		}
		parent.Children = append(parent.Children, f)
	}

	for _, rec := range all {
		if rec.kind != kindAlbum {
			continue
		}
		album := &Album{PK: rec.pk, UUID: rec.uuid, Title: rec.title}
		parent, ok := folders[rec.parent]
		if !ok {
			parent = root
		}
		parent.Albums = append(parent.Albums, album)
	}

	return root, warnings, nil
}

// prefixColumns qualifies each name in a comma-separated column list with
// a table alias.
func prefixColumns(alias, columns string) string {
	cols := strings.Split(columns, ",")
	for i, col := range cols {
		cols[i] = alias + "." + strings.TrimSpace(col)
	}
	return strings.Join(cols, ", ")
}
