package photolib

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"plib-go/internal/database"
)

// Fixed identifiers shared by every generation that has the feature at
// all. Everything that varies across generations is discovered through
// the catalog instead.
const (
	modernAssetTable = "ZASSET"
	legacyAssetTable = "ZGENERICASSET"

	keywordJoinTable     = "Z_1KEYWORDS"
	keywordTable         = "ZKEYWORD"
	attributesTable      = "ZADDITIONALASSETATTRIBUTES"
	keywordAssetSideCol  = "Z_1ASSETATTRIBUTES"
	faceTable            = "ZDETECTEDFACE"
	personTable          = "ZPERSON"
	albumTable           = "ZGENERICALBUM"
	momentTable          = "ZMOMENT"
	resourceTable        = "ZINTERNALRESOURCE"
	adjustmentTable      = "ZUNMANAGEDADJUSTMENT"
)

// Album join tables follow a numeric-infixed naming pattern. A handful of
// unrelated feature tables match the suffix loosely and must be excluded.
var (
	albumJoinPattern = regexp.MustCompile(`^Z_[0-9]+ASSETS$`)

	albumJoinDecoys = []string{
		"SUGGESTIONS",
		"MEMORIES",
		"HIGHLIGHTS",
		"KEYASSETS",
	}

	// Columns of the keyword join table carry numeric infixes too; the
	// keyword side is the one whose stem is KEYWORDS. The asset-side
	// column matches the same loose pattern and must not be picked.
	numericInfixColumn = regexp.MustCompile(`^Z_[0-9]+([A-Z]+)$`)
)

// Face foreign keys were renamed in newer generations.
const (
	faceAssetColModern  = "ZASSETFORFACE"
	facePersonColModern = "ZPERSONFORFACE"
	faceAssetColLegacy  = "ZASSET"
	facePersonColLegacy = "ZPERSON"
)

// ResolvedField is one discovered identifier. Name is only meaningful
// when OK is set; every consumer must handle the absent case explicitly.
type ResolvedField struct {
	Name string
	OK   bool
}

func resolved(name string) ResolvedField { return ResolvedField{Name: name, OK: true} }

// ResolvedSchema holds the concrete table/column names discovered for one
// specific bundle instance. Every field is either a name verified to
// exist in the catalog or explicitly unresolved, never an unchecked
// guess. Built once per session and never mutated afterwards.
type ResolvedSchema struct {
	AssetTable ResolvedField

	AlbumJoinTable   ResolvedField
	AlbumJoinAlbum   ResolvedField // album-side foreign key column
	AlbumJoinAsset   ResolvedField // asset-side foreign key column
	AlbumJoinSort    ResolvedField // optional sort-order column

	KeywordJoinKeyword ResolvedField // keyword-side column of the keyword join table
	KeywordJoinAsset   ResolvedField // asset-attributes side, fixed name but verified

	FaceAsset  ResolvedField
	FacePerson ResolvedField

	Warnings []Warning
}

// Unresolved returns the names of the schema features that could not be
// resolved. An empty result means the full feature surface is available.
func (s *ResolvedSchema) Unresolved() []string {
	var missing []string
	for _, f := range []struct {
		name  string
		field ResolvedField
	}{
		{"asset table", s.AssetTable},
		{"album join table", s.AlbumJoinTable},
		{"album join album column", s.AlbumJoinAlbum},
		{"album join asset column", s.AlbumJoinAsset},
		{"keyword join column", s.KeywordJoinKeyword},
		{"keyword join asset column", s.KeywordJoinAsset},
		{"face asset column", s.FaceAsset},
		{"face person column", s.FacePerson},
	} {
		if !f.field.OK {
			missing = append(missing, f.name)
		}
	}
	return missing
}

func (s *ResolvedSchema) warnf(context, item, format string, args ...any) {
	s.Warnings = append(s.Warnings, Warning{
		Context: context,
		Item:    item,
		Err:     fmt.Errorf(format, args...),
	})
}

// ResolveSchema combines the version profile's hints with catalog
// introspection to produce the concrete identifiers for this bundle.
// It never fails: each resolution step is independent, and an unresolved
// field degrades only the operations that depend on it.
func ResolveSchema(cat *database.Catalog, profile *VersionProfile, logger Logger) *ResolvedSchema {
	s := &ResolvedSchema{}

	s.resolveAssetTable(cat, profile)
	s.resolveAlbumJoin(cat)
	s.resolveKeywordJoin(cat)
	s.resolveFaceColumns(cat)

	for _, w := range s.Warnings {
		logger.Warn("schema resolution", "context", w.Context, "item", w.Item, "err", w.Err)
	}
	if missing := s.Unresolved(); len(missing) > 0 {
		logger.Info("schema partially resolved", "missing", strings.Join(missing, ", "))
	}
	return s
}

// resolveAssetTable prefers the generation hint when the catalog confirms
// it, then the modern name, then the legacy name.
func (s *ResolvedSchema) resolveAssetTable(cat *database.Catalog, profile *VersionProfile) {
	if hint := profile.AssetTableHint; hint != "" && cat.HasTable(hint) {
		s.AssetTable = resolved(hint)
		return
	}
	if cat.HasTable(modernAssetTable) {
		s.AssetTable = resolved(modernAssetTable)
		return
	}
	if cat.HasTable(legacyAssetTable) {
		s.AssetTable = resolved(legacyAssetTable)
		return
	}
	s.warnf("resolve asset table", "", "neither %s nor %s present", modernAssetTable, legacyAssetTable)
}

// resolveAlbumJoin discovers the album/asset join table by structural
// naming pattern, then identifies its foreign-key columns by substring.
func (s *ResolvedSchema) resolveAlbumJoin(cat *database.Catalog) {
	var candidates []string
	for _, table := range cat.Tables() {
		if !albumJoinPattern.MatchString(table) && !looseAlbumJoinMatch(table) {
			continue
		}
		if isAlbumJoinDecoy(table) {
			continue
		}
		candidates = append(candidates, table)
	}
	if len(candidates) == 0 {
		s.warnf("resolve album join table", "", "no table matches the join naming pattern")
		return
	}
	sort.Strings(candidates)
	if len(candidates) > 1 {
		// Should not happen in a well-formed bundle; pick deterministically.
		s.warnf("resolve album join table", candidates[0],
			"multiple candidate join tables %v, using lexicographically smallest", candidates)
	}
	join := candidates[0]
	s.AlbumJoinTable = resolved(join)

	for _, col := range cat.Columns(join) {
		switch {
		case strings.Contains(col, "FOK"):
			if !s.AlbumJoinSort.OK {
				s.AlbumJoinSort = resolved(col)
			}
		case strings.Contains(col, "ALBUMS"):
			if !s.AlbumJoinAlbum.OK {
				s.AlbumJoinAlbum = resolved(col)
			}
		case strings.Contains(col, "ASSETS"):
			if !s.AlbumJoinAsset.OK {
				s.AlbumJoinAsset = resolved(col)
			}
		}
	}
	if !s.AlbumJoinAlbum.OK {
		s.warnf("resolve album join columns", join, "no album-side column found")
	}
	if !s.AlbumJoinAsset.OK {
		s.warnf("resolve album join columns", join, "no asset-side column found")
	}
}

// looseAlbumJoinMatch admits join tables whose names carry extra words
// between the numeric infix and the suffix, so that decoy exclusion (not
// the regexp) is what rules them out.
func looseAlbumJoinMatch(table string) bool {
	if !strings.HasPrefix(table, "Z_") || !strings.HasSuffix(table, "ASSETS") {
		return false
	}
	rest := table[len("Z_"):]
	i := 0
	for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
		i++
	}
	return i > 0
}

func isAlbumJoinDecoy(table string) bool {
	for _, decoy := range albumJoinDecoys {
		if strings.Contains(table, decoy) {
			return true
		}
	}
	return false
}

// resolveKeywordJoin identifies the keyword-side column of the fixed
// keyword join table. The asset-attributes column matches the numeric
// infix pattern too and is explicitly excluded.
func (s *ResolvedSchema) resolveKeywordJoin(cat *database.Catalog) {
	if !cat.HasTable(keywordJoinTable) {
		s.warnf("resolve keyword join", keywordJoinTable, "table not present")
		return
	}
	for _, col := range cat.Columns(keywordJoinTable) {
		if col == keywordAssetSideCol {
			s.KeywordJoinAsset = resolved(col)
			continue
		}
		m := numericInfixColumn.FindStringSubmatch(col)
		if m == nil {
			continue
		}
		if m[1] != "KEYWORDS" {
			continue
		}
		if !s.KeywordJoinKeyword.OK {
			s.KeywordJoinKeyword = resolved(col)
		}
	}
	if !s.KeywordJoinKeyword.OK {
		s.warnf("resolve keyword join", keywordJoinTable, "no keyword-side column found")
	}
	if !s.KeywordJoinAsset.OK {
		s.warnf("resolve keyword join", keywordJoinTable, "column %s not present", keywordAssetSideCol)
	}
}

// resolveFaceColumns uses the modern foreign-key pair when present,
// falling back to the legacy pair.
func (s *ResolvedSchema) resolveFaceColumns(cat *database.Catalog) {
	if !cat.HasTable(faceTable) {
		s.warnf("resolve face columns", faceTable, "table not present")
		return
	}
	if cat.HasColumn(faceTable, faceAssetColModern) {
		s.FaceAsset = resolved(faceAssetColModern)
		if cat.HasColumn(faceTable, facePersonColModern) {
			s.FacePerson = resolved(facePersonColModern)
		} else {
			s.warnf("resolve face columns", faceTable, "%s present without %s", faceAssetColModern, facePersonColModern)
		}
		return
	}
	if cat.HasColumn(faceTable, faceAssetColLegacy) {
		s.FaceAsset = resolved(faceAssetColLegacy)
		if cat.HasColumn(faceTable, facePersonColLegacy) {
			s.FacePerson = resolved(facePersonColLegacy)
		} else {
			s.warnf("resolve face columns", faceTable, "%s present without %s", faceAssetColLegacy, facePersonColLegacy)
		}
		return
	}
	s.warnf("resolve face columns", faceTable, "no known asset foreign key present")
}
