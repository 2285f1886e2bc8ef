package photolib

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"plib-go/internal/database"
)

// Options configures how a library bundle is opened.
type Options struct {
	// IncludeHidden includes hidden assets in listings. Default false.
	IncludeHidden bool
	// IncludeTrashed includes trashed assets in listings. Default false.
	IncludeTrashed bool
	// StrictSchema aborts Open when any schema field resolves as absent,
	// instead of degrading the affected features.
	StrictSchema bool
}

// Session owns one open library: the connection handle, the detected
// version profile and the resolved schema, threaded through every query.
// A Session's handle is not shareable across goroutines; concurrent use
// requires one Session per worker. Lifetime ends at Close.
type Session struct {
	root    string
	db      *sql.DB
	profile *VersionProfile
	schema  *ResolvedSchema
	repo    *Repository
	opts    Options
	logger  Logger
}

// Open opens the library bundle at root in read-only mode: detects the
// format generation, introspects the catalog and resolves the schema.
// The bundle's true owner may keep the database open for writing at the
// same time; existing write-ahead log companions are tolerated and never
// touched. The caller must call Close when done.
func Open(root string, opts Options, logger Logger) (*Session, error) {
	if logger == nil {
		logger = NewNopLogger()
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBundleUnreadable, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrBundleUnreadable, root)
	}

	profile, err := DetectVersion(root, logger)
	if err != nil {
		return nil, err
	}

	dbPath := filepath.Join(root, filepath.FromSlash(ModernDatabasePath))
	if profile.Legacy {
		dbPath = filepath.Join(root, filepath.FromSlash(LegacyDatabasePath))
	}
	db, err := database.OpenReadOnly(dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBundleUnreadable, err)
	}

	cat, err := database.LoadCatalog(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: introspecting catalog: %v", ErrBundleUnreadable, err)
	}

	schema := ResolveSchema(cat, profile, logger)
	if opts.StrictSchema {
		if missing := schema.Unresolved(); len(missing) > 0 {
			db.Close()
			return nil, fmt.Errorf("strict schema: unresolved fields: %s", strings.Join(missing, ", "))
		}
	}

	logger.Info("library opened", "root", root, "profile", profile.String())

	return &Session{
		root:    root,
		db:      db,
		profile: profile,
		schema:  schema,
		repo:    NewRepository(db, cat, schema, logger),
		opts:    opts,
		logger:  logger,
	}, nil
}

// Close releases the session's database handle.
func (s *Session) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Root returns the bundle root directory.
func (s *Session) Root() string { return s.root }

// Profile returns the detected version profile.
func (s *Session) Profile() *VersionProfile { return s.profile }

// Schema returns the resolved schema for this bundle instance.
func (s *Session) Schema() *ResolvedSchema { return s.schema }

// Repository returns the entity query API bound to this session.
func (s *Session) Repository() *Repository { return s.repo }

// ListAssets lists assets honoring the session's include options.
func (s *Session) ListAssets() ([]*Asset, []Warning, error) {
	return s.repo.ListAssets(s.opts.IncludeHidden, s.opts.IncludeTrashed)
}

// ResolvePaths maps an asset and resource to ordered candidate paths
// under this session's bundle root.
func (s *Session) ResolvePaths(asset *Asset, res *Resource) []string {
	return ResolvePaths(s.root, asset, res)
}

// FindExistingPath checks the candidate paths in preference order and
// returns the first that exists on disk, or NotFound.
func (s *Session) FindExistingPath(asset *Asset, res *Resource) (string, error) {
	for _, candidate := range s.ResolvePaths(asset, res) {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: no file on disk for asset %s", ErrNotFound, asset.UUID)
}
