package photolib

import (
	"fmt"
	"io"
	"os"
	"path"
)

// ExportTarget is a destination for exported media files. Implementations
// cover the local filesystem, an in-memory store for tests, and S3.
type ExportTarget interface {
	// Put stores the content read from r under key. size is the expected
	// byte length, used for verification where the backend allows it.
	Put(key string, r io.Reader, size int64) error
}

// Exporter copies assets' media files out of a library into an export
// target. It resolves candidate paths per asset and uploads the first
// candidate that exists on disk.
type Exporter struct {
	session *Session
	target  ExportTarget
	logger  Logger
}

// NewExporter creates an Exporter bound to an open session.
func NewExporter(session *Session, target ExportTarget, logger Logger) *Exporter {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &Exporter{session: session, target: target, logger: logger}
}

// ExportAssets exports the primary resource of every listed asset.
// Returns the number of files exported plus per-asset warnings; a single
// missing file or failed upload never aborts the batch.
func (e *Exporter) ExportAssets(assets []*Asset) (int, []Warning, error) {
	count := 0
	var warnings []Warning

	for _, asset := range assets {
		res, err := e.primaryResource(asset)
		if err != nil {
			warnings = append(warnings, Warning{Context: "find primary resource", Item: asset.UUID, Err: err})
			continue
		}

		src, err := e.session.FindExistingPath(asset, res)
		if err != nil {
			warnings = append(warnings, Warning{Context: "locate media file", Item: asset.UUID, Err: err})
			continue
		}

		if err := e.exportFile(asset, src); err != nil {
			warnings = append(warnings, Warning{Context: "export media file", Item: asset.UUID, Err: err})
			continue
		}
		count++
	}

	e.logger.Info("export finished", "exported", count, "warnings", len(warnings))
	return count, warnings, nil
}

// primaryResource picks the asset's primary resource, synthesizing an
// original-role descriptor when the bundle stores no resource rows for
// the asset.
func (e *Exporter) primaryResource(asset *Asset) (*Resource, error) {
	resources, err := e.session.Repository().GetResourcesForAsset(asset)
	if err != nil {
		if IsSchemaUnavailable(err) {
			return &Resource{AssetPK: asset.PK, Role: RoleOriginal, Primary: true}, nil
		}
		return nil, err
	}
	for _, res := range resources {
		if res.Primary {
			return res, nil
		}
	}
	return &Resource{AssetPK: asset.PK, Role: RoleOriginal, Primary: true}, nil
}

func (e *Exporter) exportFile(asset *Asset, src string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}

	key := asset.UUID + path.Ext(src)
	if err := e.target.Put(key, f, info.Size()); err != nil {
		return fmt.Errorf("storing %s: %w", key, err)
	}

	e.logger.Debug("asset exported", "uuid", asset.UUID, "key", key, "bytes", info.Size())
	return nil
}
