package export

import (
	"context"
	"fmt"

	"plib-go/internal/config"
	"plib-go/internal/photolib"
)

// NewTargetFromConfig creates an ExportTarget based on the export config type.
func NewTargetFromConfig(ctx context.Context, cfg config.ExportConfig) (photolib.ExportTarget, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryTarget(), nil
	case "s3":
		return NewS3Target(ctx, cfg.S3Bucket, cfg.S3Prefix, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey)
	case "filesystem":
		if cfg.FSExportRoot == "" {
			return nil, fmt.Errorf("filesystem export requires fs_export_root")
		}
		return NewFileSystemTarget(cfg.FSExportRoot)
	default:
		return nil, fmt.Errorf("unknown export target type: %s", cfg.Type)
	}
}
