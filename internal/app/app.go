package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"plib-go/internal/config"
	"plib-go/internal/export"
	"plib-go/internal/photolib"
)

// App is the application layer between the CLI and the library session.
// It constructs all dependencies from config and manages the session
// lifecycle on Close.
type App struct {
	cfg     *config.Config
	session *photolib.Session
	logger  photolib.Logger
	logFile *os.File
}

// NewApp opens the configured library and wires the logger.
// operation identifies the CLI command being run (e.g. "ListAssets", "Export").
// The caller must call Close when done.
func NewApp(cfg *config.Config, operation string) (*App, error) {
	if cfg.LibraryPath == "" {
		return nil, fmt.Errorf("no library path configured")
	}

	opID := operation + "-" + uuid.New().String()
	slogger, logFile, err := newLogger(cfg.LogDir, opID, cfg.Verbose)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	slogger = slogger.With("library", filepath.Base(cfg.LibraryPath))
	logger := &slogAdapter{l: slogger}

	opts := photolib.Options{
		IncludeHidden:  cfg.IncludeHidden,
		IncludeTrashed: cfg.IncludeTrashed,
		StrictSchema:   cfg.StrictSchema,
	}
	session, err := photolib.Open(cfg.LibraryPath, opts, logger)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("opening library: %w", err)
	}
	logger.Info("session ready", "profile", session.Profile().Label)

	return &App{
		cfg:     cfg,
		session: session,
		logger:  logger,
		logFile: logFile,
	}, nil
}

// Session exposes the open library session to CLI commands.
func (a *App) Session() *photolib.Session { return a.session }

// Export exports all listed assets to the named configured target.
// Returns the number of files exported plus per-asset warnings.
func (a *App) Export(ctx context.Context, targetName string) (int, []photolib.Warning, error) {
	var targetCfg *config.ExportConfig
	for i := range a.cfg.Exports {
		if a.cfg.Exports[i].Name == targetName {
			targetCfg = &a.cfg.Exports[i]
			break
		}
	}
	if targetCfg == nil {
		return 0, nil, fmt.Errorf("no export target named %q configured", targetName)
	}

	target, err := export.NewTargetFromConfig(ctx, *targetCfg)
	if err != nil {
		return 0, nil, fmt.Errorf("creating export target: %w", err)
	}

	assets, warnings, err := a.session.ListAssets()
	if err != nil {
		return 0, warnings, fmt.Errorf("listing assets: %w", err)
	}

	exporter := photolib.NewExporter(a.session, target, a.logger)
	count, exportWarnings, err := exporter.ExportAssets(assets)
	return count, append(warnings, exportWarnings...), err
}

// Close releases the session and the log file.
func (a *App) Close() error {
	var firstErr error
	if a.session != nil {
		if err := a.session.Close(); err != nil {
			firstErr = err
		}
		a.session = nil
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		a.logFile = nil
	}
	return firstErr
}
