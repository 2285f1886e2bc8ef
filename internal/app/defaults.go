package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - PLIB_CONFIG_PATH: config file location (default: ~/.config/plib.toml)
//   - PLIB_HOME: base directory for plib data (default: ~/.local/share/plib)
//   - PLIB_LOG_DIR: log directory (default: <base_dir>/log)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	logDir := os.Getenv("PLIB_LOG_DIR")
	if logDir == "" {
		logDir = filepath.Join(baseDir, "log")
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     logDir,
	}, nil
}

// getConfigPath returns the config file path, checking PLIB_CONFIG_PATH env var first,
// then falling back to the default ~/.config/plib.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("PLIB_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "plib.toml"), nil
}

// getBaseDir returns the base directory for plib data, checking PLIB_HOME env var first,
// then falling back to the XDG default ~/.local/share/plib.
func getBaseDir() (string, error) {
	if path := os.Getenv("PLIB_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "plib"), nil
}
