package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("PLIB_CONFIG_PATH", "/tmp/custom-plib.toml")
		t.Setenv("PLIB_HOME", "/tmp/plib-home")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}
		if defaults["config_path"] != "/tmp/custom-plib.toml" {
			t.Errorf("config_path = %q", defaults["config_path"])
		}
		if defaults["base_dir"] != "/tmp/plib-home" {
			t.Errorf("base_dir = %q", defaults["base_dir"])
		}
		if defaults["log_dir"] != filepath.Join("/tmp/plib-home", "log") {
			t.Errorf("log_dir = %q", defaults["log_dir"])
		}
	})

	t.Run("log dir override", func(t *testing.T) {
		t.Setenv("PLIB_HOME", "/tmp/plib-home")
		t.Setenv("PLIB_LOG_DIR", "/var/log/plib")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}
		if defaults["log_dir"] != "/var/log/plib" {
			t.Errorf("log_dir = %q", defaults["log_dir"])
		}
	})

	t.Run("home fallback", func(t *testing.T) {
		t.Setenv("PLIB_CONFIG_PATH", "")
		t.Setenv("PLIB_HOME", "")

		home, err := os.UserHomeDir()
		if err != nil {
			t.Skipf("no home directory: %v", err)
		}

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}
		if defaults["config_path"] != filepath.Join(home, ".config", "plib.toml") {
			t.Errorf("config_path = %q", defaults["config_path"])
		}
		if defaults["base_dir"] != filepath.Join(home, ".local", "share", "plib") {
			t.Errorf("base_dir = %q", defaults["base_dir"])
		}
	})
}
