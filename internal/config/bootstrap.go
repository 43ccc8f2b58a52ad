package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

// DataDir resolves the engine's data directory: LEADSCOUT_DATA_DIR when set,
// otherwise $XDG_DATA_HOME/leadscout.
func DataDir() string {
	if d := strings.TrimSpace(os.Getenv("LEADSCOUT_DATA_DIR")); d != "" {
		return d
	}
	return filepath.Join(xdg.DataHome, "leadscout")
}

// EnsureUserConfig writes the embedded default config into dataDir on first
// start and returns the path of the user config.
func EnsureUserConfig(dataDir string) (string, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", err
	}
	userPath := filepath.Join(dataDir, "config.yml")

	_, err := os.Stat(userPath)
	if err == nil {
		return userPath, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	if err := os.WriteFile(userPath, defaultYAML, 0o644); err != nil {
		return "", err
	}
	return userPath, nil
}
