package global

import (
	"os"
	"path/filepath"
	"strings"
)

const dbFileName = "artiq.db"

// DefaultConfigDir returns ~/.config/artiq.
func DefaultConfigDir() (string, error) {
	if override := strings.TrimSpace(os.Getenv("ARTIQ_CONFIG_DIR")); override != "" {
		return override, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "artiq"), nil
}

// DefaultDBPath is the history database location inside dir.
func DefaultDBPath(dir string) string {
	return filepath.Join(dir, dbFileName)
}
