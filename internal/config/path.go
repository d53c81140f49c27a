package config

import (
	"os"
	"path/filepath"
)

// DefaultOutputDir returns where the receiver writes entries when no
// directory is configured: $XDG_DATA_HOME/wireq/entries, else
// ~/.wireq/entries, else ./output.
func DefaultOutputDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "wireq", "entries")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return "./output"
	}
	return filepath.Join(homeDir, ".wireq", "entries")
}
