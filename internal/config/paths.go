package config

import (
	"os"
	"path/filepath"
)

// Paths contains commonly used file paths.
type Paths struct {
	Database string // Main SQLite database
	Blobs    string // Blob store root
	Logs     string // Log directory
}

// GetPaths returns all commonly used paths based on config.
func GetPaths(cfg *Config) Paths {
	return Paths{
		Database: filepath.Join(cfg.BaseDir, "skillscat.db"),
		Blobs:    filepath.Join(cfg.BaseDir, "blobs"),
		Logs:     filepath.Join(cfg.BaseDir, "logs"),
	}
}

// DefaultBaseDir returns the default base directory (~/.skillscat).
func DefaultBaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".skillscat"
	}
	return filepath.Join(home, ".skillscat")
}
