// Package home defines the on-disk layout of the chatd data directory.
package home

import (
	"os"
	"path/filepath"
)

// DefaultDir returns ~/.chatd, the default data directory.
func DefaultDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".chatd")
}

// ConfigPath returns the config file path inside dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, "config.toml")
}

// DBPath returns the SQLite database path inside dataDir.
func DBPath(dataDir string) string {
	return filepath.Join(dataDir, "chat.db")
}

// LogDir returns the log directory inside dataDir.
func LogDir(dataDir string) string {
	return filepath.Join(dataDir, "logs")
}

// LogPath returns the daemon log file path inside dataDir.
func LogPath(dataDir string) string {
	return filepath.Join(LogDir(dataDir), "chatd.log")
}

// EnsureDirs creates the data directory tree with private permissions.
func EnsureDirs(dataDir string) error {
	for _, d := range []string{dataDir, LogDir(dataDir)} {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
