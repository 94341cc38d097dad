package config

import (
	"os"
	"path/filepath"
)

// All bridge-managed directories live under home (~/.wabridge or
// WABRIDGE_HOME) so a whole installation moves as one directory.

// ResolveHome returns the bridge root directory.
func ResolveHome() string {
	if h := os.Getenv("WABRIDGE_HOME"); h != "" {
		return h
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".wabridge"
	}
	return filepath.Join(home, ".wabridge")
}

// Path returns the config file path, fixed at home/config.yaml.
func Path() string {
	return filepath.Join(ResolveHome(), "config.yaml")
}

// CredentialDir returns where transport pairing credentials persist.
func CredentialDir() string {
	return filepath.Join(ResolveHome(), "credentials")
}

// MediaDir returns the downloaded-attachment cache directory.
func MediaDir() string {
	return filepath.Join(ResolveHome(), "media")
}

// LogsDir returns the log directory.
func LogsDir() string {
	return filepath.Join(ResolveHome(), "logs")
}
