package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// DataDirEnv overrides the data directory.
const DataDirEnv = "TIBBI_DATA_DIR"

// GetDataDir returns where tibbi keeps its log and fallback config:
// $TIBBI_DATA_DIR, or ~/.tibbi.
func GetDataDir() (string, error) {
	if dir := os.Getenv(DataDirEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("GetDataDir: could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".tibbi"), nil
}

// EnsureDataDir is GetDataDir plus creating the directory.
func EnsureDataDir() (string, error) {
	dir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return dir, nil
}
