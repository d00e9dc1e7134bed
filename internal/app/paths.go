package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDBPath resolves the database path.
// Order of precedence:
// 1) CLI override (e.g. --db-path)
// 2) Environment variable: RELAY_DB_PATH
// 3) config.yaml: db_path
// 4) Default: ~/.config/relay/relay.db
// Returns the path and ensures the parent directory exists.
func GetDBPath() (string, error) {
	if override := getDBPathOverride(); override != "" {
		return EnsureDBDir(override)
	}

	if envPath := os.Getenv("RELAY_DB_PATH"); envPath != "" {
		return EnsureDBDir(envPath)
	}

	cfg, err := LoadSettings()
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.DBPath != "" {
		return EnsureDBDir(cfg.DBPath)
	}

	configDir, err := ConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine config directory: %w", err)
	}
	return EnsureDBDir(filepath.Join(configDir, "relay.db"))
}

// GetRegistryDir resolves the project registry / board root directory.
// Order of precedence mirrors GetDBPath:
// 1) CLI override (e.g. --registry-dir)
// 2) Environment variable: RELAY_REGISTRY_DIR
// 3) config.yaml: registry_dir
// 4) Default: ~/.config/relay/projects
// The directory is created if missing.
func GetRegistryDir() (string, error) {
	if override := getRegistryDirOverride(); override != "" {
		return ensureDir(override)
	}

	if envDir := os.Getenv("RELAY_REGISTRY_DIR"); envDir != "" {
		return ensureDir(envDir)
	}

	cfg, err := LoadSettings()
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.RegistryDir != "" {
		return ensureDir(cfg.RegistryDir)
	}

	configDir, err := ConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine config directory: %w", err)
	}
	return ensureDir(filepath.Join(configDir, "projects"))
}

// EnsureDBDir creates the database's parent directory if missing and returns
// the path unchanged.
func EnsureDBDir(dbPath string) (string, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}
	return dbPath, nil
}

func ensureDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	return dir, nil
}
