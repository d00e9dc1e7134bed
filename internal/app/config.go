package app

import (
	"os"
	"path/filepath"
)

// ConfigDir returns ~/.config/relay/ on all platforms.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "relay"), nil
}

// EnsureConfigDir creates the config directory and default config.yaml if missing.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	configFile := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return os.WriteFile(configFile, []byte(defaultConfig), 0600)
	}
	return nil
}

const defaultConfig = `# relay configuration
# Run: relay --help

# Optional: override the SQLite database location.
# Can also be set via RELAY_DB_PATH or --db-path.
# db_path: ~/.config/relay/relay.db

# Optional: override the project registry / board root directory.
# Can also be set via RELAY_REGISTRY_DIR or --registry-dir.
# registry_dir: ~/.config/relay/projects

# Optional: advisory lock acquisition timeout in milliseconds.
# lock_timeout_ms: 10000

# Optional: delegation duplicate-suppression threshold (0..1).
# similarity_threshold: 0.85
`
