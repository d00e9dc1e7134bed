package app

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings represents configuration loaded from config.yaml.
// Field names match snake_case YAML keys.
type Settings struct {
	DBPath              string  `yaml:"db_path"`
	RegistryDir         string  `yaml:"registry_dir"`
	LockTimeoutMS       int     `yaml:"lock_timeout_ms"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
}

// DefaultSimilarityThreshold is the delegation duplicate-suppression cutoff.
// Delegation requests may be retried by an upstream caller after a timeout
// with no acknowledgment; at 0.85 a retried title is recognized as the same
// request while genuinely different tasks still land below it.
const DefaultSimilarityThreshold = 0.85

// EffectiveSimilarityThreshold returns the configured threshold, falling back
// to the default when unset or out of range.
func EffectiveSimilarityThreshold() float64 {
	s, err := LoadSettings()
	if err != nil {
		return DefaultSimilarityThreshold
	}
	if s.SimilarityThreshold > 0 && s.SimilarityThreshold <= 1 {
		return s.SimilarityThreshold
	}
	return DefaultSimilarityThreshold
}

// EffectiveLockTimeout returns the configured advisory lock timeout, or zero
// to let the lock service apply its own default.
func EffectiveLockTimeout() time.Duration {
	s, err := LoadSettings()
	if err != nil || s.LockTimeoutMS <= 0 {
		return 0
	}
	return time.Duration(s.LockTimeoutMS) * time.Millisecond
}

// settingsOnce, settings, settingsErr implement the sync.Once lazy-load singleton for config.
// The override vars implement mutex-protected process-wide overrides for CLI flags.
//
//nolint:gochecknoglobals // sync.Once singleton + RWMutex overrides are intentional process-wide state
var (
	settingsOnce sync.Once
	settings     Settings
	settingsErr  error

	overrideMu          sync.RWMutex
	dbPathOverride      string
	registryDirOverride string
)

// SetDBPathOverride sets a process-wide database path override.
// Intended for CLI flag support (e.g. --db-path).
func SetDBPathOverride(path string) {
	overrideMu.Lock()
	dbPathOverride = path
	overrideMu.Unlock()
}

func getDBPathOverride() string {
	overrideMu.RLock()
	v := dbPathOverride
	overrideMu.RUnlock()
	return v
}

// SetRegistryDirOverride sets a process-wide registry directory override.
// Intended for CLI flag support (e.g. --registry-dir).
func SetRegistryDirOverride(dir string) {
	overrideMu.Lock()
	registryDirOverride = dir
	overrideMu.Unlock()
}

func getRegistryDirOverride() string {
	overrideMu.RLock()
	v := registryDirOverride
	overrideMu.RUnlock()
	return v
}

// LoadSettings loads configuration once using the documented lookup order.
// Lookup order (first found wins):
// 1) ~/.config/relay/config.yaml
// 2) /etc/relay/config.yaml
// 3) ./config.yaml (lowest priority; allows repo-local overrides if desired)
// Environment variables are handled separately.
func LoadSettings() (Settings, error) {
	settingsOnce.Do(func() {
		settings = Settings{}

		// 1) User config (~/.config/relay/config.yaml)
		dir, err := ConfigDir()
		if err != nil {
			settingsErr = err
			return
		}
		if s, err := loadSettingsFile(filepath.Join(dir, "config.yaml")); err == nil {
			settings = s
			return
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			settingsErr = err
			return
		}

		// 2) /etc
		if s, err := loadSettingsFile(filepath.Join(string(os.PathSeparator), "etc", "relay", "config.yaml")); err == nil {
			settings = s
			return
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			settingsErr = err
			return
		}

		// 3) Local ./config.yaml (lowest priority)
		if s, err := loadSettingsFile("config.yaml"); err == nil {
			settings = s
			return
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			settingsErr = err
			return
		}
	})

	return settings, settingsErr
}

func loadSettingsFile(path string) (Settings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, err
	}

	var s Settings
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Settings{}, err
	}
	return s, nil
}
