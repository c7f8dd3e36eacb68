// Package config provides the YAML configuration model and load/save
// behavior, including first-run config creation and 0600 permissions.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// SnapshotConfig controls the headless-browser PNG capture of the calendar.
type SnapshotConfig struct {
	// Width and Height are the capture viewport in pixels.
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// BackupConfig controls the scheduled ICS export.
type BackupConfig struct {
	// Cron is a cron-style schedule string (e.g. "0 3 * * *"). Empty
	// disables scheduled backups.
	Cron string `yaml:"cron" json:"cron"`
	// Path is the file the ICS export is written to.
	Path string `yaml:"path" json:"path"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// DBPath is the SQLite file that holds calendar state.
	DBPath string `yaml:"db_path" json:"db_path"`

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Backup schedules periodic ICS exports to disk.
	Backup BackupConfig `yaml:"backup" json:"backup"`

	// Snapshot configures the /preview.png capture.
	Snapshot SnapshotConfig `yaml:"snapshot" json:"snapshot"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:   "127.0.0.1:8080",
		DBPath:   "yearcal.db",
		LogLevel: "info",
		Backup: BackupConfig{
			Cron: "0 3 * * *",
			Path: "backup.ics",
		},
		Snapshot: SnapshotConfig{
			Width:  1440,
			Height: 1080,
		},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.DBPath == "" {
		c.DBPath = "yearcal.db"
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
		// ok
	default:
		c.LogLevel = "info"
	}
	if c.Backup.Cron != "" && c.Backup.Path == "" {
		c.Backup.Path = "backup.ics"
	}
	if c.Snapshot.Width <= 0 {
		c.Snapshot.Width = 1440
	}
	if c.Snapshot.Height <= 0 {
		c.Snapshot.Height = 1080
	}
}

// Load loads configuration from the given YAML path.
//
// If the file does not exist, a default config is written there (creating
// the parent directory if needed) and returned. Otherwise the YAML is read,
// unmarshaled and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path. The write is
// atomic (temp file + rename in the same directory) and the final file ends
// up with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".yearcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}

// Save delegates to the package-level Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
