// Package config provides the YAML-based configuration model for the
// converter, including first-run config creation and atomic saves.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration. Command-line flags
// override any value set here.
type Config struct {
	// YAMLDir is the directory containing meeting definitions to process.
	YAMLDir string `yaml:"yaml_dir" json:"yaml_dir"`

	// ICalDir, if set, receives one .ics file per meeting.
	ICalDir string `yaml:"ical_dir" json:"ical_dir"`

	// OutputFile, if set, receives a single combined .ics file. Mutually
	// exclusive with ICalDir.
	OutputFile string `yaml:"output_file" json:"output_file"`

	// CalName / CalDescription populate the combined calendar's
	// X-WR-CALNAME / X-WR-CALDESC subscription headers.
	CalName        string `yaml:"calname" json:"calname"`
	CalDescription string `yaml:"caldescription" json:"caldescription"`

	// IndexTemplate / IndexOutput enable index page generation when both
	// are set.
	IndexTemplate string `yaml:"index_template" json:"index_template"`
	IndexOutput   string `yaml:"index_output" json:"index_output"`

	// RefreshCron is a cron-style schedule string (e.g. "*/15 * * * *")
	// used by watch mode to periodically regenerate output.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// Force removes stale .ics files from ICalDir (or overwrites
	// OutputFile) instead of refusing to touch non-empty output.
	Force bool `yaml:"force" json:"force"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		RefreshCron: "*/15 * * * *",
	}
}

// Normalize fills in missing/zero values with defaults so partially
// filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.RefreshCron == "" {
		c.RefreshCron = "*/15 * * * *"
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist: create parent directory if needed,
//     write a default config with 0600 perms, and return the default.
//   - If the file exists: read YAML, unmarshal, normalize defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
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

// Save writes the given configuration to the specified path, atomically
// via a temp file + rename, with final 0600 permissions.
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

	tmp, err := os.CreateTemp(dir, ".meetcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
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

// Save is a convenience method on Config that delegates to the
// package-level Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
