// Package config loads timelog configuration from YAML files and the
// environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/timelog/internal/errors"
	"github.com/Aman-CERP/timelog/internal/filesink"
	"github.com/Aman-CERP/timelog/internal/logger"
)

// Config file names searched in the working directory, in order.
var projectConfigNames = []string{"timelog.yaml", "timelog.yml", ".timelog.yaml"}

// Config represents the complete timelog configuration.
type Config struct {
	Version int `yaml:"version" json:"version"`

	// Sink is the sink configuration mapping (filenameTemplate, directory,
	// granularity). Kept as a mapping so unknown and legacy keys are handled
	// by filesink.ConfigFromMap.
	Sink map[string]any `yaml:"sink" json:"sink"`

	Logger LoggerConfig `yaml:"logger" json:"logger"`

	// path is the file the configuration was loaded from, if any.
	path string
}

// LoggerConfig configures message formatting and filtering.
type LoggerConfig struct {
	Level           string `yaml:"level" json:"level"`
	TimestampFormat string `yaml:"timestamp_format" json:"timestamp_format"`
	// MaxRate is the maximum number of messages per second, 0 for unlimited.
	MaxRate int `yaml:"max_rate" json:"max_rate"`
}

// NewConfig creates a new Config with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Sink:    filesink.DefaultConfig().Map(),
		Logger: LoggerConfig{
			Level:           "info",
			TimestampFormat: logger.DefaultTimestampFormat,
			MaxRate:         0,
		},
	}
}

// GetUserConfigPath returns the path to the user configuration file:
//   - $XDG_CONFIG_HOME/timelog/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/timelog/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "timelog", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "timelog", "config.yaml")
	}
	return filepath.Join(home, ".config", "timelog", "config.yaml")
}

// UserConfigExists reports whether the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// LoadFile loads defaults merged with a single file, without environment
// overrides. Used to show what one file contributes.
func LoadFile(path string) (*Config, error) {
	cfg := NewConfig()
	if err := cfg.loadYAML(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load loads configuration in order of increasing precedence:
//  1. Defaults
//  2. User config (~/.config/timelog/config.yaml)
//  3. path, or the first of timelog.yaml, timelog.yml, .timelog.yaml in the
//     working directory when path is empty
//  4. Environment variables (TIMELOG_*)
//
// An explicit path that does not exist is an error.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if userPath := GetUserConfigPath(); fileExists(userPath) {
		if err := cfg.loadYAML(userPath); err != nil {
			return nil, err
		}
	}

	if path != "" {
		if !fileExists(path) {
			return nil, errors.New(errors.ErrCodeConfigNotFound, "config file not found", nil).
				WithDetail("path", path).
				WithSuggestion("Create one with 'timelog config init' or drop --config")
		}
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	} else if found := findProjectConfig("."); found != "" {
		if err := cfg.loadYAML(found); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns the file the configuration was last loaded from, or "".
func (c *Config) Path() string {
	return c.path
}

func findProjectConfig(dir string) string {
	for _, name := range projectConfigNames {
		p := filepath.Join(dir, name)
		if fileExists(p) {
			return p
		}
	}
	return ""
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.New(errors.ErrCodeConfigParse, "failed to read config file", err).
			WithDetail("path", path)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return errors.New(errors.ErrCodeConfigParse, "failed to parse config file", err).
			WithDetail("path", path)
	}

	c.mergeWith(&parsed)
	c.path = path
	return nil
}

// mergeWith merges non-zero values from other into c. Sink keys are merged
// one by one so a file may override a single key.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if c.Sink == nil {
		c.Sink = map[string]any{}
	}
	for k, v := range other.Sink {
		canonical := filesink.CanonicalKey(k)
		if canonical != k {
			// The current key wins over its legacy name in the same file.
			if _, dup := other.Sink[canonical]; dup {
				continue
			}
		}
		c.Sink[canonical] = v
	}

	if other.Logger.Level != "" {
		c.Logger.Level = other.Logger.Level
	}
	if other.Logger.TimestampFormat != "" {
		c.Logger.TimestampFormat = other.Logger.TimestampFormat
	}
	if other.Logger.MaxRate != 0 {
		c.Logger.MaxRate = other.Logger.MaxRate
	}
}

// applyEnvOverrides applies TIMELOG_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if c.Sink == nil {
		c.Sink = map[string]any{}
	}
	if v := os.Getenv("TIMELOG_FILENAME_TEMPLATE"); v != "" {
		c.Sink[filesink.KeyFilenameTemplate] = v
	}
	if v := os.Getenv("TIMELOG_DIRECTORY"); v != "" {
		c.Sink[filesink.KeyDirectory] = v
	}
	// Invalid numbers are kept as strings so Validate reports them.
	if v := os.Getenv("TIMELOG_GRANULARITY"); v != "" {
		if g, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			c.Sink[filesink.KeyGranularity] = g
		} else {
			c.Sink[filesink.KeyGranularity] = v
		}
	}
	if v := os.Getenv("TIMELOG_LEVEL"); v != "" {
		c.Logger.Level = v
	}
}

// SinkConfig decodes the sink mapping.
func (c *Config) SinkConfig() (filesink.Config, error) {
	return filesink.ConfigFromMap(c.Sink)
}

// SinkMap returns a copy of the sink mapping with legacy keys normalised.
func (c *Config) SinkMap() (map[string]any, error) {
	sc, err := c.SinkConfig()
	if err != nil {
		return nil, err
	}
	return sc.Map(), nil
}

// LoggerOptions returns the logger options described by the configuration.
func (c *Config) LoggerOptions() ([]logger.Option, error) {
	level, err := logger.ParseLevel(c.Logger.Level)
	if err != nil {
		return nil, errors.InvalidConfiguration(err.Error()).WithDetail("logger.level", c.Logger.Level)
	}
	opts := []logger.Option{logger.WithLevel(level)}
	if c.Logger.TimestampFormat != "" {
		opts = append(opts, logger.WithTimestampFormat(c.Logger.TimestampFormat))
	}
	if c.Logger.MaxRate > 0 {
		opts = append(opts, logger.WithRateLimit(c.Logger.MaxRate))
	}
	return opts, nil
}

// Validate validates the configuration and returns an InvalidConfiguration
// error if it is not usable.
func (c *Config) Validate() error {
	if _, err := c.SinkConfig(); err != nil {
		return err
	}
	if _, err := logger.ParseLevel(c.Logger.Level); err != nil {
		return errors.InvalidConfiguration(fmt.Sprintf("logger.level: %v", err))
	}
	if c.Logger.MaxRate < 0 {
		return errors.InvalidConfiguration(fmt.Sprintf("logger.max_rate must be non-negative, got %d", c.Logger.MaxRate))
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file, creating its directory.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
