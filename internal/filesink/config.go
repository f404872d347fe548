package filesink

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Aman-CERP/timelog/internal/errors"
)

const (
	// DefaultFilenameTemplate produces one file per day.
	DefaultFilenameTemplate = "log-%Y-%m-%d.log"
	// DefaultDirectory is resolved through the %logDir% placeholder, which
	// the caller's expander must define.
	DefaultDirectory = "%logDir%"
)

// Configuration mapping keys.
const (
	KeyFilenameTemplate = "filenameTemplate"
	KeyDirectory        = "directory"
	KeyGranularity      = "granularity"
)

// legacyKeys maps older option names onto the current ones.
var legacyKeys = map[string]string{
	"filenameMask": KeyFilenameTemplate,
	"logDir":       KeyDirectory,
}

// CanonicalKey maps a legacy option name to its current name. Other keys are
// returned unchanged.
func CanonicalKey(key string) string {
	if current, ok := legacyKeys[key]; ok {
		return current
	}
	return key
}

// Config is the sink configuration.
type Config struct {
	// FilenameTemplate is the file name with strftime specifiers.
	FilenameTemplate string
	// Directory is the directory template, expanded on every resolution.
	Directory string
	// Granularity is the rotation window in seconds. 0 and 1 disable bucketing.
	Granularity int64
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		FilenameTemplate: DefaultFilenameTemplate,
		Directory:        DefaultDirectory,
		Granularity:      0,
	}
}

// Validate checks the configuration invariants.
func (c Config) Validate() error {
	if c.Granularity < 0 {
		return errors.InvalidConfiguration("granularity must be greater than or equal to 0").
			WithDetail("granularity", strconv.FormatInt(c.Granularity, 10))
	}
	if c.FilenameTemplate == "" {
		return errors.InvalidConfiguration("filename template must not be empty")
	}
	return nil
}

// Map renders the configuration as a configuration mapping.
func (c Config) Map() map[string]any {
	return map[string]any{
		KeyFilenameTemplate: c.FilenameTemplate,
		KeyDirectory:        c.Directory,
		KeyGranularity:      c.Granularity,
	}
}

// ConfigFromMap builds a Config from a configuration mapping. Unknown keys
// are ignored and missing keys keep their defaults.
func ConfigFromMap(m map[string]any) (Config, error) {
	cfg := DefaultConfig()

	for key, value := range m {
		if current, ok := legacyKeys[key]; ok {
			if _, dup := m[current]; dup {
				continue
			}
			key = current
		}

		switch key {
		case KeyFilenameTemplate:
			s, err := asString(key, value)
			if err != nil {
				return Config{}, err
			}
			cfg.FilenameTemplate = s
		case KeyDirectory:
			s, err := asString(key, value)
			if err != nil {
				return Config{}, err
			}
			cfg.Directory = s
		case KeyGranularity:
			g, err := asInt64(key, value)
			if err != nil {
				return Config{}, err
			}
			cfg.Granularity = g
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func asString(key string, v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case fmt.Stringer:
		return s.String(), nil
	default:
		return "", errors.InvalidConfiguration(fmt.Sprintf("%s must be a string, got %T", key, v))
	}
}

func asInt64(key string, v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		if uint64(n) > math.MaxInt64 {
			break
		}
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			break
		}
		return int64(n), nil
	case float64:
		if n == math.Trunc(n) && !math.IsInf(n, 0) {
			return int64(n), nil
		}
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err == nil {
			return i, nil
		}
	}
	return 0, errors.InvalidConfiguration(fmt.Sprintf("%s must be an integer, got %v", key, v))
}
