package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tlerrors "github.com/Aman-CERP/timelog/internal/errors"
	"github.com/Aman-CERP/timelog/internal/filesink"
	"github.com/Aman-CERP/timelog/internal/logger"
)

// isolate points the user config at an empty directory and clears TIMELOG_*
// overrides so the host environment cannot leak into a test.
func isolate(t *testing.T) string {
	t.Helper()
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	for _, k := range []string{"TIMELOG_FILENAME_TEMPLATE", "TIMELOG_DIRECTORY", "TIMELOG_GRANULARITY", "TIMELOG_LEVEL"} {
		t.Setenv(k, "")
	}
	return xdg
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// =============================================================================
// Defaults
// =============================================================================

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	cfg := NewConfig()

	require.NotNil(t, cfg)
	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, logger.DefaultTimestampFormat, cfg.Logger.TimestampFormat)
	assert.Equal(t, 0, cfg.Logger.MaxRate)

	sc, err := cfg.SinkConfig()
	require.NoError(t, err)
	assert.Equal(t, filesink.DefaultConfig(), sc)
}

// =============================================================================
// File loading
// =============================================================================

func TestLoad_NoConfigFile_ReturnsDefaults(t *testing.T) {
	// Given: an empty working directory and no user config
	isolate(t)
	t.Chdir(t.TempDir())

	// When: loading without an explicit path
	cfg, err := Load("")

	// Then: defaults are returned
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Path())
	sc, err := cfg.SinkConfig()
	require.NoError(t, err)
	assert.Equal(t, filesink.DefaultConfig(), sc)
}

func TestLoad_ExplicitFile_OverridesDefaults(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	writeFile(t, path, `
version: 1
sink:
  filenameTemplate: "app-%Y%m%d-%H.log"
  directory: /var/log/app
  granularity: 3600
logger:
  level: warning
  timestamp_format: "15:04:05"
  max_rate: 100
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, path, cfg.Path())
	sc, err := cfg.SinkConfig()
	require.NoError(t, err)
	assert.Equal(t, filesink.Config{FilenameTemplate: "app-%Y%m%d-%H.log", Directory: "/var/log/app", Granularity: 3600}, sc)
	assert.Equal(t, "warning", cfg.Logger.Level)
	assert.Equal(t, "15:04:05", cfg.Logger.TimestampFormat)
	assert.Equal(t, 100, cfg.Logger.MaxRate)
}

func TestLoad_PartialSinkKeepsDefaults(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "timelog.yaml")
	writeFile(t, path, `
sink:
  directory: /srv/logs
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	sc, err := cfg.SinkConfig()
	require.NoError(t, err)
	assert.Equal(t, filesink.DefaultFilenameTemplate, sc.FilenameTemplate)
	assert.Equal(t, "/srv/logs", sc.Directory)
	assert.Equal(t, int64(0), sc.Granularity)
}

func TestLoad_LegacySinkKeys(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "timelog.yaml")
	writeFile(t, path, `
sink:
  filenameMask: "old-%Y.log"
  logDir: /old
  retention: 7
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	m, err := cfg.SinkMap()
	require.NoError(t, err)
	assert.Equal(t, "old-%Y.log", m[filesink.KeyFilenameTemplate])
	assert.Equal(t, "/old", m[filesink.KeyDirectory])
	assert.NotContains(t, m, "retention")
}

func TestLoad_FindsProjectConfigInWorkingDirectory(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "timelog.yml"), "sink:\n  granularity: 60\n")
	t.Chdir(dir)

	cfg, err := Load("")

	require.NoError(t, err)
	sc, err := cfg.SinkConfig()
	require.NoError(t, err)
	assert.Equal(t, int64(60), sc.Granularity)
}

func TestLoad_ProjectYamlPreferredOverYml(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "timelog.yaml"), "sink:\n  granularity: 120\n")
	writeFile(t, filepath.Join(dir, "timelog.yml"), "sink:\n  granularity: 60\n")
	t.Chdir(dir)

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(".", "timelog.yaml"), cfg.Path())
}

func TestLoad_UserConfigThenProjectConfig(t *testing.T) {
	// Given: a user config setting two keys and a project config overriding one
	xdg := isolate(t)
	writeFile(t, filepath.Join(xdg, "timelog", "config.yaml"), `
sink:
  directory: /user/logs
  granularity: 86400
logger:
  level: debug
`)
	project := filepath.Join(t.TempDir(), "timelog.yaml")
	writeFile(t, project, "sink:\n  granularity: 3600\n")

	// When: loading
	cfg, err := Load(project)

	// Then: project wins per key, user values survive otherwise
	require.NoError(t, err)
	sc, err := cfg.SinkConfig()
	require.NoError(t, err)
	assert.Equal(t, "/user/logs", sc.Directory)
	assert.Equal(t, int64(3600), sc.Granularity)
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestLoad_LegacyKeyOverridesUserCurrentKey(t *testing.T) {
	xdg := isolate(t)
	writeFile(t, filepath.Join(xdg, "timelog", "config.yaml"), "sink:\n  directory: /user\n")
	project := filepath.Join(t.TempDir(), "timelog.yaml")
	writeFile(t, project, "sink:\n  logDir: /project\n")

	cfg, err := Load(project)

	require.NoError(t, err)
	sc, err := cfg.SinkConfig()
	require.NoError(t, err)
	assert.Equal(t, "/project", sc.Directory)
}

func TestLoad_CurrentKeyWinsOverLegacyKeyInSameFile(t *testing.T) {
	// Given: one file setting both the current and the legacy names
	isolate(t)
	path := filepath.Join(t.TempDir(), "timelog.yaml")
	writeFile(t, path, `
sink:
  logDir: /legacy
  directory: /current
  filenameMask: "legacy.log"
  filenameTemplate: "current.log"
`)

	// When: loading it repeatedly, so map order cannot decide
	for range 20 {
		cfg, err := Load(path)

		// Then: the current names are always used
		require.NoError(t, err)
		sc, err := cfg.SinkConfig()
		require.NoError(t, err)
		assert.Equal(t, "/current", sc.Directory)
		assert.Equal(t, "current.log", sc.FilenameTemplate)
	}
}

func TestLoad_MissingExplicitFile_ReturnsNotFound(t *testing.T) {
	isolate(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.True(t, errors.Is(err, tlerrors.ErrConfigNotFound))
}

func TestLoad_InvalidYaml_ReturnsParseError(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "timelog.yaml")
	writeFile(t, path, "sink:\n  granularity: [invalid yaml syntax\n")

	cfg, err := Load(path)

	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.True(t, errors.Is(err, tlerrors.ErrConfigParse))
	assert.Contains(t, err.Error(), "parse")
}

func TestLoad_NegativeGranularity_ReturnsInvalidConfiguration(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "timelog.yaml")
	writeFile(t, path, "sink:\n  granularity: -60\n")

	cfg, err := Load(path)

	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.True(t, errors.Is(err, tlerrors.ErrInvalidConfiguration))
}

func TestLoad_UnknownLevel_ReturnsInvalidConfiguration(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "timelog.yaml")
	writeFile(t, path, "logger:\n  level: chatty\n")

	_, err := Load(path)

	assert.True(t, errors.Is(err, tlerrors.ErrInvalidConfiguration))
}

// =============================================================================
// Environment overrides
// =============================================================================

func TestLoad_EnvVarsOverrideFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "timelog.yaml")
	writeFile(t, path, `
sink:
  filenameTemplate: file.log
  directory: /file
  granularity: 60
logger:
  level: info
`)
	t.Setenv("TIMELOG_FILENAME_TEMPLATE", "env-%H.log")
	t.Setenv("TIMELOG_DIRECTORY", "/env")
	t.Setenv("TIMELOG_GRANULARITY", "43200")
	t.Setenv("TIMELOG_LEVEL", "error")

	cfg, err := Load(path)

	require.NoError(t, err)
	sc, err := cfg.SinkConfig()
	require.NoError(t, err)
	assert.Equal(t, filesink.Config{FilenameTemplate: "env-%H.log", Directory: "/env", Granularity: 43200}, sc)
	assert.Equal(t, "error", cfg.Logger.Level)
}

func TestLoad_InvalidEnvGranularity_ReturnsInvalidConfiguration(t *testing.T) {
	isolate(t)
	t.Chdir(t.TempDir())
	t.Setenv("TIMELOG_GRANULARITY", "hourly")

	_, err := Load("")

	assert.True(t, errors.Is(err, tlerrors.ErrInvalidConfiguration))
}

func TestLoad_EnvVarEmptyString_DoesNotOverride(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "timelog.yaml")
	writeFile(t, path, "sink:\n  directory: /file\n")

	cfg, err := Load(path)

	require.NoError(t, err)
	sc, err := cfg.SinkConfig()
	require.NoError(t, err)
	assert.Equal(t, "/file", sc.Directory)
}

// =============================================================================
// Validation and options
// =============================================================================

func TestValidate_NegativeMaxRate(t *testing.T) {
	cfg := NewConfig()
	cfg.Logger.MaxRate = -1

	err := cfg.Validate()

	assert.True(t, errors.Is(err, tlerrors.ErrInvalidConfiguration))
}

func TestLoggerOptions(t *testing.T) {
	cfg := NewConfig()
	cfg.Logger.Level = "notice"
	cfg.Logger.MaxRate = 10

	opts, err := cfg.LoggerOptions()
	require.NoError(t, err)

	l := logger.New(logger.SinkFunc(func(logger.Level, string) error { return nil }), opts...)
	assert.Equal(t, logger.LevelNotice, l.Level())
}

func TestLoggerOptions_InvalidLevel(t *testing.T) {
	cfg := NewConfig()
	cfg.Logger.Level = "loud"

	_, err := cfg.LoggerOptions()

	assert.True(t, errors.Is(err, tlerrors.ErrInvalidConfiguration))
}

func TestWriteYAML_RoundTrip(t *testing.T) {
	// Given: a customised configuration
	isolate(t)
	cfg := NewConfig()
	cfg.Sink[filesink.KeyDirectory] = "/var/log/app"
	cfg.Sink[filesink.KeyGranularity] = int64(3600)
	cfg.Logger.Level = "debug"
	path := filepath.Join(t.TempDir(), "nested", "timelog.yaml")

	// When: writing and loading it back
	require.NoError(t, cfg.WriteYAML(path))
	loaded, err := Load(path)

	// Then: values survive
	require.NoError(t, err)
	sc, err := loaded.SinkConfig()
	require.NoError(t, err)
	assert.Equal(t, "/var/log/app", sc.Directory)
	assert.Equal(t, int64(3600), sc.Granularity)
	assert.Equal(t, "debug", loaded.Logger.Level)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "filenameTemplate")
}

func TestGetUserConfigPath_RespectsXDGConfigHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")

	assert.Equal(t, filepath.Join("/custom/config", "timelog", "config.yaml"), GetUserConfigPath())
}

func TestGetUserConfigPath_DefaultsToHomeConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".config", "timelog", "config.yaml"), GetUserConfigPath())
}

func TestUserConfigExists(t *testing.T) {
	xdg := isolate(t)
	assert.False(t, UserConfigExists())

	writeFile(t, filepath.Join(xdg, "timelog", "config.yaml"), "logger:\n  level: debug\n")
	assert.True(t, UserConfigExists())
}

func TestLoadFile_IgnoresEnvironment(t *testing.T) {
	// Given: a file and an environment override
	isolate(t)
	path := filepath.Join(t.TempDir(), "timelog.yaml")
	writeFile(t, path, "sink:\n  granularity: 60\n")
	t.Setenv("TIMELOG_GRANULARITY", "120")

	// When: loading only that file
	cfg, err := LoadFile(path)

	// Then: the file wins and the environment is not applied
	require.NoError(t, err)
	sc, err := cfg.SinkConfig()
	require.NoError(t, err)
	assert.Equal(t, int64(60), sc.Granularity)
	assert.Equal(t, path, cfg.Path())
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, tlerrors.ErrConfigParse))
}
