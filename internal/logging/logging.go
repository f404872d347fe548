package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Aman-CERP/timelog/internal/filesink"
	"github.com/Aman-CERP/timelog/internal/logger"
)

// Config contains diagnostics configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string
	// Directory receives the diagnostics files. Empty means no file logging.
	Directory string
	// FilenameTemplate is the strftime file name (default DiagnosticsTemplate).
	FilenameTemplate string
	// Granularity is the rotation window in seconds (default: one day).
	Granularity int64
	// WriteToStderr whether to also write to stderr.
	WriteToStderr bool
	// Stderr overrides os.Stderr, mainly for tests.
	Stderr io.Writer
}

// DefaultConfig returns quiet defaults: warnings and up on stderr only.
func DefaultConfig() Config {
	return Config{
		Level:            "warn",
		FilenameTemplate: DiagnosticsTemplate,
		Granularity:      86400,
		WriteToStderr:    true,
	}
}

// DebugConfig returns configuration for --debug: everything, to stderr and
// to daily files in the default log directory.
func DebugConfig() Config {
	cfg := DefaultConfig()
	cfg.Level = "debug"
	cfg.Directory = DefaultLogDir()
	return cfg
}

// Setup builds the diagnostics logger. When cfg.Directory is set, records
// are appended through a filesink.Sink, which opens and closes its file on
// every write, so there is nothing to release afterwards.
func Setup(cfg Config) (*slog.Logger, error) {
	var writers []io.Writer

	if cfg.Directory != "" {
		template := cfg.FilenameTemplate
		if template == "" {
			template = DiagnosticsTemplate
		}
		sink, err := filesink.New(filesink.Config{
			FilenameTemplate: template,
			Directory:        cfg.Directory,
			Granularity:      cfg.Granularity,
		}, filesink.WithLogger(slog.New(slog.DiscardHandler)))
		if err != nil {
			return nil, err
		}
		writers = append(writers, NewSinkWriter(sink, logger.LevelDebug))
	}

	if cfg.WriteToStderr {
		stderr := cfg.Stderr
		if stderr == nil {
			stderr = os.Stderr
		}
		writers = append(writers, stderr)
	}

	var output io.Writer
	switch len(writers) {
	case 0:
		output = io.Discard
	case 1:
		output = writers[0]
	default:
		output = io.MultiWriter(writers...)
	}

	handler := slog.NewJSONHandler(output, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	})

	return slog.New(handler), nil
}

// SetupDefault sets up logging with cfg and installs it as the slog default.
func SetupDefault(cfg Config) error {
	l, err := Setup(cfg)
	if err != nil {
		return err
	}

	slog.SetDefault(l)
	return nil
}

// parseLevel converts string level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info", "notice":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "critical":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LevelFromString converts string level to slog.Level.
func LevelFromString(level string) slog.Level {
	return parseLevel(level)
}
