// Package cmd provides the CLI commands for timelog.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/timelog/internal/config"
	"github.com/Aman-CERP/timelog/internal/errors"
	"github.com/Aman-CERP/timelog/internal/expand"
	"github.com/Aman-CERP/timelog/internal/filesink"
	"github.com/Aman-CERP/timelog/internal/logger"
	"github.com/Aman-CERP/timelog/internal/logging"
	"github.com/Aman-CERP/timelog/pkg/version"
)

// Global flags
var (
	configPath          string
	debugMode           bool
	dirOverride         string
	templateOverride    string
	granularityOverride int64
)

// NewRootCmd creates the root command for the timelog CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timelog",
		Short: "Append log messages to time-rotated files",
		Long: `timelog appends messages to log files whose names come from a strftime
template. The directory may reference %logDir% and environment variables,
and a granularity (in seconds) selects how often a new file is started.

Examples:
  timelog write "deploy finished"
  some-service 2>&1 | timelog pipe --level info
  timelog --granularity 3600 --template 'app-%Y%m%d-%H.log' path
  timelog tail -n 20 --level warning`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("timelog version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a config file (default: ./timelog.yaml)")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.timelog/logs/")
	cmd.PersistentFlags().StringVar(&dirOverride, "dir", "", "Override the directory template")
	cmd.PersistentFlags().StringVar(&templateOverride, "template", "", "Override the filename template")
	cmd.PersistentFlags().Int64Var(&granularityOverride, "granularity", 0, "Override the rotation granularity in seconds")

	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newWriteCmd())
	cmd.AddCommand(newPipeCmd())
	cmd.AddCommand(newPathCmd())
	cmd.AddCommand(newTailCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startLogging installs the diagnostics logger.
func startLogging(cmd *cobra.Command, _ []string) error {
	cfg := logging.DefaultConfig()
	if debugMode {
		cfg = logging.DebugConfig()
	}
	cfg.Stderr = cmd.ErrOrStderr()

	if err := logging.SetupDefault(cfg); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	if debugMode {
		slog.Info("Debug logging enabled",
			slog.String("log_dir", cfg.Directory),
			slog.String("version", version.Version))
	}
	return nil
}

// stopLogging records the end of a debug session. Diagnostics files are
// closed after every record, so nothing needs flushing.
func stopLogging(_ *cobra.Command, _ []string) error {
	if debugMode {
		slog.Info("Debug logging stopped")
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil {
		fmt.Fprint(os.Stderr, errors.FormatForCLI(err))
	}
	return err
}

// loadConfig loads the configuration named by --config, or the usual
// search locations.
func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

// newExpander returns the directory expander with the standard placeholders.
func newExpander() *expand.Environment {
	return expand.New(expand.Vars{"logDir": logging.DefaultLogDir()})
}

// openSink builds the sink from cfg and then applies the command-line
// overrides through the sink's setters.
func openSink(cmd *cobra.Command, cfg *config.Config) (*filesink.Sink, error) {
	sc, err := cfg.SinkConfig()
	if err != nil {
		return nil, err
	}

	sink, err := filesink.New(sc, filesink.WithExpander(newExpander()))
	if err != nil {
		return nil, err
	}

	if err := applyOverrides(cmd, sink); err != nil {
		return nil, err
	}
	return sink, nil
}

// applyOverrides applies --template, --dir and --granularity to sink.
func applyOverrides(cmd *cobra.Command, sink *filesink.Sink) error {
	flags := cmd.Flags()
	if flags.Changed("template") {
		if err := sink.SetFilenameTemplate(templateOverride); err != nil {
			return err
		}
	}
	if flags.Changed("dir") {
		sink.SetDirectory(dirOverride)
	}
	if flags.Changed("granularity") {
		if err := sink.SetGranularity(granularityOverride); err != nil {
			return err
		}
	}
	return nil
}

// newLogger builds the message logger over sink from the logger section of
// cfg. With echo every record written to the file is also printed to the
// command's output.
func newLogger(cmd *cobra.Command, cfg *config.Config, sink logger.Sink, echo bool) (*logger.Logger, error) {
	opts, err := cfg.LoggerOptions()
	if err != nil {
		return nil, err
	}
	if echo {
		sink = teeSink(sink, logger.NewConsoleSink(cmd.OutOrStdout()))
	}
	return logger.New(sink, opts...), nil
}

// teeSink writes to file and, once that succeeded, to console.
func teeSink(file, console logger.Sink) logger.Sink {
	return logger.SinkFunc(func(level logger.Level, message string) error {
		if err := file.Write(level, message); err != nil {
			return err
		}
		return console.Write(level, message)
	})
}

// parseMessageLevel parses the --level flag of write and pipe.
func parseMessageLevel(name string) (logger.Level, error) {
	lvl, err := logger.ParseLevel(name)
	if err != nil {
		return 0, errors.InvalidConfiguration(err.Error()).
			WithDetail("level", name).
			WithSuggestion("Use one of: debug, info, notice, warning, error, critical")
	}
	return lvl, nil
}
