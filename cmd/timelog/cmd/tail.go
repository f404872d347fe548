package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"regexp"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/timelog/internal/filesink"
	"github.com/Aman-CERP/timelog/internal/logging"
)

type tailOptions struct {
	follow      bool
	lines       int
	level       string
	filter      string
	noColor     bool
	logFile     string
	diagnostics bool
}

// newTailCmd creates the tail command.
func newTailCmd() *cobra.Command {
	var opts tailOptions

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Show the last messages of the current log file",
		Long: `Show the last messages of the log file for the current period.

Examples:
  timelog tail                    # Last 50 messages
  timelog tail -n 100             # Last 100 messages
  timelog tail -f                 # Follow new messages
  timelog tail --level warning    # Warnings and worse
  timelog tail --filter "deploy"  # Messages matching a regex
  timelog tail --diagnostics      # timelog's own --debug output`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTail(cmd, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.follow, "follow", "f", false, "Follow log output (like tail -f)")
	cmd.Flags().IntVarP(&opts.lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().StringVar(&opts.level, "level", "", "Minimum level to show")
	cmd.Flags().StringVar(&opts.filter, "filter", "", "Filter by pattern (regex)")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	cmd.Flags().StringVar(&opts.logFile, "file", "", "Path to log file (default: current file)")
	cmd.Flags().BoolVar(&opts.diagnostics, "diagnostics", false, "Show today's diagnostics file instead")

	return cmd
}

func runTail(cmd *cobra.Command, opts tailOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var sink *filesink.Sink
	if opts.logFile == "" {
		if opts.diagnostics {
			sink, err = filesink.New(filesink.Config{
				FilenameTemplate: logging.DiagnosticsTemplate,
				Directory:        logging.DefaultLogDir(),
				Granularity:      86400,
			})
		} else {
			sink, err = openSink(cmd, cfg)
		}
		if err != nil {
			return err
		}
	}

	path, err := logging.FindLogFile(opts.logFile, sink)
	if err != nil {
		return err
	}

	var pattern *regexp.Regexp
	if opts.filter != "" {
		pattern, err = regexp.Compile(opts.filter)
		if err != nil {
			return fmt.Errorf("invalid filter pattern: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	viewer := logging.NewViewer(logging.ViewerConfig{
		Level:           opts.level,
		Pattern:         pattern,
		NoColor:         opts.noColor || !isTerminal(out),
		TimestampFormat: cfg.Logger.TimestampFormat,
	}, out)

	fmt.Fprintf(cmd.ErrOrStderr(), "Log file: %s\n", path)

	if opts.follow {
		fmt.Fprintln(cmd.ErrOrStderr(), "Following... (Ctrl+C to stop)")
		return runFollow(cmd.Context(), cmd, viewer, path)
	}

	entries, err := viewer.Tail(path, opts.lines)
	if err != nil {
		return err
	}
	viewer.Print(entries)
	return nil
}

func runFollow(ctx context.Context, cmd *cobra.Command, viewer *logging.Viewer, path string) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	entries := make(chan logging.LogEntry, 100)
	errCh := make(chan error, 1)

	go func() {
		errCh <- viewer.Follow(ctx, path, entries)
	}()

	for {
		select {
		case entry := <-entries:
			fmt.Fprintln(cmd.OutOrStdout(), viewer.FormatEntry(entry))
		case err := <-errCh:
			return err
		case <-ctx.Done():
			fmt.Fprintln(cmd.ErrOrStderr(), "Stopped.")
			return nil
		}
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd())
}
