package cmd

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/timelog/internal/errors"
	"github.com/Aman-CERP/timelog/internal/filesink"
	"github.com/Aman-CERP/timelog/internal/logger"
	"github.com/Aman-CERP/timelog/internal/watcher"
)

// maxLineSize bounds a single piped line.
const maxLineSize = 1024 * 1024

// newPipeCmd creates the pipe command.
func newPipeCmd() *cobra.Command {
	var (
		level string
		watch bool
		echo  bool
	)

	cmd := &cobra.Command{
		Use:   "pipe",
		Short: "Append each line of standard input as a message",
		Long: `Read standard input line by line and append every non-blank line as a
message. Files rotate while the command runs, so a long-lived pipe follows
the granularity.

With --watch the config file is watched and changes to the sink settings
and the logger level are applied without restarting. Command-line overrides
keep precedence over the file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPipe(cmd, level, watch, echo)
		},
	}

	cmd.Flags().StringVarP(&level, "level", "l", "info", "Message level (debug|info|notice|warning|error|critical)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Reload the config file when it changes")
	cmd.Flags().BoolVar(&echo, "echo", false, "Also print each record to stdout, like tee")

	return cmd
}

func runPipe(cmd *cobra.Command, levelName string, watch, echo bool) error {
	lvl, err := parseMessageLevel(levelName)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sink, err := openSink(cmd, cfg)
	if err != nil {
		return err
	}
	log, err := newLogger(cmd, cfg, sink, echo)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if watch {
		watchPath := cfg.Path()
		if watchPath == "" {
			watchPath = "timelog.yaml"
		}
		w, err := watcher.NewFileWatcher(watchPath, watcher.DefaultOptions(), reloadFunc(cmd, sink, log))
		if err != nil {
			return fmt.Errorf("failed to watch config: %w", err)
		}
		g.Go(func() error {
			return w.Run(gctx)
		})
	}

	g.Go(func() error {
		// Reaching EOF ends the pipe and stops the watcher.
		defer cancel()
		return pipeLines(cmd, log, lvl)
	})

	err = g.Wait()
	if log.Dropped() > 0 {
		slog.Warn("messages dropped by rate limit", slog.Uint64("count", log.Dropped()))
	}
	return err
}

// pipeLines appends every non-blank input line. Non-fatal write errors are
// logged and the pipe keeps reading.
func pipeLines(cmd *cobra.Command, log *logger.Logger, lvl logger.Level) error {
	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lines := 0
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := log.Log(lvl, line); err != nil {
			if errors.IsFatal(err) {
				return err
			}
			slog.Warn("failed to append line", errorAttrs(err, slog.Int("line", lines+1))...)
			continue
		}
		lines++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	slog.Debug("pipe finished", slog.Int("lines", lines))
	return nil
}

// errorAttrs renders err as slog attributes, followed by extra.
func errorAttrs(err error, extra ...any) []any {
	fields := errors.FormatForLog(err)
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]any, 0, len(keys)+len(extra))
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, fields[k]))
	}
	return append(attrs, extra...)
}

// reloadFunc re-reads the configuration and applies it to the running sink
// and logger.
func reloadFunc(cmd *cobra.Command, sink *filesink.Sink, log *logger.Logger) watcher.ReloadFunc {
	return func(_ context.Context, ev watcher.FileEvent) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		sc, err := cfg.SinkConfig()
		if err != nil {
			return err
		}
		level, err := logger.ParseLevel(cfg.Logger.Level)
		if err != nil {
			return err
		}

		if err := sink.SetFilenameTemplate(sc.FilenameTemplate); err != nil {
			return err
		}
		sink.SetDirectory(sc.Directory)
		if err := sink.SetGranularity(sc.Granularity); err != nil {
			return err
		}
		if err := applyOverrides(cmd, sink); err != nil {
			return err
		}
		log.SetLevel(level)

		slog.Info("config reloaded",
			slog.String("path", ev.Path),
			slog.String("filename_template", sink.FilenameTemplate()),
			slog.String("directory", sink.Directory()),
			slog.Int64("granularity", sink.Granularity()),
			slog.String("level", level.String()))
		return nil
	}
}
