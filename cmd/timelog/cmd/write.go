package cmd

import (
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
)

// newWriteCmd creates the write command.
func newWriteCmd() *cobra.Command {
	var (
		level string
		echo  bool
	)

	cmd := &cobra.Command{
		Use:   "write MESSAGE...",
		Short: "Append one message to the current log file",
		Long: `Append one message to the log file for the current time period.

The arguments are joined with spaces. The file and its directory are created
when missing.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWrite(cmd, level, echo, strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVarP(&level, "level", "l", "info", "Message level (debug|info|notice|warning|error|critical)")
	cmd.Flags().BoolVar(&echo, "echo", false, "Also print the record to stdout")

	return cmd
}

func runWrite(cmd *cobra.Command, levelName string, echo bool, message string) error {
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

	if err := log.Log(lvl, message); err != nil {
		return err
	}

	slog.Debug("message written",
		slog.String("level", lvl.String()),
		slog.Int("bytes", len(message)))
	return nil
}
