package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/timelog/internal/errors"
)

// newPathCmd creates the path command.
func newPathCmd() *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "path",
		Short: "Print the log file path for now or a given time",
		Long: `Print the log file a message would be appended to.

With --at the path is resolved for that instant instead of now, which shows
where a granularity boundary falls.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPath(cmd, at)
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "Resolve for this time (RFC 3339)")

	return cmd
}

func runPath(cmd *cobra.Command, at string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sink, err := openSink(cmd, cfg)
	if err != nil {
		return err
	}

	var path string
	if at != "" {
		t, perr := time.Parse(time.RFC3339, at)
		if perr != nil {
			return errors.InvalidConfiguration(fmt.Sprintf("invalid --at time: %v", perr)).
				WithSuggestion("Use RFC 3339, for example 2023-06-15T10:00:00Z")
		}
		path, err = sink.ResolvePath(t)
	} else {
		path, err = sink.Path()
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
	return err
}
