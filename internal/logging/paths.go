package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Aman-CERP/timelog/internal/filesink"
)

// DiagnosticsTemplate names the daily diagnostics file written with --debug.
const DiagnosticsTemplate = "timelog-debug-%Y-%m-%d.log"

// DefaultLogDir returns the default log directory (~/.timelog/logs/). It is
// the value of the %logDir% placeholder.
// Falls back to temp directory if home directory is unavailable.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".timelog", "logs")
	}
	return filepath.Join(home, ".timelog", "logs")
}

// EnsureLogDir creates the default log directory if it doesn't exist.
func EnsureLogDir() error {
	return os.MkdirAll(DefaultLogDir(), 0o755)
}

// FindLogFile returns the file to view.
// Priority:
//  1. Explicit path (if provided)
//  2. The sink's current file
//
// Returns an error if the file does not exist.
func FindLogFile(explicit string, sink *filesink.Sink) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit, nil
		}
		return "", fmt.Errorf("log file not found: %s", explicit)
	}

	if sink == nil {
		return "", fmt.Errorf("no log file given")
	}
	current, err := sink.Path()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(current); err == nil {
		return current, nil
	}

	return "", fmt.Errorf("no log file for the current period yet.\nExpected at: %s\n\nTo write one:\n  timelog write \"hello\"", current)
}
