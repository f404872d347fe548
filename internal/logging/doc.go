// Package logging provides timelog's own diagnostics and the log viewer.
//
// Diagnostics are structured slog records. With --debug they are also
// written through a filesink.Sink to ~/.timelog/logs/, so they rotate by
// time like any other timelog output. Without --debug only warnings reach
// stderr.
package logging
