package logging

import (
	"github.com/Aman-CERP/timelog/internal/filesink"
	"github.com/Aman-CERP/timelog/internal/logger"
)

// SinkWriter adapts a filesink.Sink to io.Writer. Every Write call is one
// append, so it should receive whole records (slog handlers do).
type SinkWriter struct {
	sink  *filesink.Sink
	level logger.Level
}

// NewSinkWriter creates a writer that appends to sink. level is reported to
// the sink's MessageWritten listeners.
func NewSinkWriter(sink *filesink.Sink, level logger.Level) *SinkWriter {
	return &SinkWriter{sink: sink, level: level}
}

// Write implements io.Writer.
func (w *SinkWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := w.sink.Write(w.level, string(p)); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Sink returns the underlying sink.
func (w *SinkWriter) Sink() *filesink.Sink {
	return w.sink
}
