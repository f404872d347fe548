// Package logger provides the level-filtering, formatting front end that
// feeds a pluggable Sink. Sinks only implement the final write; everything
// upstream of it (threshold, timestamp prefix, rate limit) lives here.
package logger

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// DefaultTimestampFormat is the layout used for the message prefix.
const DefaultTimestampFormat = "2006-01-02 15:04:05"

// Sink is the single capability a log destination has to provide.
type Sink interface {
	Write(level Level, message string) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(level Level, message string) error

// Write calls f(level, message).
func (f SinkFunc) Write(level Level, message string) error {
	return f(level, message)
}

// Logger filters messages by level, formats them and hands them to a Sink.
type Logger struct {
	sink            Sink
	level           atomic.Int32
	timestampFormat string
	clock           func() time.Time
	limiter         *rate.Limiter
	dropped         atomic.Uint64
}

// Option configures a Logger.
type Option func(*Logger)

// WithLevel sets the minimum level (default LevelInfo).
func WithLevel(level Level) Option {
	return func(l *Logger) {
		l.level.Store(int32(level))
	}
}

// WithTimestampFormat sets the time layout of the message prefix.
func WithTimestampFormat(layout string) Option {
	return func(l *Logger) {
		if layout != "" {
			l.timestampFormat = layout
		}
	}
}

// WithClock overrides time.Now, mainly for tests.
func WithClock(clock func() time.Time) Option {
	return func(l *Logger) {
		l.clock = clock
	}
}

// WithRateLimit drops messages beyond perSecond (burst perSecond).
// Zero or negative disables limiting.
func WithRateLimit(perSecond int) Option {
	return func(l *Logger) {
		if perSecond > 0 {
			l.limiter = rate.NewLimiter(rate.Limit(perSecond), perSecond)
		}
	}
}

// New creates a Logger writing to sink.
func New(sink Sink, opts ...Option) *Logger {
	l := &Logger{
		sink:            sink,
		timestampFormat: DefaultTimestampFormat,
		clock:           time.Now,
	}
	l.level.Store(int32(LevelInfo))
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SetLevel updates the minimum level at runtime.
func (l *Logger) SetLevel(level Level) {
	l.level.Store(int32(level))
}

// Level returns the minimum level.
func (l *Logger) Level() Level {
	return Level(l.level.Load())
}

// Dropped returns how many messages the rate limiter discarded.
func (l *Logger) Dropped() uint64 {
	return l.dropped.Load()
}

// Log formats message and writes it to the sink. Messages below the
// minimum level, or over the rate limit, are skipped without error.
func (l *Logger) Log(level Level, message string) error {
	if level < l.Level() {
		return nil
	}
	if l.limiter != nil && !l.limiter.Allow() {
		l.dropped.Add(1)
		return nil
	}
	return l.sink.Write(level, l.format(level, message))
}

// Logf is Log with fmt.Sprintf formatting.
func (l *Logger) Logf(level Level, format string, args ...any) error {
	return l.Log(level, fmt.Sprintf(format, args...))
}

func (l *Logger) Debug(message string) error    { return l.Log(LevelDebug, message) }
func (l *Logger) Info(message string) error     { return l.Log(LevelInfo, message) }
func (l *Logger) Notice(message string) error   { return l.Log(LevelNotice, message) }
func (l *Logger) Warning(message string) error  { return l.Log(LevelWarning, message) }
func (l *Logger) Error(message string) error    { return l.Log(LevelError, message) }
func (l *Logger) Critical(message string) error { return l.Log(LevelCritical, message) }

// format renders "[timestamp] LEVEL: message\n". A trailing newline in
// message is kept as the record terminator rather than doubled.
func (l *Logger) format(level Level, message string) string {
	var sb strings.Builder
	sb.Grow(len(message) + len(l.timestampFormat) + 16)

	sb.WriteByte('[')
	sb.WriteString(l.clock().Format(l.timestampFormat))
	sb.WriteString("] ")
	sb.WriteString(level.String())
	sb.WriteString(": ")
	sb.WriteString(message)
	if !strings.HasSuffix(message, "\n") {
		sb.WriteByte('\n')
	}
	return sb.String()
}
