package logging

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Aman-CERP/timelog/internal/logger"
)

// plainLine matches the logger's "[timestamp] LEVEL: message" records.
var plainLine = regexp.MustCompile(`^\[([^\]]*)\] ([A-Z]+): ?(.*)$`)

var timestampStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

// LogEntry represents a parsed log line. Both the logger's plain records and
// slog JSON diagnostics are understood.
type LogEntry struct {
	Time    time.Time
	Level   string
	Msg     string
	Attrs   map[string]interface{} // Additional attributes (JSON only)
	Raw     string                 // Original line
	IsValid bool                   // Whether parsing succeeded
}

// ViewerConfig configures the log viewer.
type ViewerConfig struct {
	Level           string         // Minimum level
	Pattern         *regexp.Regexp // Filter by pattern
	NoColor         bool           // Disable colors
	TimestampFormat string         // Layout of plain record timestamps
	Location        *time.Location // Zone of plain record timestamps
}

// Viewer provides log viewing and filtering capabilities.
type Viewer struct {
	config ViewerConfig
	out    io.Writer
}

// NewViewer creates a new log viewer.
func NewViewer(cfg ViewerConfig, out io.Writer) *Viewer {
	if cfg.TimestampFormat == "" {
		cfg.TimestampFormat = logger.DefaultTimestampFormat
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Viewer{
		config: cfg,
		out:    out,
	}
}

// Tail reads the last n lines from a log file and returns matching entries.
func (v *Viewer) Tail(path string, n int) ([]LogEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var lines []string
	scanner := bufio.NewScanner(file)
	const maxCapacity = 1024 * 1024 // 1MB
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)

	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}

	start := 0
	if n >= 0 && len(lines) > n {
		start = len(lines) - n
	}
	lines = lines[start:]

	var entries []LogEntry
	for _, line := range lines {
		entry := v.parseLine(line)
		if v.matchesFilter(entry) {
			entries = append(entries, entry)
		}
	}

	return entries, nil
}

// TailMultiple reads the last n lines of each file and returns the merged
// entries in timestamp order, keeping the last n overall.
func (v *Viewer) TailMultiple(paths []string, n int) ([]LogEntry, error) {
	var all []LogEntry
	for _, path := range paths {
		entries, err := v.Tail(path, n)
		if err != nil {
			return nil, err
		}
		all = append(all, entries...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Time.Before(all[j].Time)
	})

	if n >= 0 && len(all) > n {
		all = all[len(all)-n:]
	}
	return all, nil
}

// Follow watches a log file for new entries and sends them to the channel.
// Blocks until context is cancelled.
func (v *Viewer) Follow(ctx context.Context, path string, entries chan<- LogEntry) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek to end: %w", err)
	}

	reader := bufio.NewReader(file)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	var partial string
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for {
				chunk, err := reader.ReadString('\n')
				if err != nil {
					// Keep an unterminated tail for the next tick.
					partial += chunk
					break
				}

				line := strings.TrimSuffix(partial+chunk, "\n")
				partial = ""
				if line == "" {
					continue
				}

				entry := v.parseLine(line)
				if v.matchesFilter(entry) {
					select {
					case entries <- entry:
					case <-ctx.Done():
						return nil
					}
				}
			}
		}
	}
}

// FormatEntry formats a log entry for display.
func (v *Viewer) FormatEntry(entry LogEntry) string {
	if !entry.IsValid {
		return entry.Raw
	}

	timestamp := entry.Time.Format("15:04:05.000")
	if !v.config.NoColor {
		timestamp = timestampStyle.Render(timestamp)
	}

	var attrs []string
	for k, val := range entry.Attrs {
		attrs = append(attrs, fmt.Sprintf("%s=%v", k, val))
	}
	sort.Strings(attrs)
	attrStr := ""
	if len(attrs) > 0 {
		attrStr = " " + strings.Join(attrs, " ")
	}

	return fmt.Sprintf("%s %s %s%s", timestamp, v.formatLevel(entry.Level), entry.Msg, attrStr)
}

// Print prints entries to the output.
func (v *Viewer) Print(entries []LogEntry) {
	for _, entry := range entries {
		_, _ = fmt.Fprintln(v.out, v.FormatEntry(entry))
	}
}

// parseLine parses a plain or JSON log line into a LogEntry.
func (v *Viewer) parseLine(line string) LogEntry {
	if strings.HasPrefix(line, "{") {
		return parseJSONLine(line)
	}

	entry := LogEntry{Raw: line}
	m := plainLine.FindStringSubmatch(line)
	if m == nil {
		return entry
	}
	if _, err := logger.ParseLevel(m[2]); err != nil {
		return entry
	}

	entry.IsValid = true
	entry.Level = m[2]
	entry.Msg = m[3]
	if t, err := time.ParseInLocation(v.config.TimestampFormat, m[1], v.config.Location); err == nil {
		entry.Time = t
	}
	return entry
}

func parseJSONLine(line string) LogEntry {
	entry := LogEntry{Raw: line}

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(line), &data); err != nil {
		return entry
	}

	entry.IsValid = true

	if t, ok := data["time"].(string); ok {
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			entry.Time = parsed
		}
	}
	if l, ok := data["level"].(string); ok {
		entry.Level = l
	}
	if m, ok := data["msg"].(string); ok {
		entry.Msg = m
	}

	entry.Attrs = make(map[string]interface{})
	for k, val := range data {
		if k != "time" && k != "level" && k != "msg" {
			entry.Attrs[k] = val
		}
	}

	return entry
}

// matchesFilter checks if an entry matches the configured filters.
// Unparseable lines pass the level filter so nothing is hidden silently.
func (v *Viewer) matchesFilter(entry LogEntry) bool {
	if v.config.Level != "" && entry.IsValid {
		entryLevel, err := logger.ParseLevel(entry.Level)
		if err == nil {
			filterLevel, _ := logger.ParseLevel(v.config.Level)
			if entryLevel < filterLevel {
				return false
			}
		}
	}

	if v.config.Pattern != nil {
		if !v.config.Pattern.MatchString(entry.Raw) {
			return false
		}
	}

	return true
}

// formatLevel formats the log level, padded and coloured.
func (v *Viewer) formatLevel(level string) string {
	levelStr := strings.ToUpper(level)
	if len(levelStr) > 5 {
		levelStr = levelStr[:5]
	}
	levelStr = fmt.Sprintf("%-5s", levelStr)

	if v.config.NoColor {
		return levelStr
	}

	parsed, err := logger.ParseLevel(level)
	if err != nil {
		return levelStr
	}
	return logger.StyleFor(parsed).Render(levelStr)
}
