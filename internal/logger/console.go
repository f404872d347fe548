package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var levelStyles = map[Level]lipgloss.Style{
	LevelDebug:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	LevelNotice:   lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	LevelWarning:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	LevelError:    lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	LevelCritical: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
}

// StyleFor returns the terminal style used for level. Info is unstyled.
func StyleFor(level Level) lipgloss.Style {
	if style, ok := levelStyles[level]; ok {
		return style
	}
	return lipgloss.NewStyle()
}

// ConsoleSink writes formatted messages to a terminal or any io.Writer.
// Colour is enabled only when the writer is a TTY.
type ConsoleSink struct {
	mu    sync.Mutex
	w     io.Writer
	color bool
}

// NewConsoleSink creates a sink writing to w (os.Stderr when nil).
func NewConsoleSink(w io.Writer) *ConsoleSink {
	if w == nil {
		w = os.Stderr
	}
	return &ConsoleSink{w: w, color: isTerminal(w)}
}

// SetColor forces colour output on or off.
func (s *ConsoleSink) SetColor(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.color = enabled
}

// Write outputs message, coloured by level when enabled.
func (s *ConsoleSink) Write(level Level, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.color {
		if style, ok := levelStyles[level]; ok {
			body := strings.TrimSuffix(message, "\n")
			message = style.Render(body) + message[len(body):]
		}
	}
	_, err := io.WriteString(s.w, message)
	return err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
