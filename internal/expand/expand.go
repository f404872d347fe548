// Package expand resolves directory templates into concrete paths.
//
// Two kinds of references are supported:
//   - %name% placeholders looked up in a fixed variable table supplied at
//     startup (for example %logDir%). %% is a literal percent sign.
//   - shell-style $VAR, ${VAR} and ${VAR:-default} references resolved
//     against the process environment, plus a leading ~ for the home directory.
//
// An unknown %name% placeholder is an error, so a typo in a configured log
// directory is reported instead of silently producing a relative path.
package expand

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mvdan.cc/sh/v3/shell"
)

// Expander resolves a template into a concrete string.
type Expander interface {
	Expand(template string) (string, error)
}

// Func adapts a plain function to the Expander interface.
type Func func(template string) (string, error)

// Expand calls f(template).
func (f Func) Expand(template string) (string, error) {
	return f(template)
}

// Vars is the %name% placeholder table.
type Vars map[string]string

// Environment is the default Expander.
type Environment struct {
	vars   Vars
	getenv func(string) string
	home   func() (string, error)
}

// Option configures an Environment.
type Option func(*Environment)

// WithGetenv overrides the environment lookup (defaults to os.Getenv).
func WithGetenv(fn func(string) string) Option {
	return func(e *Environment) {
		e.getenv = fn
	}
}

// WithHomeDir overrides the home directory lookup used for ~.
func WithHomeDir(fn func() (string, error)) Option {
	return func(e *Environment) {
		e.home = fn
	}
}

// New creates an Environment expander with the given placeholder table.
func New(vars Vars, opts ...Option) *Environment {
	e := &Environment{
		vars:   make(Vars, len(vars)),
		getenv: os.Getenv,
		home:   os.UserHomeDir,
	}
	for k, v := range vars {
		e.vars[k] = v
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Set adds or replaces a placeholder.
func (e *Environment) Set(name, value string) {
	e.vars[name] = value
}

// Expand resolves shell references first and then %name% placeholders, so
// placeholder values are inserted verbatim.
func (e *Environment) Expand(template string) (string, error) {
	s, err := e.expandHome(template)
	if err != nil {
		return "", err
	}

	s, err = shell.Expand(s, e.getenv)
	if err != nil {
		return "", fmt.Errorf("expand %q: %w", template, err)
	}

	return e.expandPlaceholders(s)
}

func (e *Environment) expandHome(s string) (string, error) {
	if s != "~" && !strings.HasPrefix(s, "~/") {
		return s, nil
	}
	home, err := e.home()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.ToSlash(home) + s[1:], nil
}

func (e *Environment) expandPlaceholders(s string) (string, error) {
	if !strings.Contains(s, "%") {
		return s, nil
	}

	var sb strings.Builder
	sb.Grow(len(s))

	for {
		start := strings.IndexByte(s, '%')
		if start < 0 {
			sb.WriteString(s)
			return sb.String(), nil
		}
		sb.WriteString(s[:start])

		end := strings.IndexByte(s[start+1:], '%')
		if end < 0 {
			return "", fmt.Errorf("unterminated placeholder in %q", s)
		}
		name := s[start+1 : start+1+end]
		s = s[start+end+2:]

		if name == "" {
			sb.WriteByte('%')
			continue
		}
		value, ok := e.vars[name]
		if !ok {
			return "", fmt.Errorf("unknown placeholder %%%s%%", name)
		}
		sb.WriteString(value)
	}
}
